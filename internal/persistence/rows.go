package persistence

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

// Amounts are stored as decimal text in every SQL backend so no precision is
// lost to floating point columns.

type handHead struct {
	HandID       int64
	GameID       int64
	TableName    string
	TableSize    int
	ButtonSeat   int
	PlayerCount  int
	GameFormat   string
	BuyIn        string
	Rake         string
	PlayedDate   string
	PlayedHour   string
	Dealer       string
	DealerPseudo string
	SmallBlind   string
	BigBlind     string
	Ante         string
	TotalPot     string
	PotRake      string
	HasAnomaly   bool
	ContentHash  string
}

type seatRow struct {
	Position   string
	Seat       int
	Pseudo     string
	Stack      string
	Card0      string
	Card1      string
	Won        *string
	Returned   *string
	PocketCode string
}

type actionRow struct {
	Street   int
	Index    int
	Position string
	Kind     string
	Amount   string
}

// boardRow is one community card; Index counts within its street.
type boardRow struct {
	Street int
	Index  int
	Card   string
}

type handRows struct {
	head      handHead
	seats     []seatRow
	board     []boardRow
	actions   []actionRow
	anomalies []parser.HandAnomaly
}

func encodeHand(h *parser.Hand) handRows {
	rows := handRows{
		head: handHead{
			HandID:       h.HandID,
			GameID:       h.GameID,
			TableName:    h.TableName,
			TableSize:    h.TableSize,
			ButtonSeat:   h.ButtonSeat,
			PlayerCount:  h.PlayerCount,
			GameFormat:   h.GameFormat,
			BuyIn:        h.BuyIn.String(),
			Rake:         h.Rake.String(),
			PlayedDate:   h.Date,
			PlayedHour:   h.Hour,
			Dealer:       string(h.Dealer),
			DealerPseudo: h.DealerPseudo,
			SmallBlind:   h.SmallBlind.String(),
			BigBlind:     h.BigBlind.String(),
			Ante:         h.Ante.String(),
			TotalPot:     h.TotalPot.String(),
			PotRake:      h.PotRake.String(),
			HasAnomaly:   h.HasAnomaly(),
			ContentHash:  ContentHash(h),
		},
		anomalies: h.Anomalies,
	}

	for _, pos := range h.Positions() {
		seat := h.Seats[pos]
		row := seatRow{
			Position: string(pos),
			Seat:     seat.Seat,
			Pseudo:   seat.Pseudo,
			Stack:    seat.Stack.String(),
			Card0:    parser.UnknownCard.String(),
			Card1:    parser.UnknownCard.String(),
		}
		if len(seat.Cards) > 0 {
			row.Card0 = seat.Cards[0].String()
		}
		if len(seat.Cards) > 1 {
			row.Card1 = seat.Cards[1].String()
			if cats := stats.ClassifyPocketHand(seat.Cards[0], seat.Cards[1]); len(cats) > 0 {
				row.PocketCode = stats.PocketCategoryCode(cats[0])
			}
		}
		if d, ok := h.Winnings[pos]; ok {
			s := d.String()
			row.Won = &s
		}
		if d, ok := h.Returned[pos]; ok {
			s := d.String()
			row.Returned = &s
		}
		rows.seats = append(rows.seats, row)
	}

	boards := []struct {
		street parser.Street
		cards  []parser.Card
	}{
		{parser.StreetFlop, h.BoardFlop},
		{parser.StreetTurn, h.BoardTurn},
		{parser.StreetRiver, h.BoardRiver},
	}
	for _, b := range boards {
		for i, c := range b.cards {
			rows.board = append(rows.board, boardRow{Street: int(b.street), Index: i, Card: c.String()})
		}
	}

	for _, street := range parser.Streets {
		for i, a := range h.Actions(street) {
			rows.actions = append(rows.actions, actionRow{
				Street:   int(street),
				Index:    i,
				Position: string(a.Position),
				Kind:     a.Kind.String(),
				Amount:   a.Amount.String(),
			})
		}
	}
	return rows
}

func (rows handRows) decode() (*parser.Hand, error) {
	head := rows.head
	h := &parser.Hand{
		HandID:       head.HandID,
		GameID:       head.GameID,
		TableName:    head.TableName,
		TableSize:    head.TableSize,
		ButtonSeat:   head.ButtonSeat,
		PlayerCount:  head.PlayerCount,
		GameFormat:   head.GameFormat,
		Date:         head.PlayedDate,
		Hour:         head.PlayedHour,
		Dealer:       parser.Position(head.Dealer),
		DealerPseudo: head.DealerPseudo,
		Seats:        make(map[parser.Position]parser.SeatInfo, len(rows.seats)),
		PseudoSeats:  make(map[string]parser.Position, len(rows.seats)),
		Winnings:     make(map[parser.Position]decimal.Decimal),
		Returned:     make(map[parser.Position]decimal.Decimal),
		Anomalies:    rows.anomalies,
	}

	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&h.BuyIn, head.BuyIn},
		{&h.Rake, head.Rake},
		{&h.SmallBlind, head.SmallBlind},
		{&h.BigBlind, head.BigBlind},
		{&h.Ante, head.Ante},
		{&h.TotalPot, head.TotalPot},
		{&h.PotRake, head.PotRake},
	}
	for _, a := range amounts {
		d, err := decodeAmount(a.src)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", head.HandID, err)
		}
		*a.dst = d
	}

	for _, row := range rows.seats {
		pos := parser.Position(row.Position)
		stack, err := decodeAmount(row.Stack)
		if err != nil {
			return nil, fmt.Errorf("hand %d seat %d: %w", head.HandID, row.Seat, err)
		}
		h.Seats[pos] = parser.SeatInfo{
			Seat:   row.Seat,
			Pseudo: row.Pseudo,
			Stack:  stack,
			Cards:  []parser.Card{parser.ParseCard(row.Card0), parser.ParseCard(row.Card1)},
		}
		h.PseudoSeats[row.Pseudo] = pos
		if row.Won != nil {
			if h.Winnings[pos], err = decodeAmount(*row.Won); err != nil {
				return nil, fmt.Errorf("hand %d seat %d: %w", head.HandID, row.Seat, err)
			}
		}
		if row.Returned != nil {
			if h.Returned[pos], err = decodeAmount(*row.Returned); err != nil {
				return nil, fmt.Errorf("hand %d seat %d: %w", head.HandID, row.Seat, err)
			}
		}
	}

	board := append([]boardRow(nil), rows.board...)
	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Street != board[j].Street {
			return board[i].Street < board[j].Street
		}
		return board[i].Index < board[j].Index
	})
	for _, row := range board {
		c := parser.ParseCard(row.Card)
		switch parser.Street(row.Street) {
		case parser.StreetFlop:
			h.BoardFlop = append(h.BoardFlop, c)
		case parser.StreetTurn:
			h.BoardTurn = append(h.BoardTurn, c)
		case parser.StreetRiver:
			h.BoardRiver = append(h.BoardRiver, c)
		}
	}

	actions := append([]actionRow(nil), rows.actions...)
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Street != actions[j].Street {
			return actions[i].Street < actions[j].Street
		}
		return actions[i].Index < actions[j].Index
	})
	for _, row := range actions {
		amount, err := decodeAmount(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("hand %d action %d: %w", head.HandID, row.Index, err)
		}
		a := parser.Action{
			Position: parser.Position(row.Position),
			Kind:     parser.ParseActionKind(row.Kind),
			Amount:   amount,
		}
		switch parser.Street(row.Street) {
		case parser.StreetPreflop:
			h.ActionsPreflop = append(h.ActionsPreflop, a)
		case parser.StreetFlop:
			h.ActionsFlop = append(h.ActionsFlop, a)
		case parser.StreetTurn:
			h.ActionsTurn = append(h.ActionsTurn, a)
		case parser.StreetRiver:
			h.ActionsRiver = append(h.ActionsRiver, a)
		}
	}
	return h, nil
}

func decodeAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %q: %w", s, err)
	}
	return d, nil
}

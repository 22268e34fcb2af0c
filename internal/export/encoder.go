// Package export converts parsed hands to the Poker Hand History (PHH) format.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

// ErrEmptyHand is returned when a degenerate hand is exported.
var ErrEmptyHand = errors.New("phh: hand has no id or seats")

// VariantNoLimitHoldem is the PHH code for no-limit Texas hold'em.
const VariantNoLimitHoldem = "NT"

// ToPHH converts a parsed hand. Players are ordered the way PHH expects:
// small blind first and the button last, except heads-up where the button
// posts the small blind and comes first.
func ToPHH(h *parser.Hand) (*HandHistory, error) {
	if h.IsZero() || len(h.Seats) < parser.MinPlayers {
		return nil, ErrEmptyHand
	}

	order := playerOrder(h)
	index := make(map[parser.Position]int, len(order))
	for i, pos := range order {
		index[pos] = i
	}

	n := len(order)
	hh := &HandHistory{
		Variant:           VariantNoLimitHoldem,
		Table:             h.TableName,
		SeatCount:         h.TableSize,
		Seats:             make([]int, n),
		Antes:             make([]Amount, n),
		BlindsOrStraddles: make([]Amount, n),
		MinBet:            amountOf(h.BigBlind),
		StartingStacks:    make([]Amount, n),
		Winnings:          make([]Amount, n),
		Players:           make([]string, n),
		HandID:            strconv.FormatInt(h.HandID, 10),
		Time:              h.Hour,
	}
	for i, pos := range order {
		seat := h.Seats[pos]
		hh.Seats[i] = seat.Seat
		hh.Players[i] = seat.Pseudo
		hh.StartingStacks[i] = amountOf(seat.Stack)
		hh.Antes[i] = amountOf(h.Ante)
		hh.BlindsOrStraddles[i] = amountOf(decimal.Zero)
		hh.Winnings[i] = amountOf(h.Winnings[pos])
	}
	if n == 2 {
		hh.BlindsOrStraddles[0] = amountOf(h.SmallBlind)
		hh.BlindsOrStraddles[1] = amountOf(h.BigBlind)
	} else {
		if i, ok := index[parser.PosSB]; ok {
			hh.BlindsOrStraddles[i] = amountOf(h.SmallBlind)
		}
		if i, ok := index[parser.PosBB]; ok {
			hh.BlindsOrStraddles[i] = amountOf(h.BigBlind)
		}
	}
	hh.Year, hh.Month, hh.Day = splitDate(h.Date)

	hh.Actions = buildActions(h, order, index)

	meta := map[string]any{"total_pot": h.TotalPot.String(), "rake": h.PotRake.String()}
	if h.GameID != 0 {
		meta["tournament"] = strconv.FormatInt(h.GameID, 10)
		meta["buy_in"] = h.BuyIn.String()
	}
	if h.GameFormat != "" {
		meta["game"] = h.GameFormat
	}
	hh.Metadata = meta

	return hh, nil
}

func playerOrder(h *parser.Hand) []parser.Position {
	names := parser.PositionNames(len(h.Seats))
	if names == nil {
		return h.Positions()
	}
	order := make([]parser.Position, 0, len(names))
	if len(names) > 2 {
		names = append(names[1:], names[0])
	}
	for _, pos := range names {
		if _, ok := h.Seats[pos]; ok {
			order = append(order, pos)
		}
	}
	return order
}

func buildActions(h *parser.Hand, order []parser.Position, index map[parser.Position]int) []string {
	player := func(pos parser.Position) string {
		return "p" + strconv.Itoa(index[pos]+1)
	}

	actions := make([]string, 0, len(order)+16)
	for _, pos := range order {
		actions = append(actions, fmt.Sprintf("d dh %s %s", player(pos), joinCards(h.Seats[pos].Cards)))
	}

	folded := make(map[parser.Position]bool)
	for _, street := range parser.Streets {
		switch street {
		case parser.StreetFlop:
			if len(h.BoardFlop) == 0 {
				continue
			}
			actions = append(actions, "d db "+joinCards(h.BoardFlop))
		case parser.StreetTurn:
			if len(h.BoardTurn) == 0 {
				continue
			}
			actions = append(actions, "d db "+joinCards(h.BoardTurn))
		case parser.StreetRiver:
			if len(h.BoardRiver) == 0 {
				continue
			}
			actions = append(actions, "d db "+joinCards(h.BoardRiver))
		}
		for _, a := range h.Actions(street) {
			if _, ok := index[a.Position]; !ok {
				continue
			}
			if line, ok := FormatAction(player(a.Position), a); ok {
				actions = append(actions, line)
			}
			if a.Kind == parser.ActionFold {
				folded[a.Position] = true
			}
		}
	}

	var live []parser.Position
	for _, pos := range order {
		if !folded[pos] {
			live = append(live, pos)
		}
	}
	if len(live) > 1 {
		for _, pos := range live {
			if h.KnownCards(pos) {
				actions = append(actions, fmt.Sprintf("%s sm %s", player(pos), joinCards(h.Seats[pos].Cards)))
			}
		}
	}
	return actions
}

// FormatAction converts one parsed action to a PHH action string. Checks and
// calls share "cc"; bets and raises are written with the total amount.
func FormatAction(player string, a parser.Action) (string, bool) {
	switch a.Kind {
	case parser.ActionFold:
		return player + " f", true
	case parser.ActionCheck, parser.ActionCall:
		return player + " cc", true
	case parser.ActionBet, parser.ActionRaise:
		if !a.Amount.IsPositive() {
			return "", false
		}
		return fmt.Sprintf("%s cbr %s", player, a.Amount.String()), true
	default:
		return "", false
	}
}

func joinCards(cards []parser.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

func splitDate(date string) (year, month, day int) {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return 0, 0, 0
	}
	year, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	day, _ = strconv.Atoi(parts[2])
	return year, month, day
}

// Encode writes the hand history to the provided writer in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeSession writes hands as one PHHS document with a numbered table per hand.
func EncodeSession(w io.Writer, hands []*HandHistory) error {
	session := make(map[string]*HandHistory, len(hands))
	for i, hand := range hands {
		if hand == nil {
			return fmt.Errorf("phh: hand history %d is nil", i+1)
		}
		session[strconv.Itoa(i+1)] = hand
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(session)
}

// DecodeSession reads a PHHS document written by EncodeSession, in table order.
func DecodeSession(r io.Reader) ([]HandHistory, error) {
	sections := make(map[string]HandHistory)
	if _, err := toml.NewDecoder(r).Decode(&sections); err != nil {
		return nil, fmt.Errorf("phh: decode session: %w", err)
	}
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	hands := make([]HandHistory, 0, len(keys))
	for _, k := range keys {
		hands = append(hands, sections[k])
	}
	return hands, nil
}

package parser

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SeatInfo is one seated player as seen at the start of the hand.
type SeatInfo struct {
	Seat   int
	Pseudo string
	Stack  decimal.Decimal
	Cards  []Card // always two entries, UnknownCard when never shown
}

// Hand is the assembled record of one parsed hand. It is built once by
// Parser.Load and not modified afterwards.
type Hand struct {
	HandID      int64
	GameID      int64 // tournament id, 0 for cash games
	TableName   string
	TableSize   int
	ButtonSeat  int
	PlayerCount int
	GameFormat  string
	BuyIn       decimal.Decimal
	Rake        decimal.Decimal
	Date        string // YYYY/MM/DD as printed
	Hour        string // HH:MM:SS as printed

	Dealer       Position
	DealerPseudo string
	SmallBlind   decimal.Decimal
	BigBlind     decimal.Decimal
	Ante         decimal.Decimal

	Seats       map[Position]SeatInfo
	PseudoSeats map[string]Position

	BoardFlop  []Card
	BoardTurn  []Card
	BoardRiver []Card

	ActionsPreflop []Action
	ActionsFlop    []Action
	ActionsTurn    []Action
	ActionsRiver   []Action

	TotalPot  decimal.Decimal
	PotRake   decimal.Decimal
	Winnings  map[Position]decimal.Decimal
	Returned  map[Position]decimal.Decimal // uncalled bets given back
	Anomalies []HandAnomaly
}

// IsZero reports the degenerate record produced from input without a hand id.
func (h *Hand) IsZero() bool {
	return h == nil || h.HandID == 0
}

// Actions returns the action list of one street.
func (h *Hand) Actions(s Street) []Action {
	switch s {
	case StreetPreflop:
		return h.ActionsPreflop
	case StreetFlop:
		return h.ActionsFlop
	case StreetTurn:
		return h.ActionsTurn
	case StreetRiver:
		return h.ActionsRiver
	default:
		return nil
	}
}

// Board returns every community card in deal order.
func (h *Hand) Board() []Card {
	out := make([]Card, 0, len(h.BoardFlop)+len(h.BoardTurn)+len(h.BoardRiver))
	out = append(out, h.BoardFlop...)
	out = append(out, h.BoardTurn...)
	return append(out, h.BoardRiver...)
}

// Positions returns the seated positions in seat order.
func (h *Hand) Positions() []Position {
	out := make([]Position, 0, len(h.Seats))
	for pos := range h.Seats {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return h.Seats[out[i]].Seat < h.Seats[out[j]].Seat })
	return out
}

// HasAnomaly reports whether any recoverable problem was recorded.
func (h *Hand) HasAnomaly() bool {
	return h != nil && len(h.Anomalies) > 0
}

// KnownCards reports whether every hole card of pos was observed, either dealt
// to the exporting player or shown.
func (h *Hand) KnownCards(pos Position) bool {
	seat, ok := h.Seats[pos]
	if !ok {
		return false
	}
	for _, c := range seat.Cards {
		if !c.Known() {
			return false
		}
	}
	return len(seat.Cards) > 0
}

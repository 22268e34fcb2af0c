package stats

import (
	"errors"
	"sort"

	poker "github.com/paulhankin/poker"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

// ErrIncompleteBoard is returned when a hand's board has fewer than five cards.
var ErrIncompleteBoard = errors.New("board is not complete")

// ShowdownResult ranks one seat's best five-card hand at the river.
type ShowdownResult struct {
	Position    parser.Position
	Pseudo      string
	Cards       []parser.Card
	Score       int16 // higher is stronger
	Description string
	Best        bool
}

// EvaluateShowdown scores every seat whose two hole cards are known against
// the complete board. Results are sorted strongest first; ties share Best.
func EvaluateShowdown(h *parser.Hand) ([]ShowdownResult, error) {
	board := h.Board()
	if len(board) != 5 {
		return nil, ErrIncompleteBoard
	}

	var results []ShowdownResult
	for _, pos := range h.Positions() {
		seat := h.Seats[pos]
		if len(seat.Cards) != 2 || !h.KnownCards(pos) {
			continue
		}
		var seven [7]poker.Card
		all := append(append([]parser.Card{}, seat.Cards...), board...)
		for i, c := range all {
			pc, err := toPH(c)
			if err != nil {
				return nil, err
			}
			seven[i] = pc
		}
		res := ShowdownResult{
			Position: pos,
			Pseudo:   seat.Pseudo,
			Cards:    append([]parser.Card(nil), seat.Cards...),
			Score:    poker.Eval7(&seven),
		}
		if desc, err := poker.Describe(seven[:]); err == nil {
			res.Description = desc
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	for i := range results {
		results[i].Best = results[i].Score == results[0].Score
	}
	return results, nil
}

// toPH converts a card to the evaluator's representation (ace is rank 1).
func toPH(c parser.Card) (poker.Card, error) {
	var (
		s    poker.Suit
		zero poker.Card
	)
	switch c.Suit {
	case parser.SuitClubs:
		s = poker.Club
	case parser.SuitDiamonds:
		s = poker.Diamond
	case parser.SuitHearts:
		s = poker.Heart
	case parser.SuitSpades:
		s = poker.Spade
	default:
		return zero, errors.New("card has no suit")
	}
	r := poker.Rank(c.Rank.Value())
	if c.Rank == parser.RankAce {
		r = poker.Rank(1)
	}
	return poker.MakeCard(s, r)
}

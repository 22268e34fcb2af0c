package stats

import (
	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

// investedAmount returns what pos put into the pot: ante, posted blind and
// every street's contribution, less any uncalled bet returned. Calls and bets
// add their amount; a raise sets the street total to the raised-to amount.
func investedAmount(h *parser.Hand, pos parser.Position) decimal.Decimal {
	total := h.Ante

	for _, street := range parser.Streets {
		committed := decimal.Zero
		if street == parser.StreetPreflop {
			committed = postedBlind(h, pos)
		}
		for _, a := range h.Actions(street) {
			if a.Position != pos {
				continue
			}
			switch a.Kind {
			case parser.ActionCall, parser.ActionBet:
				committed = committed.Add(a.Amount)
			case parser.ActionRaise:
				committed = a.Amount
			}
		}
		total = total.Add(committed)
	}
	return total.Sub(h.Returned[pos])
}

// postedBlind is the forced bet of pos before any action. Heads-up the button
// posts the small blind.
func postedBlind(h *parser.Hand, pos parser.Position) decimal.Decimal {
	switch pos {
	case parser.PosBB:
		return h.BigBlind
	case parser.PosSB:
		return h.SmallBlind
	case parser.PosBTN:
		if len(h.Seats) == 2 {
			return h.SmallBlind
		}
	}
	return decimal.Zero
}

// foldedPositions returns every position that folded on any street.
func foldedPositions(h *parser.Hand) map[parser.Position]bool {
	out := make(map[parser.Position]bool)
	for _, street := range parser.Streets {
		for _, a := range h.Actions(street) {
			if a.Kind == parser.ActionFold {
				out[a.Position] = true
			}
		}
	}
	return out
}

// wentToShowdown reports whether pos stayed in until the end of a hand that
// more than one player contested to the end.
func wentToShowdown(h *parser.Hand, pos parser.Position, folded map[parser.Position]bool) bool {
	if folded[pos] {
		return false
	}
	remaining := 0
	for p := range h.Seats {
		if !folded[p] {
			remaining++
		}
	}
	return remaining >= 2 && len(h.Board()) == 5
}

package stats

import "github.com/AkatukiSora/pokertracker/internal/parser"

// PreflopFlags summarises one seat's preflop decisions.
type PreflopFlags struct {
	VPIP          bool // called or raised voluntarily; the big blind checking does not count
	PFR           bool // raised preflop
	ThreeBet      bool // re-raised a single raise
	ThreeBetOpp   bool // acted while facing exactly one raise
	FoldTo3Bet    bool // opened, got re-raised and folded
	FoldTo3BetOpp bool // opened and had to act facing a re-raise
	FoldedPF      bool
}

// ComputePreflopFlags derives per-position flags from the preflop action list. Posted
// blinds are not actions; the big blind is the first bet level.
func ComputePreflopFlags(h *parser.Hand) map[parser.Position]PreflopFlags {
	out := make(map[parser.Position]PreflopFlags, len(h.Seats))
	for pos := range h.Seats {
		out[pos] = PreflopFlags{}
	}

	level := 1
	var opener parser.Position
	for _, a := range h.ActionsPreflop {
		f := out[a.Position]
		if level == 2 && a.Position != opener {
			f.ThreeBetOpp = true
		}
		if level == 3 && a.Position == opener {
			f.FoldTo3BetOpp = true
			if a.Kind == parser.ActionFold {
				f.FoldTo3Bet = true
			}
		}

		switch a.Kind {
		case parser.ActionCall:
			f.VPIP = true
		case parser.ActionBet, parser.ActionRaise:
			f.VPIP = true
			f.PFR = true
			switch level {
			case 1:
				opener = a.Position
			case 2:
				f.ThreeBet = true
			}
			level++
		case parser.ActionFold:
			f.FoldedPF = true
		}
		out[a.Position] = f
	}
	return out
}

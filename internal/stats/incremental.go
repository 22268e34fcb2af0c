package stats

import (
	"sort"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

// Accumulator aggregates statistics for every pseudo it sees.
// Feed hands one by one, then call Player or Players for a snapshot.
// This avoids re-scanning the full hand history on every update.
type Accumulator struct {
	players map[string]*playerAccumulator
	hands   int
}

type playerAccumulator struct {
	s  *PlayerStats
	ma *metricAccumulator
}

func NewAccumulator() *Accumulator {
	return &Accumulator{players: make(map[string]*playerAccumulator)}
}

// Eligible reports whether a hand may feed statistics: it needs a hand id and
// no warning-level anomaly, since those may have left amounts or positions unset.
func Eligible(h *parser.Hand) bool {
	if h.IsZero() {
		return false
	}
	for _, a := range h.Anomalies {
		if a.Severity == parser.SeverityWarn {
			return false
		}
	}
	return true
}

// Feed processes a single hand for every seated player.
// Ineligible hands are silently skipped.
func (a *Accumulator) Feed(h *parser.Hand) {
	if h == nil || !Eligible(h) {
		return
	}
	a.hands++

	flags := ComputePreflopFlags(h)
	folded := foldedPositions(h)
	sawFlopBoard := len(h.BoardFlop) >= 3

	for pos, seat := range h.Seats {
		pa, ok := a.players[seat.Pseudo]
		if !ok {
			pa = &playerAccumulator{s: newPlayerStats(seat.Pseudo), ma: newMetricAccumulator()}
			a.players[seat.Pseudo] = pa
		}
		s := pa.s
		f := flags[pos]
		won := h.Winnings[pos]
		invested := investedAmount(h, pos)
		showdown := wentToShowdown(h, pos, folded)

		o := seatOutcome{
			pos:        pos,
			flags:      f,
			won:        won.IsPositive(),
			showedDown: showdown,
			sawFlop:    sawFlopBoard && !f.FoldedPF,
		}
		if h.BigBlind.IsPositive() {
			o.hasBB = true
			o.netBB = won.Sub(invested).Div(h.BigBlind).InexactFloat64()
		}

		s.TotalHands++
		ps := s.ensurePosition(pos)
		ps.Hands++

		s.TotalPotWon = s.TotalPotWon.Add(won)
		s.TotalInvested = s.TotalInvested.Add(invested)
		ps.PotWon = ps.PotWon.Add(won)
		ps.Invested = ps.Invested.Add(invested)

		if o.won {
			s.WonHands++
			ps.Won++
		}
		if f.VPIP {
			s.VPIPHands++
			ps.VPIP++
		}
		if f.PFR {
			s.PFRHands++
			ps.PFR++
		}
		if f.ThreeBetOpp {
			s.ThreeBetOpportunities++
			ps.ThreeBetOpp++
		}
		if f.ThreeBet {
			s.ThreeBetHands++
			ps.ThreeBet++
		}
		if f.FoldTo3BetOpp {
			s.FoldTo3BetOpportunities++
			ps.FoldTo3BetOpp++
		}
		if f.FoldTo3Bet {
			s.FoldTo3BetHands++
			ps.FoldTo3Bet++
		}
		if showdown {
			s.ShowdownHands++
			ps.Showdowns++
			if o.won {
				s.WonShowdowns++
				ps.WonShowdowns++
			}
		}
		if len(seat.Cards) == 2 {
			for _, cat := range ClassifyPocketHand(seat.Cards[0], seat.Cards[1]) {
				s.Pockets[cat]++
			}
		}

		pa.ma.consumeHand(h, o)
	}
}

// Player returns a snapshot of one pseudo's statistics.
func (a *Accumulator) Player(pseudo string) (*PlayerStats, bool) {
	pa, ok := a.players[pseudo]
	if !ok {
		return nil, false
	}
	return pa.snapshot(), true
}

// Players returns snapshots for every pseudo, most hands first.
func (a *Accumulator) Players() []*PlayerStats {
	out := make([]*PlayerStats, 0, len(a.players))
	for _, pa := range a.players {
		out = append(out, pa.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalHands != out[j].TotalHands {
			return out[i].TotalHands > out[j].TotalHands
		}
		return out[i].Pseudo < out[j].Pseudo
	})
	return out
}

// HandCount returns the number of eligible hands processed so far.
func (a *Accumulator) HandCount() int {
	return a.hands
}

func (pa *playerAccumulator) snapshot() *PlayerStats {
	out := *pa.s
	out.ByPosition = clonePositionStats(pa.s.ByPosition)
	out.Pockets = make(map[PocketCategory]int, len(pa.s.Pockets))
	for k, v := range pa.s.Pockets {
		out.Pockets[k] = v
	}
	out.Metrics = make(map[MetricID]MetricValue)
	// Finalize a clone so the running accumulator is not mutated.
	pa.ma.clone().finalize(&out)
	return &out
}

func clonePositionStats(in map[parser.Position]*PositionStats) map[parser.Position]*PositionStats {
	out := make(map[parser.Position]*PositionStats, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = nil
			continue
		}
		copyPS := *v
		out[k] = &copyPS
	}
	return out
}

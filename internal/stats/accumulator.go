package stats

import "github.com/AkatukiSora/pokertracker/internal/parser"

type metricAccumulator struct {
	counts       map[MetricID]int
	opps         map[MetricID]int
	aggPostflop  int
	callPostflop int
	foldPostflop int
	bbNet        float64
	bbHands      int
}

func newMetricAccumulator() *metricAccumulator {
	return &metricAccumulator{
		counts: make(map[MetricID]int),
		opps:   make(map[MetricID]int),
	}
}

func (m *metricAccumulator) incOpp(id MetricID) {
	m.opps[id]++
}

func (m *metricAccumulator) incCount(id MetricID) {
	m.counts[id]++
}

// seatOutcome is what one seat did in one hand, computed once per hand.
type seatOutcome struct {
	pos        parser.Position
	flags      PreflopFlags
	won        bool
	showedDown bool
	sawFlop    bool
	netBB      float64
	hasBB      bool
}

func (m *metricAccumulator) consumeHand(h *parser.Hand, o seatOutcome) {
	if h == nil {
		return
	}

	m.incOpp(MetricVPIP)
	if o.flags.VPIP {
		m.incCount(MetricVPIP)
	}
	m.incOpp(MetricPFR)
	if o.flags.PFR {
		m.incCount(MetricPFR)
	}

	if o.flags.ThreeBetOpp {
		m.incOpp(MetricThreeBet)
		if o.flags.ThreeBet {
			m.incCount(MetricThreeBet)
		}
	}
	if o.flags.FoldTo3BetOpp {
		m.incOpp(MetricFoldToThreeBet)
		if o.flags.FoldTo3Bet {
			m.incCount(MetricFoldToThreeBet)
		}
	}

	m.incOpp(MetricWonWithoutSD)
	if o.won && !o.showedDown {
		m.incCount(MetricWonWithoutSD)
	}

	if o.hasBB {
		m.bbNet += o.netBB
		m.bbHands++
	}

	if o.sawFlop {
		m.incOpp(MetricWTSD)
		if o.showedDown {
			m.incCount(MetricWTSD)
		}
		m.incOpp(MetricWWSF)
		if o.won {
			m.incCount(MetricWWSF)
		}
		if o.flags.PFR && lastPreflopAggressor(h) == o.pos {
			m.incOpp(MetricFlopCBet)
			if hasActionOnStreet(h, o.pos, parser.StreetFlop, isAggressiveAction) {
				m.incCount(MetricFlopCBet)
			}
		}
	}

	if o.showedDown {
		m.incOpp(MetricWSD)
		if o.won {
			m.incCount(MetricWSD)
		}
	}

	agg, call, fold := postFlopActionCounts(h, o.pos)
	m.aggPostflop += agg
	m.callPostflop += call
	m.foldPostflop += fold
}

func (m *metricAccumulator) clone() *metricAccumulator {
	out := *m
	out.counts = make(map[MetricID]int, len(m.counts))
	for k, v := range m.counts {
		out.counts[k] = v
	}
	out.opps = make(map[MetricID]int, len(m.opps))
	for k, v := range m.opps {
		out.opps[k] = v
	}
	return &out
}

func (m *metricAccumulator) finalize(s *PlayerStats) {
	if s == nil {
		return
	}

	// Derived count for gap (VPIP - PFR)
	m.opps[MetricGap] = m.opps[MetricVPIP]
	m.counts[MetricGap] = m.counts[MetricVPIP] - m.counts[MetricPFR]

	for _, def := range metricRegistry {
		threshold := confidenceThreshold(def.SampleClass)
		rate := metricRate(def.ID, m.counts[def.ID], m.opps[def.ID], m)
		opp := m.opps[def.ID]
		s.Metrics[def.ID] = MetricValue{
			ID:          def.ID,
			Count:       m.counts[def.ID],
			Opportunity: opp,
			Rate:        rate,
			Confident:   opp >= threshold,
			MinSample:   threshold,
			Format:      def.Format,
		}
	}
}

func metricRate(id MetricID, count, opp int, m *metricAccumulator) float64 {
	switch id {
	case MetricAFq:
		total := m.aggPostflop + m.callPostflop + m.foldPostflop
		m.opps[MetricAFq] = total
		m.counts[MetricAFq] = m.aggPostflop
		if total == 0 {
			return 0
		}
		return float64(m.aggPostflop) / float64(total) * 100
	case MetricAF:
		m.opps[MetricAF] = m.aggPostflop + m.callPostflop
		m.counts[MetricAF] = m.aggPostflop
		if m.callPostflop == 0 {
			return float64(m.aggPostflop)
		}
		return float64(m.aggPostflop) / float64(m.callPostflop)
	case MetricBBPer100:
		m.opps[MetricBBPer100] = m.bbHands
		if m.bbHands == 0 {
			return 0
		}
		return m.bbNet / float64(m.bbHands) * 100
	default:
		if opp == 0 {
			return 0
		}
		return float64(count) / float64(opp) * 100
	}
}

type actionPredicate func(parser.Action) bool

func isAggressiveAction(a parser.Action) bool {
	return a.Kind == parser.ActionBet || a.Kind == parser.ActionRaise
}

func hasActionOnStreet(h *parser.Hand, pos parser.Position, street parser.Street, pred actionPredicate) bool {
	for _, a := range h.Actions(street) {
		if a.Position == pos && pred(a) {
			return true
		}
	}
	return false
}

// lastPreflopAggressor returns the position of the final preflop bet or raise.
func lastPreflopAggressor(h *parser.Hand) parser.Position {
	var pos parser.Position
	for _, a := range h.ActionsPreflop {
		if isAggressiveAction(a) {
			pos = a.Position
		}
	}
	return pos
}

func postFlopActionCounts(h *parser.Hand, pos parser.Position) (agg, call, fold int) {
	for _, street := range []parser.Street{parser.StreetFlop, parser.StreetTurn, parser.StreetRiver} {
		for _, a := range h.Actions(street) {
			if a.Position != pos {
				continue
			}
			switch a.Kind {
			case parser.ActionBet, parser.ActionRaise:
				agg++
			case parser.ActionCall:
				call++
			case parser.ActionFold:
				fold++
			}
		}
	}
	return agg, call, fold
}

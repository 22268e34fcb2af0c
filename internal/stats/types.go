package stats

import (
	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

// PlayerStats holds aggregated statistics for one pseudo.
type PlayerStats struct {
	Pseudo string

	// Hand counts
	TotalHands    int
	WonHands      int
	ShowdownHands int
	WonShowdowns  int

	// Pre-flop stats
	VPIPHands               int
	PFRHands                int
	ThreeBetHands           int
	ThreeBetOpportunities   int
	FoldTo3BetHands         int
	FoldTo3BetOpportunities int

	// Financial
	TotalPotWon   decimal.Decimal
	TotalInvested decimal.Decimal

	ByPosition map[parser.Position]*PositionStats

	// Dealt holdings by category, only for hands whose cards were seen.
	Pockets map[PocketCategory]int

	Metrics map[MetricID]MetricValue
}

// PositionStats holds stats for a specific position
type PositionStats struct {
	Position      parser.Position
	Hands         int
	Won           int
	VPIP          int
	PFR           int
	ThreeBet      int
	ThreeBetOpp   int
	FoldTo3Bet    int
	FoldTo3BetOpp int
	Showdowns     int
	WonShowdowns  int
	PotWon        decimal.Decimal
	Invested      decimal.Decimal
}

func newPlayerStats(pseudo string) *PlayerStats {
	return &PlayerStats{
		Pseudo:     pseudo,
		ByPosition: make(map[parser.Position]*PositionStats),
		Pockets:    make(map[PocketCategory]int),
		Metrics:    make(map[MetricID]MetricValue),
	}
}

func (s *PlayerStats) ensurePosition(pos parser.Position) *PositionStats {
	ps, ok := s.ByPosition[pos]
	if !ok {
		ps = &PositionStats{Position: pos}
		s.ByPosition[pos] = ps
	}
	return ps
}

// NetWon is the total won minus the total invested.
func (s *PlayerStats) NetWon() decimal.Decimal {
	return s.TotalPotWon.Sub(s.TotalInvested)
}

func (s *PlayerStats) VPIPRate() float64 {
	return rate(s.VPIPHands, s.TotalHands)
}

func (s *PlayerStats) PFRRate() float64 {
	return rate(s.PFRHands, s.TotalHands)
}

func (s *PlayerStats) ThreeBetRate() float64 {
	return rate(s.ThreeBetHands, s.ThreeBetOpportunities)
}

func (s *PlayerStats) FoldTo3BetRate() float64 {
	return rate(s.FoldTo3BetHands, s.FoldTo3BetOpportunities)
}

func (s *PlayerStats) WinRate() float64 {
	return rate(s.WonHands, s.TotalHands)
}

func (s *PlayerStats) WSDRate() float64 {
	return rate(s.WonShowdowns, s.ShowdownHands)
}

// Metric returns a computed metric by id.
func (s *PlayerStats) Metric(id MetricID) (MetricValue, bool) {
	if s == nil || s.Metrics == nil {
		return MetricValue{}, false
	}
	m, ok := s.Metrics[id]
	return m, ok
}

// PositionStats rate helpers
func (ps *PositionStats) VPIPRate() float64 {
	return rate(ps.VPIP, ps.Hands)
}

func (ps *PositionStats) PFRRate() float64 {
	return rate(ps.PFR, ps.Hands)
}

func (ps *PositionStats) WinRate() float64 {
	return rate(ps.Won, ps.Hands)
}

func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

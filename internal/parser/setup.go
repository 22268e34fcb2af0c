package parser

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// seating links seats, positions and pseudos for one hand.
type seating struct {
	pseudos   map[Position]string
	positions map[string]Position
	stacks    map[Position]decimal.Decimal
	seats     map[Position]int
	bySeat    map[int]Position
}

func newSeating() seating {
	return seating{
		pseudos:   make(map[Position]string),
		positions: make(map[string]Position),
		stacks:    make(map[Position]decimal.Decimal),
		seats:     make(map[Position]int),
		bySeat:    make(map[int]Position),
	}
}

// extractSetup reads "Seat n: name (stack in chips)" lines and resolves every
// seat to a position label. playerCount and button come from the header.
func extractSetup(text string, playerCount, button int) (seating, []HandAnomaly, error) {
	s := newSeating()
	var anomalies []HandAnomaly

	var lines []seatLine
	var seats []int
	for _, line := range splitLines(text) {
		sl, ok, err := matchSeatLine(line)
		if !ok {
			continue
		}
		if errors.Is(err, ErrLocaleAmount) {
			anomalies = append(anomalies, newAnomaly(AnomalyLocaleAmount, SeverityWarn, "seat %d stack: %v", sl.seat, err))
		}
		lines = append(lines, sl)
		seats = append(seats, sl.seat)
	}
	if len(lines) == 0 {
		return s, anomalies, nil
	}
	if playerCount != len(lines) {
		anomalies = append(anomalies, newAnomaly(AnomalySeatCount, SeverityInfo,
			"header counted %d seats, %d seated with chips", playerCount, len(lines)))
	}

	bySeat, dead, err := assignPositions(seats, button)
	if err != nil {
		return s, anomalies, fmt.Errorf("resolve positions: %w", err)
	}
	if dead {
		anomalies = append(anomalies, newAnomaly(AnomalyDeadButton, SeverityInfo, "button seat %d is empty", button))
	}

	for _, sl := range lines {
		pos := bySeat[sl.seat]
		s.pseudos[pos] = sl.pseudo
		s.positions[sl.pseudo] = pos
		s.stacks[pos] = sl.stack
		s.seats[pos] = sl.seat
		s.bySeat[sl.seat] = pos
	}
	return s, anomalies, nil
}

// positionOf resolves a pseudo to its seated position.
func (s seating) positionOf(pseudo string) (Position, bool) {
	pos, ok := s.positions[pseudo]
	return pos, ok
}

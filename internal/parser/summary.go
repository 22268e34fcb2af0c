package parser

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
)

type summaryInfo struct {
	totalPot decimal.Decimal
	rake     decimal.Decimal
	shown    []revealed
	winnings map[Position]decimal.Decimal
}

// extractSummary reads the pot line and the per-seat result lines of the
// SUMMARY section. Seats are resolved by number, so pseudos decorated with
// "(button)" or "(big blind)" need no special handling.
func extractSummary(text string, seats seating) (summaryInfo, []HandAnomaly) {
	out := summaryInfo{winnings: make(map[Position]decimal.Decimal)}
	var anomalies []HandAnomaly
	locale := func(err error) {
		if errors.Is(err, ErrLocaleAmount) {
			anomalies = append(anomalies, newAnomaly(AnomalyLocaleAmount, SeverityWarn, "summary: %v", err))
		}
	}

	for _, line := range splitLines(text) {
		if d, ok, err := matchAmount(reTotalPot, line); ok {
			if err != nil {
				locale(err)
			} else {
				out.totalPot = d
			}
			if r, ok, err := matchAmount(rePotRake, line); ok {
				if err != nil {
					locale(err)
				} else {
					out.rake = r
				}
			}
			continue
		}

		m := reSummarySeat.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		seat, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pos, ok := seats.bySeat[seat]
		if !ok {
			anomalies = append(anomalies, newAnomaly(AnomalyUnknownPlayer, SeverityWarn, "summary for unseated seat %d", seat))
			continue
		}
		if cards, ok := matchString(reShowedCards, line); ok {
			out.shown = append(out.shown, revealed{pos: pos, cards: ParseCards(cards)})
		}
		if won, ok, err := matchAmount(reWon, line); ok {
			if err != nil {
				locale(err)
			} else {
				out.winnings[pos] = out.winnings[pos].Add(won)
			}
		}
	}
	return out, anomalies
}

package parser

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// streetResult is what one betting-round section contributes to the hand.
type streetResult struct {
	board     []Card
	actions   []Action
	dealt     map[Position][]Card
	returned  map[Position]decimal.Decimal
	anomalies []HandAnomaly
}

// extractStreet reads one betting round. The first line of the flop carries
// the three board cards; on the turn and river only the second bracket group
// is new. Preflop has no board but every line is checked for "Dealt to".
// Scanning stops at the first "Uncalled" line; the amount it returns is kept
// apart from the actions.
func extractStreet(street Street, text string, seats seating) streetResult {
	res := streetResult{
		dealt:    make(map[Position][]Card),
		returned: make(map[Position]decimal.Decimal),
	}
	lines := splitLines(text)
	if len(lines) == 0 {
		return res
	}

	if street != StreetPreflop {
		res.board = streetBoard(street, lines[0])
		lines = lines[1:]
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "Uncalled") {
			if m := reUncalled.FindStringSubmatch(line); m != nil {
				pos, seated := seats.positionOf(m[2])
				if amount, err := parseAmount(m[1]); err == nil && seated {
					res.returned[pos] = res.returned[pos].Add(amount)
				}
			}
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if street == StreetPreflop {
			if m := reDealtTo.FindStringSubmatch(line); m != nil {
				pos, ok := seats.positionOf(m[1])
				if !ok {
					res.anomalies = append(res.anomalies, newAnomaly(AnomalyUnknownPlayer, SeverityWarn, "dealt to unseated %q", m[1]))
					continue
				}
				res.dealt[pos] = ParseCards(m[2])
				continue
			}
		}

		al, ok, err := matchAction(line)
		if err != nil {
			if errors.Is(err, ErrLocaleAmount) {
				res.anomalies = append(res.anomalies, newAnomaly(AnomalyLocaleAmount, SeverityWarn, "%s: %v", street, err))
			}
			continue
		}
		if !ok {
			continue
		}
		pos, ok := seats.positionOf(al.pseudo)
		if !ok {
			res.anomalies = append(res.anomalies, newAnomaly(AnomalyUnknownPlayer, SeverityWarn, "%s action by unseated %q", street, al.pseudo))
			continue
		}
		res.actions = append(res.actions, Action{Position: pos, Kind: al.kind, Amount: al.amount})
	}
	return res
}

// streetBoard reads the board cards revealed on the first line of a street.
func streetBoard(street Street, first string) []Card {
	groups := reBracket.FindAllStringSubmatch(first, -1)
	switch street {
	case StreetFlop:
		if len(groups) >= 1 {
			return ParseCards(groups[0][1])
		}
	case StreetTurn, StreetRiver:
		if len(groups) >= 2 {
			return ParseCards(groups[1][1])
		}
	}
	return nil
}

// extractShowdown returns the cards revealed by "<pseudo>: shows [..]" lines
// in the order they appear.
func extractShowdown(text string, seats seating) ([]revealed, []HandAnomaly) {
	var out []revealed
	var anomalies []HandAnomaly
	for _, line := range splitLines(text) {
		m := reShows.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pos, ok := seats.positionOf(m[1])
		if !ok {
			anomalies = append(anomalies, newAnomaly(AnomalyUnknownPlayer, SeverityWarn, "shows by unseated %q", m[1]))
			continue
		}
		out = append(out, revealed{pos: pos, cards: ParseCards(m[2])})
	}
	return out, anomalies
}

type revealed struct {
	pos   Position
	cards []Card
}

// recordCards stores cards for pos unless an equal-or-longer hand is already known.
func recordCards(known map[Position][]Card, pos Position, cards []Card) {
	existing, ok := known[pos]
	if ok && len(existing) >= len(cards) {
		return
	}
	known[pos] = cards
}

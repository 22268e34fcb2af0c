package parser

// CloneHand returns a fully independent deep copy of h.
// It is exported so that packages that already import parser (e.g. persistence)
// can reuse this instead of maintaining their own copy of the same logic.
func CloneHand(h *Hand) *Hand {
	if h == nil {
		return nil
	}
	c := *h
	c.Seats = make(map[Position]SeatInfo, len(h.Seats))
	for pos, s := range h.Seats {
		s.Cards = append([]Card(nil), s.Cards...)
		c.Seats[pos] = s
	}
	c.PseudoSeats = cloneMap(h.PseudoSeats)
	c.Winnings = cloneMap(h.Winnings)
	c.Returned = cloneMap(h.Returned)
	c.BoardFlop = append([]Card(nil), h.BoardFlop...)
	c.BoardTurn = append([]Card(nil), h.BoardTurn...)
	c.BoardRiver = append([]Card(nil), h.BoardRiver...)
	c.ActionsPreflop = append([]Action(nil), h.ActionsPreflop...)
	c.ActionsFlop = append([]Action(nil), h.ActionsFlop...)
	c.ActionsTurn = append([]Action(nil), h.ActionsTurn...)
	c.ActionsRiver = append([]Action(nil), h.ActionsRiver...)
	c.Anomalies = append([]HandAnomaly(nil), h.Anomalies...)
	return &c
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if len(in) == 0 {
		return make(map[K]V)
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

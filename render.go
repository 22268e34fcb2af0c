package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

func cardsString(cards []parser.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// renderHand prints the seats, board and action log of one hand.
func renderHand(w io.Writer, h *parser.Hand) error {
	title := fmt.Sprintf("Hand #%d", h.HandID)
	if h.GameID != 0 {
		title += fmt.Sprintf(" - Tournament #%d", h.GameID)
	}
	pterm.Fprint(w, pterm.DefaultSection.Sprint(title))
	pterm.Fprintln(w, fmt.Sprintf("%s %s | %s | blinds %s/%s | table '%s' %d-max",
		h.Date, h.Hour, h.GameFormat, h.SmallBlind, h.BigBlind, h.TableName, h.TableSize))

	seats := pterm.TableData{{"Seat", "Pos", "Player", "Stack", "Cards", "Won"}}
	for _, pos := range h.Positions() {
		s := h.Seats[pos]
		won := ""
		if amt, ok := h.Winnings[pos]; ok {
			won = pterm.LightGreen(amt.String())
		}
		seats = append(seats, []string{
			fmt.Sprint(s.Seat), string(pos), s.Pseudo, s.Stack.String(), cardsString(s.Cards), won,
		})
	}
	if err := renderTable(w, seats); err != nil {
		return err
	}

	actions := pterm.TableData{{"Street", "Board", "Actions"}}
	boards := [][]parser.Card{nil, h.BoardFlop, h.BoardTurn, h.BoardRiver}
	for i, street := range parser.Streets {
		list := h.Actions(street)
		if len(list) == 0 && len(boards[i]) == 0 {
			continue
		}
		lines := make([]string, len(list))
		for j, a := range list {
			lines[j] = a.String()
		}
		actions = append(actions, []string{street.String(), cardsString(boards[i]), strings.Join(lines, ", ")})
	}
	if err := renderTable(w, actions); err != nil {
		return err
	}

	pterm.Fprintln(w, fmt.Sprintf("Total pot %s | Rake %s", h.TotalPot, h.PotRake))
	for _, a := range h.Anomalies {
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("[%s] %s: %s", a.Severity, a.Code, a.Detail)))
	}
	pterm.Fprintln(w)
	return nil
}

// renderPlayerStats prints the metric and position tables of one player.
func renderPlayerStats(w io.Writer, ps *stats.PlayerStats) error {
	pterm.Fprint(w, pterm.DefaultSection.Sprint(fmt.Sprintf("%s - %d hands", ps.Pseudo, ps.TotalHands)))

	metrics := pterm.TableData{{"Metric", "Value", "Sample"}}
	for _, def := range stats.MetricDefinitions() {
		m, ok := ps.Metric(def.ID)
		if !ok {
			continue
		}
		value := m.Display()
		if !m.Confident {
			value = pterm.Gray(value)
		}
		metrics = append(metrics, []string{def.Label, value, fmt.Sprintf("%d/%d", m.Count, m.Opportunity)})
	}
	metrics = append(metrics, []string{"Net won", ps.NetWon().String(), ""})
	if err := renderTable(w, metrics); err != nil {
		return err
	}

	positions := pterm.TableData{{"Pos", "Hands", "VPIP", "PFR", "Won"}}
	for _, pos := range parser.PositionNames(parser.MaxPlayers) {
		p, ok := ps.ByPosition[pos]
		if !ok {
			continue
		}
		positions = append(positions, []string{
			string(pos), fmt.Sprint(p.Hands),
			fmt.Sprintf("%.1f%%", p.VPIPRate()), fmt.Sprintf("%.1f%%", p.PFRRate()), p.PotWon.String(),
		})
	}
	if len(positions) > 1 {
		if err := renderTable(w, positions); err != nil {
			return err
		}
	}
	return nil
}

// renderPlayerTable prints one row per player, busiest first.
func renderPlayerTable(w io.Writer, all []*stats.PlayerStats, hands int) error {
	sort.Slice(all, func(i, j int) bool {
		if all[i].TotalHands != all[j].TotalHands {
			return all[i].TotalHands > all[j].TotalHands
		}
		return all[i].Pseudo < all[j].Pseudo
	})
	pterm.Fprint(w, pterm.DefaultSection.Sprint(fmt.Sprintf("%d players over %d hands", len(all), hands)))
	rows := pterm.TableData{{"Player", "Hands", "VPIP", "PFR", "3Bet", "W$SD", "Net"}}
	for _, ps := range all {
		rows = append(rows, []string{
			ps.Pseudo, fmt.Sprint(ps.TotalHands),
			fmt.Sprintf("%.1f%%", ps.VPIPRate()), fmt.Sprintf("%.1f%%", ps.PFRRate()),
			fmt.Sprintf("%.1f%%", ps.ThreeBetRate()), fmt.Sprintf("%.1f%%", ps.WSDRate()),
			ps.NetWon().String(),
		})
	}
	return renderTable(w, rows)
}

func renderTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	pterm.Fprintln(w, out)
	return nil
}

package httpapi

import (
	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

type seatView struct {
	Position parser.Position  `json:"position"`
	Seat     int              `json:"seat"`
	Pseudo   string           `json:"pseudo"`
	Stack    decimal.Decimal  `json:"stack"`
	Cards    []parser.Card    `json:"cards"`
	Won      *decimal.Decimal `json:"won,omitempty"`
}

type actionView struct {
	Position parser.Position   `json:"position"`
	Kind     parser.ActionKind `json:"kind"`
	Amount   decimal.Decimal   `json:"amount"`
}

type anomalyView struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

type handView struct {
	HandID     int64                   `json:"hand_id"`
	GameID     int64                   `json:"game_id,omitempty"`
	Table      string                  `json:"table"`
	TableSize  int                     `json:"table_size"`
	GameFormat string                  `json:"game_format,omitempty"`
	Date       string                  `json:"date"`
	Hour       string                  `json:"hour"`
	ButtonSeat int                     `json:"button_seat"`
	Dealer     string                  `json:"dealer"`
	SmallBlind decimal.Decimal         `json:"small_blind"`
	BigBlind   decimal.Decimal         `json:"big_blind"`
	Ante       decimal.Decimal         `json:"ante"`
	Seats      []seatView              `json:"seats"`
	Board      []parser.Card           `json:"board"`
	Actions    map[string][]actionView `json:"actions"`
	TotalPot   decimal.Decimal         `json:"total_pot"`
	Rake       decimal.Decimal         `json:"rake"`
	Anomalies  []anomalyView           `json:"anomalies,omitempty"`
}

func newHandView(h *parser.Hand) handView {
	v := handView{
		HandID:     h.HandID,
		GameID:     h.GameID,
		Table:      h.TableName,
		TableSize:  h.TableSize,
		GameFormat: h.GameFormat,
		Date:       h.Date,
		Hour:       h.Hour,
		ButtonSeat: h.ButtonSeat,
		Dealer:     h.DealerPseudo,
		SmallBlind: h.SmallBlind,
		BigBlind:   h.BigBlind,
		Ante:       h.Ante,
		Board:      h.Board(),
		Actions:    make(map[string][]actionView, len(parser.Streets)),
		TotalPot:   h.TotalPot,
		Rake:       h.PotRake,
	}
	for _, pos := range h.Positions() {
		seat := h.Seats[pos]
		sv := seatView{Position: pos, Seat: seat.Seat, Pseudo: seat.Pseudo, Stack: seat.Stack, Cards: seat.Cards}
		if won, ok := h.Winnings[pos]; ok {
			sv.Won = &won
		}
		v.Seats = append(v.Seats, sv)
	}
	for _, street := range parser.Streets {
		actions := h.Actions(street)
		list := make([]actionView, 0, len(actions))
		for _, a := range actions {
			list = append(list, actionView{Position: a.Position, Kind: a.Kind, Amount: a.Amount})
		}
		v.Actions[street.String()] = list
	}
	for _, a := range h.Anomalies {
		v.Anomalies = append(v.Anomalies, anomalyView{Code: a.Code, Severity: a.Severity, Detail: a.Detail})
	}
	return v
}

type metricView struct {
	ID          stats.MetricID `json:"id"`
	Label       string         `json:"label"`
	Rate        float64        `json:"rate"`
	Count       int            `json:"count"`
	Opportunity int            `json:"opportunity"`
	Confident   bool           `json:"confident"`
}

type positionView struct {
	Position parser.Position `json:"position"`
	Hands    int             `json:"hands"`
	VPIP     float64         `json:"vpip"`
	PFR      float64         `json:"pfr"`
	WinRate  float64         `json:"win_rate"`
	PotWon   decimal.Decimal `json:"pot_won"`
}

type statsView struct {
	Pseudo     string          `json:"pseudo"`
	Hands      int             `json:"hands"`
	WonHands   int             `json:"won_hands"`
	Showdowns  int             `json:"showdowns"`
	VPIP       float64         `json:"vpip"`
	PFR        float64         `json:"pfr"`
	ThreeBet   float64         `json:"three_bet"`
	FoldTo3Bet float64         `json:"fold_to_three_bet"`
	WSD        float64         `json:"wsd"`
	NetWon     decimal.Decimal `json:"net_won"`
	Metrics    []metricView    `json:"metrics"`
	Positions  []positionView  `json:"positions"`
	Pockets    map[string]int  `json:"pockets"`
}

func newStatsView(ps *stats.PlayerStats) statsView {
	v := statsView{
		Pseudo:     ps.Pseudo,
		Hands:      ps.TotalHands,
		WonHands:   ps.WonHands,
		Showdowns:  ps.ShowdownHands,
		VPIP:       ps.VPIPRate(),
		PFR:        ps.PFRRate(),
		ThreeBet:   ps.ThreeBetRate(),
		FoldTo3Bet: ps.FoldTo3BetRate(),
		WSD:        ps.WSDRate(),
		NetWon:     ps.NetWon(),
		Pockets:    make(map[string]int, len(ps.Pockets)),
	}
	for _, def := range stats.MetricDefinitions() {
		m, ok := ps.Metric(def.ID)
		if !ok {
			continue
		}
		v.Metrics = append(v.Metrics, metricView{
			ID:          def.ID,
			Label:       def.Label,
			Rate:        m.Rate,
			Count:       m.Count,
			Opportunity: m.Opportunity,
			Confident:   m.Confident,
		})
	}
	for _, pos := range parser.PositionNames(parser.MaxPlayers) {
		p, ok := ps.ByPosition[pos]
		if !ok {
			continue
		}
		v.Positions = append(v.Positions, positionView{
			Position: pos,
			Hands:    p.Hands,
			VPIP:     p.VPIPRate(),
			PFR:      p.PFRRate(),
			WinRate:  p.WinRate(),
			PotWon:   p.PotWon,
		})
	}
	for cat, n := range ps.Pockets {
		v.Pockets[stats.PocketCategoryCode(cat)] = n
	}
	return v
}

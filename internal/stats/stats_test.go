package stats

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

const showdownHand = `PokerStars Hand #202004455940: Tournament #2642898548, €0.93+€0.07 EUR Hold'em No Limit - Level I (10/20) - 2019/07/04 21:31:39 CET [2019/07/04 15:31:39 ET]
Table '2642898548 1' 3-max Seat #1 is the button
Seat 1: leti5795 (500 in chips)
Seat 2: onucee (500 in chips)
Seat 3: MaGiCLeTuR (500 in chips)
onucee: posts small blind 10
MaGiCLeTuR: posts big blind 20
*** HOLE CARDS ***
Dealt to MaGiCLeTuR [2s Ah]
leti5795: calls 20
onucee: calls 10
MaGiCLeTuR: checks
*** FLOP *** [5s 8c Tc]
onucee: checks
MaGiCLeTuR: checks
leti5795: checks
*** TURN *** [5s 8c Tc] [2h]
onucee: checks
MaGiCLeTuR: bets 30
leti5795: folds
onucee: calls 30
*** RIVER *** [5s 8c Tc 2h] [8d]
onucee: checks
MaGiCLeTuR: checks
*** SHOW DOWN ***
onucee: shows [7s 9d] (a pair of Eights)
MaGiCLeTuR: shows [2s Ah] (two pair, Eights and Deuces)
MaGiCLeTuR collected 120 from pot
*** SUMMARY ***
Total pot 120 | Rake 0
Board [5s 8c Tc 2h 8d]
Seat 1: leti5795 (button) folded on the Turn
Seat 2: onucee (small blind) showed [7s 9d] and lost with a pair of Eights
Seat 3: MaGiCLeTuR (big blind) showed [2s Ah] and won (120) with two pair, Eights and Deuces
`

func parseHand(t *testing.T, text string) *parser.Hand {
	t.Helper()
	h, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &h
}

func num(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// threeBetHand is a five-handed preflop war: UTG opens, CO 3-bets, BB calls, UTG folds.
func threeBetHand() *parser.Hand {
	seats := map[parser.Position]parser.SeatInfo{}
	pseudos := map[string]parser.Position{}
	for i, pos := range parser.PositionNames(5) {
		name := string(pos) + "-player"
		seats[pos] = parser.SeatInfo{Seat: i + 1, Pseudo: name, Stack: num(1000), Cards: []parser.Card{parser.UnknownCard, parser.UnknownCard}}
		pseudos[name] = pos
	}
	return &parser.Hand{
		HandID:      1,
		SmallBlind:  num(10),
		BigBlind:    num(20),
		Seats:       seats,
		PseudoSeats: pseudos,
		ActionsPreflop: []parser.Action{
			parser.NewAction(parser.PosUTG, parser.ActionRaise, 60),
			parser.NewAction(parser.PosCO, parser.ActionRaise, 180),
			parser.NewAction(parser.PosBTN, parser.ActionFold, 0),
			parser.NewAction(parser.PosSB, parser.ActionFold, 0),
			parser.NewAction(parser.PosBB, parser.ActionCall, 160),
			parser.NewAction(parser.PosUTG, parser.ActionFold, 0),
		},
		Winnings: map[parser.Position]decimal.Decimal{},
		Returned: map[parser.Position]decimal.Decimal{},
	}
}

func TestComputePreflopFlags(t *testing.T) {
	flags := ComputePreflopFlags(threeBetHand())

	tests := []struct {
		pos  parser.Position
		want PreflopFlags
	}{
		{parser.PosUTG, PreflopFlags{VPIP: true, PFR: true, FoldTo3BetOpp: true, FoldTo3Bet: true, FoldedPF: true}},
		{parser.PosCO, PreflopFlags{VPIP: true, PFR: true, ThreeBetOpp: true, ThreeBet: true}},
		{parser.PosBTN, PreflopFlags{FoldedPF: true}},
		{parser.PosSB, PreflopFlags{FoldedPF: true}},
		{parser.PosBB, PreflopFlags{VPIP: true}},
	}
	for _, tt := range tests {
		if got := flags[tt.pos]; got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.pos, got, tt.want)
		}
	}
}

func TestInvestedAmount(t *testing.T) {
	h := threeBetHand()
	tests := map[parser.Position]int64{
		parser.PosUTG: 60,
		parser.PosCO:  180,
		parser.PosBB:  180,
		parser.PosSB:  10,
		parser.PosBTN: 0,
	}
	for pos, want := range tests {
		if got := investedAmount(h, pos); !got.Equal(num(want)) {
			t.Errorf("%s invested %s, want %d", pos, got, want)
		}
	}

	h.Returned[parser.PosCO] = num(120)
	if got := investedAmount(h, parser.PosCO); !got.Equal(num(60)) {
		t.Errorf("CO invested %s after uncalled return, want 60", got)
	}
}

func TestAccumulatorShowdownHand(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(parseHand(t, showdownHand))

	if acc.HandCount() != 1 {
		t.Fatalf("hand count = %d", acc.HandCount())
	}
	bb, ok := acc.Player("MaGiCLeTuR")
	if !ok {
		t.Fatal("missing MaGiCLeTuR")
	}
	if bb.TotalHands != 1 || bb.WonHands != 1 || bb.ShowdownHands != 1 || bb.WonShowdowns != 1 {
		t.Errorf("BB counts = %+v", bb)
	}
	if !bb.TotalInvested.Equal(num(50)) || !bb.NetWon().Equal(num(70)) {
		t.Errorf("BB invested %s net %s", bb.TotalInvested, bb.NetWon())
	}
	if bb.VPIPHands != 0 {
		t.Errorf("checking the big blind is not VPIP")
	}
	if bb.Pockets[PocketAx] != 1 {
		t.Errorf("pockets = %v", bb.Pockets)
	}
	if m, _ := bb.Metric(MetricBBPer100); math.Abs(m.Rate-350) > 1e-9 {
		t.Errorf("bb/100 = %f", m.Rate)
	}

	sb, _ := acc.Player("onucee")
	if sb.VPIPHands != 1 || sb.ShowdownHands != 1 || sb.WonShowdowns != 0 {
		t.Errorf("SB counts = %+v", sb)
	}
	btn, _ := acc.Player("leti5795")
	if btn.ShowdownHands != 0 || !btn.TotalInvested.Equal(num(20)) {
		t.Errorf("BTN showdown=%d invested=%s", btn.ShowdownHands, btn.TotalInvested)
	}
	if m, _ := btn.Metric(MetricWTSD); m.Opportunity != 1 || m.Count != 0 {
		t.Errorf("BTN WTSD = %+v", m)
	}

	players := acc.Players()
	if len(players) != 3 || players[0].Pseudo != "MaGiCLeTuR" {
		t.Errorf("players order = %v", players)
	}
}

func TestAccumulatorSkipsIneligibleHands(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(&parser.Hand{})
	h := threeBetHand()
	h.Anomalies = []parser.HandAnomaly{{Code: parser.AnomalyLocaleAmount, Severity: parser.SeverityWarn}}
	acc.Feed(h)
	if acc.HandCount() != 0 || len(acc.Players()) != 0 {
		t.Fatalf("expected nothing accumulated, got %d hands", acc.HandCount())
	}
}

func TestSnapshotDoesNotMutateAccumulator(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(threeBetHand())
	first, _ := acc.Player("CO-player")
	second, _ := acc.Player("CO-player")
	if first.Metrics[MetricThreeBet] != second.Metrics[MetricThreeBet] {
		t.Fatalf("snapshots differ: %+v vs %+v", first.Metrics[MetricThreeBet], second.Metrics[MetricThreeBet])
	}
	first.ByPosition[parser.PosCO].Hands = 99
	if again, _ := acc.Player("CO-player"); again.ByPosition[parser.PosCO].Hands != 1 {
		t.Fatal("snapshot shares position stats")
	}
	if first.ThreeBetRate() != 100 {
		t.Errorf("3bet rate = %f", first.ThreeBetRate())
	}
}

func TestEvaluateShowdown(t *testing.T) {
	results, err := EvaluateShowdown(parseHand(t, showdownHand))
	if err != nil {
		t.Fatalf("EvaluateShowdown: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != parser.PosBB || !results[0].Best {
		t.Errorf("winner = %+v", results[0])
	}
	if results[1].Best || results[1].Score >= results[0].Score {
		t.Errorf("loser = %+v", results[1])
	}
}

func TestEvaluateShowdownIncompleteBoard(t *testing.T) {
	if _, err := EvaluateShowdown(threeBetHand()); err != ErrIncompleteBoard {
		t.Fatalf("err = %v", err)
	}
}

func TestClassifyPocketHand(t *testing.T) {
	tests := []struct {
		cards string
		has   []PocketCategory
		not   []PocketCategory
	}{
		{"As Ks", []PocketCategory{PocketPremium, PocketSuited, PocketSuitedConnector, PocketAx, PocketKx}, []PocketCategory{PocketBroadwayOffsuit, PocketPair}},
		{"Qd Qc", []PocketCategory{PocketPremium, PocketPair}, []PocketCategory{PocketSuited}},
		{"Tc 9d", []PocketCategory{PocketConnector}, []PocketCategory{PocketSuitedConnector, PocketBroadwayOffsuit}},
		{"Jh Tc", []PocketCategory{PocketBroadwayOffsuit, PocketConnector}, []PocketCategory{PocketSecondPremium}},
	}
	for _, tt := range tests {
		cards := parser.ParseCards(tt.cards)
		got := map[PocketCategory]bool{}
		for _, c := range ClassifyPocketHand(cards[0], cards[1]) {
			got[c] = true
		}
		for _, c := range tt.has {
			if !got[c] {
				t.Errorf("%s: missing %s", tt.cards, PocketCategoryLabel(c))
			}
		}
		for _, c := range tt.not {
			if got[c] {
				t.Errorf("%s: unexpected %s", tt.cards, PocketCategoryLabel(c))
			}
		}
	}
	if cats := ClassifyPocketHand(parser.UnknownCard, parser.UnknownCard); cats != nil {
		t.Errorf("unknown cards classified as %v", cats)
	}
}

func TestComboKey(t *testing.T) {
	tests := map[string]string{"Ks As": "AKs", "7d 7c": "77", "9h Tc": "T9o", "?? As": ""}
	for in, want := range tests {
		cards := parser.ParseCards(in)
		if got := ComboKey(cards[0], cards[1]); got != want {
			t.Errorf("ComboKey(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestPocketCategoryCodesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range AllPocketCategories() {
		code := PocketCategoryCode(c)
		if code == "" || PocketCategoryLabel(c) == "" {
			t.Fatalf("category %d has no code or label", c)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = true
	}
	if PocketCategoryCode(PocketCategory(-1)) != "" || PocketCategoryLabel(pocketCategoryCount) != "" {
		t.Fatal("out of range category should have no code")
	}
}

func TestMetricValueDisplay(t *testing.T) {
	tests := []struct {
		m    MetricValue
		want string
	}{
		{MetricValue{Rate: 23.456, Format: MetricFormatPercent}, "23.5%"},
		{MetricValue{Rate: 2.5, Format: MetricFormatRatio}, "2.50"},
		{MetricValue{Rate: -4.126, Format: MetricFormatBBPer100}, "-4.13 bb/100"},
		{MetricValue{Rate: 3, Format: MetricFormatDiff}, "3.0"},
	}
	for _, tt := range tests {
		if got := tt.m.Display(); got != tt.want {
			t.Errorf("Display(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}

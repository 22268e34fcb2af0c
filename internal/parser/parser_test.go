package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// Three-handed tournament hand that reaches showdown.
const sampleHand = `PokerStars Hand #202004455940: Tournament #2642898548, €0.93+€0.07 EUR Hold'em No Limit - Level I (10/20) - 2019/07/04 21:31:39 CET [2019/07/04 15:31:39 ET]
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

// Six-max cash hand with a raise, an uncalled bet and no showdown.
const foldedHand = `PokerStars Hand #210000000001:  Hold'em No Limit ($0.01/$0.02 USD) - 2020/03/14 09:05:00 ET
Table 'Alcyone II' 6-max Seat #5 is the button
Seat 1: alpha ($2.00 in chips)
Seat 2: bravo ($1.50 in chips)
Seat 4: charlie ($2.10 in chips)
Seat 5: delta ($0.80 in chips)
Seat 6: echo ($3.00 in chips)
echo: posts small blind $0.01
alpha: posts big blind $0.02
*** HOLE CARDS ***
Dealt to charlie [Kd Kh]
bravo: folds
charlie: raises $0.04 to $0.06
delta: folds
echo: folds
alpha: folds
Uncalled bet ($0.04) returned to charlie
charlie collected $0.05 from pot
charlie: doesn't show hand
*** SUMMARY ***
Total pot $0.05 | Rake $0
Seat 1: alpha (big blind) folded before Flop
Seat 2: bravo folded before Flop (didn't bet)
Seat 4: charlie collected ($0.05)
Seat 5: delta (button) folded before Flop (didn't bet)
Seat 6: echo (small blind) folded before Flop
`

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustParse(t *testing.T, text string) Hand {
	t.Helper()
	h, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return h
}

// threeMaxSeating mirrors the seating of sampleHand.
func threeMaxSeating() seating {
	s := newSeating()
	for i, sl := range []struct {
		pos    Position
		pseudo string
	}{{PosBTN, "leti5795"}, {PosSB, "onucee"}, {PosBB, "MaGiCLeTuR"}} {
		s.pseudos[sl.pos] = sl.pseudo
		s.positions[sl.pseudo] = sl.pos
		s.stacks[sl.pos] = decimal.NewFromInt(500)
		s.seats[sl.pos] = i + 1
		s.bySeat[i+1] = sl.pos
	}
	return s
}

func seededParser(section, text string) *Parser {
	p := NewParser("")
	p.seats = threeMaxSeating()
	p.SetSection(section, text)
	return p
}

func TestParseHeaderAndSetup(t *testing.T) {
	header := "PokerStars Hand #202004455940: Tournament #2642898548, €0.93+€0.07 EUR Hold'em No Limit " +
		"- Level I (10/20) - 2019/07/04 21:31:39 CET [2019/07/04 15:31:39 ET] \n" +
		"Table '2642898548 1' 3-max Seat #1 is the button\n" +
		"Seat 1: leti5795 (500 in chips)\n" +
		"Seat 2: onucee (500 in chips)\n" +
		"Seat 3: MaGiCLeTuR (500 in chips)\n" +
		"onucee: posts small blind 10\n" +
		"MaGiCLeTuR: posts big blind 20\n"

	p := NewParser("")
	p.SetSection(SectionHeader, header)
	p.ParseHeader()

	h := p.header
	if h.HandID != 202004455940 {
		t.Errorf("hand id = %d", h.HandID)
	}
	if h.GameID != 2642898548 {
		t.Errorf("game id = %d", h.GameID)
	}
	if !h.BuyIn.Equal(d("1")) {
		t.Errorf("buy-in = %s, want 1", h.BuyIn)
	}
	if !h.Rake.Equal(d("0.07")) {
		t.Errorf("rake = %s, want 0.07", h.Rake)
	}
	if !h.SmallBlind.Equal(d("10")) || !h.BigBlind.Equal(d("20")) {
		t.Errorf("blinds = %s/%s, want 10/20", h.SmallBlind, h.BigBlind)
	}
	if h.TableName != "2642898548 1" {
		t.Errorf("table name = %q", h.TableName)
	}
	if h.TableSize != 3 || h.ButtonSeat != 1 || h.PlayerCount != 3 {
		t.Errorf("table size/button/players = %d/%d/%d", h.TableSize, h.ButtonSeat, h.PlayerCount)
	}
	if h.Date != "2019/07/04" || h.Hour != "21:31:39" {
		t.Errorf("date/hour = %q %q", h.Date, h.Hour)
	}
	if h.GameFormat != "Hold'em No Limit" {
		t.Errorf("game format = %q", h.GameFormat)
	}

	if err := p.ParseSetup(); err != nil {
		t.Fatalf("ParseSetup: %v", err)
	}
	wantSeats := map[int]Position{1: PosBTN, 2: PosSB, 3: PosBB}
	for seat, pos := range wantSeats {
		if got := p.seats.bySeat[seat]; got != pos {
			t.Errorf("seat %d -> %s, want %s", seat, got, pos)
		}
	}
	if p.seats.pseudos[PosBTN] != "leti5795" || p.seats.pseudos[PosSB] != "onucee" || p.seats.pseudos[PosBB] != "MaGiCLeTuR" {
		t.Errorf("unexpected pseudos: %v", p.seats.pseudos)
	}
	for _, pos := range []Position{PosBTN, PosSB, PosBB} {
		if !p.seats.stacks[pos].Equal(d("500")) {
			t.Errorf("stack %s = %s", pos, p.seats.stacks[pos])
		}
	}
	if p.seats.positions["leti5795"] != PosBTN || p.seats.positions["onucee"] != PosSB {
		t.Errorf("unexpected positions: %v", p.seats.positions)
	}
}

func TestMatchAction(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		pseudo string
		kind   ActionKind
		amount string
	}{
		{"call", "leti5795: calls 20", true, "leti5795", ActionCall, "20"},
		{"check", "MaGiCLeTuR: checks", true, "MaGiCLeTuR", ActionCheck, "0"},
		{"raise keeps total", "MaGiCLeTuR: raises 20 to 40", true, "MaGiCLeTuR", ActionRaise, "40"},
		{"fold", "onucee: folds", true, "onucee", ActionFold, "0"},
		{"bet all-in", "onucee: bets 480 and is all-in", true, "onucee", ActionBet, "480"},
		{"currency", "charlie: raises $0.04 to $0.06", true, "charlie", ActionRaise, "0.06"},
		{"euro", "x: calls €0.50", true, "x", ActionCall, "0.50"},
		{"pseudo with spaces", "Mr Big: checks", true, "Mr Big", ActionCheck, "0"},
		{"unknown verb", "charlie: doesn't show hand", false, "", 0, ""},
		{"blind post", "onucee: posts small blind 10", false, "", 0, ""},
		{"informational", "MaGiCLeTuR collected 120 from pot", false, "", 0, ""},
		{"call without amount", "x: calls", false, "", 0, ""},
		{"chat", `a said, "ok: calls 20"`, false, "", 0, ""},
		{"chat by seated player", `onucee said, "gl: raises 20 to 40"`, false, "", 0, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			al, ok, err := matchAction(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if al.pseudo != tt.pseudo || al.kind != tt.kind || !al.amount.Equal(d(tt.amount)) {
				t.Fatalf("got %q %s %s", al.pseudo, al.kind, al.amount)
			}
		})
	}
}

func TestMatchActionRejectsLocaleAmounts(t *testing.T) {
	for _, line := range []string{"x: calls 1,000", "x: raises 0,50 to 1,00"} {
		_, ok, err := matchAction(line)
		if ok {
			t.Errorf("%q: expected no match", line)
		}
		if !errors.Is(err, ErrLocaleAmount) {
			t.Errorf("%q: err = %v, want ErrLocaleAmount", line, err)
		}
	}
}

func TestParsePreflop(t *testing.T) {
	p := seededParser(SectionHoleCards, "Dealt to MaGiCLeTuR [2s Ah]\n"+
		"leti5795: calls 20\n"+
		"onucee: calls 10\n"+
		"MaGiCLeTuR: checks")
	p.ParsePreflop()

	cards := p.cards[PosBB]
	if len(cards) != 2 || cards[0] != (Card{RankTwo, SuitSpades}) || cards[1] != (Card{RankAce, SuitHearts}) {
		t.Fatalf("BB cards = %v", cards)
	}
	want := []Action{
		NewAction(PosBTN, ActionCall, 20),
		NewAction(PosSB, ActionCall, 10),
		NewAction(PosBB, ActionCheck, 0),
	}
	if !ActionsEqual(p.actions[StreetPreflop], want) {
		t.Fatalf("preflop actions = %v, want %v", p.actions[StreetPreflop], want)
	}
}

func TestParseStreetBoards(t *testing.T) {
	actions := "\nleti5795: calls 20\nonucee: calls 10\nMaGiCLeTuR: checks"
	wantActions := []Action{
		NewAction(PosBTN, ActionCall, 20),
		NewAction(PosSB, ActionCall, 10),
		NewAction(PosBB, ActionCheck, 0),
	}
	tests := []struct {
		name    string
		section string
		first   string
		run     func(*Parser)
		board   func(*Parser) []Card
		street  Street
		want    []Card
	}{
		{
			name: "flop", section: SectionFlop, first: " [Th Ac 8h]",
			run: (*Parser).ParseFlop, board: func(p *Parser) []Card { return p.flop }, street: StreetFlop,
			want: []Card{{RankTen, SuitHearts}, {RankAce, SuitClubs}, {RankEight, SuitHearts}},
		},
		{
			name: "turn", section: SectionTurn, first: "[5s 8c Tc] [Th]",
			run: (*Parser).ParseTurn, board: func(p *Parser) []Card { return p.turn }, street: StreetTurn,
			want: []Card{{RankTen, SuitHearts}},
		},
		{
			name: "river", section: SectionRiver, first: "[5s 8c Tc 2h] [Th]",
			run: (*Parser).ParseRiver, board: func(p *Parser) []Card { return p.river }, street: StreetRiver,
			want: []Card{{RankTen, SuitHearts}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := seededParser(tt.section, tt.first+actions)
			tt.run(p)
			if got := tt.board(p); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("board = %v, want %v", got, tt.want)
			}
			if !ActionsEqual(p.actions[tt.street], wantActions) {
				t.Errorf("actions = %v, want %v", p.actions[tt.street], wantActions)
			}
		})
	}
}

func TestUncalledStopsStreet(t *testing.T) {
	p := seededParser(SectionFlop, " [Th Ac 8h]\n"+
		"onucee: bets 40\n"+
		"MaGiCLeTuR: folds\n"+
		"Uncalled bet (40) returned to onucee\n"+
		"leti5795: calls 40\n")
	p.ParseFlop()

	want := []Action{NewAction(PosSB, ActionBet, 40), NewAction(PosBB, ActionFold, 0)}
	if !ActionsEqual(p.actions[StreetFlop], want) {
		t.Fatalf("flop actions = %v, want %v", p.actions[StreetFlop], want)
	}
	if len(p.flop) != 3 {
		t.Fatalf("flop board = %v", p.flop)
	}
}

func TestStreetIgnoresChat(t *testing.T) {
	p := seededParser(SectionFlop, "[5s 8c Tc]\n"+
		"onucee: checks\n"+
		`a said, "ok: calls 20"`+"\n"+
		"MaGiCLeTuR: checks\n")
	p.ParseFlop()

	want := []Action{NewAction(PosSB, ActionCheck, 0), NewAction(PosBB, ActionCheck, 0)}
	if !ActionsEqual(p.actions[StreetFlop], want) {
		t.Fatalf("flop actions = %v, want %v", p.actions[StreetFlop], want)
	}
	if len(p.anomalies) != 0 {
		t.Fatalf("anomalies = %v, want none", p.anomalies)
	}
}

func TestStreetSkipsUnseatedPlayer(t *testing.T) {
	p := seededParser(SectionTurn, "[5s 8c Tc] [Th]\nghost: bets 10\nonucee: checks\n")
	p.ParseTurn()
	if len(p.actions[StreetTurn]) != 1 {
		t.Fatalf("turn actions = %v", p.actions[StreetTurn])
	}
	if !hasAnomaly(p.anomalies, AnomalyUnknownPlayer) {
		t.Fatalf("expected %s anomaly, got %v", AnomalyUnknownPlayer, p.anomalies)
	}
}

func TestShowdownKeepsLongerHand(t *testing.T) {
	t.Run("longer replaces shorter", func(t *testing.T) {
		p := seededParser(SectionShowDown, "onucee: shows []\nonucee: shows [7s 9d]\n")
		p.ParseShowdown()
		if got := p.cards[PosSB]; len(got) != 2 || got[0] != (Card{RankSeven, SuitSpades}) {
			t.Fatalf("SB cards = %v", got)
		}
	})
	t.Run("shorter never replaces longer", func(t *testing.T) {
		p := seededParser(SectionShowDown, "onucee: shows [7s 9d]\nonucee: shows []\n")
		p.ParseShowdown()
		if got := p.cards[PosSB]; len(got) != 2 {
			t.Fatalf("SB cards = %v", got)
		}
	})
	t.Run("dealt cards survive an empty show", func(t *testing.T) {
		p := seededParser(SectionShowDown, "MaGiCLeTuR: shows []\n")
		p.cards[PosBB] = ParseCards("2s Ah")
		p.ParseShowdown()
		if got := p.cards[PosBB]; len(got) != 2 {
			t.Fatalf("BB cards = %v", got)
		}
	})
}

func TestConcludePadsPartialReveal(t *testing.T) {
	p := seededParser(SectionShowDown, "onucee: shows [Ah]\n")
	p.ParseShowdown()
	p.Conclude()

	got := p.cards[PosSB]
	want := []Card{{RankAce, SuitHearts}, UnknownCard}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("SB cards = %v, want %v", got, want)
	}
	for _, pos := range []Position{PosBTN, PosBB} {
		if cards := p.cards[pos]; len(cards) != 2 || cards[0].Known() || cards[1].Known() {
			t.Fatalf("%s cards = %v, want unknown pair", pos, cards)
		}
	}
}

func TestParseFullHand(t *testing.T) {
	h := mustParse(t, sampleHand)

	if h.HandID != 202004455940 || h.GameID != 2642898548 {
		t.Fatalf("ids = %d/%d", h.HandID, h.GameID)
	}
	if h.Dealer != PosBTN || h.DealerPseudo != "leti5795" {
		t.Errorf("dealer = %s %q", h.Dealer, h.DealerPseudo)
	}
	if got := h.Seats[PosSB].Cards; !reflect.DeepEqual(got, ParseCards("7s 9d")) {
		t.Errorf("SB cards = %v", got)
	}
	if got := h.Seats[PosBB].Cards; !reflect.DeepEqual(got, ParseCards("2s Ah")) {
		t.Errorf("BB cards = %v", got)
	}
	if got := h.Seats[PosBTN].Cards; !reflect.DeepEqual(got, []Card{UnknownCard, UnknownCard}) {
		t.Errorf("BTN cards = %v, want unknown pair", got)
	}
	if !reflect.DeepEqual(h.Board(), ParseCards("5s 8c Tc 2h 8d")) {
		t.Errorf("board = %v", h.Board())
	}
	wantTurn := []Action{
		NewAction(PosSB, ActionCheck, 0),
		NewAction(PosBB, ActionBet, 30),
		NewAction(PosBTN, ActionFold, 0),
		NewAction(PosSB, ActionCall, 30),
	}
	if !ActionsEqual(h.ActionsTurn, wantTurn) {
		t.Errorf("turn = %v", h.ActionsTurn)
	}
	if len(h.ActionsPreflop) != 3 || len(h.ActionsFlop) != 3 || len(h.ActionsRiver) != 2 {
		t.Errorf("action counts = %d/%d/%d", len(h.ActionsPreflop), len(h.ActionsFlop), len(h.ActionsRiver))
	}
	if !h.TotalPot.Equal(d("120")) || !h.PotRake.IsZero() {
		t.Errorf("pot = %s rake %s", h.TotalPot, h.PotRake)
	}
	if !h.Winnings[PosBB].Equal(d("120")) || len(h.Winnings) != 1 {
		t.Errorf("winnings = %v", h.Winnings)
	}
	if h.HasAnomaly() {
		t.Errorf("unexpected anomalies: %v", h.Anomalies)
	}
	assertPositionInvariant(t, h)
}

func TestParseFoldedCashHand(t *testing.T) {
	h := mustParse(t, foldedHand)

	if h.GameID != 0 {
		t.Errorf("cash game id = %d", h.GameID)
	}
	if !h.SmallBlind.Equal(d("0.01")) || !h.BigBlind.Equal(d("0.02")) {
		t.Errorf("blinds = %s/%s", h.SmallBlind, h.BigBlind)
	}
	// Five seated around an empty seat 3, button on seat 5.
	want := map[string]Position{"delta": PosBTN, "echo": PosSB, "alpha": PosBB, "bravo": PosUTG, "charlie": PosCO}
	if !reflect.DeepEqual(h.PseudoSeats, want) {
		t.Errorf("positions = %v, want %v", h.PseudoSeats, want)
	}
	if len(h.ActionsPreflop) != 5 {
		t.Fatalf("preflop = %v", h.ActionsPreflop)
	}
	if a := h.ActionsPreflop[1]; !a.Equal(Action{PosCO, ActionRaise, d("0.06")}) {
		t.Errorf("raise = %v", a)
	}
	for _, list := range [][]Action{h.ActionsFlop, h.ActionsTurn, h.ActionsRiver} {
		if len(list) != 0 {
			t.Errorf("expected empty postflop actions, got %v", list)
		}
	}
	if len(h.BoardFlop)+len(h.BoardTurn)+len(h.BoardRiver) != 0 {
		t.Errorf("expected empty board, got %v", h.Board())
	}
	if !h.Winnings[PosCO].Equal(d("0.05")) {
		t.Errorf("winnings = %v", h.Winnings)
	}
	if !h.Returned[PosCO].Equal(d("0.04")) {
		t.Errorf("returned = %v", h.Returned)
	}
	if !h.KnownCards(PosCO) || h.KnownCards(PosBTN) {
		t.Errorf("known cards: CO=%v BTN=%v", h.KnownCards(PosCO), h.KnownCards(PosBTN))
	}
	assertPositionInvariant(t, h)
}

func TestParseIdempotent(t *testing.T) {
	for _, text := range []string{sampleHand, foldedHand} {
		a := mustParse(t, text)
		b := mustParse(t, text)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("two parses differ:\n%+v\n%+v", a, b)
		}
	}
}

func TestParseRoundTripsTableFacts(t *testing.T) {
	h := mustParse(t, foldedHand)
	if h.PlayerCount != 5 || h.TableSize != 6 || h.ButtonSeat != 5 {
		t.Fatalf("players/size/button = %d/%d/%d", h.PlayerCount, h.TableSize, h.ButtonSeat)
	}
	if len(h.Seats) != h.PlayerCount {
		t.Fatalf("seats = %d, want %d", len(h.Seats), h.PlayerCount)
	}
}

func TestParseWithoutPostflopSections(t *testing.T) {
	text := sampleHand[:strings.Index(sampleHand, "*** FLOP ***")]
	h := mustParse(t, text)
	if len(h.ActionsFlop)+len(h.ActionsTurn)+len(h.ActionsRiver) != 0 {
		t.Fatal("expected no postflop actions")
	}
	if len(h.Board()) != 0 {
		t.Fatalf("expected no board, got %v", h.Board())
	}
	for pos, seat := range h.Seats {
		if len(seat.Cards) != 2 {
			t.Errorf("%s has %d cards", pos, len(seat.Cards))
		}
	}
}

func TestParseMissingHeader(t *testing.T) {
	h := mustParse(t, "*** HOLE CARDS ***\nfoo: checks\n")
	if !h.IsZero() {
		t.Fatalf("expected zero hand, got id %d", h.HandID)
	}
	if !hasAnomaly(h.Anomalies, AnomalyMissingHeader) {
		t.Fatalf("expected %s anomaly, got %v", AnomalyMissingHeader, h.Anomalies)
	}
	if len(h.ActionsPreflop) != 0 {
		t.Fatalf("actions for unseated players should be skipped: %v", h.ActionsPreflop)
	}
}

func TestParseEmptyInput(t *testing.T) {
	h := mustParse(t, "")
	if !h.IsZero() || len(h.Seats) != 0 {
		t.Fatalf("expected degenerate record, got %+v", h)
	}
}

func TestParseSingleSeatFails(t *testing.T) {
	text := "PokerStars Hand #1: Hold'em No Limit (1/2)\nTable 'x' 6-max Seat #1 is the button\nSeat 1: solo (100 in chips)\n"
	if _, err := Parse(text); !errors.Is(err, ErrPositionOutOfRange) {
		t.Fatalf("err = %v, want ErrPositionOutOfRange", err)
	}
}

func TestParseRecordsLocaleBlinds(t *testing.T) {
	text := "PokerStars Hand #7: Hold'em No Limit (0,50/1,00 EUR)\nTable 'x' 2-max Seat #1 is the button\n" +
		"Seat 1: a (100 in chips)\nSeat 2: b (100 in chips)\n"
	h := mustParse(t, text)
	if !h.BigBlind.IsZero() {
		t.Errorf("locale blinds should stay unset, got %s", h.BigBlind)
	}
	if !hasAnomaly(h.Anomalies, AnomalyLocaleAmount) {
		t.Errorf("expected %s anomaly, got %v", AnomalyLocaleAmount, h.Anomalies)
	}
}

func TestHeaderMultiPartBuyInAndAnte(t *testing.T) {
	text := "PokerStars Hand #55: Tournament #99, $4.40+$0.50+$0.10 USD Hold'em No Limit - Level V (50/100) - 2021/01/02 3:04:05 ET\n" +
		"Table '99 3' 9-max Seat #3 is the button\n" +
		"Seat 3: a (1000 in chips)\n" +
		"Seat 7: b (1000 in chips)\n" +
		"a: posts the ante 10\n" +
		"b: posts the ante 10\n"
	h, _ := extractHeader(text)
	if !h.BuyIn.Equal(d("5")) || !h.Rake.Equal(d("0.10")) {
		t.Errorf("buy-in/rake = %s/%s", h.BuyIn, h.Rake)
	}
	if !h.Ante.Equal(d("10")) {
		t.Errorf("ante = %s", h.Ante)
	}
	if h.Hour != "3:04:05" {
		t.Errorf("hour = %q", h.Hour)
	}
}

func TestCloneHandIsIndependent(t *testing.T) {
	h := mustParse(t, sampleHand)
	c := CloneHand(&h)
	c.Seats[PosBB].Cards[0] = UnknownCard
	c.ActionsTurn[0] = NewAction(PosBTN, ActionFold, 0)
	c.PseudoSeats["x"] = PosCO

	if h.Seats[PosBB].Cards[0] == UnknownCard {
		t.Error("clone shares seat cards")
	}
	if h.ActionsTurn[0].Kind != ActionCheck {
		t.Error("clone shares actions")
	}
	if _, ok := h.PseudoSeats["x"]; ok {
		t.Error("clone shares pseudo map")
	}
}

func hasAnomaly(list []HandAnomaly, code string) bool {
	for _, a := range list {
		if a.Code == code {
			return true
		}
	}
	return false
}

// assertPositionInvariant checks every referenced position is seated.
func assertPositionInvariant(t *testing.T, h Hand) {
	t.Helper()
	for _, s := range Streets {
		for _, a := range h.Actions(s) {
			if _, ok := h.Seats[a.Position]; !ok {
				t.Errorf("%s action references unseated %s", s, a.Position)
			}
		}
	}
	for pseudo, pos := range h.PseudoSeats {
		if h.Seats[pos].Pseudo != pseudo {
			t.Errorf("pseudo %q maps to %s held by %q", pseudo, pos, h.Seats[pos].Pseudo)
		}
	}
}

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestToPHHShowdownHand(t *testing.T) {
	t.Parallel()

	h, err := parser.Parse(showdownHand)
	require.NoError(t, err)

	hh, err := ToPHH(&h)
	require.NoError(t, err)

	assert.Equal(t, VariantNoLimitHoldem, hh.Variant)
	assert.Equal(t, "202004455940", hh.HandID)
	assert.Equal(t, []string{"onucee", "MaGiCLeTuR", "leti5795"}, hh.Players)
	assert.Equal(t, []int{2, 3, 1}, hh.Seats)
	assert.Equal(t, 3, hh.SeatCount)
	assert.Equal(t, []string{"10", "20", "0"}, amountStrings(hh.BlindsOrStraddles))
	assert.Equal(t, []string{"500", "500", "500"}, amountStrings(hh.StartingStacks))
	assert.Equal(t, "20", hh.MinBet.String())
	assert.Equal(t, []string{"0", "120", "0"}, amountStrings(hh.Winnings))
	assert.Equal(t, 2019, hh.Year)
	assert.Equal(t, 7, hh.Month)
	assert.Equal(t, 4, hh.Day)
	assert.Equal(t, "2642898548", hh.Metadata["tournament"])

	want := []string{
		"d dh p1 7s9d",
		"d dh p2 2sAh",
		"d dh p3 ????",
		"p3 cc",
		"p1 cc",
		"p2 cc",
		"d db 5s8cTc",
		"p1 cc",
		"p2 cc",
		"p3 cc",
		"d db 2h",
		"p1 cc",
		"p2 cbr 30",
		"p3 f",
		"p1 cc",
		"d db 8d",
		"p1 cc",
		"p2 cc",
		"p1 sm 7s9d",
		"p2 sm 2sAh",
	}
	assert.Equal(t, want, hh.Actions)
}

func TestToPHHHeadsUpButtonPostsSmallBlind(t *testing.T) {
	t.Parallel()

	h := parser.Hand{
		HandID:     7,
		TableName:  "hu",
		TableSize:  2,
		SmallBlind: decimal.NewFromInt(5),
		BigBlind:   decimal.NewFromInt(10),
		Seats: map[parser.Position]parser.SeatInfo{
			parser.PosBTN: {Seat: 4, Pseudo: "button", Stack: decimal.NewFromInt(100), Cards: []parser.Card{{}, {}}},
			parser.PosBB:  {Seat: 1, Pseudo: "big", Stack: decimal.NewFromInt(100), Cards: []parser.Card{{}, {}}},
		},
		ActionsPreflop: []parser.Action{
			parser.NewAction(parser.PosBTN, parser.ActionRaise, 30),
			parser.NewAction(parser.PosBB, parser.ActionFold, 0),
		},
	}

	hh, err := ToPHH(&h)
	require.NoError(t, err)
	assert.Equal(t, []string{"button", "big"}, hh.Players)
	assert.Equal(t, []string{"5", "10"}, amountStrings(hh.BlindsOrStraddles))
	assert.Equal(t, []string{"d dh p1 ????", "d dh p2 ????", "p1 cbr 30", "p2 f"}, hh.Actions)
}

func TestToPHHRejectsDegenerateHand(t *testing.T) {
	t.Parallel()

	_, err := ToPHH(&parser.Hand{})
	assert.ErrorIs(t, err, ErrEmptyHand)
}

func TestFormatAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action parser.Action
		want   string
		use    bool
	}{
		{"fold", parser.NewAction(parser.PosBTN, parser.ActionFold, 0), "p1 f", true},
		{"check", parser.NewAction(parser.PosBTN, parser.ActionCheck, 0), "p1 cc", true},
		{"call", parser.NewAction(parser.PosBTN, parser.ActionCall, 20), "p1 cc", true},
		{"bet", parser.NewAction(parser.PosBTN, parser.ActionBet, 40), "p1 cbr 40", true},
		{"raise fraction", parser.Action{Position: parser.PosBTN, Kind: parser.ActionRaise, Amount: decimal.RequireFromString("0.5")}, "p1 cbr 0.5", true},
		{"zero raise", parser.NewAction(parser.PosBTN, parser.ActionRaise, 0), "", false},
		{"undefined", parser.Action{Position: parser.PosBTN}, "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := FormatAction("p1", tt.action)
			assert.Equal(t, tt.use, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeWritesBareNumbers(t *testing.T) {
	t.Parallel()

	h, err := parser.Parse(showdownHand)
	require.NoError(t, err)
	hh, err := ToPHH(&h)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, hh))
	out := buf.String()
	assert.Contains(t, out, "variant = \"NT\"\n")
	assert.Contains(t, out, "blinds_or_straddles = [10, 20, 0]\n")
	assert.Contains(t, out, "min_bet = 20\n")
	assert.Contains(t, out, "hand = \"202004455940\"\n")
	assert.Contains(t, out, "\"p2 cbr 30\"")

	assert.Error(t, Encode(&buf, nil))
}

func TestEncodeSessionKeepsHandOrder(t *testing.T) {
	t.Parallel()

	first, err := parser.Parse(showdownHand)
	require.NoError(t, err)
	second, err := parser.Parse(strings.Replace(showdownHand, "#202004455940", "#202004455941", 1))
	require.NoError(t, err)

	var hands []*HandHistory
	for _, h := range []*parser.Hand{&first, &second} {
		hh, err := ToPHH(h)
		require.NoError(t, err)
		hands = append(hands, hh)
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeSession(&buf, hands))

	decoded, err := DecodeSession(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "202004455940", decoded[0].HandID)
	assert.Equal(t, "202004455941", decoded[1].HandID)
	assert.Equal(t, "120", decoded[0].Winnings[1].String())
	assert.Equal(t, hands[0].Actions, decoded[0].Actions)
}

func amountStrings(amounts []Amount) []string {
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = a.String()
	}
	return out
}

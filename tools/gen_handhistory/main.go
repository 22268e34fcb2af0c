// gen_handhistory writes synthetic PokerStars tournament exports for load
// and watcher testing.
//
// Every hand is dealt from a shuffled deck and played with a simple random
// policy (at most one raise per street, no all-ins). Showdowns are settled
// with the stats evaluator, so the summary lines agree with the cards.
//
// Usage:
//
//	go run ./tools/gen_handhistory [flags]
package main

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

type CLI struct {
	OutDir  string `default:"./testdata/generated" help:"Where to write generated files"`
	Files   int    `default:"10" help:"Number of export files"`
	Hands   int    `default:"500" help:"Hands per file"`
	Players int    `default:"6" help:"Players per table (2-9)"`
	Hero    string `default:"MaGiCLeTuR" help:"Pseudo whose hole cards are always dealt"`
	Seed    uint64 `help:"Random seed; 0 = use current time"`
	Start   string `default:"2019-07-04" help:"Base date for generated timestamps, YYYY-MM-DD"`
}

var names = []string{
	"leti5795", "onucee", "Fabio_1976", "tripleace", "Cloclo1212",
	"nordmann", "pauvre_con", "riverfish", "JJaguar", "kalimera9",
}

const (
	timeLayout = "2006/01/02 15:04:05"
	startBB    = 200
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("gen_handhistory"),
		kong.Description("Generate synthetic PokerStars hand history exports"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cli.Run())
}

func (cli *CLI) Run() error {
	if cli.Players < 2 || cli.Players > 9 {
		return fmt.Errorf("players must be between 2 and 9, got %d", cli.Players)
	}
	start, err := time.Parse("2006-01-02", cli.Start)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	seed := cli.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	if err := os.MkdirAll(cli.OutDir, 0o755); err != nil {
		return err
	}

	handID := int64(200000000000 + rng.IntN(1_000_000_000))
	for i := 0; i < cli.Files; i++ {
		tourney := int64(2600000000 + rng.IntN(100_000_000))
		at := start.Add(time.Duration(i) * 6 * time.Hour)
		name := fmt.Sprintf("HH%s T%d No Limit Hold'em.txt", at.Format("20060102"), tourney)
		path := filepath.Join(cli.OutDir, name)

		t := newTable(rng, tourney, cli.Players, cli.Hero)
		if err := t.writeFile(path, cli.Hands, &handID, at); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d hands)\n", path, cli.Hands)
	}
	return nil
}

type player struct {
	seat  int
	name  string
	stack int
	cards []parser.Card

	folded    bool
	committed int // this street
	invested  int // this hand
}

type table struct {
	rng     *rand.Rand
	tourney int64
	hero    string
	players []*player
	button  int // index into players
	level   int
}

func newTable(rng *rand.Rand, tourney int64, n int, hero string) *table {
	pool := append([]string(nil), names...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	t := &table{rng: rng, tourney: tourney, hero: hero}
	heroSeat := rng.IntN(n)
	for i := 0; i < n; i++ {
		name := pool[i]
		if i == heroSeat {
			name = hero
		}
		t.players = append(t.players, &player{seat: i + 1, name: name})
	}
	return t
}

func (t *table) writeFile(path string, hands int, handID *int64, at time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < hands; i++ {
		t.level = 1 + i/50
		*handID++
		fmt.Fprint(w, t.playHand(*handID, at.Add(time.Duration(i)*90*time.Second)))
		fmt.Fprint(w, "\n\n\n")
		t.button = (t.button + 1) % len(t.players)
	}
	return w.Flush()
}

func (t *table) blinds() (sb, bb int) {
	bb = 20 * t.level
	return bb / 2, bb
}

// at returns the player k seats after the button.
func (t *table) at(k int) *player {
	return t.players[(t.button+k)%len(t.players)]
}

func (t *table) playHand(id int64, at time.Time) string {
	var b strings.Builder
	sbAmt, bbAmt := t.blinds()
	n := len(t.players)

	for _, p := range t.players {
		if p.stack < startBB/2*bbAmt {
			p.stack = startBB * bbAmt
		}
		p.folded, p.committed, p.invested, p.cards = false, 0, 0, nil
	}

	fmt.Fprintf(&b, "PokerStars Hand #%d: Tournament #%d, $1.84+$0.16 USD Hold'em No Limit - Level %s (%d/%d) - %s CET [%s ET]\n",
		id, t.tourney, roman(t.level), sbAmt, bbAmt, at.Format(timeLayout), at.Add(-6*time.Hour).Format(timeLayout))
	fmt.Fprintf(&b, "Table '%d 1' 9-max Seat #%d is the button\n", t.tourney, t.at(0).seat)
	for _, p := range t.players {
		fmt.Fprintf(&b, "Seat %d: %s (%d in chips)\n", p.seat, p.name, p.stack)
	}

	sb, bb := t.at(1), t.at(2)
	if n == 2 {
		sb, bb = t.at(0), t.at(1)
	}
	fmt.Fprintf(&b, "%s: posts small blind %d\n", sb.name, sbAmt)
	fmt.Fprintf(&b, "%s: posts big blind %d\n", bb.name, bbAmt)
	sb.commit(sbAmt)
	bb.commit(bbAmt)

	deck := newDeck(t.rng)
	for k := 1; k <= n; k++ {
		p := t.at(k)
		p.cards = deck[:2]
		deck = deck[2:]
	}
	b.WriteString("*** HOLE CARDS ***\n")
	for _, p := range t.players {
		if p.name == t.hero {
			fmt.Fprintf(&b, "Dealt to %s [%s]\n", p.name, cardList(p.cards))
		}
	}

	preflop := make([]*player, 0, n)
	postflop := make([]*player, 0, n)
	if n == 2 {
		preflop = append(preflop, t.at(0), t.at(1))
		postflop = append(postflop, t.at(1), t.at(0))
	} else {
		for k := 3; k < 3+n; k++ {
			preflop = append(preflop, t.at(k))
		}
		for k := 1; k <= n; k++ {
			postflop = append(postflop, t.at(k))
		}
	}

	var board []parser.Card
	pot := 0
	winnerByFold := t.bettingRound(&b, preflop, bbAmt, bbAmt, &pot)
	streets := []struct {
		name  string
		cards int
	}{{"FLOP", 3}, {"TURN", 1}, {"RIVER", 1}}
	for _, st := range streets {
		if winnerByFold != nil {
			break
		}
		prev := cardList(board)
		board = append(board, deck[:st.cards]...)
		deck = deck[st.cards:]
		if st.name == "FLOP" {
			fmt.Fprintf(&b, "*** FLOP *** [%s]\n", cardList(board))
		} else {
			fmt.Fprintf(&b, "*** %s *** [%s] [%s]\n", st.name, prev, cardList(board[len(board)-1:]))
		}
		winnerByFold = t.bettingRound(&b, postflop, 0, bbAmt, &pot)
	}

	won := make(map[*player]int)
	results := make(map[*player]stats.ShowdownResult)
	if winnerByFold != nil {
		fmt.Fprintf(&b, "%s collected %d from pot\n", winnerByFold.name, pot)
		won[winnerByFold] = pot
	} else {
		b.WriteString("*** SHOW DOWN ***\n")
		res := t.showdown(board)
		var best []*player
		for _, p := range postflop {
			if p.folded {
				continue
			}
			r := res[p.name]
			results[p] = r
			fmt.Fprintf(&b, "%s: shows [%s] (%s)\n", p.name, cardList(p.cards), r.Description)
			if r.Best {
				best = append(best, p)
			}
		}
		share, rest := pot/len(best), pot%len(best)
		for i, p := range best {
			amt := share
			if i == 0 {
				amt += rest
			}
			won[p] = amt
			fmt.Fprintf(&b, "%s collected %d from pot\n", p.name, amt)
		}
	}

	b.WriteString("*** SUMMARY ***\n")
	fmt.Fprintf(&b, "Total pot %d | Rake 0\n", pot)
	if len(board) > 0 {
		fmt.Fprintf(&b, "Board [%s]\n", cardList(board))
	}
	for _, p := range t.players {
		fmt.Fprintf(&b, "Seat %d: %s%s %s\n", p.seat, p.name, t.role(p, sb, bb), t.summaryOutcome(p, won, results))
		p.stack += won[p] - p.invested
	}
	return strings.TrimRight(b.String(), "\n")
}

func (t *table) role(p, sb, bb *player) string {
	var r string
	if p == t.at(0) {
		r += " (button)"
	}
	if p == sb && p != t.at(0) {
		r += " (small blind)"
	}
	if p == bb {
		r += " (big blind)"
	}
	return r
}

func (t *table) summaryOutcome(p *player, won map[*player]int, results map[*player]stats.ShowdownResult) string {
	if p.folded {
		return "folded"
	}
	r, showed := results[p]
	switch {
	case showed && won[p] > 0:
		return fmt.Sprintf("showed [%s] and won (%d) with %s", cardList(p.cards), won[p], r.Description)
	case showed:
		return fmt.Sprintf("showed [%s] and lost with %s", cardList(p.cards), r.Description)
	default:
		return fmt.Sprintf("collected (%d)", won[p])
	}
}

// bettingRound plays one street and returns the last player standing when
// everybody else folded. The pot is updated with the street's commitments.
func (t *table) bettingRound(b *strings.Builder, order []*player, bet, bbAmt int, pot *int) *player {
	defer func() {
		for _, p := range order {
			*pot += p.committed
			p.committed = 0
		}
	}()

	raised := false
	var aggressor *player
	acted := make(map[*player]bool)
	for {
		progressed := false
		for _, p := range order {
			if p.folded || t.remaining(order) == 1 {
				continue
			}
			if acted[p] && p.committed == bet {
				continue
			}
			progressed = true
			acted[p] = true
			toCall := bet - p.committed
			r := t.rng.Float64()

			switch {
			case !raised && r < 0.15:
				target := 3 * bbAmt
				if bet == 0 {
					target = min(max(bbAmt, (*pot)/2), 20*bbAmt)
				} else if bet > bbAmt {
					target = bet * 3
				}
				if bet == 0 {
					fmt.Fprintf(b, "%s: bets %d\n", p.name, target)
				} else {
					fmt.Fprintf(b, "%s: raises %d to %d\n", p.name, target-bet, target)
				}
				p.commit(target - p.committed)
				bet = target
				raised = true
				aggressor = p
			case toCall == 0:
				fmt.Fprintf(b, "%s: checks\n", p.name)
			case r < 0.6:
				fmt.Fprintf(b, "%s: calls %d\n", p.name, toCall)
				p.commit(toCall)
			default:
				fmt.Fprintf(b, "%s: folds\n", p.name)
				p.folded = true
			}
		}
		if !progressed || t.remaining(order) == 1 {
			break
		}
	}

	if t.remaining(order) != 1 {
		return nil
	}
	var last *player
	for _, p := range order {
		if !p.folded {
			last = p
		}
	}
	if last == aggressor {
		second := 0
		for _, p := range order {
			if p != last && p.committed > second {
				second = p.committed
			}
		}
		if extra := last.committed - second; extra > 0 {
			fmt.Fprintf(b, "Uncalled bet (%d) returned to %s\n", extra, last.name)
			last.committed -= extra
			last.invested -= extra
		}
	}
	return last
}

func (t *table) remaining(order []*player) int {
	n := 0
	for _, p := range order {
		if !p.folded {
			n++
		}
	}
	return n
}

// showdown ranks the players still in the hand with the stats evaluator.
func (t *table) showdown(board []parser.Card) map[string]stats.ShowdownResult {
	h := &parser.Hand{Seats: make(map[parser.Position]parser.SeatInfo), BoardFlop: board[:3], BoardTurn: board[3:4], BoardRiver: board[4:]}
	for _, p := range t.players {
		if p.folded {
			continue
		}
		h.Seats[parser.Position(fmt.Sprint(p.seat))] = parser.SeatInfo{Seat: p.seat, Pseudo: p.name, Cards: p.cards}
	}
	out := make(map[string]stats.ShowdownResult)
	results, err := stats.EvaluateShowdown(h)
	if err != nil {
		return out
	}
	for _, r := range results {
		out[r.Pseudo] = r
	}
	return out
}

func (p *player) commit(n int) {
	p.committed += n
	p.invested += n
}

func newDeck(rng *rand.Rand) []parser.Card {
	deck := make([]parser.Card, 0, 52)
	for r := parser.RankTwo; r <= parser.RankAce; r++ {
		for s := parser.SuitHearts; s <= parser.SuitDiamonds; s++ {
			deck = append(deck, parser.Card{Rank: r, Suit: s})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

func cardList(cards []parser.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func roman(n int) string {
	vals := []int{10, 9, 5, 4, 1}
	syms := []string{"X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

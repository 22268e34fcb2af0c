package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

const tournamentHand = `PokerStars Hand #202004455940: Tournament #2642898548, €0.93+€0.07 EUR Hold'em No Limit - Level I (10/20) - 2019/07/04 21:31:39 CET [2019/07/04 15:31:39 ET]
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

const cashHand = `PokerStars Hand #230000000001:  Hold'em No Limit ($0.01/$0.02 USD) - 2021/11/13 18:02:11 ET
Table 'Aludra IV' 6-max Seat #5 is the button
Seat 1: alpha ($2.00 in chips)
Seat 2: bravo ($1.85 in chips)
Seat 4: charlie ($2.12 in chips)
Seat 5: delta ($2.00 in chips)
Seat 6: echo ($0.97 in chips)
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
*** SUMMARY ***
Total pot $0.05 | Rake $0
Seat 1: alpha (big blind) folded before Flop
Seat 2: bravo folded before Flop (didn't bet)
Seat 4: charlie collected ($0.05)
Seat 5: delta (button) folded before Flop (didn't bet)
Seat 6: echo (small blind) folded before Flop
`

func mustParse(t *testing.T, text string) *parser.Hand {
	t.Helper()
	h, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &h
}

type repoFactory struct {
	name    string
	newRepo func(t *testing.T) Repository
}

func repoFactories() []repoFactory {
	factories := []repoFactory{
		{
			name: "memory",
			newRepo: func(_ *testing.T) Repository {
				return NewMemoryRepository()
			},
		},
		{
			name: "sqlite",
			newRepo: func(t *testing.T) Repository {
				repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "hands.db"))
				if err != nil {
					t.Fatalf("new sqlite repo: %v", err)
				}
				t.Cleanup(func() {
					_ = repo.Close()
				})
				return repo
			},
		},
	}
	if dsn := os.Getenv("POKERTRACKER_TEST_POSTGRES_DSN"); dsn != "" {
		factories = append(factories, repoFactory{
			name: "postgres",
			newRepo: func(t *testing.T) Repository {
				repo, err := NewPostgresRepository(context.Background(), dsn)
				if err != nil {
					t.Fatalf("new postgres repo: %v", err)
				}
				ctx := context.Background()
				if _, err := repo.pool.Exec(ctx, `TRUNCATE hands, hand_seats, hand_board_cards, hand_actions, hand_anomalies, import_cursors`); err != nil {
					t.Fatalf("truncate: %v", err)
				}
				t.Cleanup(func() {
					_ = repo.Close()
				})
				return repo
			},
		})
	}
	return factories
}

func TestSaveImportBatchParity(t *testing.T) {
	t.Parallel()

	for _, tt := range repoFactories() {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "postgres" {
				t.Parallel()
			}
			ctx := context.Background()
			repo := tt.newRepo(t)

			hand := mustParse(t, tournamentHand)
			source := HandSourceRef{SourcePath: "export.txt", StartByte: 0, EndByte: 1400, StartLine: 1}
			cursor := ImportCursor{
				SourcePath:     source.SourcePath,
				NextByteOffset: source.EndByte,
				NextLineNumber: 32,
				LastHandID:     hand.HandID,
				UpdatedAt:      time.Now(),
			}

			res, err := repo.SaveImportBatch(ctx, []PersistedHand{{Hand: hand, Source: source}}, cursor)
			if err != nil {
				t.Fatalf("first save import batch: %v", err)
			}
			if res.Inserted != 1 || res.Updated != 0 || res.Skipped != 0 {
				t.Fatalf("first upsert result: %+v", res)
			}

			res, err = repo.SaveImportBatch(ctx, []PersistedHand{{Hand: hand, Source: source}}, cursor)
			if err != nil {
				t.Fatalf("second save import batch: %v", err)
			}
			if res.Skipped != 1 || res.Inserted != 0 || res.Updated != 0 {
				t.Fatalf("unchanged re-import should be skipped: %+v", res)
			}

			changed := parser.CloneHand(hand)
			changed.TotalPot = decimal.NewFromInt(125)
			res, err = repo.UpsertHands(ctx, []PersistedHand{{Hand: changed, Source: source}})
			if err != nil {
				t.Fatalf("upsert changed hand: %v", err)
			}
			if res.Updated != 1 {
				t.Fatalf("changed hand should update existing row: %+v", res)
			}

			saved, err := repo.GetCursor(ctx, source.SourcePath)
			if err != nil {
				t.Fatalf("get cursor: %v", err)
			}
			if saved == nil || saved.NextByteOffset != source.EndByte || saved.LastHandID != hand.HandID {
				t.Fatalf("cursor not saved correctly: %+v", saved)
			}
			if saved.IsFullyImported {
				t.Fatalf("cursor should not be fully imported yet")
			}
			if err := repo.MarkFullyImported(ctx, source.SourcePath); err != nil {
				t.Fatalf("mark fully imported: %v", err)
			}
			saved, err = repo.GetCursor(ctx, source.SourcePath)
			if err != nil || saved == nil || !saved.IsFullyImported {
				t.Fatalf("cursor after mark = %+v, err %v", saved, err)
			}
		})
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tt := range repoFactories() {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "postgres" {
				t.Parallel()
			}
			ctx := context.Background()
			repo := tt.newRepo(t)

			for _, text := range []string{tournamentHand, cashHand} {
				want := mustParse(t, text)
				if err := repo.InsertHand(ctx, *want); err != nil {
					t.Fatalf("insert hand %d: %v", want.HandID, err)
				}
				got, err := repo.GetHand(ctx, want.HandID)
				if err != nil {
					t.Fatalf("get hand %d: %v", want.HandID, err)
				}
				if got == nil {
					t.Fatalf("hand %d not found", want.HandID)
				}
				if ContentHash(got) != ContentHash(want) {
					t.Fatalf("hand %d changed in storage:\n got %+v\nwant %+v", want.HandID, got, want)
				}
				if !parser.ActionsEqual(got.ActionsPreflop, want.ActionsPreflop) {
					t.Fatalf("preflop actions differ: %v vs %v", got.ActionsPreflop, want.ActionsPreflop)
				}
				for pos, seat := range want.Seats {
					if got.Seats[pos].Pseudo != seat.Pseudo || !got.Seats[pos].Stack.Equal(seat.Stack) {
						t.Fatalf("seat %s = %+v, want %+v", pos, got.Seats[pos], seat)
					}
				}
			}

			missing, err := repo.GetHand(ctx, 42)
			if err != nil || missing != nil {
				t.Fatalf("missing hand = %v, err %v", missing, err)
			}
		})
	}
}

func cardsEqual(a, b []parser.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRepositoryKeepsBoardStreetsAndPartialReveals(t *testing.T) {
	t.Parallel()

	text := strings.Replace(tournamentHand, "*** TURN *** [5s 8c Tc] [2h]", "*** TURN *** [5s 8c Tc]", 1)
	text = strings.Replace(text, "onucee: shows [7s 9d] (a pair of Eights)", "onucee: shows [7s]", 1)
	text = strings.Replace(text, "showed [7s 9d] and lost", "showed [7s] and lost", 1)
	want := mustParse(t, text)
	if len(want.BoardTurn) != 0 || len(want.BoardRiver) != 1 {
		t.Fatalf("parsed turn = %v river = %v", want.BoardTurn, want.BoardRiver)
	}
	if cards := want.Seats[parser.PosSB].Cards; len(cards) != 2 || cards[1].Known() {
		t.Fatalf("parsed SB cards = %v", cards)
	}

	for _, tt := range repoFactories() {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "postgres" {
				t.Parallel()
			}
			ctx := context.Background()
			repo := tt.newRepo(t)
			if err := repo.InsertHand(ctx, *want); err != nil {
				t.Fatalf("insert hand: %v", err)
			}
			got, err := repo.GetHand(ctx, want.HandID)
			if err != nil || got == nil {
				t.Fatalf("get hand = %v, err %v", got, err)
			}
			if !cardsEqual(got.BoardFlop, want.BoardFlop) ||
				!cardsEqual(got.BoardTurn, want.BoardTurn) ||
				!cardsEqual(got.BoardRiver, want.BoardRiver) {
				t.Fatalf("board = %v/%v/%v, want %v/%v/%v",
					got.BoardFlop, got.BoardTurn, got.BoardRiver,
					want.BoardFlop, want.BoardTurn, want.BoardRiver)
			}
			for pos, seat := range want.Seats {
				if !cardsEqual(got.Seats[pos].Cards, seat.Cards) {
					t.Fatalf("seat %s cards = %v, want %v", pos, got.Seats[pos].Cards, seat.Cards)
				}
			}
			if ContentHash(got) != ContentHash(want) {
				t.Fatalf("content hash changed in storage")
			}
		})
	}
}

func TestRepositoryFilters(t *testing.T) {
	t.Parallel()

	for _, tt := range repoFactories() {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "postgres" {
				t.Parallel()
			}
			ctx := context.Background()
			repo := tt.newRepo(t)

			tour := mustParse(t, tournamentHand)
			cash := mustParse(t, cashHand)
			if _, err := repo.UpsertHands(ctx, []PersistedHand{{Hand: cash}, {Hand: tour}, {Hand: &parser.Hand{}}}); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			tests := []struct {
				name string
				f    HandFilter
				want []int64
			}{
				{"all", HandFilter{}, []int64{tour.HandID, cash.HandID}},
				{"game", HandFilter{GameID: &tour.GameID}, []int64{tour.HandID}},
				{"pseudo", HandFilter{Pseudo: "charlie"}, []int64{cash.HandID}},
				{"unknown pseudo", HandFilter{Pseudo: "nobody"}, nil},
				{"limit", HandFilter{Limit: 1}, []int64{tour.HandID}},
				{"offset", HandFilter{Offset: 1}, []int64{cash.HandID}},
			}
			for _, tc := range tests {
				hands, err := repo.ListHands(ctx, tc.f)
				if err != nil {
					t.Fatalf("%s: list: %v", tc.name, err)
				}
				if len(hands) != len(tc.want) {
					t.Fatalf("%s: got %d hands, want %d", tc.name, len(hands), len(tc.want))
				}
				for i, id := range tc.want {
					if hands[i].HandID != id {
						t.Fatalf("%s: hand[%d] = %d, want %d", tc.name, i, hands[i].HandID, id)
					}
				}
			}

			count, err := repo.CountHands(ctx, HandFilter{Limit: 1})
			if err != nil || count != 2 {
				t.Fatalf("count = %d, err %v", count, err)
			}
		})
	}
}

func TestInsertHandRejectsDegenerateRecord(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	if err := repo.InsertHand(context.Background(), parser.Hand{}); !errors.Is(err, ErrNilHand) {
		t.Fatalf("err = %v, want ErrNilHand", err)
	}
}

func TestMarkFullyImportedWithoutCursorIsNoop(t *testing.T) {
	t.Parallel()

	for _, tt := range repoFactories() {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := tt.newRepo(t)
			if err := repo.MarkFullyImported(ctx, "missing.txt"); err != nil {
				t.Fatalf("mark: %v", err)
			}
			c, err := repo.GetCursor(ctx, "missing.txt")
			if err != nil || c != nil {
				t.Fatalf("cursor = %+v, err %v", c, err)
			}
		})
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem, err := Open(ctx, Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := mem.(*MemoryRepository); !ok {
		t.Fatalf("memory driver returned %T", mem)
	}

	path := filepath.Join(t.TempDir(), "nested", "hands.db")
	lite, err := Open(ctx, Config{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = lite.Close() })
	if _, ok := lite.(*SQLiteRepository); !ok {
		t.Fatalf("sqlite driver returned %T", lite)
	}

	if _, err := Open(ctx, Config{Driver: "mongo"}); err == nil {
		t.Fatal("unknown driver should fail")
	}
	if _, err := Open(ctx, Config{Driver: "postgres"}); err == nil {
		t.Fatal("postgres without dsn should fail")
	}
}

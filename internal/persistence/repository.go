package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

// ErrNilHand is returned by InsertHand when handed a degenerate record.
var ErrNilHand = errors.New("hand has no hand id")

type HandFilter struct {
	GameID *int64
	Pseudo string
	// Limit == 0 means no limit (return all matching rows).
	Limit  int
	Offset int
}

// HandSourceRef locates a hand inside an export file.
type HandSourceRef struct {
	SourcePath string
	StartByte  int64
	EndByte    int64
	StartLine  int64
}

type PersistedHand struct {
	Hand   *parser.Hand
	Source HandSourceRef
}

type UpsertResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Add accumulates another result into r.
func (r *UpsertResult) Add(o UpsertResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Skipped += o.Skipped
}

type ImportCursor struct {
	SourcePath      string
	NextByteOffset  int64
	NextLineNumber  int64
	LastHandID      int64
	IsFullyImported bool
	UpdatedAt       time.Time
}

// HandStore accepts finished hand records. A hand is either stored or an
// error is returned.
type HandStore interface {
	InsertHand(ctx context.Context, h parser.Hand) error
}

type HandRepository interface {
	HandStore
	UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error)
	// GetHand returns nil, nil if the hand is not stored.
	GetHand(ctx context.Context, handID int64) (*parser.Hand, error)
	// ListHands returns matching hands ordered by hand id.
	ListHands(ctx context.Context, f HandFilter) ([]*parser.Hand, error)
	CountHands(ctx context.Context, f HandFilter) (int, error)
}

type CursorRepository interface {
	GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error)
	SaveCursor(ctx context.Context, c ImportCursor) error
	// MarkFullyImported sets is_fully_imported on an existing cursor.
	// If no cursor row exists yet the call is a no-op.
	MarkFullyImported(ctx context.Context, sourcePath string) error
}

type ImportRepository interface {
	HandRepository
	CursorRepository
}

type ImportBatchRepository interface {
	ImportRepository
	SaveImportBatch(ctx context.Context, hands []PersistedHand, cursor ImportCursor) (UpsertResult, error)
}

// Repository is what every backend returned by Open implements.
type Repository interface {
	ImportBatchRepository
	Close() error
}

// ContentHash fingerprints everything a hand record holds so a re-import of
// unchanged text can be told apart from a corrected one.
func ContentHash(h *parser.Hand) string {
	if h == nil {
		return ""
	}
	b := strings.Builder{}
	b.WriteString("v2|")
	appendInt(&b, h.HandID)
	b.WriteByte('|')
	appendInt(&b, h.GameID)
	b.WriteByte('|')
	b.WriteString(h.TableName)
	b.WriteByte('|')
	appendInt(&b, int64(h.TableSize))
	b.WriteByte('|')
	appendInt(&b, int64(h.ButtonSeat))
	b.WriteByte('|')
	b.WriteString(h.GameFormat)
	b.WriteByte('|')
	b.WriteString(h.Date + " " + h.Hour)
	for _, d := range []string{
		h.BuyIn.String(), h.Rake.String(), h.SmallBlind.String(), h.BigBlind.String(),
		h.Ante.String(), h.TotalPot.String(), h.PotRake.String(),
	} {
		b.WriteByte('|')
		b.WriteString(d)
	}

	for _, board := range [][]parser.Card{h.BoardFlop, h.BoardTurn, h.BoardRiver} {
		b.WriteString("|B:")
		for _, c := range board {
			b.WriteString(c.String())
		}
	}

	b.WriteString("|P:")
	for _, pos := range h.Positions() {
		seat := h.Seats[pos]
		b.WriteString(string(pos))
		b.WriteByte(':')
		appendInt(&b, int64(seat.Seat))
		b.WriteByte(':')
		b.WriteString(seat.Pseudo)
		b.WriteByte(':')
		b.WriteString(seat.Stack.String())
		b.WriteByte(':')
		for _, c := range seat.Cards {
			b.WriteString(c.String())
		}
		b.WriteByte(':')
		b.WriteString(h.Winnings[pos].String())
		b.WriteByte(':')
		b.WriteString(h.Returned[pos].String())
		b.WriteByte(';')
	}

	for _, street := range parser.Streets {
		b.WriteString("|A")
		appendInt(&b, int64(street))
		b.WriteByte(':')
		for _, a := range h.Actions(street) {
			b.WriteString(a.String())
			b.WriteByte(',')
		}
	}

	codes := make([]string, 0, len(h.Anomalies))
	for _, a := range h.Anomalies {
		codes = append(codes, a.Code+"/"+a.Detail)
	}
	sort.Strings(codes)
	b.WriteString("|X:")
	b.WriteString(strings.Join(codes, ","))

	s := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(s[:])
}

func appendInt(b *strings.Builder, v int64) {
	b.WriteString(strconv.FormatInt(v, 10))
}

// matchesFilter is the in-process form of HandFilter, shared by the memory
// backend and tests.
func matchesFilter(h *parser.Hand, f HandFilter) bool {
	if h == nil {
		return false
	}
	if f.GameID != nil && h.GameID != *f.GameID {
		return false
	}
	if f.Pseudo != "" {
		if _, ok := h.PseudoSeats[f.Pseudo]; !ok {
			return false
		}
	}
	return true
}

func insertHand(ctx context.Context, repo HandRepository, h parser.Hand) error {
	if h.IsZero() {
		return ErrNilHand
	}
	_, err := repo.UpsertHands(ctx, []PersistedHand{{Hand: &h}})
	return err
}

package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AkatukiSora/pokertracker/internal/parser"
)

type inMemoryEntry struct {
	hand   *parser.Hand
	source HandSourceRef
	hash   string
}

type MemoryRepository struct {
	mu      sync.RWMutex
	hands   map[int64]inMemoryEntry
	cursors map[string]ImportCursor
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		hands:   make(map[int64]inMemoryEntry),
		cursors: make(map[string]ImportCursor),
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) InsertHand(ctx context.Context, h parser.Hand) error {
	return insertHand(ctx, r, h)
}

func (r *MemoryRepository) UpsertHands(_ context.Context, hands []PersistedHand) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertHandsLocked(hands), nil
}

func (r *MemoryRepository) upsertHandsLocked(hands []PersistedHand) UpsertResult {
	res := UpsertResult{}
	for _, ph := range hands {
		if ph.Hand.IsZero() {
			res.Skipped++
			continue
		}
		hash := ContentHash(ph.Hand)
		prev, ok := r.hands[ph.Hand.HandID]
		switch {
		case ok && prev.hash == hash:
			res.Skipped++
			continue
		case ok:
			res.Updated++
		default:
			res.Inserted++
		}
		r.hands[ph.Hand.HandID] = inMemoryEntry{hand: parser.CloneHand(ph.Hand), source: ph.Source, hash: hash}
	}
	return res
}

func (r *MemoryRepository) GetHand(_ context.Context, handID int64) (*parser.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.hands[handID]
	if !ok {
		return nil, nil
	}
	return parser.CloneHand(entry.hand), nil
}

func (r *MemoryRepository) ListHands(_ context.Context, f HandFilter) ([]*parser.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*parser.Hand, 0, len(r.hands))
	for _, entry := range r.hands {
		if !matchesFilter(entry.hand, f) {
			continue
		}
		out = append(out, entry.hand)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].HandID < out[j].HandID
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			out = out[:0]
		} else {
			out = out[f.Offset:]
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	for i, h := range out {
		out[i] = parser.CloneHand(h)
	}
	return out, nil
}

func (r *MemoryRepository) CountHands(ctx context.Context, f HandFilter) (int, error) {
	f.Limit, f.Offset = 0, 0
	hands, err := r.ListHands(ctx, f)
	if err != nil {
		return 0, err
	}
	return len(hands), nil
}

func (r *MemoryRepository) GetCursor(_ context.Context, sourcePath string) (*ImportCursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cursors[sourcePath]
	if !ok {
		return nil, nil
	}
	copyCursor := c
	return &copyCursor, nil
}

func (r *MemoryRepository) SaveCursor(_ context.Context, c ImportCursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCursorLocked(c)
	return nil
}

func (r *MemoryRepository) saveCursorLocked(c ImportCursor) {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	r.cursors[c.SourcePath] = c
}

func (r *MemoryRepository) MarkFullyImported(_ context.Context, sourcePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cursors[sourcePath]
	if !ok {
		return nil
	}
	c.IsFullyImported = true
	c.UpdatedAt = time.Now()
	r.cursors[sourcePath] = c
	return nil
}

func (r *MemoryRepository) SaveImportBatch(_ context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.upsertHandsLocked(hands)
	r.saveCursorLocked(c)
	return res, nil
}

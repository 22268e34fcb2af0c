package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/persistence"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

// ErrNoHands is returned when a query matches no stored hand.
var ErrNoHands = errors.New("no hands found")

// HistoryLocator returns the hand-history files to import, oldest first.
type HistoryLocator func() ([]string, error)

// saveBatchSize bounds how many hands one transaction writes.
const saveBatchSize = 500

type Service struct {
	repo    persistence.ImportBatchRepository
	locate  HistoryLocator
	workers int

	// importMu serializes writes so cursors of one file never interleave.
	importMu sync.Mutex

	cacheMu    sync.Mutex
	statsCache map[statsCacheKey]*stats.PlayerStats
}

type statsCacheKey struct {
	pseudo    string
	handCount int
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets how many files are parsed concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(repo persistence.ImportBatchRepository, locate HistoryLocator, opts ...Option) *Service {
	if locate == nil {
		locate = func() ([]string, error) {
			return nil, fmt.Errorf("history locator is not configured")
		}
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > 4 {
		workers = 4
	}
	s := &Service{
		repo:    repo,
		locate:  locate,
		workers: workers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportProgress carries per-file progress information during an import.
type ImportProgress struct {
	// Current is the 1-based index of the file just saved.
	Current int
	// Total is the number of files to import (skipped files excluded).
	Total   int
	Path    string
	Skipped int
}

// ImportSummary totals the outcome of one import call.
type ImportSummary struct {
	persistence.UpsertResult
	Files        int
	SkippedFiles int
	// Failed counts hands whose text could not be parsed or carried no
	// hand id. They are never stored.
	Failed int
}

func (s *ImportSummary) add(o ImportSummary) {
	s.UpsertResult.Add(o.UpsertResult)
	s.Files += o.Files
	s.SkippedFiles += o.SkippedFiles
	s.Failed += o.Failed
}

// importedHand is one parsed hand and the cursor position just past it.
type importedHand struct {
	hand     persistence.PersistedHand
	nextByte int64
	nextLine int64
}

// fileResult holds the outcome of parsing one file. It does not touch the
// repository.
type fileResult struct {
	path     string
	hands    []importedHand
	nextByte int64
	nextLine int64
	lastID   int64
	failed   int
	zero     int
}

// parseFile reads path from the given offset and parses every hand blob with
// a fresh Parser. Unterminated hands are only taken when final is set.
func parseFile(ctx context.Context, path string, startByte, startLine int64, final bool) (fileResult, error) {
	res := fileResult{path: path, nextByte: startByte, nextLine: startLine}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	if startByte > 0 {
		if _, err := f.Seek(startByte, io.SeekStart); err != nil {
			return res, fmt.Errorf("seek %q: %w", path, err)
		}
	}

	err = parser.ScanHands(f, func(ht parser.HandText) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ht.Terminated && !final {
			return parser.ErrStopScan
		}
		nextByte := startByte + ht.EndOffset
		nextLine := startLine + int64(ht.StartLine) - 1 + int64(strings.Count(ht.Text, "\n"))
		res.nextByte, res.nextLine = nextByte, nextLine

		h, err := parser.Parse(ht.Text)
		if err != nil {
			slog.Warn("skipping unparsable hand", "path", path, "line", startLine+int64(ht.StartLine), "error", err)
			res.failed++
			return nil
		}
		if h.IsZero() {
			res.zero++
			return nil
		}
		res.lastID = h.HandID
		res.hands = append(res.hands, importedHand{
			hand: persistence.PersistedHand{
				Hand: &h,
				Source: persistence.HandSourceRef{
					SourcePath: path,
					StartByte:  startByte + ht.StartOffset,
					EndByte:    nextByte,
					StartLine:  startLine + int64(ht.StartLine),
				},
			},
			nextByte: nextByte,
			nextLine: nextLine,
		})
		return nil
	})
	if err != nil {
		return res, err
	}
	return res, nil
}

// ImportFiles imports complete export files. Files are parsed concurrently and
// written serially in the given order. Files already marked fully imported are
// skipped. onProgress may be nil.
func (s *Service) ImportFiles(ctx context.Context, paths []string, onProgress func(ImportProgress)) (ImportSummary, error) {
	var sum ImportSummary
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	toImport := make([]string, 0, len(paths))
	for _, p := range paths {
		cursor, err := s.repo.GetCursor(ctx, p)
		if err == nil && cursor != nil && cursor.IsFullyImported {
			slog.Debug("skipping fully-imported file", "path", p)
			sum.SkippedFiles++
			continue
		}
		toImport = append(toImport, p)
	}
	if len(toImport) == 0 {
		return sum, nil
	}

	slog.Debug("parallel parse", "files", len(toImport), "workers", s.workers)
	results := make([]fileResult, len(toImport))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range toImport {
		i, p := i, p
		g.Go(func() error {
			res, err := parseFile(gctx, p, 0, 0, true)
			if err != nil {
				return fmt.Errorf("parse %q: %w", p, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	prog := ImportProgress{Total: len(toImport), Skipped: sum.SkippedFiles}
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fileSum, err := s.saveResult(ctx, res, true)
		if err != nil {
			return sum, fmt.Errorf("save %q: %w", res.path, err)
		}
		sum.add(fileSum)

		prog.Current++
		prog.Path = res.path
		if onProgress != nil {
			onProgress(prog)
		}
		slog.Debug("file imported", "path", res.path, "hands", len(res.hands), "failed", res.failed)
	}
	s.invalidateStatsCache()
	return sum, nil
}

// ImportFile imports the part of path not seen yet, resuming from the stored
// cursor. Unless final is set, a trailing hand that may still be growing is
// left for the next call and the cursor stops at the end of the last complete
// hand.
func (s *Service) ImportFile(ctx context.Context, path string, final bool) (ImportSummary, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	var startByte, startLine int64
	cursor, err := s.repo.GetCursor(ctx, path)
	if err != nil {
		slog.Warn("failed to load cursor, scanning from start", "path", path, "error", err)
		cursor = nil
	}
	if cursor != nil && cursor.NextByteOffset > 0 {
		startByte, startLine = cursor.NextByteOffset, cursor.NextLineNumber
		if fi, err := os.Stat(path); err == nil && fi.Size() < startByte {
			slog.Warn("file shrank below cursor, re-scanning from start", "path", path, "size", fi.Size(), "offset", startByte)
			startByte, startLine = 0, 0
		}
	}
	if startByte > 0 {
		slog.Debug("resuming file parse from offset", "path", path, "offset", startByte)
	}

	res, err := parseFile(ctx, path, startByte, startLine, final)
	if err != nil {
		return ImportSummary{}, err
	}
	sum, err := s.saveResult(ctx, res, final)
	if err != nil {
		return sum, fmt.Errorf("save imported hands: %w", err)
	}
	if sum.Inserted > 0 || sum.Updated > 0 {
		s.invalidateStatsCache()
	}
	slog.Debug("file import complete", "path", path, "inserted", sum.Inserted, "updated", sum.Updated, "skipped", sum.Skipped)
	return sum, nil
}

// saveResult writes the parsed hands in batches, advancing the cursor with
// every batch, then stores the final cursor position.
func (s *Service) saveResult(ctx context.Context, res fileResult, final bool) (ImportSummary, error) {
	sum := ImportSummary{Files: 1, Failed: res.failed + res.zero}

	hands := res.hands
	for len(hands) > 0 {
		chunk := hands
		if len(chunk) > saveBatchSize {
			chunk = hands[:saveBatchSize]
		}
		hands = hands[len(chunk):]

		batch := make([]persistence.PersistedHand, 0, len(chunk))
		for _, ih := range chunk {
			batch = append(batch, ih.hand)
		}
		last := chunk[len(chunk)-1]
		cursor := persistence.ImportCursor{
			SourcePath:     res.path,
			NextByteOffset: last.nextByte,
			NextLineNumber: last.nextLine,
			LastHandID:     last.hand.Hand.HandID,
			UpdatedAt:      time.Now(),
		}
		r, err := s.repo.SaveImportBatch(ctx, batch, cursor)
		if err != nil {
			return sum, err
		}
		sum.UpsertResult.Add(r)
	}

	cursor := persistence.ImportCursor{
		SourcePath:      res.path,
		NextByteOffset:  res.nextByte,
		NextLineNumber:  res.nextLine,
		LastHandID:      res.lastID,
		IsFullyImported: final,
		UpdatedAt:       time.Now(),
	}
	if cursor.LastHandID == 0 {
		if prev, err := s.repo.GetCursor(ctx, res.path); err == nil && prev != nil {
			cursor.LastHandID = prev.LastHandID
		}
	}
	if err := s.repo.SaveCursor(ctx, cursor); err != nil {
		return sum, err
	}
	return sum, nil
}

// Bootstrap imports every file the locator reports. All but the newest are
// imported as complete; the newest is imported as still growing and its path
// is returned so the caller can keep following it.
func (s *Service) Bootstrap(ctx context.Context, onProgress func(ImportProgress)) (string, ImportSummary, error) {
	var sum ImportSummary
	paths, err := s.locate()
	if err != nil {
		return "", sum, err
	}
	if len(paths) == 0 {
		return "", sum, fmt.Errorf("no hand history files found")
	}
	slog.Info("bootstrapping hand history import", "files", len(paths))

	active := paths[len(paths)-1]
	histSum, err := s.ImportFiles(ctx, paths[:len(paths)-1], onProgress)
	if err != nil {
		return "", sum, err
	}
	sum.add(histSum)

	activeSum, err := s.ImportFile(ctx, active, false)
	if err != nil {
		return "", sum, fmt.Errorf("import active file %q: %w", active, err)
	}
	sum.add(activeSum)

	slog.Info("bootstrap import complete", "files", len(paths), "inserted", sum.Inserted, "skipped_files", sum.SkippedFiles)
	return active, sum, nil
}

// MarkFullyImported flags path so later imports skip it. It is called when a
// newer export appears and the previous one can no longer grow.
func (s *Service) MarkFullyImported(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if _, err := s.ImportFile(ctx, path, true); err != nil {
		slog.Warn("failed to finish importing file", "path", path, "error", err)
		return
	}
	if err := s.repo.MarkFullyImported(ctx, path); err != nil {
		slog.Warn("failed to mark file as fully imported", "path", path, "error", err)
	}
}

func (s *Service) GetCursor(ctx context.Context, path string) (*persistence.ImportCursor, error) {
	if path == "" {
		return nil, nil
	}
	return s.repo.GetCursor(ctx, path)
}

// GetHand returns one stored hand, or nil, nil if unknown.
func (s *Service) GetHand(ctx context.Context, handID int64) (*parser.Hand, error) {
	return s.repo.GetHand(ctx, handID)
}

// ListHands returns one page of hands and the total number matching f.
func (s *Service) ListHands(ctx context.Context, f persistence.HandFilter) ([]*parser.Hand, int, error) {
	total, err := s.repo.CountHands(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	hands, err := s.repo.ListHands(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return hands, total, nil
}

// PlayerStats aggregates every stored hand pseudo took part in. Results are
// cached by hand count so repeated queries skip the full scan.
func (s *Service) PlayerStats(ctx context.Context, pseudo string) (*stats.PlayerStats, error) {
	filter := persistence.HandFilter{Pseudo: pseudo}
	count, err := s.repo.CountHands(ctx, filter)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoHands
	}

	key := statsCacheKey{pseudo: pseudo, handCount: count}
	s.cacheMu.Lock()
	cached, ok := s.statsCache[key]
	s.cacheMu.Unlock()
	if ok {
		return cached, nil
	}

	hands, err := s.repo.ListHands(ctx, filter)
	if err != nil {
		return nil, err
	}
	acc := stats.NewAccumulator()
	for _, h := range hands {
		acc.Feed(h)
	}
	ps, ok := acc.Player(pseudo)
	if !ok {
		return nil, ErrNoHands
	}

	s.cacheMu.Lock()
	if s.statsCache == nil || len(s.statsCache) >= 64 {
		s.statsCache = make(map[statsCacheKey]*stats.PlayerStats)
	}
	s.statsCache[key] = ps
	s.cacheMu.Unlock()
	return ps, nil
}

// AllPlayerStats aggregates every stored hand, most active players first.
func (s *Service) AllPlayerStats(ctx context.Context) ([]*stats.PlayerStats, int, error) {
	hands, err := s.repo.ListHands(ctx, persistence.HandFilter{})
	if err != nil {
		return nil, 0, err
	}
	acc := stats.NewAccumulator()
	for _, h := range hands {
		acc.Feed(h)
	}
	return acc.Players(), acc.HandCount(), nil
}

func (s *Service) invalidateStatsCache() {
	s.cacheMu.Lock()
	s.statsCache = nil
	s.cacheMu.Unlock()
}

func (s *Service) Close() error {
	if c, ok := s.repo.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultPattern      = "*.txt"
	DefaultPollInterval = 500 * time.Millisecond
)

// HistoryWatcher monitors a hand-history directory for new and growing export files.
type HistoryWatcher struct {
	Dir      string
	pattern  string
	interval time.Duration
	clock    quartz.Clock
	watcher  *fsnotify.Watcher
	ticker   *quartz.Ticker
	done     chan struct{}
	mu       sync.Mutex
	checkMu  sync.Mutex
	stopOnce sync.Once
	sizes    map[string]int64

	onChange  func(path string)
	onNewFile func(path string)
	onError   func(err error)
}

type WatcherConfig struct {
	// Pattern is matched against base names. Defaults to DefaultPattern.
	Pattern      string
	PollInterval time.Duration
	Clock        quartz.Clock
	OnChange     func(path string)
	OnNewFile    func(path string)
	OnError      func(err error)
}

// NewHistoryWatcher creates a watcher for dir. Nothing is observed until Start.
func NewHistoryWatcher(dir string, cfg WatcherConfig) (*HistoryWatcher, error) {
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &HistoryWatcher{
		Dir:       filepath.Clean(dir),
		pattern:   pattern,
		interval:  interval,
		clock:     clock,
		watcher:   w,
		done:      make(chan struct{}),
		sizes:     make(map[string]int64),
		onChange:  cfg.OnChange,
		onNewFile: cfg.OnNewFile,
		onError:   cfg.OnError,
	}, nil
}

// Start records the current size of every matching file and begins watching.
// Files present before Start are not reported until they change.
func (hw *HistoryWatcher) Start() error {
	slog.Info("watcher starting", "dir", hw.Dir, "pattern", hw.pattern)
	if err := hw.watcher.Add(hw.Dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", hw.Dir, err)
	}

	matches, err := hw.glob()
	if err != nil {
		return err
	}
	hw.mu.Lock()
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil {
			hw.sizes[path] = info.Size()
		}
	}
	hw.mu.Unlock()

	hw.ticker = hw.clock.NewTicker(hw.interval, "watcher", "poll")
	go hw.watchLoop()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (hw *HistoryWatcher) Stop() {
	hw.stopOnce.Do(func() {
		slog.Info("watcher stopped", "dir", hw.Dir)
		close(hw.done)
		_ = hw.watcher.Close()
	})
}

func (hw *HistoryWatcher) watchLoop() {
	defer hw.ticker.Stop()

	for {
		select {
		case <-hw.done:
			return
		case event, ok := <-hw.watcher.Events:
			if !ok {
				return
			}
			if !hw.matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				hw.check(filepath.Clean(event.Name))
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				hw.forget(filepath.Clean(event.Name))
			}
		case err, ok := <-hw.watcher.Errors:
			if !ok {
				return
			}
			hw.reportError(err)
		case <-hw.ticker.C:
			// Periodic poll as fallback
			hw.poll()
		}
	}
}

// poll compares every matching file against its last known size.
func (hw *HistoryWatcher) poll() {
	matches, err := hw.glob()
	if err != nil {
		hw.reportError(err)
		return
	}
	for _, path := range matches {
		hw.check(path)
	}
}

// check reports path as new when it was never seen and as changed whenever
// its size differs from the last observation.
func (hw *HistoryWatcher) check(path string) {
	hw.checkMu.Lock()
	defer hw.checkMu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			hw.reportError(err)
		}
		return
	}
	if info.IsDir() {
		return
	}

	hw.mu.Lock()
	prev, seen := hw.sizes[path]
	hw.sizes[path] = info.Size()
	hw.mu.Unlock()

	if !seen {
		slog.Debug("new history file", "path", path)
		if hw.onNewFile != nil {
			hw.onNewFile(path)
		}
		if info.Size() > 0 && hw.onChange != nil {
			hw.onChange(path)
		}
		return
	}
	if prev != info.Size() {
		slog.Debug("history file changed", "path", path, "size", info.Size())
		if hw.onChange != nil {
			hw.onChange(path)
		}
	}
}

func (hw *HistoryWatcher) forget(path string) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	delete(hw.sizes, path)
}

func (hw *HistoryWatcher) reportError(err error) {
	if hw.onError != nil {
		hw.onError(err)
		return
	}
	slog.Warn("watcher error", "dir", hw.Dir, "error", err)
}

func (hw *HistoryWatcher) glob() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(hw.Dir, hw.pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", hw.Dir, err)
	}
	return matches, nil
}

func (hw *HistoryWatcher) matches(path string) bool {
	if filepath.Clean(filepath.Dir(path)) != hw.Dir {
		return false
	}
	matched, err := filepath.Match(hw.pattern, filepath.Base(path))
	return err == nil && matched
}

// DetectHistoryFiles lists the files in dir matching pattern, oldest first.
func DetectHistoryFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	candidates, err := filepath.Glob(filepath.Join(expandHome(dir), pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	files := candidates[:0]
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no hand history files matching %q in %s", pattern, dir)
	}

	sortByModTimeAsc(files)
	return files, nil
}

// DetectHistoryDir returns the first existing PokerStars hand-history directory
// among the platform defaults.
func DetectHistoryDir() (string, error) {
	for _, dir := range historyDirectories() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no PokerStars hand history directory found in known locations")
}

// sortByModTimeAsc sorts paths oldest first with one os.Stat per file.
// Equal mod times fall back to the name so the order is stable.
func sortByModTimeAsc(paths []string) {
	modTimes := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			modTimes[p] = info.ModTime()
		}
	}
	sort.SliceStable(paths, func(i, j int) bool {
		ti, tj := modTimes[paths[i]], modTimes[paths[j]]
		if ti.Equal(tj) {
			return paths[i] < paths[j]
		}
		return ti.Before(tj)
	})
}

// historyDirectories returns OS-specific PokerStars hand-history directories
func historyDirectories() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	switch runtime.GOOS {
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		return []string{
			filepath.Join(local, "PokerStars", "HandHistory"),
			filepath.Join(local, "PokerStars.EU", "HandHistory"),
			filepath.Join(local, "PokerStars.FR", "HandHistory"),
		}
	case "linux":
		user := os.Getenv("USER")
		return []string{
			// Wine prefix
			filepath.Join(home, ".wine", "drive_c", "users", user, "AppData", "Local", "PokerStars", "HandHistory"),
			filepath.Join(home, ".wine", "drive_c", "users", user, "Local Settings", "Application Data", "PokerStars", "HandHistory"),
		}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Application Support", "PokerStars", "HandHistory"),
			filepath.Join(home, "Library", "Application Support", "PokerStarsEU", "HandHistory"),
		}
	default:
		return []string{}
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.Getenv("HOME")
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

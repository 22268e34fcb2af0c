package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/AkatukiSora/pokertracker/internal/application"
	"github.com/AkatukiSora/pokertracker/internal/export"
	"github.com/AkatukiSora/pokertracker/internal/httpapi"
	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/persistence"
	"github.com/AkatukiSora/pokertracker/internal/watcher"
)

// ImportCmd imports the given files, or every export in the history directory.
type ImportCmd struct {
	Files []string `arg:"" optional:"" type:"existingfile" help:"Export files to import (default: the history directory)"`
}

func (cmd *ImportCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := g.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	paths := cmd.Files
	if len(paths) == 0 {
		if paths, err = g.locator()(); err != nil {
			return err
		}
	}

	pb, _ := pterm.DefaultProgressbar.WithTotal(len(paths)).WithTitle("Importing").Start()
	sum, err := svc.ImportFiles(ctx, paths, func(p application.ImportProgress) {
		if pb != nil {
			pb.UpdateTitle(filepath.Base(p.Path))
			pb.Increment()
		}
	})
	if pb != nil {
		_, _ = pb.Stop()
	}
	if err != nil {
		return err
	}
	printSummary(sum)
	return nil
}

// WatchCmd bootstraps the database, then follows the newest export.
type WatchCmd struct {
	Serve bool   `help:"Also serve the JSON API while watching"`
	Addr  string `help:"API listen address (default from configuration)"`
}

func (cmd *WatchCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := g.historyDir()
	if err != nil {
		return err
	}
	interval, err := g.cfg.PollInterval()
	if err != nil {
		return err
	}

	svc, err := g.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	active, sum, err := svc.Bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	printSummary(sum)

	var mu sync.Mutex
	hw, err := watcher.NewHistoryWatcher(dir, watcher.WatcherConfig{
		Pattern:      g.cfg.History.Pattern,
		PollInterval: interval,
		OnNewFile: func(path string) {
			mu.Lock()
			defer mu.Unlock()
			if path == active {
				return
			}
			slog.Info("new hand history file detected", "path", path, "previous", active)
			svc.MarkFullyImported(ctx, active)
			active = path
		},
		OnChange: func(path string) {
			mu.Lock()
			final := path != active
			mu.Unlock()
			s, err := svc.ImportFile(ctx, path, final)
			if err != nil {
				slog.Error("import failed", "path", path, "error", err)
				return
			}
			if s.Inserted+s.Updated > 0 {
				slog.Info("hands imported", "path", filepath.Base(path), "inserted", s.Inserted, "updated", s.Updated, "failed", s.Failed)
			}
		},
		OnError: func(err error) {
			slog.Warn("watcher error", "error", err)
		},
	})
	if err != nil {
		return err
	}
	if err := hw.Start(); err != nil {
		return err
	}
	defer hw.Stop()
	// Catch up on anything written between Bootstrap and Start.
	if _, err := svc.ImportFile(ctx, active, false); err != nil {
		slog.Warn("catch-up import failed", "path", active, "error", err)
	}

	if cmd.Serve {
		addr := cmd.Addr
		if addr == "" {
			addr = g.cfg.Server.Address
		}
		return httpapi.Serve(ctx, addr, svc)
	}
	<-ctx.Done()
	return nil
}

// ShowCmd renders hands either parsed straight from a file or loaded by id.
type ShowCmd struct {
	File  string  `arg:"" optional:"" type:"existingfile" help:"Export file to render"`
	Hand  []int64 `help:"Hand ids to load from the database"`
	Limit int     `default:"1" help:"Maximum number of hands to render from a file (0 = all)"`
}

func (cmd *ShowCmd) Run(g *Globals) error {
	if cmd.File == "" && len(cmd.Hand) == 0 {
		return errors.New("show requires a file or --hand")
	}

	if cmd.File != "" {
		f, err := os.Open(cmd.File)
		if err != nil {
			return err
		}
		defer f.Close()

		rendered := 0
		err = parser.ScanHands(f, func(ht parser.HandText) error {
			h, err := parser.Parse(ht.Text)
			if err != nil {
				pterm.Warning.Printfln("line %d: %v", ht.StartLine, err)
				return nil
			}
			if h.IsZero() {
				return nil
			}
			if err := renderHand(os.Stdout, &h); err != nil {
				return err
			}
			rendered++
			if cmd.Limit > 0 && rendered >= cmd.Limit {
				return parser.ErrStopScan
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if len(cmd.Hand) == 0 {
		return nil
	}
	ctx := context.Background()
	svc, err := g.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	for _, id := range cmd.Hand {
		h, err := svc.GetHand(ctx, id)
		if err != nil {
			return err
		}
		if h == nil {
			pterm.Warning.Printfln("hand %d not found", id)
			continue
		}
		if err := renderHand(os.Stdout, h); err != nil {
			return err
		}
	}
	return nil
}

// ExportCmd writes stored hands as a PHH session file.
type ExportCmd struct {
	Out    string  `short:"o" help:"Output file (default: stdout)"`
	Player string  `help:"Only hands this player took part in"`
	Game   int64   `help:"Only hands of this tournament"`
	Limit  int     `help:"Maximum number of hands (0 = all)"`
	Hand   []int64 `arg:"" optional:"" help:"Specific hand ids"`
}

func (cmd *ExportCmd) Run(g *Globals) error {
	ctx := context.Background()
	svc, err := g.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	var hands []*parser.Hand
	if len(cmd.Hand) > 0 {
		for _, id := range cmd.Hand {
			h, err := svc.GetHand(ctx, id)
			if err != nil {
				return err
			}
			if h == nil {
				return fmt.Errorf("hand %d not found", id)
			}
			hands = append(hands, h)
		}
	} else {
		f := persistence.HandFilter{Pseudo: cmd.Player, Limit: cmd.Limit}
		if cmd.Game != 0 {
			f.GameID = &cmd.Game
		}
		if hands, _, err = svc.ListHands(ctx, f); err != nil {
			return err
		}
	}
	if len(hands) == 0 {
		return application.ErrNoHands
	}

	session := make([]*export.HandHistory, 0, len(hands))
	for _, h := range hands {
		hh, err := export.ToPHH(h)
		if err != nil {
			slog.Warn("skipping hand", "hand_id", h.HandID, "error", err)
			continue
		}
		session = append(session, hh)
	}

	var w io.Writer = os.Stdout
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.EncodeSession(w, session); err != nil {
		return err
	}
	if cmd.Out != "" {
		pterm.Success.Printfln("wrote %d hands to %s", len(session), cmd.Out)
	}
	return nil
}

// StatsCmd prints one player's statistics, or a summary of every player.
type StatsCmd struct {
	Pseudo string `arg:"" optional:"" help:"Player pseudo"`
}

func (cmd *StatsCmd) Run(g *Globals) error {
	ctx := context.Background()
	svc, err := g.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if cmd.Pseudo != "" {
		ps, err := svc.PlayerStats(ctx, cmd.Pseudo)
		if err != nil {
			return err
		}
		return renderPlayerStats(os.Stdout, ps)
	}
	all, hands, err := svc.AllPlayerStats(ctx)
	if err != nil {
		return err
	}
	return renderPlayerTable(os.Stdout, all, hands)
}

// ServeCmd serves the JSON API until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address (default from configuration)"`
}

func (cmd *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := g.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	addr := cmd.Addr
	if addr == "" {
		addr = g.cfg.Server.Address
	}
	return httpapi.Serve(ctx, addr, svc)
}

func printSummary(sum application.ImportSummary) {
	pterm.Info.Printfln("files %d (skipped %d) inserted %d updated %d unchanged %d failed %d",
		sum.Files, sum.SkippedFiles, sum.Inserted, sum.Updated, sum.Skipped, sum.Failed)
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/AkatukiSora/pokertracker/internal/application"
	"github.com/AkatukiSora/pokertracker/internal/applog"
	"github.com/AkatukiSora/pokertracker/internal/config"
	"github.com/AkatukiSora/pokertracker/internal/persistence"
	"github.com/AkatukiSora/pokertracker/internal/watcher"
)

var (
	version   = "dev"
	commit    = "local"
	buildDate = "unknown"
)

// Globals are the flags shared by every subcommand.
type Globals struct {
	Config    string           `short:"c" default:"${config_file}" help:"Path to the HCL configuration file"`
	LogLevel  string           `help:"Override the log level (debug, info, warn, error)"`
	LogFormat string           `help:"Override the log format (text, json)"`
	Version   kong.VersionFlag `short:"v" help:"Show version"`

	cfg      *config.Config
	closeLog func() error
}

type CLI struct {
	Globals

	Import ImportCmd `cmd:"" help:"Import hand history exports into the database"`
	Watch  WatchCmd  `cmd:"" help:"Import, then follow the hand history directory"`
	Show   ShowCmd   `cmd:"" help:"Render hands from an export file or the database"`
	Export ExportCmd `cmd:"" help:"Write stored hands as a PHH session"`
	Stats  StatsCmd  `cmd:"" help:"Print player statistics"`
	Serve  ServeCmd  `cmd:"" help:"Serve the read-only JSON API"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokertracker"),
		kong.Description("PokerStars hand history tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     fmt.Sprintf("%s (%s, %s)", version, commit, buildDate),
			"config_file": config.DefaultConfigFile,
		},
	)
	err := cli.Globals.setup()
	ctx.FatalIfErrorf(err)
	err = ctx.Run(&cli.Globals)
	if cerr := cli.Globals.closeLog(); cerr != nil && err == nil {
		err = fmt.Errorf("close log file: %w", cerr)
	}
	ctx.FatalIfErrorf(err)
}

// setup loads the configuration and installs the logger.
func (g *Globals) setup() error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	closeLog, err := applog.Init(applog.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.closeLog = closeLog
	slog.Debug("configuration loaded", "file", g.Config, "storage", cfg.Storage.Driver)
	return nil
}

// historyDir returns the configured export directory, or the platform default.
func (g *Globals) historyDir() (string, error) {
	if g.cfg.History.Dir != "" {
		return g.cfg.History.Dir, nil
	}
	return watcher.DetectHistoryDir()
}

func (g *Globals) locator() application.HistoryLocator {
	return func() ([]string, error) {
		dir, err := g.historyDir()
		if err != nil {
			return nil, err
		}
		return watcher.DetectHistoryFiles(dir, g.cfg.History.Pattern)
	}
}

// openService opens the configured repository and wraps it in a Service.
func (g *Globals) openService(ctx context.Context) (*application.Service, error) {
	repo, err := persistence.Open(ctx, g.cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", g.cfg.Storage.Driver, err)
	}
	var opts []application.Option
	if g.cfg.History.Workers > 0 {
		opts = append(opts, application.WithWorkers(g.cfg.History.Workers))
	}
	return application.NewService(repo, g.locator(), opts...), nil
}

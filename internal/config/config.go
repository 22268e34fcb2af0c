// Package config loads the tracker configuration from an optional HCL file,
// a .env file and POKERTRACKER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/AkatukiSora/pokertracker/internal/persistence"
)

const (
	DefaultConfigFile   = "pokertracker.hcl"
	DefaultEnvFile      = ".env"
	DefaultDBPath       = "pokertracker.db"
	DefaultPattern      = "*.txt"
	DefaultPollInterval = "500ms"
	DefaultAddress      = "localhost:8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

const envPrefix = "POKERTRACKER_"

// Config represents the complete tracker configuration
type Config struct {
	History *HistorySettings `hcl:"history,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Server  *ServerSettings  `hcl:"server,block"`
	Log     *LogSettings     `hcl:"log,block"`
}

// HistorySettings locates the hand-history exports.
type HistorySettings struct {
	Dir          string `hcl:"dir,optional"`
	Pattern      string `hcl:"pattern,optional"`
	PollInterval string `hcl:"poll_interval,optional"`
	Workers      int    `hcl:"workers,optional"`
}

// StorageSettings selects the repository backend.
type StorageSettings struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
	DSN    string `hcl:"dsn,optional"`
}

type ServerSettings struct {
	Address string `hcl:"address,optional"`
}

type LogSettings struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
	File   string `hcl:"file,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads filename when it exists, then the .env file, then the process
// environment. A missing file is not an error.
func Load(filename string) (*Config, error) {
	cfg, err := LoadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes an HCL file and fills in defaults. It ignores the environment.
func LoadFile(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.History == nil {
		c.History = &HistorySettings{}
	}
	if c.Storage == nil {
		c.Storage = &StorageSettings{}
	}
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Log == nil {
		c.Log = &LogSettings{}
	}

	if c.History.Pattern == "" {
		c.History.Pattern = DefaultPattern
	}
	if c.History.PollInterval == "" {
		c.History.PollInterval = DefaultPollInterval
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = persistence.DriverSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultDBPath
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// ApplyEnv overrides settings from POKERTRACKER_* variables found by lookup.
// Invalid numbers are left for Validate to report through the string fields.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	c.applyDefaults()
	set := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("HISTORY_DIR", &c.History.Dir)
	set("HISTORY_PATTERN", &c.History.Pattern)
	set("POLL_INTERVAL", &c.History.PollInterval)
	set("DB_DRIVER", &c.Storage.Driver)
	set("DB_PATH", &c.Storage.Path)
	set("DB_DSN", &c.Storage.DSN)
	set("ADDR", &c.Server.Address)
	set("LOG_LEVEL", &c.Log.Level)
	set("LOG_FORMAT", &c.Log.Format)
	set("LOG_FILE", &c.Log.File)

	if v, ok := lookup(envPrefix + "WORKERS"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.History.Workers = n
		} else {
			c.History.Workers = -1
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case persistence.DriverMemory, persistence.DriverSQLite:
	case persistence.DriverPostgres, "postgresql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %q needs a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid storage driver: %q", c.Storage.Driver)
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if c.History.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.History.Workers)
	}
	return nil
}

// PollInterval parses the history poll interval.
func (c *Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.History.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid poll interval %q: %w", c.History.PollInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid poll interval %q", c.History.PollInterval)
	}
	return d, nil
}

// StorageConfig maps the storage block to the repository factory input.
func (c *Config) StorageConfig() persistence.Config {
	return persistence.Config{
		Driver: c.Storage.Driver,
		Path:   c.Storage.Path,
		DSN:    c.Storage.DSN,
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/divergence"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/logger"
)

// Source kinds.
const (
	SourceSimulator = "simulator"
	SourceFile      = "file"
	SourceURL       = "url"
)

// SourceConfig selects where a series comes from.
type SourceConfig struct {
	Kind     string `yaml:"kind" toml:"kind"`
	Symbol   string `yaml:"symbol" toml:"symbol"`
	Interval string `yaml:"interval" toml:"interval"`
	Path     string `yaml:"path" toml:"path"`
	URL      string `yaml:"url" toml:"url"`
	Pattern  string `yaml:"pattern" toml:"pattern"`
	Trend    string `yaml:"trend" toml:"trend"`
	MaxBars  int    `yaml:"max_bars" toml:"max_bars"`
}

// WatchConfig is one scheduled re-analysis.
type WatchConfig struct {
	Name   string       `yaml:"name" toml:"name"`
	Cron   string       `yaml:"cron" toml:"cron"`
	Source SourceConfig `yaml:"source" toml:"source"`
}

// Config holds all application configuration.
type Config struct {
	Analysis  engine.Options `yaml:"analysis" toml:"analysis"`
	Source    SourceConfig   `yaml:"source" toml:"source"`
	Simulator struct {
		Seed   uint64              `yaml:"seed" toml:"seed"`
		Params collector.SimParams `yaml:"params" toml:"params"`
	} `yaml:"simulator" toml:"simulator"`
	Watches  []WatchConfig `yaml:"watches" toml:"watches"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Server struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"server" toml:"server"`
	Log   logger.Options `yaml:"log" toml:"log"`
	Proxy string         `yaml:"proxy" toml:"proxy"`
}

// Default returns a config with every analysis threshold at its standard
// value. Load decodes on top of it, so omitted keys keep these values.
func Default() *Config {
	cfg := &Config{Analysis: engine.DefaultOptions()}
	cfg.Simulator.Seed = collector.DefaultSeed
	cfg.Simulator.Params = collector.DefaultSimParams()
	return cfg
}

// Load reads config from a YAML or TOML file (by extension), then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceSimulator
	}
	if cfg.Source.Symbol == "" {
		cfg.Source.Symbol = "SIM"
	}
	for i := range cfg.Watches {
		if cfg.Watches[i].Source.Kind == "" {
			cfg.Watches[i].Source.Kind = SourceSimulator
		}
		if cfg.Watches[i].Source.Symbol == "" {
			cfg.Watches[i].Source.Symbol = cfg.Watches[i].Name
		}
	}
	if cfg.Analysis.Divergence.Engine == "" {
		cfg.Analysis.Divergence.Engine = divergence.EngineEWM
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Environment variable overrides
func (c *Config) applyEnv() error {
	if v := os.Getenv("CHAN_MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CHAN_MIN_CONFIDENCE: %w", err)
		}
		c.Analysis.MinConfidence = f
	}
	if v := os.Getenv("CHAN_OSC_ENGINE"); v != "" {
		c.Analysis.Divergence.Engine = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return fmt.Errorf("analysis.min_confidence must be within [0,1]")
	}
	d := a.Divergence
	if d.Engine != divergence.EngineEWM && d.Engine != divergence.EngineTalib {
		return fmt.Errorf("analysis.divergence.engine must be %q or %q", divergence.EngineEWM, divergence.EngineTalib)
	}
	if d.Fast <= 0 || d.Slow <= 0 || d.Signal <= 0 || d.Fast >= d.Slow {
		return fmt.Errorf("analysis.divergence periods must be positive with fast < slow")
	}
	if a.Center.MinRangeRatio >= a.Center.MaxRangeRatio {
		return fmt.Errorf("analysis.center.min_range_ratio must be below max_range_ratio")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	names := make(map[string]bool, len(c.Watches))
	for i, w := range c.Watches {
		if w.Name == "" {
			return fmt.Errorf("watches[%d].name is required", i)
		}
		if names[w.Name] {
			return fmt.Errorf("watches[%d]: duplicate name %q", i, w.Name)
		}
		names[w.Name] = true
		if w.Cron == "" {
			return fmt.Errorf("watches[%d].cron is required", i)
		}
		if err := w.Source.Validate(); err != nil {
			return fmt.Errorf("watches[%d].source: %w", i, err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Validate checks that the fields the source kind needs are present.
func (s SourceConfig) Validate() error {
	switch s.Kind {
	case SourceSimulator:
		return nil
	case SourceFile:
		if s.Path == "" {
			return fmt.Errorf("path is required for file sources")
		}
	case SourceURL:
		if s.URL == "" {
			return fmt.Errorf("url is required for url sources")
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// EngineOptions returns the analysis section as engine options.
func (c *Config) EngineOptions() engine.Options {
	return c.Analysis
}

// NewSource builds the collector source described by s.
func (c *Config) NewSource(s SourceConfig, sim *collector.Simulator) (collector.Source, error) {
	switch s.Kind {
	case SourceFile:
		return &collector.FileSource{Path: s.Path, Symbol: s.Symbol, Interval: s.Interval}, nil
	case SourceURL:
		return collector.NewURLSource(s.URL, s.Symbol, s.Interval, c.Proxy), nil
	case SourceSimulator, "":
		params := c.Simulator.Params
		if s.Interval != "" {
			params.Interval = s.Interval
		}
		return &collector.SimulatorSource{
			Symbol:    s.Symbol,
			Simulator: sim,
			Params:    params,
			Pattern:   s.Pattern,
			Trend:     s.Trend,
		}, nil
	}
	return nil, fmt.Errorf("unknown source kind %q", s.Kind)
}

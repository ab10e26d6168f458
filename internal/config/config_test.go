package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/divergence"
)

var envKeys = []string{
	"CHAN_MIN_CONFIDENCE", "CHAN_OSC_ENGINE", "SQLITE_PATH",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SERVER_ADDR",
	"LOG_LEVEL", "LOG_FILE", "HTTPS_PROXY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.MinConfidence != 0.5 {
		t.Errorf("min_confidence = %v, want 0.5", cfg.Analysis.MinConfidence)
	}
	if cfg.Analysis.Divergence.Engine != divergence.EngineEWM {
		t.Errorf("engine = %q", cfg.Analysis.Divergence.Engine)
	}
	if cfg.Source.Kind != SourceSimulator || cfg.Source.Symbol != "SIM" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Server.Addr != ":8080" || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("server/log defaults not applied: %q %q %q", cfg.Server.Addr, cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Simulator.Seed != collector.DefaultSeed {
		t.Errorf("seed = %d", cfg.Simulator.Seed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
analysis:
  min_confidence: 0.4
  center:
    trend_ratio: 0.05
watches:
  - name: btc
    cron: "0 */5 * * * *"
    source:
      kind: file
      path: data/btc.csv
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.MinConfidence != 0.4 {
		t.Errorf("min_confidence = %v", cfg.Analysis.MinConfidence)
	}
	if cfg.Analysis.Center.TrendRatio != 0.05 {
		t.Errorf("trend_ratio = %v", cfg.Analysis.Center.TrendRatio)
	}
	// Untouched siblings keep their defaults.
	if cfg.Analysis.Center.MinStrength != 0.3 {
		t.Errorf("min_strength = %v, want default 0.3", cfg.Analysis.Center.MinStrength)
	}
	if cfg.Analysis.Divergence.Slow != 26 {
		t.Errorf("slow = %d", cfg.Analysis.Divergence.Slow)
	}
	if len(cfg.Watches) != 1 || cfg.Watches[0].Source.Symbol != "btc" {
		t.Fatalf("watches = %+v", cfg.Watches)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
proxy = "http://127.0.0.1:7890"

[analysis]
min_confidence = 0.6

[analysis.divergence]
engine = "talib"

[server]
addr = ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.MinConfidence != 0.6 || cfg.Analysis.Divergence.Engine != divergence.EngineTalib {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.Divergence.Fast != 12 {
		t.Errorf("fast = %d, want default 12", cfg.Analysis.Divergence.Fast)
	}
	if cfg.Server.Addr != ":9090" || cfg.Proxy != "http://127.0.0.1:7890" {
		t.Errorf("server=%q proxy=%q", cfg.Server.Addr, cfg.Proxy)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.ini", "x=1")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for .ini")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAN_MIN_CONFIDENCE", "0.7")
	t.Setenv("CHAN_OSC_ENGINE", "talib")
	t.Setenv("SQLITE_PATH", "/tmp/runs.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SERVER_ADDR", ":1234")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/tmp/chan.log")
	t.Setenv("HTTPS_PROXY", "http://proxy:8080")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.MinConfidence != 0.7 || cfg.Analysis.Divergence.Engine != "talib" {
		t.Errorf("analysis overrides not applied: %+v", cfg.Analysis)
	}
	if cfg.Database.SQLitePath != "/tmp/runs.db" || !cfg.TelegramEnabled() {
		t.Errorf("database/telegram overrides not applied")
	}
	if cfg.Server.Addr != ":1234" || cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/chan.log" {
		t.Errorf("server/log overrides not applied")
	}
	if cfg.Proxy != "http://proxy:8080" {
		t.Errorf("proxy = %q", cfg.Proxy)
	}
}

func TestEnvOverrideBadFloat(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAN_MIN_CONFIDENCE", "high")
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err == nil || !strings.Contains(err.Error(), "CHAN_MIN_CONFIDENCE") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"confidence above one", func(c *Config) { c.Analysis.MinConfidence = 1.5 }},
		{"unknown engine", func(c *Config) { c.Analysis.Divergence.Engine = "ta" }},
		{"fast not below slow", func(c *Config) { c.Analysis.Divergence.Fast = 30 }},
		{"range bounds inverted", func(c *Config) { c.Analysis.Center.MinRangeRatio = 0.9 }},
		{"file without path", func(c *Config) { c.Source = SourceConfig{Kind: SourceFile} }},
		{"url without url", func(c *Config) { c.Source = SourceConfig{Kind: SourceURL} }},
		{"unknown kind", func(c *Config) { c.Source.Kind = "kafka" }},
		{"watch without cron", func(c *Config) {
			c.Watches = []WatchConfig{{Name: "a", Source: SourceConfig{Kind: SourceSimulator}}}
		}},
		{"duplicate watch", func(c *Config) {
			w := WatchConfig{Name: "a", Cron: "@every 1m", Source: SourceConfig{Kind: SourceSimulator}}
			c.Watches = []WatchConfig{w, w}
		}},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "tok" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Source = SourceConfig{Kind: SourceSimulator}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	cfg := Default()
	sim := collector.NewSimulator(1)

	src, err := cfg.NewSource(SourceConfig{Kind: SourceSimulator, Symbol: "X", Interval: "1h", Pattern: "double_top"}, sim)
	if err != nil {
		t.Fatal(err)
	}
	ss, ok := src.(*collector.SimulatorSource)
	if !ok {
		t.Fatalf("got %T", src)
	}
	if ss.Params.Interval != "1h" || ss.Pattern != "double_top" {
		t.Errorf("params = %+v pattern=%q", ss.Params, ss.Pattern)
	}

	src, err = cfg.NewSource(SourceConfig{Kind: SourceFile, Path: "a.csv"}, sim)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*collector.FileSource); !ok {
		t.Errorf("got %T", src)
	}

	if _, err := cfg.NewSource(SourceConfig{Kind: "ftp"}, sim); err == nil {
		t.Error("expected error for unknown kind")
	}
}

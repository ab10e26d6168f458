package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/config"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/logger"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Source = config.SourceConfig{Kind: config.SourceSimulator, Symbol: "SIM"}
	cfg.Analysis.MinConfidence = 0.3
	log, err := logger.New(logger.Options{Level: "error"})
	if err != nil {
		t.Fatal(err)
	}
	return &app{
		cfg: cfg,
		log: log,
		sim: collector.NewSimulator(3),
		eng: engine.New(cfg.EngineOptions(), log),
	}
}

func TestGenerateThenAnalyze(t *testing.T) {
	a := testApp(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "btc.csv")

	cmd := generateCmd()
	if err := cmd.ParseFlags([]string{"--count", "150", "--interval", "1h", "--start", "2024-01-01T00:00:00Z", "-o", out}); err != nil {
		t.Fatal(err)
	}
	var opts generateOptions
	opts.params.Count = 150
	opts.params.Interval = "1h"
	opts.start = "2024-01-01T00:00:00Z"
	opts.format = "csv"
	opts.out = out
	if err := a.generate(cmd, opts); err != nil {
		t.Fatalf("generate: %v", err)
	}

	bars, err := collector.LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(bars) != 150 {
		t.Fatalf("generated %d bars", len(bars))
	}

	var buf bytes.Buffer
	if err := a.analyze(&buf, []string{filepath.Join(dir, "*.csv")}, analyzeOptions{asJSON: true, minConfidence: -1}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var reports []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &reports); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if len(reports) != 1 || reports[0]["symbol"] != "btc" {
		t.Fatalf("reports = %v", reports)
	}
}

func TestAnalyzeTablesFromSimulator(t *testing.T) {
	a := testApp(t)
	var buf bytes.Buffer
	if err := a.analyze(&buf, nil, analyzeOptions{minConfidence: -1}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, want := range []string{"SIM analysis", "Centers", "Divergence signals"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestAnalyzeReportsFailures(t *testing.T) {
	a := testApp(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("timestamp,open,high,low,close\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	err := a.analyze(&buf, []string{bad}, analyzeOptions{minConfidence: -1})
	if err == nil || !strings.Contains(err.Error(), "1 of 1 sources failed") {
		t.Fatalf("err = %v", err)
	}
	if err := a.analyze(&buf, []string{filepath.Join(dir, "*.json")}, analyzeOptions{minConfidence: -1}); err == nil {
		t.Error("glob with no matches should fail")
	}
}

package collector

import (
	"errors"
	"testing"
	"time"

	"ChanSentinel/internal/model"
)

func TestValidateBars(t *testing.T) {
	good := sampleBars()
	if err := ValidateBars(good); err != nil {
		t.Fatalf("valid bars rejected: %v", err)
	}
	if err := ValidateBars(nil); !errors.Is(err, ErrNoBars) {
		t.Errorf("expected ErrNoBars, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(b []model.OHLCV)
	}{
		{"zero price", func(b []model.OHLCV) { b[0].Low = 0 }},
		{"high below close", func(b []model.OHLCV) { b[1].High = 100 }},
		{"low above open", func(b []model.OHLCV) { b[0].Low = 100.5 }},
		{"negative volume", func(b []model.OHLCV) { b[1].Volume = -1 }},
		{"repeated timestamp", func(b []model.OHLCV) { b[1].Time = b[0].Time }},
		{"out of order", func(b []model.OHLCV) { b[1].Time = b[0].Time.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := sampleBars()
			tt.mutate(bars)
			if err := ValidateBars(bars); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCollector_TrimsAndValidates(t *testing.T) {
	bars, _ := NewSimulator(DefaultSeed).Generate(params(50))
	c := NewCollector(&StaticSource{Symbol: "SIM", Bars: bars}, 30)

	series, err := c.Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Bars) != 30 {
		t.Errorf("got %d bars, want 30", len(series.Bars))
	}
	if !series.Bars[29].Time.Equal(bars[49].Time) {
		t.Error("trim should keep the most recent bars")
	}
	if series.LoadedAt.IsZero() {
		t.Error("LoadedAt should be stamped")
	}
}

func TestCollector_RejectsInvalidBars(t *testing.T) {
	bars := sampleBars()
	bars[1].Time = bars[0].Time
	if _, err := NewCollector(&StaticSource{Bars: bars}, 0).Collect(); err == nil {
		t.Error("expected validation error")
	}
	if _, err := NewCollector(&StaticSource{}, 0).Collect(); !errors.Is(err, ErrNoBars) {
		t.Errorf("expected wrapped ErrNoBars, got %v", err)
	}
}

func TestSimulatorSource(t *testing.T) {
	src := &SimulatorSource{Symbol: "SIM", Simulator: NewSimulator(DefaultSeed), Params: params(100), Pattern: "double_top"}
	series, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Bars) != 97 || series.Interval != "1m" {
		t.Errorf("series = %d bars @ %s", len(series.Bars), series.Interval)
	}
}

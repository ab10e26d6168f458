// Package divergence computes the MACD oscillator and finds price extremes
// the oscillator does not confirm.
package divergence

import (
	"sort"
	"time"

	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/model"
)

// Oscillator engines.
const (
	EngineEWM   = "ewm"
	EngineTalib = "talib"
)

// Config holds oscillator periods and signal thresholds.
type Config struct {
	Fast   int    `yaml:"fast" toml:"fast"`
	Slow   int    `yaml:"slow" toml:"slow"`
	Signal int    `yaml:"signal" toml:"signal"`
	Engine string `yaml:"engine" toml:"engine"`

	BreakRatio        float64 `yaml:"break_ratio" toml:"break_ratio"`
	PostBreakBars     int     `yaml:"post_break_bars" toml:"post_break_bars"`
	MinPostCenterBars int     `yaml:"min_post_center_bars" toml:"min_post_center_bars"`
	MinCenterBars     int     `yaml:"min_center_bars" toml:"min_center_bars"`
	PivotWindow       int     `yaml:"pivot_window" toml:"pivot_window"`
	MinTrendBars      int     `yaml:"min_trend_bars" toml:"min_trend_bars"`
	NewExtremeRatio   float64 `yaml:"new_extreme_ratio" toml:"new_extreme_ratio"`
	MinStrength       float64 `yaml:"min_strength" toml:"min_strength"`
	DedupWindowHours  float64 `yaml:"dedup_window_hours" toml:"dedup_window_hours"`
}

// DefaultConfig returns MACD(12, 26, 9) on the EWM engine with the
// stock break, pivot and dedup thresholds.
func DefaultConfig() Config {
	return Config{
		Fast:              12,
		Slow:              26,
		Signal:            9,
		Engine:            EngineEWM,
		BreakRatio:        0.02,
		PostBreakBars:     20,
		MinPostCenterBars: 10,
		MinCenterBars:     10,
		PivotWindow:       5,
		MinTrendBars:      50,
		NewExtremeRatio:   0.001,
		MinStrength:       0.5,
		DedupWindowHours:  1,
	}
}

// Fixed strengths for center-anchored signals.
const (
	postBreakStrength = 0.7
	internalStrength  = 0.6
)

// Detector computes the oscillator and scans it for divergences.
// It holds no state beyond its configuration.
type Detector struct {
	cfg Config
}

// NewDetector returns a detector using cfg as given.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// ComputeOscillator returns one sample per bar from the first bar with
// enough history. Fewer than Slow bars, or invalid periods, yield nothing.
func (d *Detector) ComputeOscillator(bars []model.OHLCV) []model.OscillatorSample {
	if len(bars) < d.cfg.Slow {
		return nil
	}
	closes := model.Closes(bars)
	var (
		series calculator.MACDSeries
		err    error
	)
	if d.cfg.Engine == EngineTalib {
		series, err = calculator.MACDTalib(closes, d.cfg.Fast, d.cfg.Slow, d.cfg.Signal)
	} else {
		series, err = calculator.MACD(closes, d.cfg.Fast, d.cfg.Slow, d.cfg.Signal)
	}
	if err != nil || series.Start >= len(bars) {
		return nil
	}
	out := make([]model.OscillatorSample, 0, len(bars)-series.Start)
	for i := series.Start; i < len(bars); i++ {
		out = append(out, model.OscillatorSample{
			Time:      bars[i].Time,
			DIF:       series.DIF[i],
			DEA:       series.DEA[i],
			Histogram: series.Hist[i],
		})
	}
	return out
}

// DetectDivergences runs the per-center passes and the global trend pass,
// then removes same-kind signals that fall within the dedup window of a
// stronger one. Center anchors point into centers. A series with no
// centers or no oscillator samples yields nothing.
func (d *Detector) DetectDivergences(bars []model.OHLCV, centers []model.Center, osc []model.OscillatorSample) []model.DivergenceSignal {
	if len(centers) == 0 || len(osc) == 0 {
		return nil
	}
	var signals []model.DivergenceSignal
	for i := range centers {
		signals = append(signals, d.centerSignals(&centers[i], bars, osc)...)
	}
	signals = append(signals, d.trendSignals(bars, osc)...)
	return d.dedupe(signals)
}

func (d *Detector) dedupe(signals []model.DivergenceSignal) []model.DivergenceSignal {
	if len(signals) == 0 {
		return nil
	}
	sort.SliceStable(signals, func(a, b int) bool {
		return signals[a].Time.Before(signals[b].Time)
	})
	window := time.Duration(d.cfg.DedupWindowHours * float64(time.Hour))
	kept := make([]model.DivergenceSignal, 0, len(signals))
	for _, s := range signals {
		dup := false
		for k := range kept {
			if kept[k].Kind != s.Kind || absDuration(s.Time.Sub(kept[k].Time)) >= window {
				continue
			}
			if s.Strength > kept[k].Strength {
				kept[k] = s
			}
			dup = true
			break
		}
		if !dup {
			kept = append(kept, s)
		}
	}
	return kept
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Package center finds consolidation zones (centers) where at least three
// consecutive segments share a price band.
package center

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"ChanSentinel/internal/model"
)

const minSegments = 3

// Config holds center validation and search settings.
type Config struct {
	MinRangeRatio    float64 `yaml:"min_range_ratio" toml:"min_range_ratio"`
	MaxRangeRatio    float64 `yaml:"max_range_ratio" toml:"max_range_ratio"`
	MinDurationHours float64 `yaml:"min_duration_hours" toml:"min_duration_hours"`
	MinStrength      float64 `yaml:"min_strength" toml:"min_strength"`
	TrendRatio       float64 `yaml:"trend_ratio" toml:"trend_ratio"`
	// MaxWindow caps the number of segments per candidate window; 0 means
	// every window length is searched.
	MaxWindow int `yaml:"max_window" toml:"max_window"`
	// Workers bounds concurrent window scans; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" toml:"workers"`
}

// DefaultConfig returns the standard band and strength thresholds with an
// unbounded window search on GOMAXPROCS workers.
func DefaultConfig() Config {
	return Config{
		MinRangeRatio:    0.001,
		MaxRangeRatio:    0.5,
		MinDurationHours: 1,
		MinStrength:      0.3,
		TrendRatio:       0.02,
	}
}

// Detector finds centers. It holds no state between calls and is safe
// for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a Detector with the given config.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// FindCenters searches every contiguous window of at least three segments,
// keeps the valid candidates, then drops those overlapping a stronger one
// in both time and price. The result is ordered by start time.
//
// Windows sharing a start index are scanned by one worker; results are
// merged in window order so the output does not depend on scheduling.
func (d *Detector) FindCenters(segments []model.Segment, _ []model.OHLCV) []model.Center {
	n := len(segments)
	if n < minSegments {
		return nil
	}

	starts := n - minSegments + 1
	found := make([][]model.Center, starts)

	var g errgroup.Group
	g.SetLimit(d.workers())
	for i := 0; i < starts; i++ {
		g.Go(func() error {
			found[i] = d.scanFrom(segments, i)
			return nil
		})
	}
	_ = g.Wait()

	var candidates []model.Center
	for _, c := range found {
		candidates = append(candidates, c...)
	}
	return dedupe(candidates)
}

func (d *Detector) workers() int {
	if d.cfg.Workers > 0 {
		return d.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (d *Detector) scanFrom(segments []model.Segment, i int) []model.Center {
	last := len(segments)
	if d.cfg.MaxWindow >= minSegments && i+d.cfg.MaxWindow < last {
		last = i + d.cfg.MaxWindow
	}
	var out []model.Center
	for j := i + minSegments; j <= last; j++ {
		c, ok := d.candidate(segments[i:j])
		if ok && d.valid(c) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Detector) candidate(window []model.Segment) (model.Center, bool) {
	high, low, ok := overlap(window)
	if !ok || high <= low {
		return model.Center{}, false
	}
	owned := make([]model.Segment, len(window))
	copy(owned, window)
	return model.Center{
		Segments:  owned,
		Type:      d.classify(window),
		HighPrice: high,
		LowPrice:  low,
		Range:     high - low,
		StartTime: window[0].StartTime,
		EndTime:   window[len(window)-1].EndTime,
		Strength:  strength(window, high, low),
	}, true
}

func (d *Detector) classify(window []model.Segment) model.CenterType {
	start := window[0].StartPrice
	end := window[len(window)-1].EndPrice
	if start == 0 {
		return model.CenterConsolidation
	}
	change := (end - start) / start
	switch {
	case change > d.cfg.TrendRatio:
		return model.CenterUp
	case change < -d.cfg.TrendRatio:
		return model.CenterDown
	default:
		return model.CenterConsolidation
	}
}

func (d *Detector) valid(c model.Center) bool {
	if c.Range <= 0 || len(c.Segments) < minSegments {
		return false
	}
	mid := c.Mid()
	if mid <= 0 {
		return false
	}
	ratio := c.Range / mid
	if ratio > d.cfg.MaxRangeRatio || ratio < d.cfg.MinRangeRatio {
		return false
	}
	if c.EndTime.Sub(c.StartTime).Hours() < d.cfg.MinDurationHours {
		return false
	}
	return c.Strength >= d.cfg.MinStrength
}

func dedupe(candidates []model.Center) []model.Center {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Strength > candidates[b].Strength
	})
	var kept []model.Center
	for _, c := range candidates {
		clash := false
		for k := range kept {
			if centersOverlap(c, kept[k]) {
				clash = true
				break
			}
		}
		if !clash {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].StartTime.Before(kept[b].StartTime)
	})
	return kept
}

func centersOverlap(a, b model.Center) bool {
	timeOverlap := !(!a.EndTime.After(b.StartTime) || !b.EndTime.After(a.StartTime))
	return timeOverlap && bandsOverlap(a.HighPrice, a.LowPrice, b.HighPrice, b.LowPrice)
}

func bandsOverlap(h1, l1, h2, l2 float64) bool {
	return !(h1 <= l2 || h2 <= l1)
}

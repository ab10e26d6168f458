// Package stroke connects turning points into strokes and groups strokes
// into segments.
package stroke

import (
	"math"

	"ChanSentinel/internal/model"
)

// Config holds stroke validation, merge and segment-break thresholds.
type Config struct {
	MinChangeRatio    float64 `yaml:"min_change_ratio" toml:"min_change_ratio"`
	PierceRatio       float64 `yaml:"pierce_ratio" toml:"pierce_ratio"`
	WeakBarCount      int     `yaml:"weak_bar_count" toml:"weak_bar_count"`
	WeakRangeRatio    float64 `yaml:"weak_range_ratio" toml:"weak_range_ratio"`
	SegmentBreakRatio float64 `yaml:"segment_break_ratio" toml:"segment_break_ratio"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinChangeRatio:    0.001,
		PierceRatio:       0.005,
		WeakBarCount:      5,
		WeakRangeRatio:    0.01,
		SegmentBreakRatio: 0.02,
	}
}

// Builder builds strokes and segments. It holds no state between calls.
type Builder struct {
	cfg Config
}

// NewBuilder creates a Builder with the given config.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// BuildStrokes connects each adjacent pair of opposite-type turning points,
// drops invalid candidates, then merges weak same-direction neighbours in
// one forward pass. Fewer than two turning points yields nothing.
func (b *Builder) BuildStrokes(bars []model.OHLCV, points []model.TurningPoint) []model.Stroke {
	if len(points) < 2 {
		return nil
	}
	var strokes []model.Stroke
	for i := 0; i < len(points)-1; i++ {
		start, end := points[i], points[i+1]
		if start.Type == end.Type {
			continue
		}
		if s, ok := b.createStroke(start, end, bars); ok {
			strokes = append(strokes, s)
		}
	}
	return b.mergeWeak(strokes)
}

func (b *Builder) createStroke(start, end model.TurningPoint, bars []model.OHLCV) (model.Stroke, bool) {
	var dir model.Direction
	switch {
	case start.Type == model.FenxingBottom && end.Type == model.FenxingTop:
		dir = model.DirectionUp
	case start.Type == model.FenxingTop && end.Type == model.FenxingBottom:
		dir = model.DirectionDown
	default:
		return model.Stroke{}, false
	}
	if !b.validStroke(start, end, bars, dir) {
		return model.Stroke{}, false
	}
	return model.Stroke{
		Start:      start,
		End:        end,
		Direction:  dir,
		PriceRange: math.Abs(end.Price - start.Price),
		BarCount:   absInt(end.Index-start.Index) + 1,
		StartTime:  start.Time,
		EndTime:    end.Time,
	}, true
}

// validStroke rejects moves below the minimum relative change and moves
// whose intervening bars pierce the starting extreme against the stroke.
func (b *Builder) validStroke(start, end model.TurningPoint, bars []model.OHLCV, dir model.Direction) bool {
	if start.Index < 0 || end.Index < 0 || start.Index >= len(bars) || end.Index >= len(bars) {
		return false
	}
	if start.Price <= 0 {
		return false
	}
	if math.Abs(end.Price-start.Price)/start.Price < b.cfg.MinChangeRatio {
		return false
	}
	lo, hi := start.Index, end.Index
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := lo + 1; i < hi; i++ {
		if dir == model.DirectionUp && bars[i].Low < start.Low*(1-b.cfg.PierceRatio) {
			return false
		}
		if dir == model.DirectionDown && bars[i].High > start.High*(1+b.cfg.PierceRatio) {
			return false
		}
	}
	return true
}

func (b *Builder) weak(s model.Stroke) bool {
	if s.BarCount < b.cfg.WeakBarCount {
		return true
	}
	return s.Start.Price > 0 && s.PriceRange/s.Start.Price < b.cfg.WeakRangeRatio
}

// mergeWeak walks the list once; a merged pair is not merged again.
func (b *Builder) mergeWeak(strokes []model.Stroke) []model.Stroke {
	if len(strokes) <= 1 {
		return strokes
	}
	out := make([]model.Stroke, 0, len(strokes))
	for i := 0; i < len(strokes); i++ {
		if i < len(strokes)-1 {
			if merged, ok := b.tryMerge(strokes[i], strokes[i+1]); ok {
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, strokes[i])
	}
	return out
}

func (b *Builder) tryMerge(s1, s2 model.Stroke) (model.Stroke, bool) {
	if s1.End.Index != s2.Start.Index {
		return model.Stroke{}, false
	}
	if !b.weak(s1) && !b.weak(s2) {
		return model.Stroke{}, false
	}
	if s1.Direction != s2.Direction {
		return model.Stroke{}, false
	}
	return model.Stroke{
		Start:      s1.Start,
		End:        s2.End,
		Direction:  s1.Direction,
		PriceRange: math.Abs(s2.End.Price - s1.Start.Price),
		BarCount:   s1.BarCount + s2.BarCount - 1,
		StartTime:  s1.StartTime,
		EndTime:    s2.EndTime,
	}, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

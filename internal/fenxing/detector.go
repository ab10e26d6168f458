// Package fenxing detects and scores turning points (fenxing) in a bar series.
package fenxing

import (
	"sort"

	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/model"
)

// DefaultMinConfidence is the composite score a candidate must reach.
const DefaultMinConfidence = 0.5

// Config holds the scoring weights and neighbourhood sizes.
type Config struct {
	ProminenceWeight  float64 `yaml:"prominence_weight" toml:"prominence_weight"`
	VolumeWeight      float64 `yaml:"volume_weight" toml:"volume_weight"`
	SurroundingWeight float64 `yaml:"surrounding_weight" toml:"surrounding_weight"`
	PositionWeight    float64 `yaml:"position_weight" toml:"position_weight"`

	ProminenceWindow  int     `yaml:"prominence_window" toml:"prominence_window"`
	VolumeWindow      int     `yaml:"volume_window" toml:"volume_window"`
	SurroundingWindow int     `yaml:"surrounding_window" toml:"surrounding_window"`
	ProminenceScale   float64 `yaml:"prominence_scale" toml:"prominence_scale"`
}

// DefaultConfig returns the standard 30/20/30/20 weighting.
func DefaultConfig() Config {
	return Config{
		ProminenceWeight:  0.3,
		VolumeWeight:      0.2,
		SurroundingWeight: 0.3,
		PositionWeight:    0.2,
		ProminenceWindow:  5,
		VolumeWindow:      3,
		SurroundingWindow: 10,
		ProminenceScale:   10,
	}
}

// Detector finds turning points. It holds no state between calls.
type Detector struct {
	cfg Config
}

// NewDetector creates a Detector with the given config.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// extremes caches the global high/low spans used by the position factor.
type extremes struct {
	minHigh, maxHigh float64
	minLow, maxLow   float64
}

func scanExtremes(bars []model.OHLCV) extremes {
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	var e extremes
	e.minHigh, e.maxHigh, _ = calculator.MinMax(highs)
	e.minLow, e.maxLow, _ = calculator.MinMax(lows)
	return e
}

// Find returns turning points scoring at least minConfidence, ordered by
// time, with runs of same-type points collapsed to their strongest member.
// Fewer than three bars yields nothing.
func (d *Detector) Find(bars []model.OHLCV, minConfidence float64) []model.TurningPoint {
	if len(bars) < 3 {
		return nil
	}
	ext := scanExtremes(bars)

	var points []model.TurningPoint
	for i := 1; i < len(bars)-1; i++ {
		cur, prev, next := bars[i], bars[i-1], bars[i+1]
		if cur.High > prev.High && cur.High > next.High {
			if score := d.scoreTop(bars, i, ext); score >= minConfidence {
				points = append(points, newPoint(bars, i, model.FenxingTop, score))
			}
		}
	}
	for i := 1; i < len(bars)-1; i++ {
		cur, prev, next := bars[i], bars[i-1], bars[i+1]
		if cur.Low < prev.Low && cur.Low < next.Low {
			if score := d.scoreBottom(bars, i, ext); score >= minConfidence {
				points = append(points, newPoint(bars, i, model.FenxingBottom, score))
			}
		}
	}

	sort.SliceStable(points, func(a, b int) bool {
		return points[a].Time.Before(points[b].Time)
	})
	return collapseAdjacent(points)
}

func newPoint(bars []model.OHLCV, i int, typ model.FenxingType, confidence float64) model.TurningPoint {
	b := bars[i]
	price := b.High
	if typ == model.FenxingBottom {
		price = b.Low
	}
	return model.TurningPoint{
		Index:      i,
		Type:       typ,
		High:       b.High,
		Low:        b.Low,
		Price:      price,
		Time:       b.Time,
		Confidence: confidence,
	}
}

func (d *Detector) scoreTop(bars []model.OHLCV, i int, ext extremes) float64 {
	position, _ := calculator.RelativePosition(bars[i].High, ext.maxHigh, ext.minHigh)
	total := d.prominenceTop(bars, i)*d.cfg.ProminenceWeight +
		d.volumeConfirmation(bars, i)*d.cfg.VolumeWeight +
		d.surroundingTop(bars, i)*d.cfg.SurroundingWeight +
		position*d.cfg.PositionWeight
	return calculator.Clamp01(total)
}

func (d *Detector) scoreBottom(bars []model.OHLCV, i int, ext extremes) float64 {
	position, _ := calculator.RelativePosition(bars[i].Low, ext.maxLow, ext.minLow)
	position = 1 - position
	total := d.prominenceBottom(bars, i)*d.cfg.ProminenceWeight +
		d.volumeConfirmation(bars, i)*d.cfg.VolumeWeight +
		d.surroundingBottom(bars, i)*d.cfg.SurroundingWeight +
		position*d.cfg.PositionWeight
	return calculator.Clamp01(total)
}

// collapseAdjacent keeps the highest-confidence point of every run of
// consecutive same-type points. Ties keep the earliest.
func collapseAdjacent(points []model.TurningPoint) []model.TurningPoint {
	if len(points) <= 1 {
		return points
	}
	out := make([]model.TurningPoint, 0, len(points))
	for i := 0; i < len(points); {
		best := points[i]
		j := i + 1
		for j < len(points) && points[j].Type == points[i].Type {
			if points[j].Confidence > best.Confidence {
				best = points[j]
			}
			j++
		}
		out = append(out, best)
		i = j
	}
	return out
}

// ValidateSequence enforces strict top/bottom alternation: a point sharing
// the previous kept point's type replaces it only when more confident.
func ValidateSequence(points []model.TurningPoint) []model.TurningPoint {
	if len(points) <= 1 {
		return points
	}
	out := []model.TurningPoint{points[0]}
	for _, p := range points[1:] {
		last := &out[len(out)-1]
		if p.Type != last.Type {
			out = append(out, p)
		} else if p.Confidence > last.Confidence {
			*last = p
		}
	}
	return out
}

package center

import (
	"math"
	"sort"

	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/model"
)

// Strength factor weights and saturation points.
const (
	factorWeight      = 0.25
	fullRangeRatio    = 0.1
	fullDurationHours = 24.0
	fullOscillation   = 2.0
)

type band struct{ high, low float64 }

// segmentBand widens a segment's span to cover every stroke endpoint in it.
func segmentBand(s model.Segment) band {
	b := band{high: math.Max(s.StartPrice, s.EndPrice), low: math.Min(s.StartPrice, s.EndPrice)}
	for _, st := range s.Strokes {
		b.high = math.Max(b.high, math.Max(st.Start.Price, st.End.Price))
		b.low = math.Min(b.low, math.Min(st.Start.Price, st.End.Price))
	}
	return b
}

// overlap returns the common band of all segments, falling back to the
// relaxed search when the strict intersection is empty.
func overlap(window []model.Segment) (high, low float64, ok bool) {
	if len(window) < minSegments {
		return 0, 0, false
	}
	bands := make([]band, len(window))
	high, low = math.Inf(1), math.Inf(-1)
	for i, s := range window {
		bands[i] = segmentBand(s)
		high = math.Min(high, bands[i].high)
		low = math.Max(low, bands[i].low)
	}
	if high > low {
		return high, low, true
	}
	return relaxedOverlap(bands)
}

// relaxedOverlap tries every pair of boundary prices as a band and keeps
// the first band touched by the most segments, requiring at least three.
func relaxedOverlap(bands []band) (high, low float64, ok bool) {
	prices := make([]float64, 0, 2*len(bands))
	for _, b := range bands {
		prices = append(prices, b.high, b.low)
	}
	sort.Float64s(prices)

	best := 0
	for i := 0; i < len(prices); i++ {
		for j := i + 1; j < len(prices); j++ {
			count := 0
			for _, b := range bands {
				if bandsOverlap(prices[j], prices[i], b.high, b.low) {
					count++
				}
			}
			if count >= minSegments && count > best {
				best = count
				high, low, ok = prices[j], prices[i], true
			}
		}
	}
	return high, low, ok
}

func strength(window []model.Segment, high, low float64) float64 {
	countFactor := math.Min(1, float64(len(window)-minSegments)/5+0.5)

	rng := high - low
	rangeFactor := 0.0
	if mid := (high + low) / 2; mid > 0 {
		rangeFactor = math.Min(1, (rng/mid)/fullRangeRatio)
	}

	hours := window[len(window)-1].EndTime.Sub(window[0].StartTime).Hours()
	durationFactor := math.Min(1, hours/fullDurationHours)

	total := factorWeight * (countFactor + rangeFactor + durationFactor + oscillation(window, high, low))
	return calculator.Clamp01(total)
}

// oscillation measures how much segment travel happened fully inside the band.
func oscillation(window []model.Segment, high, low float64) float64 {
	rng := high - low
	if rng <= 0 {
		return 0
	}
	swing := 0.0
	for _, s := range window {
		sh := math.Max(s.StartPrice, s.EndPrice)
		sl := math.Min(s.StartPrice, s.EndPrice)
		if sl >= low && sl <= high && sh >= low && sh <= high {
			swing += math.Abs(s.EndPrice - s.StartPrice)
		}
	}
	return math.Min(1, (swing/rng)/fullOscillation)
}

package fenxing

import (
	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/model"
)

// neutral is returned whenever a factor has no usable neighbourhood or a
// zero denominator.
const neutral = 0.5

// volume ratio that scores zero, and the extra ratio needed to score one.
const (
	volumeFloorRatio = 0.5
	volumeSpan       = 1.0
)

// window clamps size to the distance from i to either end of the series.
func window(size, i, n int) int {
	w := size
	if i < w {
		w = i
	}
	if n-i-1 < w {
		w = n - i - 1
	}
	return w
}

// neighbours collects f(bar) for bars within w of i, excluding i itself.
func neighbours(bars []model.OHLCV, i, w int, f func(model.OHLCV) float64) []float64 {
	out := make([]float64, 0, 2*w)
	for j := i - w; j <= i+w; j++ {
		if j != i {
			out = append(out, f(bars[j]))
		}
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func high(b model.OHLCV) float64   { return b.High }
func low(b model.OHLCV) float64    { return b.Low }
func volume(b model.OHLCV) float64 { return b.Volume }

// prominenceTop scores how far the high stands above its neighbourhood.
func (d *Detector) prominenceTop(bars []model.OHLCV, i int) float64 {
	w := window(d.cfg.ProminenceWindow, i, len(bars))
	if w < 1 {
		return neutral
	}
	nearby := neighbours(bars, i, w, high)
	_, maxNearby, _ := calculator.MinMax(nearby)
	avg := mean(nearby)
	if maxNearby == 0 || avg == 0 {
		return neutral
	}
	cur := bars[i].High
	prominence := (cur - maxNearby) / maxNearby
	relative := (cur - avg) / avg
	return calculator.Clamp01((prominence + relative*0.5) * d.cfg.ProminenceScale)
}

// prominenceBottom scores how far the low sits below its neighbourhood.
func (d *Detector) prominenceBottom(bars []model.OHLCV, i int) float64 {
	w := window(d.cfg.ProminenceWindow, i, len(bars))
	if w < 1 {
		return neutral
	}
	nearby := neighbours(bars, i, w, low)
	minNearby, _, _ := calculator.MinMax(nearby)
	avg := mean(nearby)
	if avg == 0 {
		return neutral
	}
	cur := bars[i].Low
	prominence := (minNearby - cur) / avg
	relative := (avg - cur) / avg
	return calculator.Clamp01((prominence + relative*0.5) * d.cfg.ProminenceScale)
}

// volumeConfirmation maps volume against its neighbours: 0.5x or less
// scores 0, 1.5x or more scores 1.
func (d *Detector) volumeConfirmation(bars []model.OHLCV, i int) float64 {
	w := window(d.cfg.VolumeWindow, i, len(bars))
	if w < 1 {
		return neutral
	}
	avg := mean(neighbours(bars, i, w, volume))
	if avg == 0 {
		return neutral
	}
	ratio := bars[i].Volume / avg
	return calculator.Clamp01((ratio - volumeFloorRatio) / volumeSpan)
}

// surroundingTop is the share of nearby bars with a strictly lower high.
func (d *Detector) surroundingTop(bars []model.OHLCV, i int) float64 {
	w := window(d.cfg.SurroundingWindow, i, len(bars))
	if w < 2 {
		return neutral
	}
	cur := bars[i].High
	below := 0
	nearby := neighbours(bars, i, w, high)
	for _, h := range nearby {
		if h < cur {
			below++
		}
	}
	return float64(below) / float64(len(nearby))
}

// surroundingBottom is the share of nearby bars with a strictly higher low.
func (d *Detector) surroundingBottom(bars []model.OHLCV, i int) float64 {
	w := window(d.cfg.SurroundingWindow, i, len(bars))
	if w < 2 {
		return neutral
	}
	cur := bars[i].Low
	above := 0
	nearby := neighbours(bars, i, w, low)
	for _, l := range nearby {
		if l > cur {
			above++
		}
	}
	return float64(above) / float64(len(nearby))
}

package calculator

import (
	"errors"
	"math"

	"ChanSentinel/internal/model"
)

// HighLowRange scans the most recent lookback bars and returns the highest
// high and lowest low. A lookback <= 0 scans every bar.
func HighLowRange(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// MinMax returns the smallest and largest value of a non-empty slice.
func MinMax(values []float64) (lo, hi float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// RelativePosition returns where value sits within [low, high] (0.0~1.0).
// A flat range is neutral (0.5).
func RelativePosition(value, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	return Clamp01((value - low) / (high - low)), nil
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}

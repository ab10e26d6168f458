package calculator

import (
	"errors"
)

// RollingSMA returns the trailing SMA at every index. Indices before the
// first full window are back-filled with the first available average.
func RollingSMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) < period {
		return nil, errors.New("not enough data for SMA calculation")
	}
	out := make([]float64, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	for i := 0; i < period-1; i++ {
		out[i] = out[period-1]
	}
	return out, nil
}

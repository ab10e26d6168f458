package calculator

import (
	"errors"
)

// EWM computes the adjusted exponentially weighted mean for the given span.
// Each output is sum((1-a)^k * x[t-k]) / sum((1-a)^k) with a = 2/(span+1),
// so the first value equals the first input and no warm-up is discarded.
func EWM(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1 - alpha
	out := make([]float64, len(values))
	num, den := 0.0, 0.0
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out, nil
}

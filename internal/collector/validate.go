package collector

import (
	"errors"
	"fmt"

	"ChanSentinel/internal/model"
)

var (
	ErrNoBars            = errors.New("no bars")
	ErrUnsupportedFormat = errors.New("unsupported bar format")
)

// ValidateBars checks OHLC consistency, positive prices, non-negative
// volume and strictly increasing timestamps.
func ValidateBars(bars []model.OHLCV) error {
	if len(bars) == 0 {
		return ErrNoBars
	}
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: prices must be positive", i)
		}
		if b.High < max(b.Open, b.Close) || b.Low > min(b.Open, b.Close) {
			return fmt.Errorf("bar %d: high/low do not bound open/close", i)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d: negative volume", i)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d: timestamp %s not after previous", i, b.Time.Format("2006-01-02T15:04:05Z07:00"))
		}
	}
	return nil
}

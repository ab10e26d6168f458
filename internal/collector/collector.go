// Package collector loads bar series from files, URLs and the simulator,
// and validates them before analysis.
package collector

import (
	"fmt"
	"time"

	"ChanSentinel/internal/logger"
	"ChanSentinel/internal/model"
)

// Collector loads and validates a series from its Source.
type Collector struct {
	Source Source
	// MaxBars keeps only the most recent bars when positive.
	MaxBars int
	log     *logger.Entry
}

// NewCollector creates a new Collector.
func NewCollector(source Source, maxBars int) *Collector {
	return &Collector{
		Source:  source,
		MaxBars: maxBars,
		log:     logger.L().WithComponent("collector"),
	}
}

// Collect loads the series, trims it to MaxBars and checks bar invariants.
func (c *Collector) Collect() (*model.Series, error) {
	series, err := c.Source.Load()
	if err != nil {
		return nil, fmt.Errorf("load from %s: %w", c.Source.Name(), err)
	}
	if c.MaxBars > 0 && len(series.Bars) > c.MaxBars {
		c.log.WithFields(logger.Fields{
			"symbol": series.Symbol,
			"loaded": len(series.Bars),
			"kept":   c.MaxBars,
			"source": c.Source.Name(),
		}).Debug("trimming series")
		series.Bars = series.Bars[len(series.Bars)-c.MaxBars:]
	}
	if err := ValidateBars(series.Bars); err != nil {
		return nil, fmt.Errorf("validate %s: %w", series.Symbol, err)
	}
	series.LoadedAt = time.Now()
	return series, nil
}

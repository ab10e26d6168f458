package divergence

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/model"
)

const (
	difWeight  = 0.6
	histWeight = 0.4
	shrinkGain = 5.0
)

// trendSignals compares consecutive global pivots of the same type and
// scores how far the oscillator failed to follow the new extreme.
func (d *Detector) trendSignals(bars []model.OHLCV, osc []model.OscillatorSample) []model.DivergenceSignal {
	if len(bars) < d.cfg.MinTrendBars || len(osc) < d.cfg.MinTrendBars {
		return nil
	}
	highs, lows := pivots(bars, d.cfg.PivotWindow)

	var signals []model.DivergenceSignal
	for i := 1; i < len(highs); i++ {
		prev, curr := highs[i-1], highs[i]
		if bars[curr].High <= bars[prev].High*(1+d.cfg.NewExtremeRatio) {
			continue
		}
		p, c := nearestSample(osc, bars[prev].Time), nearestSample(osc, bars[curr].Time)
		s := calculator.Clamp01(shrinkGain * (difWeight*topShrink(p.DIF, c.DIF) + histWeight*topShrink(p.Histogram, c.Histogram)))
		if s > d.cfg.MinStrength {
			signals = append(signals, model.DivergenceSignal{
				Anchor:      model.TrendAnchored{PrevIndex: prev, CurrIndex: curr},
				Time:        bars[curr].Time,
				Kind:        model.SignalTrendTop,
				Strength:    s,
				Description: fmt.Sprintf("new high %.2f not confirmed by MACD", bars[curr].High),
			})
		}
	}
	for i := 1; i < len(lows); i++ {
		prev, curr := lows[i-1], lows[i]
		if bars[curr].Low >= bars[prev].Low*(1-d.cfg.NewExtremeRatio) {
			continue
		}
		p, c := nearestSample(osc, bars[prev].Time), nearestSample(osc, bars[curr].Time)
		s := calculator.Clamp01(shrinkGain * (difWeight*bottomShrink(p.DIF, c.DIF) + histWeight*bottomShrink(p.Histogram, c.Histogram)))
		if s > d.cfg.MinStrength {
			signals = append(signals, model.DivergenceSignal{
				Anchor:      model.TrendAnchored{PrevIndex: prev, CurrIndex: curr},
				Time:        bars[curr].Time,
				Kind:        model.SignalTrendBottom,
				Strength:    s,
				Description: fmt.Sprintf("new low %.2f not confirmed by MACD", bars[curr].Low),
			})
		}
	}
	return signals
}

// topShrink is the relative fall of a reading from prev to curr.
func topShrink(prev, curr float64) float64 {
	if prev <= curr || prev == 0 {
		return 0
	}
	return (prev - curr) / math.Abs(prev)
}

// bottomShrink is the relative rise of a reading from prev to curr.
func bottomShrink(prev, curr float64) float64 {
	if curr <= prev || prev == 0 {
		return 0
	}
	return (curr - prev) / math.Abs(prev)
}

// pivots returns indices of bars whose high (low) is strictly more extreme
// than every other bar within window bars on either side.
func pivots(bars []model.OHLCV, window int) (highs, lows []int) {
	for i := window; i < len(bars)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, i)
		}
		if isLow {
			lows = append(lows, i)
		}
	}
	return highs, lows
}

// nearestSample finds the sample at t, or else the one closest in time.
// Ties go to the earlier sample. osc must be sorted and non-empty.
func nearestSample(osc []model.OscillatorSample, t time.Time) model.OscillatorSample {
	i := sort.Search(len(osc), func(k int) bool { return !osc[k].Time.Before(t) })
	switch {
	case i == len(osc):
		return osc[len(osc)-1]
	case osc[i].Time.Equal(t) || i == 0:
		return osc[i]
	}
	if t.Sub(osc[i-1].Time) <= osc[i].Time.Sub(t) {
		return osc[i-1]
	}
	return osc[i]
}

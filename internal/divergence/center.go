package divergence

import (
	"fmt"

	"ChanSentinel/internal/model"
)

// centerSignals runs the post-break and internal passes for one center.
// Both are skipped unless the center's span holds at least one bar and
// one oscillator sample.
func (d *Detector) centerSignals(c *model.Center, bars []model.OHLCV, osc []model.OscillatorSample) []model.DivergenceSignal {
	inBars := barsBetween(bars, c)
	inOsc := samplesBetween(osc, c)
	if len(inBars) == 0 || len(inOsc) == 0 {
		return nil
	}
	signals := d.postBreak(c, bars)
	return append(signals, d.internal(c, inBars, inOsc)...)
}

func barsBetween(bars []model.OHLCV, c *model.Center) []model.OHLCV {
	var out []model.OHLCV
	for _, b := range bars {
		if !b.Time.Before(c.StartTime) && !b.Time.After(c.EndTime) {
			out = append(out, b)
		}
	}
	return out
}

func samplesBetween(osc []model.OscillatorSample, c *model.Center) []model.OscillatorSample {
	var out []model.OscillatorSample
	for _, s := range osc {
		if !s.Time.Before(c.StartTime) && !s.Time.After(c.EndTime) {
			out = append(out, s)
		}
	}
	return out
}

// postBreak looks for the first bar after the center that leaves its band,
// then scans that bar and the following PostBreakBars for an extreme
// beyond BreakRatio of the band edge.
func (d *Detector) postBreak(c *model.Center, bars []model.OHLCV) []model.DivergenceSignal {
	var post []model.OHLCV
	for _, b := range bars {
		if b.Time.After(c.EndTime) {
			post = append(post, b)
		}
	}
	if len(post) < d.cfg.MinPostCenterBars {
		return nil
	}
	brk := -1
	for i, b := range post {
		if b.High > c.HighPrice || b.Low < c.LowPrice {
			brk = i
			break
		}
	}
	if brk < 0 {
		return nil
	}
	scan := post[brk:min(len(post), brk+d.cfg.PostBreakBars+1)]

	var signals []model.DivergenceSignal
	if c.Type == model.CenterUp || c.Type == model.CenterConsolidation {
		peak := scan[0]
		for _, b := range scan[1:] {
			if b.High > peak.High {
				peak = b
			}
		}
		if peak.High > c.HighPrice*(1+d.cfg.BreakRatio) {
			signals = append(signals, model.DivergenceSignal{
				Anchor:      model.CenterAnchored{Center: c},
				Time:        peak.Time,
				Kind:        model.SignalPostBreakTop,
				Strength:    postBreakStrength,
				Description: fmt.Sprintf("top divergence after upside break, high %.2f", peak.High),
			})
		}
	}
	if c.Type == model.CenterDown || c.Type == model.CenterConsolidation {
		trough := scan[0]
		for _, b := range scan[1:] {
			if b.Low < trough.Low {
				trough = b
			}
		}
		if trough.Low < c.LowPrice*(1-d.cfg.BreakRatio) {
			signals = append(signals, model.DivergenceSignal{
				Anchor:      model.CenterAnchored{Center: c},
				Time:        trough.Time,
				Kind:        model.SignalPostBreakBottom,
				Strength:    postBreakStrength,
				Description: fmt.Sprintf("bottom divergence after downside break, low %.2f", trough.Low),
			})
		}
	}
	return signals
}

// internal compares consecutive 3-bar pivots inside the center. Every new
// extreme emits a signal stamped at the center's start; the oscillator
// only gates whether the pass runs.
func (d *Detector) internal(c *model.Center, bars []model.OHLCV, osc []model.OscillatorSample) []model.DivergenceSignal {
	if len(bars) < d.cfg.MinCenterBars || len(osc) < d.cfg.MinCenterBars {
		return nil
	}
	var highs, lows []float64
	for i := 1; i < len(bars)-1; i++ {
		if bars[i].High > bars[i-1].High && bars[i].High > bars[i+1].High {
			highs = append(highs, bars[i].High)
		}
		if bars[i].Low < bars[i-1].Low && bars[i].Low < bars[i+1].Low {
			lows = append(lows, bars[i].Low)
		}
	}

	var signals []model.DivergenceSignal
	for i := 1; i < len(highs); i++ {
		if highs[i] > highs[i-1]*(1+d.cfg.NewExtremeRatio) {
			signals = append(signals, model.DivergenceSignal{
				Anchor:      model.CenterAnchored{Center: c},
				Time:        c.StartTime,
				Kind:        model.SignalInternalTop,
				Strength:    internalStrength,
				Description: "internal top divergence inside center",
			})
		}
	}
	for i := 1; i < len(lows); i++ {
		if lows[i] < lows[i-1]*(1-d.cfg.NewExtremeRatio) {
			signals = append(signals, model.DivergenceSignal{
				Anchor:      model.CenterAnchored{Center: c},
				Time:        c.StartTime,
				Kind:        model.SignalInternalBottom,
				Strength:    internalStrength,
				Description: "internal bottom divergence inside center",
			})
		}
	}
	return signals
}

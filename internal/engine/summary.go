package engine

import (
	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/center"
	"ChanSentinel/internal/model"
	"ChanSentinel/internal/stroke"
)

// Summarize computes descriptive counts and averages for every stage.
func Summarize(r *model.AnalysisResult) model.Summary {
	s := model.Summary{
		Basic:        basicInfo(r.Bars),
		Fenxing:      fenxingStats(r.Fenxing),
		SegmentCount: len(r.Segments),
		Strokes:      stroke.AnalyzeFeatures(r.Strokes),
		Centers:      center.AnalyzeFeatures(r.Centers),
		Divergence:   model.DivergenceStats{ByKind: map[model.SignalKind]int{}},
	}
	total := 0.0
	for _, sig := range r.Divergences {
		s.Divergence.ByKind[sig.Kind]++
		total += sig.Strength
	}
	if n := len(r.Divergences); n > 0 {
		s.Divergence.Total = n
		s.Divergence.AvgStrength = total / float64(n)
	}
	return s
}

func basicInfo(bars []model.OHLCV) model.BasicInfo {
	info := model.BasicInfo{BarCount: len(bars)}
	if len(bars) == 0 {
		return info
	}
	first, last := bars[0], bars[len(bars)-1]
	info.StartTime, info.EndTime = first.Time, last.Time
	info.StartClose, info.EndClose = first.Close, last.Close
	info.Highest, info.Lowest, _ = calculator.HighLowRange(bars, 0)
	return info
}

func fenxingStats(points []model.TurningPoint) model.FenxingStats {
	st := model.FenxingStats{Total: len(points)}
	if len(points) == 0 {
		return st
	}
	conf := 0.0
	for _, p := range points {
		if p.Type == model.FenxingTop {
			st.Top++
		} else {
			st.Bottom++
		}
		conf += p.Confidence
	}
	st.AvgConfidence = conf / float64(len(points))
	return st
}

package stroke

import "ChanSentinel/internal/model"

// AnalyzeFeatures summarises a stroke list. Efficiency is the total price
// range divided by the total bar count.
func AnalyzeFeatures(strokes []model.Stroke) model.StrokeFeatures {
	var f model.StrokeFeatures
	if len(strokes) == 0 {
		return f
	}
	f.Total = len(strokes)
	f.MinPriceRange = strokes[0].PriceRange
	totalRange, totalBars := 0.0, 0
	for _, s := range strokes {
		if s.Direction == model.DirectionUp {
			f.Up++
		} else {
			f.Down++
		}
		totalRange += s.PriceRange
		totalBars += s.BarCount
		if s.PriceRange > f.MaxPriceRange {
			f.MaxPriceRange = s.PriceRange
		}
		if s.PriceRange < f.MinPriceRange {
			f.MinPriceRange = s.PriceRange
		}
	}
	f.AvgPriceRange = totalRange / float64(len(strokes))
	f.AvgDuration = float64(totalBars) / float64(len(strokes))
	if totalBars > 0 {
		f.Efficiency = totalRange / float64(totalBars)
	}
	return f
}

package center

import (
	"math"

	"ChanSentinel/internal/model"
)

// AnalyzeFeatures aggregates counts by type and strength statistics.
func AnalyzeFeatures(centers []model.Center) model.CenterFeatures {
	var f model.CenterFeatures
	if len(centers) == 0 {
		return f
	}
	f.Total = len(centers)
	f.MinStrength = 1
	var strength, hours, rng float64
	for _, c := range centers {
		switch c.Type {
		case model.CenterUp:
			f.Up++
		case model.CenterDown:
			f.Down++
		default:
			f.Consolidation++
		}
		strength += c.Strength
		rng += c.Range
		hours += c.EndTime.Sub(c.StartTime).Hours()
		f.MaxStrength = math.Max(f.MaxStrength, c.Strength)
		f.MinStrength = math.Min(f.MinStrength, c.Strength)
	}
	n := float64(len(centers))
	f.AvgStrength = strength / n
	f.AvgDurationHours = hours / n
	f.AvgPriceRange = rng / n
	return f
}

// FindExtensions pairs each center with its successor and classifies the
// drift between their midpoints. The last center has no successor.
func FindExtensions(centers []model.Center) []model.Extension {
	if len(centers) == 0 {
		return nil
	}
	out := make([]model.Extension, len(centers))
	for i := range centers {
		out[i].CenterIndex = i
		if i == len(centers)-1 {
			continue
		}
		cur, next := &centers[i], &centers[i+1]
		mid := cur.Mid()
		if mid == 0 {
			continue
		}
		change := (next.Mid() - mid) / mid
		gap := next.StartTime.Sub(cur.EndTime).Hours()

		out[i].Type = classifyDrift(change)
		out[i].PriceChange = change
		out[i].TimeGapHours = gap
		out[i].Strength = math.Min(1, math.Abs(change)*10+1/(math.Max(gap, 0)+1))
	}
	return out
}

func classifyDrift(change float64) model.ExtensionType {
	switch {
	case math.Abs(change) < 0.01:
		return model.ExtensionHorizontal
	case change > 0.05:
		return model.ExtensionUpward
	case change < -0.05:
		return model.ExtensionDownward
	default:
		return model.ExtensionSlightTrend
	}
}

package engine

import (
	"ChanSentinel/internal/model"
	"ChanSentinel/internal/stroke"
)

const (
	dataWeight    = 0.2
	fenxingWeight = 0.3
	strokeWeight  = 0.3
	centerWeight  = 0.2

	minBarsForFullData = 50
)

// Grades maps an overall quality score to a label, highest first.
var Grades = []struct {
	MinScore float64
	Label    string
}{
	{0.8, "excellent"},
	{0.6, "good"},
	{0.4, "fair"},
}

// DefaultGrade applies below the lowest threshold.
const DefaultGrade = "poor"

func mapGrade(score float64) string {
	for _, g := range Grades {
		if score >= g.MinScore {
			return g.Label
		}
	}
	return DefaultGrade
}

// AssessQuality scores a run on data volume, turning-point confidence,
// stroke efficiency and center strength, with hints for weak areas.
func AssessQuality(r *model.AnalysisResult) model.Quality {
	q := model.Quality{Recommendations: []string{}}

	if n := len(r.Bars); n >= minBarsForFullData {
		q.Data = min(1, float64(n)/100)
	} else {
		q.Data = 0.5
		q.Recommendations = append(q.Recommendations, "add more bars for a more reliable analysis")
	}

	if len(r.Fenxing) > 0 {
		q.Fenxing = fenxingStats(r.Fenxing).AvgConfidence
		if q.Fenxing < 0.6 {
			q.Recommendations = append(q.Recommendations, "turning-point confidence is low; consider raising the confidence threshold")
		}
	} else {
		q.Recommendations = append(q.Recommendations, "no turning points found; consider lowering the confidence threshold")
	}

	if len(r.Strokes) > 0 {
		if stroke.AnalyzeFeatures(r.Strokes).Efficiency > 0.5 {
			q.Stroke = 0.8
		} else {
			q.Stroke = 0.6
			q.Recommendations = append(q.Recommendations, "stroke efficiency is low; the series may be over-segmented")
		}
	} else {
		q.Recommendations = append(q.Recommendations, "no strokes built; check the turning points")
	}

	if len(r.Centers) > 0 {
		total := 0.0
		for _, c := range r.Centers {
			total += c.Strength
		}
		q.Center = total / float64(len(r.Centers))
		if q.Center < 0.5 {
			q.Recommendations = append(q.Recommendations, "center strength is low; check segment construction")
		}
	} else {
		q.Recommendations = append(q.Recommendations, "no centers found; the series may be too short or strongly trending")
	}

	q.Overall = q.Data*dataWeight + q.Fenxing*fenxingWeight + q.Stroke*strokeWeight + q.Center*centerWeight
	q.Grade = mapGrade(q.Overall)
	return q
}

package engine

import (
	"math"
	"testing"
	"time"

	"ChanSentinel/internal/model"
)

func TestAssessQuality_Empty(t *testing.T) {
	q := AssessQuality(&model.AnalysisResult{})
	if q.Data != 0.5 || q.Fenxing != 0 || q.Stroke != 0 || q.Center != 0 {
		t.Errorf("unexpected sub-scores %+v", q)
	}
	if math.Abs(q.Overall-0.1) > 1e-9 {
		t.Errorf("overall = %f, want 0.1", q.Overall)
	}
	if len(q.Recommendations) != 4 {
		t.Errorf("expected 4 recommendations, got %v", q.Recommendations)
	}
	if q.Grade != DefaultGrade {
		t.Errorf("grade = %s, want %s", q.Grade, DefaultGrade)
	}
}

func TestAssessQuality_Strong(t *testing.T) {
	r := &model.AnalysisResult{
		Bars: make([]model.OHLCV, 120),
		Fenxing: []model.TurningPoint{
			{Type: model.FenxingTop, Confidence: 0.9},
			{Type: model.FenxingBottom, Confidence: 0.7},
		},
		Strokes: []model.Stroke{{Direction: model.DirectionUp, PriceRange: 10, BarCount: 5}},
		Centers: []model.Center{{Strength: 0.7}},
	}
	q := AssessQuality(r)
	if q.Data != 1 || q.Stroke != 0.8 {
		t.Errorf("unexpected sub-scores %+v", q)
	}
	want := 0.2*1 + 0.3*0.8 + 0.3*0.8 + 0.2*0.7
	if math.Abs(q.Overall-want) > 1e-9 {
		t.Errorf("overall = %f, want %f", q.Overall, want)
	}
	if len(q.Recommendations) != 0 {
		t.Errorf("unexpected recommendations %v", q.Recommendations)
	}
	if q.Grade != "excellent" {
		t.Errorf("grade = %s, want excellent", q.Grade)
	}
}

func TestMapGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "excellent"},
		{0.6, "good"},
		{0.45, "fair"},
		{0.1, "poor"},
	}
	for _, tt := range tests {
		if got := mapGrade(tt.score); got != tt.want {
			t.Errorf("mapGrade(%f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	bars := []model.OHLCV{
		{Time: t0, High: 102, Low: 99, Close: 101},
		{Time: t0.Add(time.Hour), High: 105, Low: 100, Close: 104},
		{Time: t0.Add(2 * time.Hour), High: 104, Low: 97, Close: 98},
	}
	r := &model.AnalysisResult{
		Bars: bars,
		Fenxing: []model.TurningPoint{
			{Type: model.FenxingTop, Confidence: 0.8},
			{Type: model.FenxingBottom, Confidence: 0.6},
		},
		Divergences: []model.DivergenceSignal{
			{Kind: model.SignalTrendTop, Strength: 0.8},
			{Kind: model.SignalTrendTop, Strength: 0.6},
			{Kind: model.SignalInternalBottom, Strength: 0.6},
		},
	}
	s := Summarize(r)
	if s.Basic.BarCount != 3 || s.Basic.Highest != 105 || s.Basic.Lowest != 97 {
		t.Errorf("basic info = %+v", s.Basic)
	}
	if s.Basic.StartClose != 101 || s.Basic.EndClose != 98 {
		t.Errorf("closes = %f/%f", s.Basic.StartClose, s.Basic.EndClose)
	}
	if s.Fenxing.Top != 1 || s.Fenxing.Bottom != 1 || math.Abs(s.Fenxing.AvgConfidence-0.7) > 1e-9 {
		t.Errorf("fenxing stats = %+v", s.Fenxing)
	}
	if s.Divergence.Total != 3 || s.Divergence.ByKind[model.SignalTrendTop] != 2 {
		t.Errorf("divergence stats = %+v", s.Divergence)
	}
	if s.Strokes.Total != 0 || s.Centers.Total != 0 {
		t.Error("empty stages should summarise to zero")
	}
}

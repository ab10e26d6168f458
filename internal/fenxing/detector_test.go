package fenxing

import (
	"testing"
	"time"

	"ChanSentinel/internal/model"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func barsFrom(highs, lows []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(highs))
	for i := range highs {
		mid := (highs[i] + lows[i]) / 2
		bars[i] = model.OHLCV{
			Time:   t0.Add(time.Duration(i) * time.Minute),
			Open:   mid,
			High:   highs[i],
			Low:    lows[i],
			Close:  mid,
			Volume: 1000,
		}
	}
	return bars
}

func TestFind_SingleTopAtPeak(t *testing.T) {
	bars := barsFrom(
		[]float64{100, 105, 110, 108, 106},
		[]float64{98, 103, 108, 106, 104},
	)
	d := NewDetector(DefaultConfig())
	points := d.Find(bars, 0.5)
	if len(points) != 1 {
		t.Fatalf("expected 1 turning point, got %d", len(points))
	}
	p := points[0]
	if p.Type != model.FenxingTop || p.Index != 2 {
		t.Errorf("expected top at index 2, got %s at %d", p.Type, p.Index)
	}
	if p.Price != 110 {
		t.Errorf("top price should be the high, got %f", p.Price)
	}
	if p.Confidence < 0.5 || p.Confidence > 1 {
		t.Errorf("confidence out of range: %f", p.Confidence)
	}
}

func TestFind_TooFewBars(t *testing.T) {
	d := NewDetector(DefaultConfig())
	if got := d.Find(barsFrom([]float64{1, 2}, []float64{0.5, 1}), 0); len(got) != 0 {
		t.Errorf("expected no points for 2 bars, got %d", len(got))
	}
	if got := d.Find(nil, 0); len(got) != 0 {
		t.Errorf("expected no points for nil bars, got %d", len(got))
	}
}

func TestFind_CollapsesAdjacentTops(t *testing.T) {
	// Strictly rising lows rule out bottoms, leaving two consecutive tops.
	bars := barsFrom(
		[]float64{100, 110, 105, 112, 104, 103},
		[]float64{90, 91, 92, 93, 94, 95},
	)
	d := NewDetector(DefaultConfig())
	ext := scanExtremes(bars)
	first := d.scoreTop(bars, 1, ext)
	second := d.scoreTop(bars, 3, ext)
	wantIndex := 1
	if second > first {
		wantIndex = 3
	}

	points := d.Find(bars, 0)
	if len(points) != 1 {
		t.Fatalf("expected adjacent tops to collapse to 1, got %d", len(points))
	}
	if points[0].Index != wantIndex {
		t.Errorf("expected the stronger top at %d, got %d", wantIndex, points[0].Index)
	}
}

func TestFind_ConfidenceClampedForExtremeInput(t *testing.T) {
	bars := barsFrom(
		[]float64{1, 1e12, 1, 1e12, 1, 1e12, 1},
		[]float64{0.5, 1, 1e-9, 1, 1e-9, 1, 0.5},
	)
	bars[1].Volume = 1e15
	d := NewDetector(DefaultConfig())
	for _, p := range d.Find(bars, 0) {
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Errorf("confidence %f outside [0,1] at index %d", p.Confidence, p.Index)
		}
	}
}

func TestFind_Deterministic(t *testing.T) {
	bars := barsFrom(
		[]float64{10, 12, 11, 13, 9, 10, 14, 12, 11, 15, 10},
		[]float64{9, 10, 8, 11, 7, 8, 12, 10, 6, 13, 9},
	)
	d := NewDetector(DefaultConfig())
	a := d.Find(bars, 0.2)
	b := d.Find(bars, 0.2)
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("point %d differs between runs", i)
		}
	}
	for i := 1; i < len(a); i++ {
		if a[i].Type == a[i-1].Type {
			t.Errorf("points %d and %d share type %s after collapsing", i-1, i, a[i].Type)
		}
	}
}

func TestVolumeConfirmation_NeutralOnZeroVolume(t *testing.T) {
	bars := barsFrom(
		[]float64{100, 105, 110, 108, 106},
		[]float64{98, 103, 108, 106, 104},
	)
	for i := range bars {
		bars[i].Volume = 0
	}
	d := NewDetector(DefaultConfig())
	if got := d.volumeConfirmation(bars, 2); got != neutral {
		t.Errorf("expected neutral volume score, got %f", got)
	}
}

func TestValidateSequence(t *testing.T) {
	pts := []model.TurningPoint{
		{Index: 1, Type: model.FenxingTop, Confidence: 0.6},
		{Index: 3, Type: model.FenxingTop, Confidence: 0.8},
		{Index: 5, Type: model.FenxingBottom, Confidence: 0.7},
		{Index: 7, Type: model.FenxingBottom, Confidence: 0.5},
		{Index: 9, Type: model.FenxingTop, Confidence: 0.9},
	}
	got := ValidateSequence(pts)
	wantIdx := []int{3, 5, 9}
	if len(got) != len(wantIdx) {
		t.Fatalf("expected %d points, got %d", len(wantIdx), len(got))
	}
	for i, idx := range wantIdx {
		if got[i].Index != idx {
			t.Errorf("position %d: expected index %d, got %d", i, idx, got[i].Index)
		}
	}
}

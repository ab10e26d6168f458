package engine

import (
	"reflect"
	"testing"
	"time"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/model"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// simBars is a seeded hourly random walk starting at t0.
func simBars(t *testing.T, seed uint64, n int) []model.OHLCV {
	t.Helper()
	p := collector.DefaultSimParams()
	p.Count, p.Interval, p.StartTime = n, "1h", t0
	bars, err := collector.NewSimulator(seed).Generate(p)
	if err != nil {
		t.Fatalf("simulate seed %d: %v", seed, err)
	}
	return bars
}

// swingBars returns the first seeded 500-bar series that carries both
// centers and divergence signals.
func swingBars(t *testing.T, e *Engine) []model.OHLCV {
	t.Helper()
	for seed := uint64(1); seed <= 5; seed++ {
		bars := simBars(t, seed, 500)
		r := e.Run(bars, 0.3)
		if len(r.Centers) > 0 && len(r.Divergences) > 0 {
			return bars
		}
	}
	t.Fatal("no seeded series produced centers and signals")
	return nil
}

func newTestEngine() *Engine {
	e := New(DefaultOptions(), nil)
	e.now = func() time.Time { return t0 }
	return e
}

func TestRun_Idempotent(t *testing.T) {
	e := newTestEngine()
	bars := swingBars(t, e)

	a := e.Run(bars, 0.3)
	b := e.Run(bars, 0.3)

	if !reflect.DeepEqual(a.Fenxing, b.Fenxing) {
		t.Error("turning points differ between runs")
	}
	if !reflect.DeepEqual(a.Strokes, b.Strokes) {
		t.Error("strokes differ between runs")
	}
	if !reflect.DeepEqual(a.Segments, b.Segments) {
		t.Error("segments differ between runs")
	}
	if !reflect.DeepEqual(a.Centers, b.Centers) {
		t.Error("centers differ between runs")
	}
	if len(a.Divergences) != len(b.Divergences) {
		t.Fatalf("signal counts differ: %d vs %d", len(a.Divergences), len(b.Divergences))
	}
	for i := range a.Divergences {
		x, y := a.Divergences[i], b.Divergences[i]
		if x.Kind != y.Kind || !x.Time.Equal(y.Time) || x.Strength != y.Strength {
			t.Errorf("signal %d differs between runs: %+v vs %+v", i, x, y)
		}
	}
	if !a.AnalysisTime.Equal(t0) {
		t.Errorf("analysis time = %v, want injected clock", a.AnalysisTime)
	}
}

func TestRun_Invariants(t *testing.T) {
	e := newTestEngine()
	bars := swingBars(t, e)
	r := e.Run(bars, 0.3)

	if len(r.Fenxing) == 0 || len(r.Strokes) == 0 {
		t.Fatal("expected turning points and strokes on a swinging series")
	}
	if len(r.Centers) == 0 || len(r.Divergences) == 0 {
		t.Fatal("expected centers and signals on a swinging series")
	}
	for i, p := range r.Fenxing {
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Errorf("point %d confidence %f", i, p.Confidence)
		}
	}
	for i, s := range r.Strokes {
		if s.Start.Type == s.End.Type {
			t.Errorf("stroke %d joins two %s points", i, s.Start.Type)
		}
		if (s.Direction == model.DirectionUp) != (s.End.Price > s.Start.Price) {
			t.Errorf("stroke %d direction %s disagrees with prices", i, s.Direction)
		}
	}
	for i, c := range r.Centers {
		if c.HighPrice <= c.LowPrice || c.Strength < 0 || c.Strength > 1 || len(c.Segments) < 3 {
			t.Errorf("center %d violates invariants: %+v", i, c)
		}
	}
	if len(r.Oscillator) != len(bars)-25 {
		t.Errorf("oscillator samples = %d, want %d", len(r.Oscillator), len(bars)-25)
	}
	for i, s := range r.Divergences {
		if s.Strength <= 0 || s.Strength > 1 {
			t.Errorf("signal %d strength %f outside (0, 1]", i, s.Strength)
		}
	}
	for i := 1; i < len(r.Divergences); i++ {
		if r.Divergences[i].Time.Before(r.Divergences[i-1].Time) {
			t.Error("divergences should be time ordered")
		}
	}
	for _, s := range r.Divergences {
		if c, ok := s.Center(); ok {
			found := false
			for i := range r.Centers {
				if &r.Centers[i] == c {
					found = true
				}
			}
			if !found {
				t.Error("center anchor should point into the result's centers")
			}
		}
	}
}

func TestRun_NoCentersNoSignals(t *testing.T) {
	e := newTestEngine()
	for seed := uint64(1); seed <= 5; seed++ {
		r := e.Run(simBars(t, seed, 60), 0.3)
		if len(r.Centers) == 0 && len(r.Divergences) != 0 {
			t.Errorf("seed %d: %d signals without any center", seed, len(r.Divergences))
		}
	}
}

func TestRun_ShortSeries(t *testing.T) {
	r := newTestEngine().Run(simBars(t, 1, 2), 0.3)
	if len(r.Fenxing)+len(r.Strokes)+len(r.Segments)+len(r.Centers)+len(r.Oscillator)+len(r.Divergences) != 0 {
		t.Errorf("two bars should produce nothing: %+v", r)
	}
	if len(r.Bars) != 2 {
		t.Error("result should carry the input bars")
	}
}

func TestStageEntryPoints_MatchRun(t *testing.T) {
	e := newTestEngine()
	bars := swingBars(t, e)
	r := e.Run(bars, 0.3)

	points := e.TurningPoints(bars, 0.3)
	strokes := e.Strokes(bars, points)
	segments := e.Segments(strokes, bars)
	if len(strokes) == 0 || len(segments) == 0 {
		t.Fatal("expected strokes and segments on a swinging series")
	}
	if !reflect.DeepEqual(strokes, r.Strokes) || !reflect.DeepEqual(segments, r.Segments) {
		t.Error("stage entry points should reproduce the full run")
	}
}

func TestSummarize_BasicInfoSpansWholeSeries(t *testing.T) {
	bars := simBars(t, 3, 200)
	info := Summarize(newTestEngine().Run(bars, 0.3)).Basic

	wantHigh, wantLow := bars[0].High, bars[0].Low
	for _, b := range bars {
		wantHigh = max(wantHigh, b.High)
		wantLow = min(wantLow, b.Low)
	}
	if info.Highest != wantHigh || info.Lowest != wantLow {
		t.Errorf("range = %f/%f, want %f/%f", info.Highest, info.Lowest, wantHigh, wantLow)
	}
	if info.BarCount != 200 || !info.StartTime.Equal(t0) || !info.EndTime.Equal(bars[199].Time) {
		t.Errorf("basic info = %+v", info)
	}
}

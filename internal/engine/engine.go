// Package engine sequences the analysis stages over one bar series.
package engine

import (
	"time"

	"ChanSentinel/internal/center"
	"ChanSentinel/internal/divergence"
	"ChanSentinel/internal/fenxing"
	"ChanSentinel/internal/logger"
	"ChanSentinel/internal/model"
	"ChanSentinel/internal/stroke"
)

// Options carries every stage's tuning.
type Options struct {
	MinConfidence float64           `yaml:"min_confidence" toml:"min_confidence"`
	Fenxing       fenxing.Config    `yaml:"fenxing" toml:"fenxing"`
	Stroke        stroke.Config     `yaml:"stroke" toml:"stroke"`
	Center        center.Config     `yaml:"center" toml:"center"`
	Divergence    divergence.Config `yaml:"divergence" toml:"divergence"`
}

func DefaultOptions() Options {
	return Options{
		MinConfidence: fenxing.DefaultMinConfidence,
		Fenxing:       fenxing.DefaultConfig(),
		Stroke:        stroke.DefaultConfig(),
		Center:        center.DefaultConfig(),
		Divergence:    divergence.DefaultConfig(),
	}
}

// Engine holds one detector per stage. It keeps no state between runs
// and is safe for concurrent use.
type Engine struct {
	opts       Options
	fenxing    *fenxing.Detector
	strokes    *stroke.Builder
	centers    *center.Detector
	divergence *divergence.Detector
	log        *logger.Entry
	now        func() time.Time
}

// New builds an engine. A nil log falls back to the default logger.
func New(opts Options, log *logger.Log) *Engine {
	if log == nil {
		log = logger.L()
	}
	return &Engine{
		opts:       opts,
		fenxing:    fenxing.NewDetector(opts.Fenxing),
		strokes:    stroke.NewBuilder(opts.Stroke),
		centers:    center.NewDetector(opts.Center),
		divergence: divergence.NewDetector(opts.Divergence),
		log:        log.WithComponent("engine"),
		now:        time.Now,
	}
}

// MinConfidence is the configured turning-point threshold.
func (e *Engine) MinConfidence() float64 {
	return e.opts.MinConfidence
}

// Run executes every stage in order. Each stage's output is complete
// before the next starts.
func (e *Engine) Run(bars []model.OHLCV, minConfidence float64) *model.AnalysisResult {
	started := time.Now()

	points := e.TurningPoints(bars, minConfidence)
	strokes := e.Strokes(bars, points)
	segments := e.Segments(strokes, bars)
	centers := e.Centers(segments, bars)
	osc := e.Oscillator(bars)
	signals := e.Divergences(bars, centers, osc)

	e.log.LogDuration("run", started, logger.Fields{
		"bars":        len(bars),
		"fenxing":     len(points),
		"strokes":     len(strokes),
		"segments":    len(segments),
		"centers":     len(centers),
		"oscillator":  len(osc),
		"divergences": len(signals),
	})

	return &model.AnalysisResult{
		Bars:         bars,
		Fenxing:      points,
		Strokes:      strokes,
		Segments:     segments,
		Centers:      centers,
		Oscillator:   osc,
		Divergences:  signals,
		AnalysisTime: e.now(),
	}
}

// TurningPoints runs turning-point detection alone.
func (e *Engine) TurningPoints(bars []model.OHLCV, minConfidence float64) []model.TurningPoint {
	return e.fenxing.Find(bars, minConfidence)
}

// Strokes builds strokes from externally supplied turning points.
func (e *Engine) Strokes(bars []model.OHLCV, points []model.TurningPoint) []model.Stroke {
	return e.strokes.BuildStrokes(bars, points)
}

func (e *Engine) Segments(strokes []model.Stroke, bars []model.OHLCV) []model.Segment {
	return e.strokes.BuildSegments(strokes, bars)
}

func (e *Engine) Centers(segments []model.Segment, bars []model.OHLCV) []model.Center {
	return e.centers.FindCenters(segments, bars)
}

func (e *Engine) Oscillator(bars []model.OHLCV) []model.OscillatorSample {
	return e.divergence.ComputeOscillator(bars)
}

func (e *Engine) Divergences(bars []model.OHLCV, centers []model.Center, osc []model.OscillatorSample) []model.DivergenceSignal {
	return e.divergence.DetectDivergences(bars, centers, osc)
}

// CenterFeatures summarises a center list.
func (e *Engine) CenterFeatures(centers []model.Center) model.CenterFeatures {
	return center.AnalyzeFeatures(centers)
}

func (e *Engine) Extensions(centers []model.Center) []model.Extension {
	return center.FindExtensions(centers)
}

func (e *Engine) StrokeFeatures(strokes []model.Stroke) model.StrokeFeatures {
	return stroke.AnalyzeFeatures(strokes)
}

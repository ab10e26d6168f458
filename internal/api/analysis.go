package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/model"
)

type completeRequest struct {
	simRequest
	Symbol        string        `json:"symbol"`
	Bars          []model.OHLCV `json:"kline_data"`
	MinConfidence *float64      `json:"min_confidence"`
}

type barsRequest struct {
	Bars          []model.OHLCV `json:"kline_data"`
	MinConfidence *float64      `json:"min_confidence"`
}

type fenxingRequest struct {
	Bars        []model.OHLCV `json:"kline_data"`
	MinStrength *float64      `json:"min_strength"`
}

type strokeRequest struct {
	Bars   []model.OHLCV        `json:"kline_data"`
	Points []model.TurningPoint `json:"fenxing_points"`
}

func (s *Server) threshold(v *float64) (float64, error) {
	if v == nil {
		return s.engine.MinConfidence(), nil
	}
	if *v < 0 || *v > 1 {
		return 0, fmt.Errorf("confidence threshold must be within [0,1], got %g", *v)
	}
	return *v, nil
}

func checkBars(bars []model.OHLCV, min int) error {
	if len(bars) < min {
		return fmt.Errorf("at least %d bars are required, got %d", min, len(bars))
	}
	return collector.ValidateBars(bars)
}

func (s *Server) handleComplete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	minConf, err := s.threshold(req.MinConfidence)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	bars := req.Bars
	if len(bars) == 0 {
		p, err := s.simParams(req.simRequest)
		if err != nil {
			s.fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if bars, err = s.sim.Generate(p); err != nil {
			s.fail(c, http.StatusBadRequest, err.Error())
			return
		}
	} else if err := checkBars(bars, 1); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result := s.engine.Run(bars, minConf)
	s.ok(c, "complete analysis finished", gin.H{
		"analysis_result": normalized(result),
		"summary":         engine.Summarize(result),
		"quality":         engine.AssessQuality(result),
	})
}

func (s *Server) handleFenxing(c *gin.Context) {
	var req fenxingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkBars(req.Bars, 3); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	minStrength := 0.5
	if req.MinStrength != nil {
		if *req.MinStrength < 0 || *req.MinStrength > 1 {
			s.fail(c, http.StatusBadRequest, "min_strength must be within [0,1]")
			return
		}
		minStrength = *req.MinStrength
	}

	points := s.engine.TurningPoints(req.Bars, minStrength)
	var top, bottom int
	var conf float64
	for _, p := range points {
		if p.Type == model.FenxingTop {
			top++
		} else {
			bottom++
		}
		conf += p.Confidence
	}
	avg := 0.0
	if len(points) > 0 {
		avg = conf / float64(len(points))
	}
	s.ok(c, fmt.Sprintf("found %d turning points", len(points)), gin.H{
		"fenxing_points": orEmpty(points),
		"total_count":    len(points),
		"top_count":      top,
		"bottom_count":   bottom,
		"avg_confidence": avg,
	})
}

func (s *Server) handleStroke(c *gin.Context) {
	var req strokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkBars(req.Bars, 1); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	for i, p := range req.Points {
		if p.Type != model.FenxingTop && p.Type != model.FenxingBottom {
			s.fail(c, http.StatusBadRequest, fmt.Sprintf("fenxing_points[%d]: unknown type %q", i, p.Type))
			return
		}
	}

	strokes := s.engine.Strokes(req.Bars, req.Points)
	s.ok(c, fmt.Sprintf("built %d strokes", len(strokes)), gin.H{
		"strokes":  orEmpty(strokes),
		"features": s.engine.StrokeFeatures(strokes),
	})
}

func (s *Server) handleCenter(c *gin.Context) {
	var req barsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	minConf, err := s.threshold(req.MinConfidence)
	if err == nil {
		err = checkBars(req.Bars, 1)
	}
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	points := s.engine.TurningPoints(req.Bars, minConf)
	strokes := s.engine.Strokes(req.Bars, points)
	segments := s.engine.Segments(strokes, req.Bars)
	centers := s.engine.Centers(segments, req.Bars)
	s.ok(c, fmt.Sprintf("found %d centers", len(centers)), gin.H{
		"segments":   orEmpty(segments),
		"centers":    orEmpty(centers),
		"features":   s.engine.CenterFeatures(centers),
		"extensions": orEmpty(s.engine.Extensions(centers)),
	})
}

func (s *Server) handleDivergence(c *gin.Context) {
	var req barsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	minConf, err := s.threshold(req.MinConfidence)
	if err == nil {
		err = checkBars(req.Bars, 1)
	}
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	points := s.engine.TurningPoints(req.Bars, minConf)
	strokes := s.engine.Strokes(req.Bars, points)
	centers := s.engine.Centers(s.engine.Segments(strokes, req.Bars), req.Bars)
	osc := s.engine.Oscillator(req.Bars)
	signals := s.engine.Divergences(req.Bars, centers, osc)
	s.ok(c, fmt.Sprintf("found %d divergence signals", len(signals)), gin.H{
		"macd_data":          orEmpty(osc),
		"divergence_signals": orEmpty(signals),
		"center_count":       len(centers),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	s.ok(c, "analysis capabilities", gin.H{
		"features": gin.H{
			"complete_analysis":   "turning points, strokes, segments, centers and divergences in one run",
			"fenxing_analysis":    "scored top and bottom turning points",
			"stroke_analysis":     "strokes between alternating turning points",
			"center_analysis":     "overlap bands of three or more segments",
			"divergence_analysis": "MACD divergence around centers and across trend pivots",
		},
		"oscillator_engines": []string{"ewm", "talib"},
		"supported_patterns": collector.Patterns,
		"trend_directions":   collector.TrendDirections,
		"signal_types": []model.SignalKind{
			model.SignalTrendTop, model.SignalTrendBottom,
			model.SignalPostBreakTop, model.SignalPostBreakBottom,
			model.SignalInternalTop, model.SignalInternalBottom,
		},
	})
}

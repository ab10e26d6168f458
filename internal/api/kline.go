package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/model"
)

// Accepted simulator ranges for requests.
const (
	minCount      = 10
	maxCount      = 1000
	minVolatility = 0.001
	maxVolatility = 0.1
	maxTrendBias  = 0.05
)

type simRequest struct {
	Count      int      `json:"count"`
	StartPrice float64  `json:"start_price"`
	Interval   string   `json:"time_interval"`
	Volatility *float64 `json:"volatility"`
	TrendBias  float64  `json:"trend_bias"`
}

// simParams fills request gaps from the server defaults and range-checks the result.
func (s *Server) simParams(r simRequest) (collector.SimParams, error) {
	p := s.defaults
	if r.Count != 0 {
		p.Count = r.Count
	}
	if r.StartPrice != 0 {
		p.StartPrice = r.StartPrice
	}
	if r.Interval != "" {
		p.Interval = r.Interval
	}
	if r.Volatility != nil {
		p.Volatility = *r.Volatility
	}
	p.TrendBias = r.TrendBias

	switch {
	case p.Count < minCount || p.Count > maxCount:
		return p, fmt.Errorf("count must be within [%d,%d]", minCount, maxCount)
	case p.StartPrice <= 0:
		return p, errors.New("start_price must be positive")
	case p.Volatility < minVolatility || p.Volatility > maxVolatility:
		return p, fmt.Errorf("volatility must be within [%g,%g]", minVolatility, maxVolatility)
	case p.TrendBias < -maxTrendBias || p.TrendBias > maxTrendBias:
		return p, fmt.Errorf("trend_bias must be within [%g,%g]", -maxTrendBias, maxTrendBias)
	}
	return p, nil
}

func (s *Server) querySimParams(c *gin.Context) (collector.SimParams, error) {
	var r simRequest
	var err error
	if v := c.Query("count"); v != "" {
		if r.Count, err = strconv.Atoi(v); err != nil {
			return collector.SimParams{}, fmt.Errorf("invalid count %q", v)
		}
	}
	if v := c.Query("start_price"); v != "" {
		if r.StartPrice, err = strconv.ParseFloat(v, 64); err != nil {
			return collector.SimParams{}, fmt.Errorf("invalid start_price %q", v)
		}
	}
	if v := c.Query("volatility"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return collector.SimParams{}, fmt.Errorf("invalid volatility %q", v)
		}
		r.Volatility = &f
	}
	r.Interval = c.Query("time_interval")
	return s.simParams(r)
}

func lastClose(bars []model.OHLCV, fallback float64) float64 {
	if len(bars) == 0 {
		return fallback
	}
	return bars[len(bars)-1].Close
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req simRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.simParams(req)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	bars, err := s.sim.Generate(p)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	end := lastClose(bars, p.StartPrice)
	s.ok(c, fmt.Sprintf("generated %d bars", len(bars)), gin.H{
		"kline_data":         bars,
		"count":              len(bars),
		"start_price":        p.StartPrice,
		"end_price":          end,
		"price_change":       end - p.StartPrice,
		"price_change_ratio": (end - p.StartPrice) / p.StartPrice,
	})
}

func (s *Server) handlePattern(c *gin.Context) {
	pattern := c.Param("type")
	p, err := s.querySimParams(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	bars, err := s.sim.GeneratePattern(p, pattern)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.ok(c, fmt.Sprintf("generated %s bars", pattern), gin.H{
		"pattern_type": pattern,
		"kline_data":   bars,
		"count":        len(bars),
	})
}

func (s *Server) handleTrending(c *gin.Context) {
	direction := c.Param("direction")
	p, err := s.querySimParams(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	bars, err := s.sim.GenerateTrending(p, direction)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.ok(c, fmt.Sprintf("generated %s trend bars", direction), gin.H{
		"trend_direction": direction,
		"kline_data":      bars,
		"count":           len(bars),
		"start_price":     p.StartPrice,
		"end_price":       lastClose(bars, p.StartPrice),
	})
}

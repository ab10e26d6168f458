package collector

import (
	"fmt"

	"ChanSentinel/internal/model"
)

// Source produces a bar series for one symbol.
type Source interface {
	Load() (*model.Series, error)
	Name() string
}

// StaticSource returns fixed bars. Used for request-supplied data and tests.
type StaticSource struct {
	Symbol   string
	Interval string
	Bars     []model.OHLCV
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Load() (*model.Series, error) {
	if len(s.Bars) == 0 {
		return nil, ErrNoBars
	}
	return &model.Series{Symbol: s.Symbol, Interval: s.Interval, Bars: s.Bars}, nil
}

// SimulatorSource generates bars on every Load.
type SimulatorSource struct {
	Symbol    string
	Simulator *Simulator
	Params    SimParams
	// Pattern or Trend select a shaped path; at most one should be set.
	Pattern string
	Trend   string
}

func (s *SimulatorSource) Name() string { return "simulator" }

func (s *SimulatorSource) Load() (*model.Series, error) {
	var (
		bars []model.OHLCV
		err  error
	)
	switch {
	case s.Pattern != "":
		bars, err = s.Simulator.GeneratePattern(s.Params, s.Pattern)
	case s.Trend != "":
		bars, err = s.Simulator.GenerateTrending(s.Params, s.Trend)
	default:
		bars, err = s.Simulator.Generate(s.Params)
	}
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", s.Symbol, err)
	}
	return &model.Series{Symbol: s.Symbol, Interval: s.Params.Interval, Bars: bars}, nil
}

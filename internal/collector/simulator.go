package collector

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"ChanSentinel/internal/calculator"
	"ChanSentinel/internal/model"
)

// DefaultSeed makes simulated series reproducible across runs.
const DefaultSeed = 42

var (
	ErrUnknownPattern   = errors.New("unknown pattern")
	ErrUnknownDirection = errors.New("unknown trend direction")
)

// Patterns and TrendDirections list the accepted shape names.
var (
	Patterns        = []string{"double_top", "double_bottom", "head_shoulders"}
	TrendDirections = []string{"up", "down", "sideways"}
)

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalDuration maps an interval name to its bar length; unknown names
// fall back to one minute.
func IntervalDuration(interval string) time.Duration {
	if d, ok := intervals[interval]; ok {
		return d
	}
	return time.Minute
}

// SimParams describes a simulated path.
type SimParams struct {
	Count      int       `json:"count" yaml:"count" toml:"count"`
	StartPrice float64   `json:"start_price" yaml:"start_price" toml:"start_price"`
	StartTime  time.Time `json:"start_time" yaml:"start_time" toml:"start_time"`
	Interval   string    `json:"time_interval" yaml:"interval" toml:"interval"`
	Volatility float64   `json:"volatility" yaml:"volatility" toml:"volatility"`
	TrendBias  float64   `json:"trend_bias" yaml:"trend_bias" toml:"trend_bias"`
}

// DefaultSimParams returns 100 one-minute bars from 100.0 at 2% volatility.
func DefaultSimParams() SimParams {
	return SimParams{Count: 100, StartPrice: 100, Interval: "1m", Volatility: 0.02}
}

// Simulator generates geometric-Brownian bar series with support and
// resistance stickiness and moving-average momentum. It is safe for
// concurrent use; calls are serialised on the shared random source.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(seed uint64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Generate produces p.Count bars.
func (s *Simulator) Generate(p SimParams) ([]model.OHLCV, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generate(p), nil
}

// GenerateTrending biases the path up, down or sideways.
func (s *Simulator) GenerateTrending(p SimParams, direction string) ([]model.OHLCV, error) {
	bias, ok := trendBias(direction)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDirection, direction)
	}
	p.TrendBias = bias
	return s.Generate(p)
}

func trendBias(direction string) (float64, bool) {
	switch direction {
	case "up":
		return 0.01, true
	case "down":
		return -0.01, true
	case "sideways":
		return 0, true
	}
	return 0, false
}

type stage struct {
	volatility float64
	bias       float64
}

var patternStages = map[string][]stage{
	// rise, pull back, rise again, fall
	"double_top": {{0.015, 0.01}, {0.02, -0.005}, {0.015, 0.01}, {0.025, -0.008}},
	// fall, rebound, fall again, rise
	"double_bottom": {{0.02, -0.01}, {0.015, 0.005}, {0.02, -0.01}, {0.025, 0.008}},
	// left shoulder, neckline, head, neckline, right shoulder
	"head_shoulders": {{0.015, 0.01}, {0.02, -0.003}, {0.015, 0.008}, {0.02, -0.005}, {0.015, 0.003}},
}

// GeneratePattern stitches trending stages into a chart pattern. Each
// stage starts from the previous stage's last close and time; the shared
// bar is emitted once.
func (s *Simulator) GeneratePattern(p SimParams, pattern string) ([]model.OHLCV, error) {
	stages, ok := patternStages[pattern]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPattern, pattern)
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	per := p.Count / len(stages)
	if per < 2 {
		return nil, fmt.Errorf("count %d too small for %s", p.Count, pattern)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := p.StartTime
	if start.IsZero() {
		start = time.Now().Truncate(time.Minute)
	}
	var out []model.OHLCV
	price := p.StartPrice
	for i, st := range stages {
		sp := p
		sp.Count, sp.StartPrice, sp.StartTime = per, price, start
		sp.Volatility, sp.TrendBias = st.volatility, st.bias
		bars := s.generate(sp)
		if i > 0 {
			bars = bars[1:]
		}
		out = append(out, bars...)
		last := out[len(out)-1]
		price, start = last.Close, last.Time
	}
	return out, nil
}

func checkParams(p SimParams) error {
	if p.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", p.Count)
	}
	if p.StartPrice <= 0 {
		return fmt.Errorf("start price must be positive, got %f", p.StartPrice)
	}
	if p.Volatility < 0 {
		return fmt.Errorf("volatility must not be negative, got %f", p.Volatility)
	}
	return nil
}

func (s *Simulator) generate(p SimParams) []model.OHLCV {
	step := IntervalDuration(p.Interval)
	t := p.StartTime
	if t.IsZero() {
		t = time.Now().Truncate(time.Minute)
	}
	closes := s.pricePath(p.Count, p.StartPrice, p.Volatility, p.TrendBias)

	bars := make([]model.OHLCV, p.Count)
	open := round2(p.StartPrice)
	for i, c := range closes {
		c = round2(c)
		body := math.Abs(c - open)
		spread := body * s.uniform(0.5, 2.0)
		hi := math.Max(open, c) + spread*s.uniform(0, 0.8)
		lo := math.Min(open, c) - spread*s.uniform(0, 0.8)
		lo = math.Max(lo, 0.01)

		moved := body / open * 100
		bars[i] = model.OHLCV{
			Time:   t,
			Open:   open,
			High:   math.Max(round2(hi), math.Max(open, c)),
			Low:    math.Min(round2(lo), math.Min(open, c)),
			Close:  c,
			Volume: math.Floor(10000 * (1 + moved) * s.uniform(0.5, 2.0)),
		}
		open = c
		t = t.Add(step)
	}
	return bars
}

// pricePath draws log-normal increments, then applies support/resistance
// and momentum adjustments.
func (s *Simulator) pricePath(n int, start, vol, bias float64) []float64 {
	prices := make([]float64, n)
	logSum := 0.0
	for i := range prices {
		logSum += bias + vol*s.rng.NormFloat64()
		prices[i] = math.Max(start*math.Exp(logSum), 0.01)
	}
	s.supportResistance(prices)
	s.momentum(prices)
	return prices
}

// supportResistance stretches or compresses moves near the 20th, 50th and
// 80th percentile levels.
func (s *Simulator) supportResistance(prices []float64) {
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	levels := []float64{percentile(sorted, 20), percentile(sorted, 50), percentile(sorted, 80)}

	for i := 1; i < len(prices); i++ {
		for _, level := range levels {
			cur := prices[i]
			if math.Abs(cur-level)/level >= 0.02 {
				continue
			}
			if s.rng.Float64() < 0.3 {
				prices[i] = level + (cur-level)*s.uniform(0.8, 1.2)
			}
		}
	}
}

// momentum nudges prices 0.1-0.5% along a clear moving-average slope.
func (s *Simulator) momentum(prices []float64) {
	if len(prices) < 5 {
		return
	}
	window := min(10, len(prices)/3)
	ma, err := calculator.RollingSMA(prices, window)
	if err != nil {
		return
	}
	for i := window; i < len(prices); i++ {
		ref := ma[i-window/2]
		slope := (ma[i] - ref) / ref
		if math.Abs(slope) <= 0.01 {
			continue
		}
		push := s.uniform(0.001, 0.005)
		if slope > 0 {
			prices[i] *= 1 + push
		} else {
			prices[i] *= 1 - push
		}
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// percentile uses linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

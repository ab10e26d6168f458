package calculator

import (
	"errors"
	"fmt"

	talib "github.com/markcheno/go-talib"
)

// MACDSeries holds aligned DIF, DEA and histogram values. Values before
// Start are warm-up and must not be reported.
type MACDSeries struct {
	DIF   []float64
	DEA   []float64
	Hist  []float64
	Start int
}

func checkMACDPeriods(n, fast, slow, signal int) error {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return errors.New("MACD periods must be positive")
	}
	if fast >= slow {
		return fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	if n < slow {
		return errors.New("not enough data for MACD calculation")
	}
	return nil
}

// MACD computes DIF = EWM(fast) - EWM(slow), DEA = EWM(DIF, signal) and
// histogram = DIF - DEA using adjusted EWMs. Output starts at slow-1.
func MACD(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	if err := checkMACDPeriods(len(closes), fast, slow, signal); err != nil {
		return MACDSeries{}, err
	}
	emaFast, _ := EWM(closes, fast)
	emaSlow, _ := EWM(closes, slow)
	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = emaFast[i] - emaSlow[i]
	}
	dea, _ := EWM(dif, signal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = dif[i] - dea[i]
	}
	return MACDSeries{DIF: dif, DEA: dea, Hist: hist, Start: slow - 1}, nil
}

// MACDTalib computes the same lines with TA-Lib's SMA-seeded EMAs.
// TA-Lib leaves slow+signal-2 leading values unset, so Start is later
// than MACD's and fewer samples are produced.
func MACDTalib(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	if err := checkMACDPeriods(len(closes), fast, slow, signal); err != nil {
		return MACDSeries{}, err
	}
	start := slow + signal - 2
	if len(closes) <= start {
		return MACDSeries{DIF: make([]float64, len(closes)), DEA: make([]float64, len(closes)), Hist: make([]float64, len(closes)), Start: len(closes)}, nil
	}
	dif, dea, hist := talib.Macd(closes, fast, slow, signal)
	return MACDSeries{DIF: dif, DEA: dea, Hist: hist, Start: start}, nil
}

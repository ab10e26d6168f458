package model

import "time"

// AnalysisResult is the full output of one pipeline run.
type AnalysisResult struct {
	Bars         []OHLCV            `json:"kline_data"`
	Fenxing      []TurningPoint     `json:"fenxing_points"`
	Strokes      []Stroke           `json:"strokes"`
	Segments     []Segment          `json:"segments"`
	Centers      []Center           `json:"centers"`
	Oscillator   []OscillatorSample `json:"macd_data"`
	Divergences  []DivergenceSignal `json:"divergence_signals"`
	AnalysisTime time.Time          `json:"analysis_time"`
}

// StrokeFeatures aggregates stroke statistics.
type StrokeFeatures struct {
	Total         int     `json:"total_strokes"`
	Up            int     `json:"up_strokes"`
	Down          int     `json:"down_strokes"`
	AvgPriceRange float64 `json:"avg_price_range"`
	AvgDuration   float64 `json:"avg_duration"`
	MaxPriceRange float64 `json:"max_price_range"`
	MinPriceRange float64 `json:"min_price_range"`
	Efficiency    float64 `json:"stroke_efficiency"` // price range per bar
}

// CenterFeatures aggregates center statistics.
type CenterFeatures struct {
	Total            int     `json:"total_centers"`
	Up               int     `json:"up_centers"`
	Down             int     `json:"down_centers"`
	Consolidation    int     `json:"consolidation_centers"`
	AvgStrength      float64 `json:"avg_strength"`
	AvgDurationHours float64 `json:"avg_duration_hours"`
	AvgPriceRange    float64 `json:"avg_price_range"`
	MaxStrength      float64 `json:"max_strength"`
	MinStrength      float64 `json:"min_strength"`
}

// BasicInfo describes the analysed bar range.
type BasicInfo struct {
	BarCount   int       `json:"kline_count"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	StartClose float64   `json:"start_close"`
	EndClose   float64   `json:"end_close"`
	Highest    float64   `json:"highest"`
	Lowest     float64   `json:"lowest"`
}

// FenxingStats counts turning points by type.
type FenxingStats struct {
	Total         int     `json:"total_count"`
	Top           int     `json:"top_fenxing"`
	Bottom        int     `json:"bottom_fenxing"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// DivergenceStats counts signals by kind.
type DivergenceStats struct {
	Total       int                `json:"total_signals"`
	ByKind      map[SignalKind]int `json:"signal_types"`
	AvgStrength float64            `json:"avg_strength"`
}

// Summary is the descriptive roll-up of an AnalysisResult.
type Summary struct {
	Basic        BasicInfo       `json:"basic_info"`
	Fenxing      FenxingStats    `json:"fenxing_stats"`
	SegmentCount int             `json:"segment_count"`
	Strokes      StrokeFeatures  `json:"stroke_stats"`
	Centers      CenterFeatures  `json:"center_stats"`
	Divergence   DivergenceStats `json:"divergence_stats"`
}

// Quality is the 0-1 composite score of a run with improvement hints.
type Quality struct {
	Overall         float64  `json:"overall_score"`
	Grade           string   `json:"grade"`
	Data            float64  `json:"data_quality"`
	Fenxing         float64  `json:"fenxing_quality"`
	Stroke          float64  `json:"stroke_quality"`
	Center          float64  `json:"center_quality"`
	Recommendations []string `json:"recommendations"`
}

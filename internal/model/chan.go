package model

import "time"

// FenxingType classifies a turning point.
type FenxingType string

const (
	FenxingTop    FenxingType = "top"
	FenxingBottom FenxingType = "bottom"
)

// Direction of a stroke or segment.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// CenterType classifies a consolidation zone by the net drift across it.
type CenterType string

const (
	CenterUp            CenterType = "up"
	CenterDown          CenterType = "down"
	CenterConsolidation CenterType = "consolidation"
)

// TurningPoint is a scored local extremum (fenxing).
// Price is High for a top and Low for a bottom.
type TurningPoint struct {
	Index      int         `json:"index"`
	Type       FenxingType `json:"type"`
	High       float64     `json:"high"`
	Low        float64     `json:"low"`
	Price      float64     `json:"price"`
	Time       time.Time   `json:"timestamp"`
	Confidence float64     `json:"confidence"`
}

// Stroke connects two adjacent turning points of opposite type.
type Stroke struct {
	Start      TurningPoint `json:"start_fenxing"`
	End        TurningPoint `json:"end_fenxing"`
	Direction  Direction    `json:"direction"`
	PriceRange float64      `json:"price_range"`
	BarCount   int          `json:"kline_count"`
	StartTime  time.Time    `json:"start_time"`
	EndTime    time.Time    `json:"end_time"`
}

// Segment is a run of strokes not yet invalidated by a confirmed reversal.
type Segment struct {
	Strokes    []Stroke  `json:"strokes"`
	Direction  Direction `json:"direction"`
	StartPrice float64   `json:"start_price"`
	EndPrice   float64   `json:"end_price"`
	PriceRange float64   `json:"price_range"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// Center is a price band where at least three consecutive segments overlap.
type Center struct {
	Segments  []Segment  `json:"segments"`
	Type      CenterType `json:"center_type"`
	HighPrice float64    `json:"high_price"`
	LowPrice  float64    `json:"low_price"`
	Range     float64    `json:"center_range"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Strength  float64    `json:"strength"`
}

// Mid returns the midpoint of the center's band.
func (c *Center) Mid() float64 {
	return (c.HighPrice + c.LowPrice) / 2
}

// ExtensionType describes how the next center sits relative to the current one.
type ExtensionType string

const (
	ExtensionNone        ExtensionType = ""
	ExtensionHorizontal  ExtensionType = "horizontal"
	ExtensionUpward      ExtensionType = "upward"
	ExtensionDownward    ExtensionType = "downward"
	ExtensionSlightTrend ExtensionType = "slight_trend"
)

// Extension pairs a center with its successor. The last center has no
// successor and carries ExtensionNone.
type Extension struct {
	CenterIndex  int           `json:"center_index"`
	Type         ExtensionType `json:"extension_type"`
	Strength     float64       `json:"extension_strength"`
	PriceChange  float64       `json:"price_change"`
	TimeGapHours float64       `json:"time_gap_hours"`
}

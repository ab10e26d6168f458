package model

import (
	"encoding/json"
	"time"
)

// SignalKind tags a divergence signal.
type SignalKind string

const (
	SignalTrendTop        SignalKind = "trend_top_divergence"
	SignalTrendBottom     SignalKind = "trend_bottom_divergence"
	SignalPostBreakTop    SignalKind = "post_break_top_divergence"
	SignalPostBreakBottom SignalKind = "post_break_bottom_divergence"
	SignalInternalTop     SignalKind = "internal_top_divergence"
	SignalInternalBottom  SignalKind = "internal_bottom_divergence"
)

// Anchor says what a divergence signal was measured against.
// It is either CenterAnchored or TrendAnchored.
type Anchor interface {
	anchor()
}

// CenterAnchored signals were found around or inside a center.
// Center points into the analysed center slice; it is not owned.
type CenterAnchored struct {
	Center *Center
}

// TrendAnchored signals compare global price pivots.
type TrendAnchored struct {
	PrevIndex int
	CurrIndex int
}

func (CenterAnchored) anchor() {}
func (TrendAnchored) anchor()  {}

// DivergenceSignal is a price extreme the oscillator failed to confirm.
type DivergenceSignal struct {
	Anchor      Anchor
	Time        time.Time
	Kind        SignalKind
	Strength    float64
	Description string
}

// Center returns the related center for center-anchored signals.
func (s DivergenceSignal) Center() (*Center, bool) {
	if a, ok := s.Anchor.(CenterAnchored); ok && a.Center != nil {
		return a.Center, true
	}
	return nil, false
}

// MarshalJSON flattens the anchor into an anchor tag plus the center's time span.
func (s DivergenceSignal) MarshalJSON() ([]byte, error) {
	out := struct {
		SignalTime  time.Time  `json:"signal_time"`
		SignalType  SignalKind `json:"signal_type"`
		Strength    float64    `json:"strength"`
		Description string     `json:"description"`
		Anchor      string     `json:"anchor"`
		CenterStart *time.Time `json:"center_start,omitempty"`
		CenterEnd   *time.Time `json:"center_end,omitempty"`
	}{
		SignalTime:  s.Time,
		SignalType:  s.Kind,
		Strength:    s.Strength,
		Description: s.Description,
		Anchor:      "trend",
	}
	if c, ok := s.Center(); ok {
		out.Anchor = "center"
		out.CenterStart = &c.StartTime
		out.CenterEnd = &c.EndTime
	}
	return json.Marshal(out)
}

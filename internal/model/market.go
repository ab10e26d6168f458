package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series holds one instrument's bars, oldest first.
type Series struct {
	Symbol   string
	Interval string
	Bars     []OHLCV
	LoadedAt time.Time
}

// Closes extracts closing prices in bar order.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339, zone-less ISO dates and unix seconds or
// milliseconds. Zone-less values are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON accepts any timestamp form ParseTimestamp understands,
// as a string or a number.
func (b *OHLCV) UnmarshalJSON(data []byte) error {
	var raw struct {
		Time   json.RawMessage `json:"timestamp"`
		Open   float64         `json:"open"`
		High   float64         `json:"high"`
		Low    float64         `json:"low"`
		Close  float64         `json:"close"`
		Volume float64         `json:"volume"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts := strings.Trim(string(raw.Time), `"`)
	if ts == "" || ts == "null" {
		return fmt.Errorf("bar is missing a timestamp")
	}
	t, err := ParseTimestamp(ts)
	if err != nil {
		return err
	}
	*b = OHLCV{Time: t, Open: raw.Open, High: raw.High, Low: raw.Low, Close: raw.Close, Volume: raw.Volume}
	return nil
}

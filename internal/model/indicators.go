package model

import "time"

// OscillatorSample is one MACD reading aligned to a bar.
type OscillatorSample struct {
	Time      time.Time `json:"timestamp"`
	DIF       float64   `json:"dif"`
	DEA       float64   `json:"dea"`
	Histogram float64   `json:"macd"`
}

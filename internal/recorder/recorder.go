package recorder

import (
	"time"

	"ChanSentinel/internal/model"
)

// RunSnapshot holds everything persisted for one analysis run.
type RunSnapshot struct {
	// ID is assigned by the recorder when empty.
	ID         string
	Symbol     string
	Interval   string
	RecordedAt time.Time
	Result     *model.AnalysisResult
	Summary    model.Summary
	Quality    model.Quality
}

// RunRecord is the stored header row of a run.
type RunRecord struct {
	ID           string
	Symbol       string
	Interval     string
	RecordedAt   time.Time
	BarCount     int
	StartTime    time.Time
	EndTime      time.Time
	Fenxing      int
	Strokes      int
	Segments     int
	Centers      int
	Signals      int
	QualityScore float64
	Grade        string
	// LatestSignal is zero when the run produced no signals.
	LatestSignal time.Time
}

// LatestSignalTime returns the newest divergence signal time in r.
func LatestSignalTime(r *model.AnalysisResult) time.Time {
	var latest time.Time
	if r == nil {
		return latest
	}
	for _, s := range r.Divergences {
		if s.Time.After(latest) {
			latest = s.Time
		}
	}
	return latest
}

// Recorder persists analysis runs for later comparison.
type Recorder interface {
	RecordRun(snap *RunSnapshot) error
	RecentRuns(symbol string, limit int) ([]RunRecord, error)
	Close() error
}

package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ChanSentinel/internal/logger"
)

// SQLiteRecorder persists analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers are not blocked while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.L().WithComponent("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.WithFields(logger.Fields{"path": dbPath}).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id            TEXT PRIMARY KEY,
			recorded_at   INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			bar_interval  TEXT,
			bar_count     INTEGER,
			start_time    INTEGER,
			end_time      INTEGER,
			fenxing_count INTEGER,
			stroke_count  INTEGER,
			segment_count INTEGER,
			center_count  INTEGER,
			signal_count  INTEGER,
			quality_score REAL,
			grade         TEXT,
			latest_signal INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, recorded_at)`,

		`CREATE TABLE IF NOT EXISTS run_centers (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES analysis_runs(id),
			start_time  INTEGER,
			end_time    INTEGER,
			center_type TEXT,
			high_price  REAL,
			low_price   REAL,
			strength    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_centers_run ON run_centers(run_id)`,

		`CREATE TABLE IF NOT EXISTS run_signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES analysis_runs(id),
			signal_time INTEGER,
			signal_type TEXT,
			strength    REAL,
			anchor      TEXT,
			description TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON run_signals(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// RecordRun writes the run header, its centers and its signals in one transaction.
func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) error {
	if snap == nil || snap.Result == nil {
		return fmt.Errorf("record run: empty snapshot")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now()
	}
	res := snap.Result
	basic := snap.Summary.Basic

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO analysis_runs
		(id, recorded_at, symbol, bar_interval, bar_count, start_time, end_time,
		 fenxing_count, stroke_count, segment_count, center_count, signal_count,
		 quality_score, grade, latest_signal)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.ID, snap.RecordedAt.Unix(), snap.Symbol, snap.Interval,
		len(res.Bars), unixOrZero(basic.StartTime), unixOrZero(basic.EndTime),
		len(res.Fenxing), len(res.Strokes), len(res.Segments), len(res.Centers), len(res.Divergences),
		snap.Quality.Overall, snap.Quality.Grade, unixOrZero(LatestSignalTime(res)),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, c := range res.Centers {
		_, err := tx.Exec(`INSERT INTO run_centers
			(run_id, start_time, end_time, center_type, high_price, low_price, strength)
			VALUES (?,?,?,?,?,?,?)`,
			snap.ID, c.StartTime.Unix(), c.EndTime.Unix(), string(c.Type),
			c.HighPrice, c.LowPrice, c.Strength,
		)
		if err != nil {
			return fmt.Errorf("insert center: %w", err)
		}
	}

	for _, s := range res.Divergences {
		anchor := "trend"
		if _, ok := s.Center(); ok {
			anchor = "center"
		}
		_, err := tx.Exec(`INSERT INTO run_signals
			(run_id, signal_time, signal_type, strength, anchor, description)
			VALUES (?,?,?,?,?,?)`,
			snap.ID, s.Time.Unix(), string(s.Kind), s.Strength, anchor, s.Description,
		)
		if err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.WithFields(logger.Fields{
		"run_id":  snap.ID,
		"symbol":  snap.Symbol,
		"centers": len(res.Centers),
		"signals": len(res.Divergences),
	}).Info("run recorded")
	return nil
}

// RecentRuns returns up to limit runs for symbol, newest first.
func (r *SQLiteRecorder) RecentRuns(symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, recorded_at, symbol, bar_interval, bar_count,
		start_time, end_time, fenxing_count, stroke_count, segment_count,
		center_count, signal_count, quality_score, grade, latest_signal
		FROM analysis_runs WHERE symbol = ?
		ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec                         RunRecord
			recorded, start, end, lastS int64
		)
		if err := rows.Scan(&rec.ID, &recorded, &rec.Symbol, &rec.Interval, &rec.BarCount,
			&start, &end, &rec.Fenxing, &rec.Strokes, &rec.Segments,
			&rec.Centers, &rec.Signals, &rec.QualityScore, &rec.Grade, &lastS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.RecordedAt = time.Unix(recorded, 0).UTC()
		rec.StartTime = fromUnix(start)
		rec.EndTime = fromUnix(end)
		rec.LatestSignal = fromUnix(lastS)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

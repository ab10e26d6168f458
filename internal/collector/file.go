package collector

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"ChanSentinel/internal/model"
)

// CSVHeader is the column order read and written by the CSV codec.
var CSVHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// FileSource reads bars from a CSV or JSON file.
type FileSource struct {
	Path     string
	Symbol   string
	Interval string
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Load() (*model.Series, error) {
	bars, err := LoadFile(f.Path)
	if err != nil {
		return nil, err
	}
	symbol := f.Symbol
	if symbol == "" {
		symbol = strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	}
	return &model.Series{Symbol: symbol, Interval: f.Interval, Bars: bars}, nil
}

// LoadFile dispatches on the file extension.
func LoadFile(path string) ([]model.OHLCV, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer fh.Close()

	bars, err := Decode(fh, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

func formatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return "csv", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Decode reads bars in the named format ("csv" or "json").
func Decode(r io.Reader, format string) ([]model.OHLCV, error) {
	var (
		bars []model.OHLCV
		err  error
	)
	switch format {
	case "csv":
		bars, err = readCSV(r)
	case "json":
		err = json.NewDecoder(r).Decode(&bars)
		if err != nil {
			err = fmt.Errorf("decode json bars: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}

func readCSV(r io.Reader) ([]model.OHLCV, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoBars
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range CSVHeader[:5] {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("csv header missing %q column", name)
		}
	}

	var bars []model.OHLCV
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		bar, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRecord(rec []string, cols map[string]int) (model.OHLCV, error) {
	var b model.OHLCV
	t, err := model.ParseTimestamp(rec[cols["timestamp"]])
	if err != nil {
		return b, err
	}
	b.Time = t
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close}, {"volume", &b.Volume},
	}
	for _, f := range fields {
		idx, ok := cols[f.name]
		if !ok || idx >= len(rec) || strings.TrimSpace(rec[idx]) == "" {
			if f.name == "volume" {
				continue
			}
			return b, fmt.Errorf("missing %s", f.name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
		if err != nil {
			return b, fmt.Errorf("parse %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return b, nil
}

// WriteCSV writes bars with CSVHeader and RFC3339 timestamps.
func WriteCSV(w io.Writer, bars []model.OHLCV) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bars {
		rec := []string{
			b.Time.Format("2006-01-02T15:04:05Z07:00"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExpandGlobs resolves doublestar patterns ("data/**/*.csv") to a sorted,
// de-duplicated file list. Plain paths pass through unchanged.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", p, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no files match %v", patterns)
	}
	sort.Strings(out)
	return out, nil
}

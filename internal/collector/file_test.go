package collector

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ChanSentinel/internal/model"
)

func sampleBars() []model.OHLCV {
	return []model.OHLCV{
		{Time: t0, Open: 100, High: 101.5, Low: 99.2, Close: 101, Volume: 1200},
		{Time: t0.Add(time.Hour), Open: 101, High: 102, Low: 100.4, Close: 100.8, Volume: 900},
	}
}

func TestCSV_WriteThenDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleBars()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "timestamp,open,high,low,close,volume\n") {
		t.Errorf("unexpected header: %q", buf.String())
	}
	got, err := Decode(&buf, "csv")
	if err != nil {
		t.Fatal(err)
	}
	want := sampleBars()
	if len(got) != len(want) {
		t.Fatalf("got %d bars", len(got))
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) || got[i].Close != want[i].Close || got[i].Volume != want[i].Volume {
			t.Errorf("bar %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecode_CSVUnixMillisAndMissingVolume(t *testing.T) {
	in := "Timestamp,Open,High,Low,Close\n1704067200000,1,2,0.5,1.5\n"
	bars, err := Decode(strings.NewReader(in), "csv")
	if err != nil {
		t.Fatal(err)
	}
	if !bars[0].Time.Equal(t0) || bars[0].Volume != 0 {
		t.Errorf("bar = %+v", bars[0])
	}
}

func TestDecode_CSVErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "timestamp,open,high,low\n2024-01-01,1,2,0.5\n",
		"bad number":     "timestamp,open,high,low,close\n2024-01-01,x,2,0.5,1\n",
		"bad timestamp":  "timestamp,open,high,low,close\nyesterday,1,2,0.5,1\n",
	}
	for name, in := range cases {
		if _, err := Decode(strings.NewReader(in), "csv"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Decode(strings.NewReader("timestamp,open,high,low,close\n"), "csv"); !errors.Is(err, ErrNoBars) {
		t.Errorf("header only: expected ErrNoBars, got %v", err)
	}
}

func TestDecode_JSONZonelessTimestamps(t *testing.T) {
	in := `[{"timestamp":"2024-01-01T00:00:00","open":1,"high":2,"low":0.5,"close":1.5,"volume":10}]`
	bars, err := Decode(strings.NewReader(in), "json")
	if err != nil {
		t.Fatal(err)
	}
	if !bars[0].Time.Equal(t0) || bars[0].High != 2 {
		t.Errorf("bar = %+v", bars[0])
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.parquet")
	os.WriteFile(path, []byte("x"), 0o644)
	if _, err := LoadFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileSource_DefaultsSymbolToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BTCUSDT.csv")
	var buf bytes.Buffer
	WriteCSV(&buf, sampleBars())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	series, err := (&FileSource{Path: path}).Load()
	if err != nil {
		t.Fatal(err)
	}
	if series.Symbol != "BTCUSDT" || len(series.Bars) != 2 {
		t.Errorf("series = %s with %d bars", series.Symbol, len(series.Bars))
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "sub/b.csv", "sub/deep/c.csv", "sub/note.txt"} {
		path := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(path), 0o755)
		os.WriteFile(path, []byte("x"), 0o644)
	}

	got, err := ExpandGlobs([]string{filepath.Join(dir, "**", "*.csv"), filepath.Join(dir, "a.csv")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 unique csv files, got %v", got)
	}
	if _, err := ExpandGlobs([]string{filepath.Join(dir, "*.json")}); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bars.csv":
			w.Header().Set("Content-Type", "text/plain")
			WriteCSV(w, sampleBars())
		case "/bars":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"timestamp":"2024-01-01T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.5,"volume":1}]`))
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	series, err := NewURLSource(srv.URL+"/bars.csv", "X", "1h", "").Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Bars) != 2 || series.Symbol != "X" {
		t.Errorf("csv series = %+v", series)
	}

	series, err = NewURLSource(srv.URL+"/bars", "Y", "1h", "").Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Bars) != 1 {
		t.Errorf("json series has %d bars", len(series.Bars))
	}

	if _, err := NewURLSource(srv.URL+"/missing.csv", "Z", "1h", "").Load(); err == nil {
		t.Error("expected error for 404")
	}
}

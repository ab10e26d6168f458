package collector

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"ChanSentinel/internal/model"
)

// URLSource fetches a CSV or JSON bar file over HTTP.
type URLSource struct {
	URL      string
	Symbol   string
	Interval string
	Client   *http.Client
}

// NewURLSource creates a source with a 30s timeout, routed through
// proxyURL when set.
func NewURLSource(rawURL, symbol, interval, proxyURL string) *URLSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &URLSource{
		URL:      rawURL,
		Symbol:   symbol,
		Interval: interval,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *URLSource) Name() string { return "url" }

func (s *URLSource) Load() (*model.Series, error) {
	req, err := http.NewRequest(http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	format, err := s.format(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	bars, err := Decode(resp.Body, format)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	return &model.Series{Symbol: s.Symbol, Interval: s.Interval, Bars: bars}, nil
}

// format prefers the response content type and falls back to the URL's
// file extension.
func (s *URLSource) format(contentType string) (string, error) {
	switch {
	case strings.Contains(contentType, "json"):
		return "json", nil
	case strings.Contains(contentType, "csv"):
		return "csv", nil
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	return formatOf(path.Base(u.Path))
}

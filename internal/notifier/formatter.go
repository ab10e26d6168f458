package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ChanSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// maxReportSignals caps the signal lines in a chat report.
const maxReportSignals = 5

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// FormatSummaryTable renders the run summary and quality as a plain-text table.
func FormatSummaryTable(symbol string, s model.Summary, q model.Quality) string {
	t := newTable(fmt.Sprintf("%s analysis", symbol))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Bars", s.Basic.BarCount},
		{"Span", fmt.Sprintf("%s .. %s", s.Basic.StartTime.Format(timeLayout), s.Basic.EndTime.Format(timeLayout))},
		{"Close", fmt.Sprintf("%.2f -> %.2f", s.Basic.StartClose, s.Basic.EndClose)},
		{"High / Low", fmt.Sprintf("%.2f / %.2f", s.Basic.Highest, s.Basic.Lowest)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Turning points", fmt.Sprintf("%d (top %d, bottom %d)", s.Fenxing.Total, s.Fenxing.Top, s.Fenxing.Bottom)},
		{"Avg confidence", fmt.Sprintf("%.3f", s.Fenxing.AvgConfidence)},
		{"Strokes", fmt.Sprintf("%d (up %d, down %d)", s.Strokes.Total, s.Strokes.Up, s.Strokes.Down)},
		{"Segments", s.SegmentCount},
		{"Centers", fmt.Sprintf("%d (up %d, down %d, flat %d)", s.Centers.Total, s.Centers.Up, s.Centers.Down, s.Centers.Consolidation)},
		{"Signals", fmt.Sprintf("%d (avg strength %.2f)", s.Divergence.Total, s.Divergence.AvgStrength)},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Quality", fmt.Sprintf("%.2f (%s)", q.Overall, q.Grade)})
	for _, r := range q.Recommendations {
		t.AppendRow(table.Row{"Hint", r})
	}
	return t.Render()
}

// FormatCentersTable lists centers one per row.
func FormatCentersTable(centers []model.Center) string {
	t := newTable("Centers")
	t.AppendHeader(table.Row{"#", "Start", "End", "Type", "Low", "High", "Strength"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for i, c := range centers {
		t.AppendRow(table.Row{
			i + 1,
			c.StartTime.Format(timeLayout),
			c.EndTime.Format(timeLayout),
			string(c.Type),
			fmt.Sprintf("%.2f", c.LowPrice),
			fmt.Sprintf("%.2f", c.HighPrice),
			fmt.Sprintf("%.3f", c.Strength),
		})
	}
	if len(centers) == 0 {
		t.AppendRow(table.Row{"-", "none", "", "", "", "", ""})
	}
	return t.Render()
}

// FormatSignalsTable lists divergence signals one per row.
func FormatSignalsTable(signals []model.DivergenceSignal) string {
	t := newTable("Divergence signals")
	t.AppendHeader(table.Row{"Time", "Kind", "Anchor", "Strength", "Description"})
	for _, s := range signals {
		t.AppendRow(table.Row{
			s.Time.Format(timeLayout),
			string(s.Kind),
			anchorLabel(s),
			fmt.Sprintf("%.3f", s.Strength),
			s.Description,
		})
	}
	if len(signals) == 0 {
		t.AppendRow(table.Row{"-", "none", "", "", ""})
	}
	return t.Render()
}

func anchorLabel(s model.DivergenceSignal) string {
	if _, ok := s.Center(); ok {
		return "center"
	}
	return "trend"
}

// FormatRunReport formats one run into a Telegram HTML message.
func FormatRunReport(symbol string, r *model.AnalysisResult, s model.Summary, q model.Quality) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>ChanSentinel</b> | %s | %s\n\n", html.EscapeString(symbol), r.AnalysisTime.Format(timeLayout)))

	b.WriteString(fmt.Sprintf("Bars: %d (%s .. %s)\n", s.Basic.BarCount,
		s.Basic.StartTime.Format(timeLayout), s.Basic.EndTime.Format(timeLayout)))
	change := 0.0
	if s.Basic.StartClose > 0 {
		change = (s.Basic.EndClose - s.Basic.StartClose) / s.Basic.StartClose * 100
	}
	b.WriteString(fmt.Sprintf("Close: %.2f (%+.1f%%)\n\n", s.Basic.EndClose, change))

	b.WriteString("📐 <b>Structure:</b>\n")
	b.WriteString(fmt.Sprintf("  Turning points: %d | Strokes: %d | Segments: %d\n",
		s.Fenxing.Total, s.Strokes.Total, s.SegmentCount))
	b.WriteString(fmt.Sprintf("  Centers: %d", s.Centers.Total))
	if n := len(r.Centers); n > 0 {
		last := r.Centers[n-1]
		b.WriteString(fmt.Sprintf(" (last %s %.2f-%.2f)", last.Type, last.LowPrice, last.HighPrice))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("⚡ <b>Divergences:</b> %d\n", len(r.Divergences)))
	start := 0
	if len(r.Divergences) > maxReportSignals {
		start = len(r.Divergences) - maxReportSignals
	}
	for _, sig := range r.Divergences[start:] {
		b.WriteString(fmt.Sprintf("  %s %s (%.2f, %s)\n",
			sig.Time.Format(timeLayout), sig.Kind, sig.Strength, anchorLabel(sig)))
	}

	b.WriteString(fmt.Sprintf("\n✅ Quality: %.2f (%s)\n", q.Overall, q.Grade))
	return b.String()
}

// FormatWatchList renders configured watches for the /watches command.
func FormatWatchList(names []string, next map[string]time.Time) string {
	if len(names) == 0 {
		return "No watches configured."
	}
	var b strings.Builder
	b.WriteString("👀 <b>Watches</b>\n\n")
	for _, n := range names {
		b.WriteString(fmt.Sprintf("  %s", html.EscapeString(n)))
		if t, ok := next[n]; ok && !t.IsZero() {
			b.WriteString(fmt.Sprintf(" (next %s)", t.Format(timeLayout)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/logger"
	"ChanSentinel/internal/model"
	"ChanSentinel/internal/notifier"
	"ChanSentinel/internal/recorder"
)

type analyzeOptions struct {
	asJSON        bool
	record        bool
	minConfidence float64
	maxBars       int
	symbol        string
	interval      string
}

// analysisReport is the JSON shape of one analysed series.
type analysisReport struct {
	Symbol  string                `json:"symbol"`
	Source  string                `json:"source"`
	Result  *model.AnalysisResult `json:"analysis_result"`
	Summary model.Summary         `json:"summary"`
	Quality model.Quality         `json:"quality"`
	RunID   string                `json:"run_id,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func analyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze [files or globs...]",
		Short: "Analyse bar files, or the configured source when none are given",
		Long: `Analyse one or more CSV/JSON bar files. Arguments may be doublestar
globs such as data/**/*.csv. Without arguments the configured source
(simulator by default) is analysed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			return a.analyze(cmd.OutOrStdout(), args, opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of tables")
	f.BoolVar(&opts.record, "record", false, "Record runs to the configured SQLite database")
	f.Float64Var(&opts.minConfidence, "min-confidence", -1, "Turning-point confidence threshold (defaults to config)")
	f.IntVar(&opts.maxBars, "max-bars", 0, "Keep only the most recent N bars")
	f.StringVar(&opts.symbol, "symbol", "", "Symbol label for file sources")
	f.StringVar(&opts.interval, "interval", "", "Interval label for file sources")
	return cmd
}

func (a *app) sources(args []string, opts analyzeOptions) ([]collector.Source, error) {
	if len(args) == 0 {
		src, err := a.cfg.NewSource(a.cfg.Source, a.sim)
		if err != nil {
			return nil, err
		}
		return []collector.Source{src}, nil
	}
	paths, err := collector.ExpandGlobs(args)
	if err != nil {
		return nil, err
	}
	out := make([]collector.Source, 0, len(paths))
	for _, p := range paths {
		symbol := opts.symbol
		if len(paths) > 1 {
			symbol = ""
		}
		out = append(out, &collector.FileSource{Path: p, Symbol: symbol, Interval: opts.interval})
	}
	return out, nil
}

func (a *app) analyze(w io.Writer, args []string, opts analyzeOptions) error {
	if opts.minConfidence > 1 {
		return fmt.Errorf("--min-confidence must be within [0,1]")
	}
	minConf := a.eng.MinConfidence()
	if opts.minConfidence >= 0 {
		minConf = opts.minConfidence
	}

	srcs, err := a.sources(args, opts)
	if err != nil {
		return err
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if opts.record {
		rec = a.openRecorder()
	}
	defer rec.Close()

	log := a.log.WithComponent("analyze")
	var reports []analysisReport
	failed := 0
	for _, src := range srcs {
		series, err := collector.NewCollector(src, opts.maxBars).Collect()
		if err != nil {
			failed++
			log.WithError(err).Error("load series")
			reports = append(reports, analysisReport{Source: src.Name(), Error: err.Error()})
			continue
		}

		result := a.eng.Run(series.Bars, minConf)
		rep := analysisReport{
			Symbol:  series.Symbol,
			Source:  src.Name(),
			Result:  result,
			Summary: engine.Summarize(result),
			Quality: engine.AssessQuality(result),
		}
		snap := &recorder.RunSnapshot{
			Symbol: series.Symbol, Interval: series.Interval,
			Result: result, Summary: rep.Summary, Quality: rep.Quality,
		}
		if err := rec.RecordRun(snap); err != nil {
			log.WithError(err).Error("record run")
		}
		rep.RunID = snap.ID
		log.WithFields(logger.Fields{
			"symbol":  series.Symbol,
			"bars":    len(series.Bars),
			"centers": len(result.Centers),
			"signals": len(result.Divergences),
		}).Info("analysis complete")
		reports = append(reports, rep)
	}

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		for _, rep := range reports {
			if rep.Result == nil {
				fmt.Fprintf(w, "%s: %s\n\n", rep.Source, rep.Error)
				continue
			}
			fmt.Fprintln(w, notifier.FormatSummaryTable(rep.Symbol, rep.Summary, rep.Quality))
			fmt.Fprintln(w, notifier.FormatCentersTable(rep.Result.Centers))
			fmt.Fprintln(w, notifier.FormatSignalsTable(rep.Result.Divergences))
			fmt.Fprintln(w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(srcs))
	}
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/logger"
	"ChanSentinel/internal/model"
	"ChanSentinel/internal/notifier"
	"ChanSentinel/internal/recorder"
)

// Watch is one series re-analysed on a cron schedule.
type Watch struct {
	Name      string
	Cron      string
	Collector *collector.Collector
}

// Outcome describes one completed watch run.
type Outcome struct {
	Symbol     string
	Result     *model.AnalysisResult
	Summary    model.Summary
	Quality    model.Quality
	NewSignals []model.DivergenceSignal
	Notified   bool
}

type watchState struct {
	watch      Watch
	entry      cron.EntryID
	run        sync.Mutex
	lastSignal time.Time
	seeded     bool
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Engine     *engine.Engine
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Ctx        context.Context
	MaxRetries int

	mu      sync.Mutex
	watches map[string]*watchState
	log     *logger.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, eng *engine.Engine, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Engine:     eng,
		Notifier:   n,
		Recorder:   rec,
		Ctx:        ctx,
		MaxRetries: 3,
		watches:    make(map[string]*watchState),
		log:        logger.L().WithComponent("scheduler"),
	}
}

// AddWatch registers w with the cron runner.
func (s *Scheduler) AddWatch(w Watch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watches[w.Name]; ok {
		return fmt.Errorf("watch %q already registered", w.Name)
	}
	name := w.Name
	id, err := s.Cron.AddFunc(w.Cron, func() {
		if _, err := s.RunNow(name); err != nil {
			s.log.WithFields(logger.Fields{"watch": name}).WithError(err).Error("watch run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register watch %q: %w", w.Name, err)
	}
	s.watches[name] = &watchState{watch: w, entry: id}
	s.log.WithFields(logger.Fields{"watch": name, "cron": w.Cron}).Info("watch registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.WithFields(logger.Fields{"watches": len(s.Names())}).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Names returns the registered watch names in sorted order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.watches))
	for n := range s.watches {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NextRuns returns each watch's next scheduled time. Times are zero
// before Start.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.watches))
	for n, w := range s.watches {
		out[n] = s.Cron.Entry(w.entry).Next
	}
	return out
}

// RunNow executes the named watch immediately. Runs of the same watch
// never overlap.
func (s *Scheduler) RunNow(name string) (*Outcome, error) {
	s.mu.Lock()
	w, ok := s.watches[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown watch %q", name)
	}

	w.run.Lock()
	defer w.run.Unlock()

	log := s.log.WithFields(logger.Fields{"watch": name})
	started := time.Now()

	series, err := w.watch.Collector.Collect()
	if err != nil {
		s.trySend(fmt.Sprintf("❌ %s: data load failed: %v", name, err))
		return nil, fmt.Errorf("collect: %w", err)
	}

	result := s.Engine.Run(series.Bars, s.Engine.MinConfidence())
	out := &Outcome{
		Symbol:  series.Symbol,
		Result:  result,
		Summary: engine.Summarize(result),
		Quality: engine.AssessQuality(result),
	}

	if !w.seeded {
		w.lastSignal = s.previousLatest(series.Symbol)
		w.seeded = true
	}
	out.NewSignals = newSignals(result.Divergences, w.lastSignal)

	if err := s.Recorder.RecordRun(&recorder.RunSnapshot{
		Symbol:   series.Symbol,
		Interval: series.Interval,
		Result:   result,
		Summary:  out.Summary,
		Quality:  out.Quality,
	}); err != nil {
		log.WithError(err).Error("record run")
	}

	if len(out.NewSignals) > 0 {
		out.Notified = s.trySend(notifier.FormatRunReport(series.Symbol, result, out.Summary, out.Quality))
		// undelivered signals stay new for the next run
		if out.Notified {
			w.lastSignal = recorder.LatestSignalTime(result)
		}
	}

	log.LogDuration("watch run", started, logger.Fields{
		"symbol":      series.Symbol,
		"bars":        len(series.Bars),
		"signals":     len(result.Divergences),
		"new_signals": len(out.NewSignals),
	})
	return out, nil
}

// previousLatest reads the newest signal time of the last recorded run.
func (s *Scheduler) previousLatest(symbol string) time.Time {
	runs, err := s.Recorder.RecentRuns(symbol, 1)
	if err != nil {
		s.log.WithError(err).Warn("read previous run")
		return time.Time{}
	}
	if len(runs) == 0 {
		return time.Time{}
	}
	return runs[0].LatestSignal
}

// newSignals returns the signals strictly newer than since.
func newSignals(signals []model.DivergenceSignal, since time.Time) []model.DivergenceSignal {
	var out []model.DivergenceSignal
	for _, sig := range signals {
		if sig.Time.After(since) {
			out = append(out, sig)
		}
	}
	return out
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/watches":
		return notifier.FormatWatchList(s.Names(), s.NextRuns())
	case "/run":
		if len(fields) < 2 {
			return "usage: /run <watch>"
		}
		out, err := s.RunNow(fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if out.Notified {
			return ""
		}
		return notifier.FormatRunReport(out.Symbol, out.Result, out.Summary, out.Quality)
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /watches\n• /run <watch>"

func (s *Scheduler) trySend(text string) bool {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, s.MaxRetries); err != nil {
		s.log.WithError(err).Error("send notification")
		return false
	}
	return true
}

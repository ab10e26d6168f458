package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/notifier"
	"ChanSentinel/internal/scheduler"
)

func watchCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyse configured watches on their cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			if os.Getenv("RUN_ON_START") == "true" {
				runNow = true
			}
			return a.watch(runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run every watch once at startup (also RUN_ON_START=true)")
	return cmd
}

func (a *app) watch(runNow bool) error {
	if len(a.cfg.Watches) == 0 {
		return fmt.Errorf("no watches configured")
	}
	log := a.log.WithComponent("main")

	rec := a.openRecorder()
	defer rec.Close()

	var n notifier.Notifier = notifier.NoopNotifier{}
	tn, hasTelegram := a.telegram()
	if hasTelegram {
		n = tn
	}

	ctx, stop := signalContext()
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.eng, n, rec)
	for _, w := range a.cfg.Watches {
		src, err := a.cfg.NewSource(w.Source, a.sim)
		if err != nil {
			return fmt.Errorf("watch %q: %w", w.Name, err)
		}
		if err := sched.AddWatch(scheduler.Watch{
			Name:      w.Name,
			Cron:      w.Cron,
			Collector: collector.NewCollector(src, w.Source.MaxBars),
		}); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	if hasTelegram {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if runNow {
		log.Info("running every watch now")
		for _, name := range sched.Names() {
			go func(name string) {
				if _, err := sched.RunNow(name); err != nil {
					log.WithError(err).Error("initial run of " + name)
				}
			}(name)
		}
	}

	log.Info("chansentinel is watching. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}

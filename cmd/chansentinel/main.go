// chansentinel - Chan theory structure and divergence analysis for bar series
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/config"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/logger"
	"ChanSentinel/internal/notifier"
	"ChanSentinel/internal/recorder"
)

const defaultConfigPath = "configs/config.yaml"

var (
	version  = "0.1.0"
	cfgPath  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chansentinel",
		Short: "Chan theory structure and divergence analysis",
		Long: `chansentinel finds turning points, strokes, segments, centers and
MACD divergences in OHLCV bar series loaded from files, URLs or the
built-in simulator.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file, YAML or TOML (defaults to CONFIG_PATH or "+defaultConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chansentinel version %s\n", version)
		},
	}
}

// app holds what every command needs after startup.
type app struct {
	cfg *config.Config
	log *logger.Log
	sim *collector.Simulator
	eng *engine.Engine
}

func setup() (*app, error) {
	// .env is optional
	_ = godotenv.Load()

	path := cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	log.WithComponent("main").WithFields(logger.Fields{"config": path}).Debug("config loaded")

	return &app{
		cfg: cfg,
		log: log,
		sim: collector.NewSimulator(cfg.Simulator.Seed),
		eng: engine.New(cfg.EngineOptions(), log),
	}, nil
}

// openRecorder falls back to the no-op recorder when SQLite is not
// configured or cannot be opened.
func (a *app) openRecorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath)
	if err != nil {
		a.log.WithComponent("main").WithError(err).Warn("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func (a *app) telegram() (*notifier.TelegramNotifier, bool) {
	if !a.cfg.TelegramEnabled() {
		return nil, false
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy), true
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

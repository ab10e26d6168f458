// Package logger wraps logrus with component-tagged entries and optional
// rotating file output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields holds structured log fields.
type Fields map[string]interface{}

// Log wraps logrus.Logger.
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry.
type Entry struct {
	*logrus.Entry
}

// Options configures a logger. File empty means stderr; otherwise the file
// is rotated by lumberjack.
type Options struct {
	Level      string `yaml:"level" toml:"level"`
	Format     string `yaml:"format" toml:"format"`
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

var defaultLogger atomic.Pointer[Log]

func init() {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(textFormatter())
	defaultLogger.Store(&Log{Logger: l})
}

// L returns the process-wide logger.
func L() *Log {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Log) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// New builds a logger from opts.
func New(opts Options) (*Log, error) {
	l := logrus.New()

	level := strings.ToLower(opts.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s'", opts.Level)
	}
	l.SetLevel(lvl)

	switch opts.Format {
	case "", "text":
		l.SetFormatter(textFormatter())
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return nil, fmt.Errorf("invalid log format '%s'", opts.Format)
	}

	l.SetOutput(output(opts))
	return &Log{Logger: l}, nil
}

func output(opts Options) io.Writer {
	switch opts.File {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	}
}

func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// LogDuration records how long an operation took at debug level.
func (e *Entry) LogDuration(operation string, started time.Time, fields Fields) {
	if fields == nil {
		fields = make(Fields)
	}
	fields["operation"] = operation
	fields["duration_ms"] = float64(time.Since(started).Nanoseconds()) / 1e6
	e.WithFields(fields).Debug("timing")
}

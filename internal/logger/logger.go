package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/awairs/internal/env"
)

// Option configures the logger.
type Option func(*options)

type options struct {
	level     slog.Level
	output    io.Writer
	logToFile bool
	logFile   string
	maxSizeMB int
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithOutput replaces the console writer (stderr by default).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLogToFile enables the rotating file sink.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the path of the rotating log file.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithMaxSize sets the size in megabytes at which the log file is rotated.
func WithMaxSize(megabytes int) Option {
	return func(o *options) { o.maxSizeMB = megabytes }
}

// New builds a slog.Logger for the given environment.
// Development logs go through tint, production logs are JSON. When file logging
// is enabled every record is also written, as JSON, to a lumberjack-rotated file.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		level:     slog.LevelInfo,
		output:    os.Stderr,
		logFile:   "logs/awairs.log",
		maxSizeMB: 50,
	}
	for _, opt := range opts {
		opt(o)
	}

	var console slog.Handler
	if environment.IsProduction() {
		console = slog.NewJSONHandler(o.output, &slog.HandlerOptions{Level: o.level})
	} else {
		console = tint.NewHandler(o.output, &tint.Options{
			Level:      o.level,
			TimeFormat: time.Kitchen,
		})
	}

	if !o.logToFile {
		return slog.New(console)
	}

	file := &lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    o.maxSizeMB,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}

	return slog.New(slogmulti.Fanout(
		console,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: o.level}),
	))
}

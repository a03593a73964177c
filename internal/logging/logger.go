// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every line written by the global logger.
const ServiceName = "clinicguard"

// Config controls the global logger. Zero fields fall back to DefaultConfig.
type Config struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic, disabled.
	Level string

	// Format selects "json" lines or a human "console" writer.
	Format string

	// Caller adds file:line to each entry.
	Caller bool

	// Output receives the encoded entries. Decisions are never written to
	// stdout so CLI output stays machine readable.
	Output io.Writer
}

// DefaultConfig is info-level JSON on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

var levelNames = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"panic":    zerolog.PanicLevel,
	"disabled": zerolog.Disabled,
}

//nolint:gochecknoinits // packages log before main calls Init
func init() {
	log = build(DefaultConfig())
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	def := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = def.Level
	}
	if cfg.Output == nil {
		cfg.Output = def.Output
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	var w io.Writer = cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(w).With().Timestamp().Str("service", ServiceName)
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// parseLevel maps a level name to zerolog, defaulting to info.
func parseLevel(level string) zerolog.Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

func current() *zerolog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	return &l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger { return *current() }

// SetLogger swaps the global logger, mostly for tests.
//
//nolint:gocritic // zerolog.Logger is passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// With starts a child logger context:
//
//	keys := logging.With().Str("key_source", "jwks").Logger()
func With() zerolog.Context { return current().With() }

// WithComponent is With().Str("component", name).Logger().
func WithComponent(name string) zerolog.Logger {
	return current().With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return current().Debug() }

func Info() *zerolog.Event { return current().Info() }

func Warn() *zerolog.Event { return current().Warn() }

func Error() *zerolog.Event { return current().Error() }

// Fatal logs and then exits the process with status 1.
func Fatal() *zerolog.Event { return current().Fatal() }

// Err is Error() with the error attached, or Info() when err is nil.
func Err(err error) *zerolog.Event { return current().Err(err) }

// SetLevelString changes the process-wide minimum level.
func SetLevelString(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// NewTestLogger writes timestamped JSON to w without touching globals.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

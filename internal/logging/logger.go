// Package logging provides leveled, component-scoped logging backed by
// zerolog, with an optional host output channel that mirrors every line.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects how log lines are encoded on the primary output.
type Format string

const (
	// FormatConsole writes human-readable lines.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Format is the primary output encoding. Defaults to FormatConsole.
	Format Format
	// Prefix is recorded as the "app" field on every line.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Format: FormatConsole,
		Prefix: "beacon",
	}
}

// Sink is a host-provided text output channel.
type Sink interface {
	AppendLine(line string)
}

// shared is the state every derived logger points at.
type shared struct {
	level   atomic.Int32
	primary io.Writer
}

// mirror forwards formatted lines to one installed Sink. Each sink scope
// owns one mirror.
type mirror struct {
	once    sync.Once
	sink    atomic.Pointer[sinkHolder]
	console zerolog.ConsoleWriter
}

type sinkHolder struct {
	sink Sink
}

func newMirror() *mirror {
	m := &mirror{}
	m.console = zerolog.ConsoleWriter{
		Out:        &sinkWriter{mirror: m},
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}
	return m
}

func (m *mirror) Write(p []byte) (int, error) {
	if m.sink.Load() == nil {
		return len(p), nil
	}
	return m.console.Write(p)
}

// Logger provides structured logging. Derived loggers share the level with
// their parent and, unless created with Scoped, the host output channel.
type Logger struct {
	zl     zerolog.Logger
	shared *shared
	mirror *mirror
}

// New creates a new logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	s := &shared{}
	s.level.Store(int32(cfg.Level))

	out := zerolog.SyncWriter(cfg.Output)
	s.primary = out
	if cfg.Format != FormatJSON {
		s.primary = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			TimeFormat: "2006-01-02T15:04:05.000",
		}
	}

	m := newMirror()
	ctx := zerolog.New(zerolog.MultiLevelWriter(s.primary, m)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp()
	if cfg.Prefix != "" {
		ctx = ctx.Str("app", cfg.Prefix)
	}

	return &Logger{zl: ctx.Logger(), shared: s, mirror: m}
}

// Nop returns a logger whose primary output is discarded. An output channel
// installed with SetSink still receives its lines.
func Nop() *Logger {
	return New(Config{Level: LevelInfo, Output: io.Discard, Format: FormatJSON})
}

// Scoped returns a derived logger with its own output channel slot. Lines
// logged through it, or through loggers derived from it, reach only the
// sink installed on the scope. Level and primary output stay shared.
func (l *Logger) Scoped() *Logger {
	m := newMirror()
	return &Logger{
		zl:     l.zl.Output(zerolog.MultiLevelWriter(l.shared.primary, m)),
		shared: l.shared,
		mirror: m,
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{
		zl:     l.zl.With().Interface(key, value).Logger(),
		shared: l.shared,
		mirror: l.mirror,
	}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		zl:     l.zl.With().Str("component", component).Logger(),
		shared: l.shared,
		mirror: l.mirror,
	}
}

// SetLevel sets the minimum log level for this logger and all loggers
// derived from the same root.
func (l *Logger) SetLevel(level Level) {
	l.shared.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.shared.level.Load())
}

// SetSink installs the host output channel on this logger's scope. Only
// the first call per scope takes effect; it reports whether this call
// installed the sink.
func (l *Logger) SetSink(sink Sink) bool {
	if sink == nil {
		return false
	}
	installed := false
	l.mirror.once.Do(func() {
		l.mirror.sink.Store(&sinkHolder{sink: sink})
		installed = true
	})
	return installed
}

// HasSink reports whether a host output channel is installed on this
// logger's scope.
func (l *Logger) HasSink() bool {
	return l.mirror.sink.Load() != nil
}

// Debug logs a debug message with key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(LevelDebug, msg, kv)
}

// Info logs an info message with key/value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(LevelInfo, msg, kv)
}

// Warn logs a warning message with key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(LevelWarn, msg, kv)
}

// Error logs an error message with key/value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	l.log(LevelError, msg, kv)
}

func (l *Logger) log(level Level, msg string, kv []any) {
	if level < Level(l.shared.level.Load()) {
		return
	}
	ev := l.zl.WithLevel(level.zerolog())
	if len(kv) > 0 {
		ev = ev.Fields(kv)
	}
	ev.Msg(msg)
}

// sinkWriter splits formatted output into lines for the installed Sink.
type sinkWriter struct {
	mirror *mirror
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	holder := w.mirror.sink.Load()
	if holder == nil {
		return len(p), nil
	}
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			holder.sink.AppendLine(line)
		}
	}
	return len(p), nil
}

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Level maps the log level to its slog equivalent, defaulting to info
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures where a Logger writes
type Options struct {
	Level   LogLevel
	Console io.Writer // nil means stderr
	File    string    // optional path of a structured text log
}

// Logger provides a structured logger instance configured for the application
type Logger struct {
	*slog.Logger
}

// NewLogger creates a console logger on stderr with the specified level
func NewLogger(level LogLevel) *Logger {
	return New(Options{Level: level})
}

// NewLoggerWithConsoleWriter builds a logger that writes console output to the given writer
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	return New(Options{Level: level, Console: consoleWriter})
}

// New builds a logger from options, fanning out to a file handler when a file is set
func New(opts Options) *Logger {
	level := opts.Level.Level()

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	handler := newPlainHandler(console, level)

	if opts.File != "" {
		if fh := newFileTextHandler(opts.File, level); fh != nil {
			handler = newMultiHandler(handler, fh)
		}
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With("component", component),
	}
}

// LogWithIntention logs at the provided level with an intention tag stored under the "intention" key.
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

// Default logger instance - single instance for the entire application.
// It forwards to the handler installed by SetGlobalLogger.
var Default = &Logger{Logger: slog.New(&swapHandler{root: globalHandler})}

// SetGlobalLogger replaces the handler behind Default and every component logger
func SetGlobalLogger(opts Options) {
	h := New(opts).Handler()
	globalHandler.Store(&h)
}

// NewComponentLogger creates a new logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// newFileTextHandler opens path for append and returns a slog text handler, or nil
func newFileTextHandler(path string, level slog.Level) slog.Handler {
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("15:04:05"))}
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}

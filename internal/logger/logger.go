// Package logger is a thin structured logger over log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Environments: dev gets human readable text, prod gets json
const (
	EnvDevelopment = "dev"
	EnvProduction  = "prod"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

type handlerFunc func(io.Writer, *slog.HandlerOptions) slog.Handler

func textHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewTextHandler(w, opts)
}

func jsonHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

var environments = map[string]handlerFunc{
	EnvDevelopment: textHandler,
	EnvProduction:  jsonHandler,
}

// New writes to stderr with the handler of the environment
func New(environment string, level string) (Logger, error) {
	handler, ok := environments[environment]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q", environment)
	}
	return newLogger(os.Stderr, level, handler)
}

func NewNoOpLogger() Logger {
	return &slogLogger{handler: slog.DiscardHandler}
}

func newLogger(w io.Writer, level string, handler handlerFunc) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	return &slogLogger{handler: handler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   true,
		ReplaceAttr: shortSource,
	})}, nil
}

// Slog exposes the handler as *slog.Logger for libraries that want a std logger
func Slog(l Logger) *slog.Logger {
	if sl, ok := l.(*slogLogger); ok {
		return slog.New(sl.handler)
	}
	return slog.New(slog.DiscardHandler)
}

// Only the four named levels, case-insensitive. Offsets like "info+2" are refused
func parseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if strings.ContainsAny(level, "+-") || lvl.UnmarshalText([]byte(level)) != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// Keep file name only: source paths are long and machine specific
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
		src.File = filepath.Base(src.File)
	}
	return a
}

type slogLogger struct {
	handler slog.Handler
}

// log builds the record itself, so source points to the caller of Debug/Info/...
func (l *slogLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // Callers, log, Debug/Info/...

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.handler.Handle(ctx, r)
}

func (l *slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *slogLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return l
	}
	return &slogLogger{handler: slog.New(l.handler).With(args...).Handler()}
}

func (l *slogLogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &slogLogger{handler: l.handler.WithGroup(name)}
}

package hlog

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	console "github.com/phsym/console-slog"
)

// SlogLogger backs Logger with the standard library's structured logger,
// using a human-readable console handler in development and JSON
// otherwise.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewSlog creates a slog-backed Logger at the given minimum level.
func NewSlog(level Level, addSource bool) Logger {
	lv := &slog.LevelVar{}
	lv.Set(toSlogLevel(level))

	var handler slog.Handler
	if os.Getenv("HYSERIAL_ENV") == "development" {
		handler = console.NewHandler(os.Stderr, &console.HandlerOptions{
			AddSource: true,
			Level:     lv,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     lv,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					a.Key = "ts"
				}
				return a
			},
		})
	}

	return &SlogLogger{logger: slog.New(handler), level: lv}
}

func (l *SlogLogger) Debug(msg string, kv ...any) { l.log(slog.LevelDebug, msg, kv...) }
func (l *SlogLogger) Info(msg string, kv ...any)  { l.log(slog.LevelInfo, msg, kv...) }
func (l *SlogLogger) Warn(msg string, kv ...any)  { l.log(slog.LevelWarn, msg, kv...) }
func (l *SlogLogger) Error(msg string, kv ...any) { l.log(slog.LevelError, msg, kv...) }

func (l *SlogLogger) With(kv ...any) Logger {
	return &SlogLogger{logger: l.logger.With(kv...), level: l.level}
}

// log uses a fixed call depth so the reported source line is the
// caller of Debug/Info/Warn/Error, not this function.
func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

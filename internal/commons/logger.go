// Package commons holds the ambient concerns shared by every package in the
// gateway: structured logging and typed error kinds.
package commons

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface every component takes at construction time.
// No component reaches for a package-level global logger.
type Logger interface {
	Level() zapcore.Level

	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})
	Panic(args ...interface{})
	Panicf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Benchmark logs the duration of a named operation at debug level.
	Benchmark(name string, d time.Duration)
	// Tracef attaches request-scoped context (e.g. session id) to a debug line.
	Tracef(ctx context.Context, template string, args ...interface{})

	Sync() error
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewApplicationLogger builds the default production logger: JSON encoding,
// ISO8601 timestamps, logging at the given level.
func NewApplicationLogger(level zapcore.Level) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: z.Sugar()}, nil
}

// NewNopLogger returns a Logger that discards everything; used in tests.
func NewNopLogger() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *zapLogger) Level() zapcore.Level { return l.sugar.Level() }

func (l *zapLogger) Debug(args ...interface{})                  { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(t string, args ...interface{})       { l.sugar.Debugf(t, args...) }
func (l *zapLogger) Info(args ...interface{})                    { l.sugar.Info(args...) }
func (l *zapLogger) Infof(t string, args ...interface{})        { l.sugar.Infof(t, args...) }
func (l *zapLogger) Warn(args ...interface{})                    { l.sugar.Warn(args...) }
func (l *zapLogger) Warnf(t string, args ...interface{})        { l.sugar.Warnf(t, args...) }
func (l *zapLogger) Error(args ...interface{})                   { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(t string, args ...interface{})       { l.sugar.Errorf(t, args...) }
func (l *zapLogger) DPanic(args ...interface{})                  { l.sugar.DPanic(args...) }
func (l *zapLogger) DPanicf(t string, args ...interface{})      { l.sugar.DPanicf(t, args...) }
func (l *zapLogger) Panic(args ...interface{})                   { l.sugar.Panic(args...) }
func (l *zapLogger) Panicf(t string, args ...interface{})       { l.sugar.Panicf(t, args...) }
func (l *zapLogger) Fatal(args ...interface{})                   { l.sugar.Fatal(args...) }
func (l *zapLogger) Fatalf(t string, args ...interface{})       { l.sugar.Fatalf(t, args...) }

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }

func (l *zapLogger) Benchmark(name string, d time.Duration) {
	l.sugar.Debugw("benchmark", "name", name, "duration_ms", d.Milliseconds())
}

func (l *zapLogger) Tracef(ctx context.Context, template string, args ...interface{}) {
	sessionID, _ := ctx.Value(sessionIDKey{}).(string)
	if sessionID == "" {
		l.sugar.Debugf(template, args...)
		return
	}
	l.sugar.Debugf(fmt.Sprintf("[session=%s] %s", sessionID, template), args...)
}

func (l *zapLogger) Sync() error { return l.sugar.Sync() }

type sessionIDKey struct{}

// WithSessionID attaches a session id to ctx for Tracef to surface.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

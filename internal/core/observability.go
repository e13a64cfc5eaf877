package core

import (
	"context"
	"time"
)

// Logger is the structured logging surface the core writes to. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies timestamps for history entries and metrics.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder receives the outcome of every observed core operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts spans around core operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation result.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Observed operation names.
const (
	opToolBegin  = "tool_begin"
	opToolUpdate = "tool_update"
	opRebuild    = "rebuild"
	opUndo       = "undo"
	opRedo       = "redo"
)

// observe wraps fn with a span and a metrics observation.
func (c *Core) observe(operation string, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(context.Background(), operation)
	start := c.clock.Now()
	err := fn(ctx)
	c.metrics.Observe(ctx, operation, err == nil, c.clock.Now().Sub(start))
	span.End(err)
	return err
}

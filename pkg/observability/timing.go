package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one operation and reports it on Stop.
// A nil logger or metrics sink is skipped.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
}

// StartTimer starts timing operation.
func StartTimer(operation string, logger *slog.Logger, metrics Metrics) *Timer {
	return &Timer{operation: operation, start: time.Now(), logger: logger, metrics: metrics}
}

// Stop records the elapsed time tagged with the operation and its outcome.
func (t *Timer) Stop(ctx context.Context, err error) time.Duration {
	elapsed := time.Since(t.start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	if t.logger != nil {
		attrs := []any{"operation", t.operation, "duration_ms", elapsed.Milliseconds()}
		if err != nil {
			t.logger.WarnContext(ctx, "operation failed", append(attrs, "error", err)...)
		} else {
			t.logger.DebugContext(ctx, "operation completed", attrs...)
		}
	}

	if t.metrics != nil {
		tags := []Tag{T("operation", t.operation), T("outcome", outcome)}
		t.metrics.Timing(MetricOperationDuration, elapsed, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, T("operation", t.operation))
		}
	}

	return elapsed
}

// TimeOperationResult runs fn under a Timer and passes its result through.
func TimeOperationResult[R any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() (R, error)) (R, error) {
	timer := StartTimer(operation, logger, metrics)
	result, err := fn()
	timer.Stop(ctx, err)
	return result, err
}

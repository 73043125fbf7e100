package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

// ProcessorConfig tunes the relay.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is how many failed publishes a message gets before it
	// is marked dead.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// Retention is how long published messages are kept for Cleanup.
	Retention time.Duration
}

// DefaultProcessorConfig returns the relay defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
	}
}

// Processor relays outbox messages to a Publisher. It runs as a polling
// loop in the worker and as an on-demand Drain in the CLI.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a stopped Processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
	}
}

// WithMetrics sets the sink for delivery counters and the lag gauge.
func (p *Processor) WithMetrics(metrics observability.Metrics) *Processor {
	if metrics != nil {
		p.metrics = metrics
	}
	return p
}

// Start launches the polling loop. Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	stop := make(chan struct{})
	p.stop = stop

	p.wg.Go(func() { p.loop(ctx, stop) })

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop ends the loop and waits for the in-flight batch.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) loop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := p.relayBatch(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessOnce relays one batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	_, err := p.relayBatch(ctx)
	return err
}

// Drain relays batches until nothing deliverable is left, a batch publishes
// nothing, or maxBatches is reached. The CLI flushes with it before exiting.
func (p *Processor) Drain(ctx context.Context, maxBatches int) error {
	for range maxBatches {
		pending, err := p.repo.CountPending(ctx)
		if err != nil || pending == 0 {
			return err
		}
		published, err := p.relayBatch(ctx)
		if err != nil || published == 0 {
			return err
		}
	}
	return nil
}

// relayBatch publishes one batch and returns how many messages went out.
func (p *Processor) relayBatch(ctx context.Context) (int, error) {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.note(func(s *Stats) { s.setError(err, p.now()) })
		return 0, err
	}
	p.observeLag(messages)

	published := 0
	for _, msg := range messages {
		if p.relay(ctx, msg) {
			published++
		}
	}
	return published, nil
}

// relay publishes msg and records the outcome on it.
func (p *Processor) relay(ctx context.Context, msg *Message) bool {
	tag := observability.T("routing_key", msg.RoutingKey)

	err := p.publish(ctx, msg)
	if err == nil {
		if markErr := p.repo.MarkPublished(ctx, msg.ID); markErr != nil {
			p.logger.ErrorContext(ctx, "failed to mark message as published", "id", msg.ID, "event_id", msg.EventID, "error", markErr)
			return false
		}
		p.metrics.Counter(observability.MetricEventsPublished, 1, tag)
		p.note(func(s *Stats) { s.PublishedCount++ })
		return true
	}

	p.logger.WarnContext(ctx, "failed to publish message",
		append([]any{"id", msg.ID, "routing_key", msg.RoutingKey, "event_id", msg.EventID, "error", err}, traceAttrs(msg)...)...)

	now := p.now()
	if !msg.CanRetry(p.config.MaxRetries) {
		p.metrics.Counter(observability.MetricEventsDeadLettered, 1, tag)
		p.note(func(s *Stats) { s.DeadCount++; s.setError(err, now) })
		if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			p.logger.ErrorContext(ctx, "failed to mark message as dead", "id", msg.ID, "error", markErr)
		}
		return false
	}

	p.metrics.Counter(observability.MetricEventsFailed, 1, tag)
	p.note(func(s *Stats) { s.FailedCount++; s.setError(err, now) })
	retryAt := now.Add(p.retryBackoff(msg.RetryCount + 1))
	if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), retryAt); markErr != nil {
		p.logger.ErrorContext(ctx, "failed to mark message as failed", "id", msg.ID, "error", markErr)
	}
	return false
}

func (p *Processor) publish(ctx context.Context, msg *Message) error {
	body, err := msg.Envelope()
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg.RoutingKey, body)
}

// retryBackoff doubles from RetryBackoffBase per attempt, capped at
// RetryBackoffMax.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	ceiling := p.config.RetryBackoffMax
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	shift := uint(min(max(attempt-1, 0), 30))
	return min(base*time.Duration(1<<shift), ceiling)
}

// traceAttrs lifts the ids of the event's metadata into log attributes.
func traceAttrs(msg *Message) []any {
	if len(msg.Metadata) == 0 {
		return nil
	}
	var meta domain.EventMetadata
	if err := json.Unmarshal(msg.Metadata, &meta); err != nil {
		return nil
	}
	return []any{
		"correlation_id", meta.CorrelationID.String(),
		"causation_id", meta.CausationID.String(),
		"user_id", meta.UserID.String(),
	}
}

// Cleanup deletes published messages older than the retention window.
func (p *Processor) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	retention := p.config.Retention
	if retention <= 0 {
		retention = DefaultProcessorConfig().Retention
	}
	deleted, err := p.repo.DeleteOld(ctx, now.Add(-retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.InfoContext(ctx, "outbox cleanup", "deleted", deleted, "retention", retention)
	}
	return deleted, nil
}

// Stats is a snapshot of relay counters.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

func (s *Stats) setError(err error, at time.Time) {
	s.LastError = err.Error()
	s.LastErrorAt = &at
}

// GetStats returns a copy of the relay counters.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.IsRunning = running
	return s
}

func (p *Processor) note(update func(*Stats)) {
	p.statsMu.Lock()
	update(&p.stats)
	p.statsMu.Unlock()
}

// observeLag records the age of the oldest message in the batch.
func (p *Processor) observeLag(messages []*Message) {
	now := p.now()
	var oldest *time.Time
	for _, msg := range messages {
		if oldest == nil || msg.CreatedAt.Before(*oldest) {
			at := msg.CreatedAt
			oldest = &at
		}
	}

	lag := 0.0
	if oldest != nil {
		lag = now.Sub(*oldest).Seconds()
	}
	p.note(func(s *Stats) {
		s.LastProcessedAt = &now
		s.OldestMessageAt = oldest
		s.LagSeconds = lag
	})
	if oldest != nil {
		p.metrics.Gauge(observability.MetricOutboxLagSeconds, lag)
	}
}

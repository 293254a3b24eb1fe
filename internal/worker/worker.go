// Package worker consumes registration change events and hands them to the notification
// dispatcher.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubevents/internal/adapters/queue"
	"clubevents/internal/domain"
	"clubevents/internal/metrics"
)

const defaultPollTimeout = 5 * time.Second

// ChangeSource is the consuming side of the change queue.
type ChangeSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Envelope, error)
	Retry(ctx context.Context, env *queue.Envelope) (deadLettered bool, err error)
}

// ChangeProcessor dequeues change events and retries failed deliveries.
type ChangeProcessor struct {
	source      ChangeSource
	handler     domain.ChangeHandler
	metrics     *metrics.Metrics
	logger      *slog.Logger
	backoff     time.Duration
	pollTimeout time.Duration
}

// NewChangeProcessor creates a processor that waits backoff after a failure.
func NewChangeProcessor(source ChangeSource, handler domain.ChangeHandler, m *metrics.Metrics, logger *slog.Logger, backoff time.Duration) *ChangeProcessor {
	return &ChangeProcessor{
		source:      source,
		handler:     handler,
		metrics:     m,
		logger:      logger,
		backoff:     backoff,
		pollTimeout: defaultPollTimeout,
	}
}

// Run processes change events until ctx is cancelled.
func (p *ChangeProcessor) Run(ctx context.Context) {
	p.logger.Info("change worker started")
	for {
		if ctx.Err() != nil {
			p.logger.Info("change worker stopping")
			return
		}
		if err := p.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("change worker iteration failed", "error", err)
			p.wait(ctx)
		}
	}
}

// ProcessNext handles at most one envelope. A handler failure is retried through the
// queue and is not returned; only queue errors are.
func (p *ChangeProcessor) ProcessNext(ctx context.Context) error {
	env, err := p.source.Dequeue(ctx, p.pollTimeout)
	if err != nil {
		return err
	}
	if env == nil {
		return nil
	}

	change := env.Change
	p.logger.DebugContext(ctx, "processing registration change", "change_id", change.ID, "kind", change.Kind, "attempt", env.Attempt)
	handleErr := p.handler.HandleChange(ctx, change)
	if handleErr == nil {
		p.metrics.ChangeEvent(metrics.ResultSuccess)
		return nil
	}

	p.logger.ErrorContext(ctx, "registration change failed", "change_id", change.ID, "attempt", env.Attempt, "error", handleErr)
	deadLettered, err := p.source.Retry(ctx, env)
	if err != nil {
		return errors.Join(handleErr, err)
	}
	if deadLettered {
		p.metrics.ChangeEvent(metrics.ResultFailure)
	}
	p.wait(ctx)
	return nil
}

func (p *ChangeProcessor) wait(ctx context.Context) {
	if p.backoff <= 0 {
		return
	}
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

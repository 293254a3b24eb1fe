// Package queue carries registration change events from the API process to the
// notification worker over Redis lists.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubevents/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyChanges is the Redis list key for pending registration change events.
	KeyChanges = "clubevents:registration_changes"
	// KeyDeadLetter receives envelopes that failed MaxAttempts times or could not be decoded.
	KeyDeadLetter = "clubevents:registration_changes:dlq"

	DefaultMaxAttempts = 3
)

// Envelope wraps a change event with its delivery attempt counter.
type Envelope struct {
	Change     *domain.RegistrationChange `json:"change"`
	Attempt    int                        `json:"attempt"`
	EnqueuedAt time.Time                  `json:"enqueued_at"`
}

// Queue publishes and consumes change events via Redis.
type Queue struct {
	client      redis.Cmdable
	maxAttempts int
	logger      *slog.Logger
	now         func() time.Time
}

var _ domain.ChangePublisher = (*Queue)(nil)

// NewQueue creates a Redis-backed change queue. maxAttempts below 1 uses DefaultMaxAttempts.
func NewQueue(client redis.Cmdable, maxAttempts int, logger *slog.Logger) *Queue {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Queue{client: client, maxAttempts: maxAttempts, logger: logger, now: time.Now}
}

// Publish enqueues a change event for the worker.
func (q *Queue) Publish(ctx context.Context, change *domain.RegistrationChange) error {
	if change == nil {
		return errors.New("nil change")
	}
	raw, err := json.Marshal(Envelope{Change: change, EnqueuedAt: q.now()})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := q.client.RPush(ctx, KeyChanges, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.DebugContext(ctx, "enqueued registration change", "change_id", change.ID, "kind", change.Kind)
	return nil
}

// Dequeue blocks up to timeout for the next envelope. It returns nil, nil when the wait
// times out. Undecodable payloads are moved to the dead-letter list and skipped.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	result, err := q.client.BLPop(ctx, timeout, KeyChanges).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var env Envelope
	if err := json.Unmarshal([]byte(result[1]), &env); err != nil || env.Change == nil {
		q.logger.WarnContext(ctx, "invalid change payload", "raw", result[1], "error", err)
		if pushErr := q.client.RPush(ctx, KeyDeadLetter, result[1]).Err(); pushErr != nil {
			return nil, fmt.Errorf("dlq push: %w", pushErr)
		}
		return nil, nil
	}
	return &env, nil
}

// Retry re-enqueues env with an incremented attempt, or moves it to the dead-letter list
// once maxAttempts is reached. deadLettered reports which happened.
func (q *Queue) Retry(ctx context.Context, env *Envelope) (deadLettered bool, err error) {
	env.Attempt++
	raw, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("marshal envelope: %w", err)
	}
	if env.Attempt >= q.maxAttempts {
		if err := q.client.RPush(ctx, KeyDeadLetter, raw).Err(); err != nil {
			return false, fmt.Errorf("dlq push: %w", err)
		}
		q.logger.WarnContext(ctx, "change moved to dead-letter list", "change_id", env.Change.ID, "attempt", env.Attempt)
		return true, nil
	}
	if err := q.client.RPush(ctx, KeyChanges, raw).Err(); err != nil {
		return false, fmt.Errorf("rpush: %w", err)
	}
	q.logger.InfoContext(ctx, "change retried", "change_id", env.Change.ID, "attempt", env.Attempt)
	return false, nil
}

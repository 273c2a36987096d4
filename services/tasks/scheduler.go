package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// AsynqScheduler is the durable ExpiryScheduler: expiry fires ride the Redis
// delayed queue, so they survive process restarts. Cancellation is
// best-effort; a task that slips past deletion is absorbed by the
// coordinator's status guard.
type AsynqScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewAsynqScheduler constructs a scheduler over the given Redis connection.
func NewAsynqScheduler(redisOpt asynq.RedisClientOpt) *AsynqScheduler {
	return &AsynqScheduler{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

// Schedule enqueues the expiry fire for the offer. Scheduling the same offer
// twice is a no-op.
func (s *AsynqScheduler) Schedule(ctx context.Context, offerID string, fireAt time.Time) error {
	task, opts, err := NewOfferExpireTask(offerID, fireAt)
	if err != nil {
		return fmt.Errorf("build expiry task for offer %s: %w", offerID, err)
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue expiry task for offer %s: %w", offerID, err)
	}
	return nil
}

// Cancel removes the pending expiry task if it is still queued.
func (s *AsynqScheduler) Cancel(ctx context.Context, offerID string) error {
	err := s.inspector.DeleteTask(DispatchQueue, offerTaskID(offerID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("cancel expiry task for offer %s: %w", offerID, err)
}

// Close releases the underlying asynq client.
func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}

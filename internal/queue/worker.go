package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler processes a single dequeued task.
type Handler func(context.Context, Task) error

// Worker drains a single task kind. Failed tasks are retried with exponential
// backoff until MaxAttempts, then dropped onto the dead letter list.
type Worker struct {
	R           *redis.Client
	Prefix      string
	Kind        string
	Handler     Handler
	PollEvery   time.Duration
	RetryBase   time.Duration
	RetryJitter float64
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.R == nil {
		return errors.New("queue: worker redis client not configured")
	}
	if w.Handler == nil {
		return errors.New("queue: worker handler not configured")
	}
	if w.Kind == "" {
		return errors.New("queue: worker kind is required")
	}
	poll := w.PollEvery
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		processed, err := w.Drain(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if processed == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(poll):
			}
		}
	}
}

// Drain processes due tasks and returns how many ran. A failed task is
// re-queued with backoff and ends the pass, so each call makes at most one
// attempt on any given task. Exported so tests can step the queue directly.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	key := queueKey(w.Prefix, w.Kind)
	processed := 0
	for {
		res, err := w.R.ZPopMin(ctx, key, 1).Result()
		if err != nil {
			if err == redis.Nil {
				return processed, nil
			}
			return processed, err
		}
		if len(res) == 0 {
			return processed, nil
		}
		member, ok := res[0].Member.(string)
		if !ok {
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(member), &env); err != nil {
			continue
		}
		if env.AvailableAt > time.Now().UnixNano() {
			// not due yet, put it back
			_ = w.R.ZAdd(ctx, key, redis.Z{Score: float64(env.AvailableAt), Member: member}).Err()
			return processed, nil
		}

		env.Attempt++
		task := Task{Kind: env.Kind, Payload: env.Payload, IdempotencyKey: env.Key}
		if err := w.Handler(ctx, task); err != nil {
			// one attempt per pass: re-queue with backoff and stop so an
			// immediately-due retry is not popped again in the same call
			w.retry(ctx, key, env)
			processed++
			return processed, nil
		}
		if env.Key != "" {
			_ = w.R.Del(ctx, dedupKey(w.Prefix, env.Kind, env.Key)).Err()
		}
		processed++
	}
}

func (w *Worker) retry(ctx context.Context, key string, env envelope) {
	if env.Attempt >= env.MaxAttempts {
		raw, err := json.Marshal(env)
		if err != nil {
			return
		}
		_ = w.R.LPush(ctx, key+":dlq", raw).Err()
		if env.Key != "" {
			_ = w.R.Del(ctx, dedupKey(w.Prefix, env.Kind, env.Key)).Err()
		}
		return
	}
	env.AvailableAt = time.Now().Add(backoff(w.RetryBase, env.Attempt, w.RetryJitter)).UnixNano()
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	_ = w.R.ZAdd(ctx, key, redis.Z{Score: float64(env.AvailableAt), Member: raw}).Err()
}

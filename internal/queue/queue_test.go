package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestEnqueueDedup(t *testing.T) {
	client := newClient(t)
	e := &Enqueuer{R: client, Prefix: "t"}
	ctx := context.Background()

	task := Task{Kind: KindBillSaved, Payload: []byte(`{"entryId":"e1"}`), IdempotencyKey: "e1"}
	if err := e.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := e.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue duplicate: %v", err)
	}

	n, err := client.ZCard(ctx, "t:queue:"+KindBillSaved).Result()
	if err != nil {
		t.Fatalf("zcard: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 queued task, got %d", n)
	}
}

func TestEnqueueRequiresKind(t *testing.T) {
	e := &Enqueuer{R: newClient(t)}
	if err := e.Enqueue(context.Background(), Task{}); err == nil {
		t.Fatal("expected error for missing kind")
	}
}

func TestWorkerDrainProcessesDueTasks(t *testing.T) {
	client := newClient(t)
	e := &Enqueuer{R: client}
	ctx := context.Background()

	var got atomic.Int32
	w := &Worker{R: client, Kind: KindBillSaved, Handler: func(_ context.Context, task Task) error {
		if string(task.Payload) != `{"total":"14.00"}` {
			t.Errorf("unexpected payload %s", task.Payload)
		}
		got.Add(1)
		return nil
	}}

	if err := e.Enqueue(ctx, Task{Kind: KindBillSaved, Payload: []byte(`{"total":"14.00"}`), IdempotencyKey: "e1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	n, err := w.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 1 || got.Load() != 1 {
		t.Fatalf("want 1 processed, got n=%d handled=%d", n, got.Load())
	}

	// success releases the dedup key so the same entry can be enqueued again
	if err := e.Enqueue(ctx, Task{Kind: KindBillSaved, Payload: []byte(`{"total":"14.00"}`), IdempotencyKey: "e1"}); err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if card, _ := client.ZCard(ctx, "queue:"+KindBillSaved).Result(); card != 1 {
		t.Fatalf("want task re-admitted, zcard=%d", card)
	}
}

func TestWorkerDelayedTaskNotDue(t *testing.T) {
	client := newClient(t)
	e := &Enqueuer{R: client}
	ctx := context.Background()

	if err := e.Enqueue(ctx, Task{Kind: KindOrderLogged, Payload: []byte(`{}`), Delay: time.Hour}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	w := &Worker{R: client, Kind: KindOrderLogged, Handler: func(context.Context, Task) error {
		t.Fatal("handler must not run for a delayed task")
		return nil
	}}
	n, err := w.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0 processed, got %d", n)
	}
	if card, _ := client.ZCard(ctx, "queue:"+KindOrderLogged).Result(); card != 1 {
		t.Fatalf("delayed task must stay queued, zcard=%d", card)
	}
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	client := newClient(t)
	e := &Enqueuer{R: client}
	ctx := context.Background()

	if err := e.Enqueue(ctx, Task{Kind: KindBillSaved, Payload: []byte(`{}`), MaxAttempts: 2}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	w := &Worker{R: client, Kind: KindBillSaved, RetryBase: time.Nanosecond, Handler: func(context.Context, Task) error {
		return errors.New("boom")
	}}

	for attempt := 0; attempt < 2; attempt++ {
		deadline := time.Now().Add(2 * time.Second)
		for {
			n, err := w.Drain(ctx)
			if err != nil {
				t.Fatalf("drain: %v", err)
			}
			if n > 0 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("retry never became due")
			}
			time.Sleep(time.Millisecond)
		}
		if attempt == 0 {
			// a drain pass makes one attempt: the task is requeued, not dead
			if card, _ := client.ZCard(ctx, "queue:"+KindBillSaved).Result(); card != 1 {
				t.Fatalf("failed task must be requeued, zcard=%d", card)
			}
			if dlq, _ := client.LLen(ctx, "queue:"+KindBillSaved+":dlq").Result(); dlq != 0 {
				t.Fatalf("dead letter too early, llen=%d", dlq)
			}
		}
	}

	dlq, err := client.LLen(ctx, "queue:"+KindBillSaved+":dlq").Result()
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if dlq != 1 {
		t.Fatalf("want 1 dead letter, got %d", dlq)
	}
	if card, _ := client.ZCard(ctx, "queue:"+KindBillSaved).Result(); card != 0 {
		t.Fatalf("queue must be empty after dead letter, zcard=%d", card)
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAllowEnforcesWindowBudget(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	limiter := Limiter{Client: client, Prefix: "printshop:rl:"}

	ctx := context.Background()
	window := 2 * time.Second
	budget := 3

	for attempt := 0; attempt < budget; attempt++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "login:demo", window, budget)
		if err != nil {
			t.Fatalf("allow attempt %d: %v", attempt, err)
		}
		if !allowed {
			t.Fatalf("login attempt %d should fit the budget", attempt)
		}
		if want := budget - (attempt + 1); remaining != want {
			t.Fatalf("attempt %d: remaining = %d, want %d", attempt, remaining, want)
		}
	}

	allowed, remaining, resetAt, err := limiter.Allow(ctx, "login:demo", window, budget)
	if err != nil {
		t.Fatalf("allow over budget: %v", err)
	}
	if allowed {
		t.Fatal("attempt over the budget should be rejected")
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
	if !resetAt.After(time.Now()) {
		t.Fatalf("reset %v should be in the future", resetAt)
	}

	// another tenant's login key counts separately
	allowed, _, _, err = limiter.Allow(ctx, "login:akash-prints", window, budget)
	if err != nil {
		t.Fatalf("allow other tenant: %v", err)
	}
	if !allowed {
		t.Fatal("distinct keys must not share a window")
	}

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "login:demo", window, budget)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed {
		t.Fatal("budget should replenish once the window slides past")
	}
}

func TestAllowWithoutClientFailsOpen(t *testing.T) {
	limiter := Limiter{Prefix: "printshop:rl:"}
	allowed, _, _, err := limiter.Allow(context.Background(), "login:demo", time.Minute, 5)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !allowed {
		t.Fatal("a nil client must not block requests")
	}
}

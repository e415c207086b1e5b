package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func checkoutGuard(client *redis.Client, max int) Handler {
	return Handler{
		Limiter: Limiter{Client: client, Prefix: "printshop:rl:"},
		Config: Config{
			Key:    func(r *http.Request) string { return "checkout:" + r.Header.Get("X-Tenant-ID") },
			Window: time.Minute,
			Max:    max,
		},
	}
}

func TestMiddlewareRejectsOverBudget(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	guarded := checkoutGuard(client, 1).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("X-Tenant-ID", "demo")

	first := httptest.NewRecorder()
	guarded.ServeHTTP(first, req.Clone(req.Context()))
	if first.Code != http.StatusCreated {
		t.Fatalf("first checkout should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	guarded.ServeHTTP(second, req.Clone(req.Context()))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second checkout should be limited, got %d", second.Code)
	}
	if second.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header %q", second.Header().Get("X-RateLimit-Limit"))
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After on rejection")
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode rejection body: %v", err)
	}
	if body.Error.Code != "RATE_LIMITED" {
		t.Fatalf("unexpected error code %q", body.Error.Code)
	}

	// a different tenant has its own budget
	other := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	other.Header.Set("X-Tenant-ID", "akash-prints")
	third := httptest.NewRecorder()
	guarded.ServeHTTP(third, other)
	if third.Code != http.StatusCreated {
		t.Fatalf("other tenant should not share the budget, got %d", third.Code)
	}
}

func TestMiddlewareFailsOpenOnRedisError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()

	handler := checkoutGuard(client, 1)
	var seen error
	handler.OnError = func(err error) { seen = err }

	guarded := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("X-Tenant-ID", "demo")
	rr := httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("limiter outage must not block checkout, got %d", rr.Code)
	}
	if seen == nil {
		t.Fatal("expected OnError to receive the redis error")
	}
}

package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/printmine/backend-printshop/internal/health"
)

// storePinger fakes the pgx pool and redis client pings.
type storePinger struct {
	dbErr    error
	redisErr error
}

func (p storePinger) PingDB(_ context.Context, _ time.Duration) error    { return p.dbErr }
func (p storePinger) PingRedis(_ context.Context, _ time.Duration) error { return p.redisErr }

func TestLiveAlwaysOK(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("live: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("live body %q", rr.Body.String())
	}
}

func TestReadyReportsStoreStatus(t *testing.T) {
	cases := []struct {
		name       string
		pinger     storePinger
		wantStatus int
		wantDB     string
		wantRedis  string
	}{
		{
			name:       "all stores healthy",
			pinger:     storePinger{},
			wantStatus: http.StatusOK,
			wantDB:     "ok",
			wantRedis:  "ok",
		},
		{
			name:       "catalog database down",
			pinger:     storePinger{dbErr: errors.New("connect refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantDB:     "connect refused",
			wantRedis:  "ok",
		},
		{
			name:       "cart store down",
			pinger:     storePinger{redisErr: errors.New("i/o timeout")},
			wantStatus: http.StatusServiceUnavailable,
			wantDB:     "ok",
			wantRedis:  "i/o timeout",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := health.Handler{
				Checker:      tc.pinger,
				DBTimeout:    50 * time.Millisecond,
				RedisTimeout: 50 * time.Millisecond,
			}
			rr := httptest.NewRecorder()
			handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rr.Code != tc.wantStatus {
				t.Fatalf("ready: got %d, want %d", rr.Code, tc.wantStatus)
			}
			var status map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
				t.Fatalf("decode readiness body: %v", err)
			}
			if status["db"] != tc.wantDB || status["redis"] != tc.wantRedis {
				t.Fatalf("unexpected readiness %#v", status)
			}
		})
	}
}

func TestReadyWithoutCheckerRefuses(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready without checker: got %d, want 503", rr.Code)
	}
}

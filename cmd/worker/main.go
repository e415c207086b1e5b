package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/printmine/backend-printshop/internal/config"
	"github.com/printmine/backend-printshop/internal/expense"
	"github.com/printmine/backend-printshop/internal/kv"
	"github.com/printmine/backend-printshop/internal/lock"
	"github.com/printmine/backend-printshop/internal/obs"
	"github.com/printmine/backend-printshop/internal/queue"
	"github.com/printmine/backend-printshop/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	store := &kv.Store{Client: redisClient}
	expenseSvc := &expense.Service{KV: store}
	reportSvc := &report.Service{Expenses: expenseSvc, KV: store}
	locker := lock.Locker{R: redisClient}

	billWorker := &queue.Worker{
		R:      redisClient,
		Prefix: "printshop",
		Kind:   queue.KindBillSaved,
		Handler: func(jobCtx context.Context, task queue.Task) error {
			var payload struct {
				Tenant  string `json:"tenant"`
				EntryID string `json:"entryId"`
				Total   string `json:"total"`
			}
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			lockKey := "printshop:lock:summary:" + payload.Tenant
			return locker.WithLock(jobCtx, lockKey, 30*time.Second, func(lockCtx context.Context) error {
				rows, err := reportSvc.Daily(lockCtx, payload.Tenant)
				if err != nil {
					return err
				}
				if obs.DailySummaryRebuilds != nil {
					obs.DailySummaryRebuilds.Inc()
				}
				logger.Info().
					Str("tenant", payload.Tenant).
					Str("entry_id", payload.EntryID).
					Str("total", payload.Total).
					Int("summary_days", len(rows)).
					Msg("bill saved, daily summary rebuilt")
				return nil
			})
		},
	}

	orderWorker := &queue.Worker{
		R:      redisClient,
		Prefix: "printshop",
		Kind:   queue.KindOrderLogged,
		Handler: func(jobCtx context.Context, task queue.Task) error {
			var payload struct {
				Tenant  string `json:"tenant"`
				OrderID string `json:"orderId"`
			}
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			logger.Info().
				Str("tenant", payload.Tenant).
				Str("order_id", payload.OrderID).
				Msg("order logged")
			return nil
		},
	}

	logger.Info().Msg("worker starting")

	var wg sync.WaitGroup
	for _, w := range []*queue.Worker{billWorker, orderWorker} {
		wg.Add(1)
		go func(w *queue.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("kind", w.Kind).Msg("worker stopped with error")
			}
		}(w)
	}
	wg.Wait()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printmine/backend-printshop/internal/app"
	"github.com/printmine/backend-printshop/internal/auth"
	"github.com/printmine/backend-printshop/internal/billing"
	"github.com/printmine/backend-printshop/internal/cart"
	"github.com/printmine/backend-printshop/internal/catalog"
	"github.com/printmine/backend-printshop/internal/checkout"
	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/config"
	"github.com/printmine/backend-printshop/internal/expense"
	"github.com/printmine/backend-printshop/internal/health"
	"github.com/printmine/backend-printshop/internal/kv"
	"github.com/printmine/backend-printshop/internal/obs"
	"github.com/printmine/backend-printshop/internal/queue"
	"github.com/printmine/backend-printshop/internal/ratelimit"
	"github.com/printmine/backend-printshop/internal/report"
	"github.com/printmine/backend-printshop/internal/security"
	"github.com/printmine/backend-printshop/internal/settings"
	"github.com/printmine/backend-printshop/internal/stock"
	"github.com/printmine/backend-printshop/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "printshop-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "printshop-api"

	pool, err := pgxpool.NewWithConfig(startupCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(startupCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	loginLimiter := limiter.New(limiterStore, limiter.Rate{Period: time.Minute, Limit: 10})
	loginGuard := limitermw.NewMiddleware(loginLimiter)

	store := &kv.Store{Client: redisClient}
	tasks := &queue.Enqueuer{R: redisClient, Prefix: "printshop", DedupTTL: cfg.IdempotencyTTL}

	stockSvc := &stock.Service{KV: store}
	expenseSvc := &expense.Service{KV: store}
	reportSvc := &report.Service{Expenses: expenseSvc, KV: store}
	billingSvc := &billing.Service{KV: store, Stock: stockSvc, Expenses: expenseSvc, Tasks: tasks}
	settingsSvc := &settings.Service{KV: store}

	catalogSvc := &catalog.Service{
		Store: &catalog.Store{Pool: pool},
		Cache: &catalog.Cache{Client: redisClient, TTL: cfg.CatalogCacheTTL},
	}
	cartSvc := &cart.Service{R: redisClient, Products: catalogSvc, TTL: cfg.CartTTL}
	checkoutSvc := &checkout.Service{
		KV:             store,
		Carts:          cartSvc,
		Tasks:          tasks,
		Settings:       settingsSvc,
		WhatsAppNumber: cfg.WhatsAppNumber,
	}

	authSvc, err := auth.NewService(auth.Config{
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: cfg.AdminPasswordHash,
		Secret:            cfg.JWTSecret,
		AccessTokenTTL:    cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authMiddleware := auth.Middleware{Service: authSvc}

	billingHandler := &billing.Handler{Svc: billingSvc, Validate: validate}
	stockHandler := &stock.Handler{Svc: stockSvc, Validate: validate}
	expenseHandler := &expense.Handler{Svc: expenseSvc, Validate: validate}
	reportHandler := &report.Handler{Svc: reportSvc}
	settingsHandler := settings.Handler{Svc: settingsSvc, Validate: validate}
	catalogHandler := catalog.Handler{Svc: catalogSvc, Validate: validate}
	cartHandler := cart.Handler{Svc: cartSvc, Validate: validate}
	checkoutHandler := checkout.Handler{Svc: checkoutSvc, Validate: validate}
	authHandler := auth.Handler{Svc: authSvc, Validate: validate}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	resolver := tenant.NewResolver(cfg.TenantHeader, cfg.RootDomain, cfg.DefaultTenant)
	rateGuard := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "printshop:rl:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: time.Minute,
			Max:    cfg.RateLimitPerMin,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true, EnableHSTS: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(resolver.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cfg.TenantHeader, cart.TokenHeader, "Idempotency-Key"},
		ExposedHeaders:   []string{cart.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateGuard.Middleware)

		v.With(loginGuard.Handler).Post("/auth/login", authHandler.Login)

		v.Get("/products", catalogHandler.List)
		v.Get("/products/{slug}", catalogHandler.Get)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/settings", settingsHandler.Get)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Delete("/", cartHandler.Clear)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/items", cartHandler.AddItem)
				g.Patch("/items", cartHandler.UpdateQty)
			})
		})

		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAdmin)

			admin.Route("/bill", func(b chi.Router) {
				b.Get("/", billingHandler.Get)
				b.Post("/rows", billingHandler.AddRow)
				b.Patch("/rows/{index}", billingHandler.EditRow)
				b.Delete("/rows/{index}", billingHandler.DeleteRow)
				b.With(idem.Middleware).Post("/save", billingHandler.Save)
			})

			admin.Route("/stock", func(s chi.Router) {
				s.Get("/", stockHandler.List)
				s.Post("/", stockHandler.Add)
				s.Put("/{index}", stockHandler.Update)
				s.Delete("/{index}", stockHandler.Delete)
			})

			admin.Route("/expenses", func(e chi.Router) {
				e.Get("/", expenseHandler.List)
				e.Post("/", expenseHandler.Create)
				e.Put("/{id}", expenseHandler.Update)
				e.Delete("/{id}", expenseHandler.Delete)
			})

			admin.Route("/report", func(rep chi.Router) {
				rep.Get("/daily", reportHandler.Daily)
				rep.Post("/manual", reportHandler.AddManual)
				rep.Delete("/manual/{index}", reportHandler.DeleteManual)
			})

			admin.Route("/products", func(p chi.Router) {
				p.Post("/", catalogHandler.Create)
				p.Put("/{id}", catalogHandler.Update)
				p.Delete("/{id}", catalogHandler.Delete)
			})

			admin.Get("/orders", checkoutHandler.Orders)
			admin.Put("/settings", settingsHandler.Update)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	case <-ctx.Done():
	}

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("server shutdown complete")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

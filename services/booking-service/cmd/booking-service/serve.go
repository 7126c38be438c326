package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/completion"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the completion scheduler and outbox publisher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		return err
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(parent)
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	store, checks, err := openStore(ctx, logger, true)
	if err != nil {
		logger.Error("store init failed", "err", err)
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sweeper := completion.NewSweeper(store, logger, m, completion.Config{
		Interval:  config.Duration("COMPLETION_SWEEP_INTERVAL", 2*time.Minute),
		BatchSize: config.Int("COMPLETION_BATCH_SIZE", 500),
	})
	svc := scheduling.NewService(store, sweeper, logger, m, scheduling.Config{
		MaxAttempts: config.Int("BOOKING_MAX_ATTEMPTS", scheduling.DefaultMaxAttempts),
	})

	if brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")); len(brokers) > 0 {
		writer := kafkax.NewWriter(brokers)
		defer func() { _ = writer.Close() }()
		publisher := outbox.NewPublisher(store, writer, logger, outbox.PublisherConfig{
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Info("KAFKA_BROKERS not set, outbox events stay unpublished")
	}

	requireUser, err := authMiddleware(logger)
	if err != nil {
		logger.Error("auth setup failed", "err", err)
		return err
	}

	limit, limitChecks, closeLimiter := rateLimiter(logger)
	defer closeLimiter()
	checks = append(checks, limitChecks...)

	mux := runtime.NewBaseMux(reg, checks...)
	handlers.Register(mux,
		handlers.NewBookingHandler(svc, logger),
		handlers.NewCatalogHandler(catalog.New(store, logger), logger),
		requireUser,
		limit,
	)
	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.DefaultCORSPolicy(config.List("CORS_ALLOWED_ORIGINS", ""))),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweeper.Start(ctx)
	defer sweeper.Stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		logger.Error("http server error", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}

var errNoJWTSecret = errors.New("JWT_SECRET is required unless AUTH_TRUST_HEADER=true")

// authMiddleware verifies bearer tokens signed with JWT_SECRET. Trusting the
// X-User-Id header instead must be asked for with AUTH_TRUST_HEADER.
func authMiddleware(logger *slog.Logger) (httpx.Middleware, error) {
	secret := config.String("JWT_SECRET", "")
	if secret != "" {
		return auth.RequireUser(secret), nil
	}
	if !config.Bool("AUTH_TRUST_HEADER", false) {
		return nil, errNoJWTSecret
	}
	logger.Warn("JWT_SECRET not set, trusting the " + auth.UserIDHeader + " header; do not expose this server")
	return auth.RequireUser(""), nil
}

// rateLimiter picks the Redis limiter when REDIS_ADDR is set and the
// in-process one otherwise. A non-positive RATE_LIMIT_PER_MINUTE disables it.
func rateLimiter(logger *slog.Logger) (httpx.Middleware, []runtime.ReadyCheck, func()) {
	perMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if perMinute <= 0 {
		return nil, nil, func() {}
	}
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return httpx.NewRateLimiter(perMinute, time.Minute).Middleware(), nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	})
	limiter := httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, "booking")
	check := runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }}
	return limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)),
		[]runtime.ReadyCheck{check},
		func() { _ = rdb.Close() }
}

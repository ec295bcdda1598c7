package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/auth"
	"github.com/noah-isme/toko-dyntax/internal/cart"
	"github.com/noah-isme/toko-dyntax/internal/catalog"
	"github.com/noah-isme/toko-dyntax/internal/common"
	"github.com/noah-isme/toko-dyntax/internal/config"
	"github.com/noah-isme/toko-dyntax/internal/db"
	dbgen "github.com/noah-isme/toko-dyntax/internal/db/gen"
	"github.com/noah-isme/toko-dyntax/internal/dyntax"
	"github.com/noah-isme/toko-dyntax/internal/events"
	"github.com/noah-isme/toko-dyntax/internal/health"
	"github.com/noah-isme/toko-dyntax/internal/lock"
	"github.com/noah-isme/toko-dyntax/internal/obs"
	"github.com/noah-isme/toko-dyntax/internal/ratelimit"
	"github.com/noah-isme/toko-dyntax/internal/resilience"
	"github.com/noah-isme/toko-dyntax/internal/security"
	"github.com/noah-isme/toko-dyntax/internal/settings"
)

const (
	serviceName      = "toko-dyntax"
	metricsNamespace = "toko"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{Format: cfg.LogFormat, Level: cfg.LogLevel}).
		With().Str("service", serviceName).Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(metricsNamespace, prometheus.DefaultRegisterer)

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   serviceName,
		Endpoint:      cfg.TraceEndpoint,
		Exporter:      cfg.TraceExporter,
		SamplingRatio: cfg.TraceRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(startCtx, db.PoolConfig{
		URL:             cfg.DatabaseURL,
		ApplicationName: serviceName,
		Tracer:          obs.PGXTracer{},
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	queries := dbgen.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(startCtx).Err(); err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		Cache:   catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	var store settings.Store
	switch cfg.SettingsBackend {
	case config.SettingsBackendRedis:
		store, err = settings.NewRedisStore(redisClient, "option:")
	default:
		store, err = settings.NewPGStore(queries)
	}
	if err != nil {
		return err
	}
	breaker := resilience.NewBreaker(5, 0.5, 10*time.Second).
		WithTarget("settings_" + cfg.SettingsBackend).
		WithLogger(logger)
	guarded, err := settings.NewGuardedStore(store, breaker)
	if err != nil {
		return err
	}
	settingsService, err := settings.NewService(settings.ServiceConfig{
		Store:   guarded,
		Catalog: catalogService,
		Locker:  lock.Locker{R: redisClient, Prefix: "lock:", MaxWait: 2 * time.Second},
		LockTTL: cfg.LockTTL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	calculator, err := dyntax.NewCalculator(dyntax.Config{
		Rules:  settingsService,
		Logger: logger,
		Stack:  cfg.DyntaxStackFees,
	})
	if err != nil {
		return err
	}
	hooks := &events.Hooks{}
	hooks.RegisterCartFeeHandler(calculator)

	tokens, err := auth.NewTokens(auth.Config{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ClockSkew: 30 * time.Second,
		TTL:       cfg.AccessTokenTTL,
	})
	if err != nil {
		return err
	}

	csrf := security.CSRF{Secure: cfg.CookieSecure}
	page, err := settings.NewPage(settings.PageConfig{
		Service:   settingsService,
		Tokens:    csrf,
		CSRFField: "_csrf",
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	adminStore, err := ratelimit.NewRedisStore(redisClient, "ratelimit:admin")
	if err != nil {
		return err
	}

	healthHandler := &health.Handler{
		Checks: map[string]health.Check{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Timeout: 500 * time.Millisecond,
	}

	router := newRouter(routerDeps{
		Config:   cfg,
		Logger:   logger,
		Metrics:  obs.NewHTTPMetrics(metricsNamespace, obs.ParseBuckets(cfg.MetricsBuckets), prometheus.DefaultRegisterer),
		Health:   healthHandler,
		Catalog:  catalog.NewHandler(catalogService),
		Cart:     &cart.Handler{Svc: &cart.Service{Q: queries, Categories: catalogService, TTL: cfg.CartTTL}, Fees: hooks, TaxBps: int(cfg.TaxRateBps), Currency: cfg.CurrencyCode, Logger: logger},
		Settings: settings.NewHandler(settingsService),
		Page:     page,
		Auth:     auth.Middleware{Tokens: tokens, AccessCookie: cfg.AccessCookie},
		CSRF:     csrf,
		Idem:     common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL},
		AdminLimit: ratelimit.Policy{
			Name:    "admin",
			Limiter: ratelimit.FixedWindow{Store: adminStore},
			Key:     ratelimit.KeyBySubject("admin:"),
			Window:  cfg.AdminRateWindow,
			Limit:   cfg.AdminRateLimit,
			Logger:  logger,
		},
		CartLimit: ratelimit.Policy{
			Name:    "cart",
			Limiter: ratelimit.SlidingWindow{Client: redisClient, Prefix: "ratelimit:cart:"},
			Key:     ratelimit.KeyBySubject(""),
			Window:  time.Minute,
			Limit:   cfg.CartRateLimit,
			Logger:  logger,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("settings_backend", cfg.SettingsBackend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown requested")
	healthHandler.SetDraining(true)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/adapters/postgres"
	"github.com/integrationcmi/cmi/internal/config"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/handlers"
	paymentHandler "github.com/integrationcmi/cmi/internal/handlers/payment"
	"github.com/integrationcmi/cmi/internal/middleware"
	"github.com/integrationcmi/cmi/internal/services/callbackguard"
	paymentService "github.com/integrationcmi/cmi/internal/services/payment"
	pkgmw "github.com/integrationcmi/cmi/pkg/middleware"
	"github.com/integrationcmi/cmi/pkg/observability"
	"github.com/integrationcmi/cmi/pkg/resilience"
	"github.com/integrationcmi/cmi/pkg/shutdown"
)

const (
	startupAttempts   = 5
	callbackKeyPrefix = "cmi:callback:"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting CMI payment service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observability.RegisterAll(reg)
	reg.MustRegister(shutdown.Collectors()...)

	ctx := context.Background()
	timeouts := resilience.DefaultTimeoutConfig()
	shutdownMgr := shutdown.NewManager(logger, cfg.ShutdownTimeout)

	gatewayConfig := loadGatewayConfig(ctx, cfg, logger)

	signer, err := cmi.NewRequestSigner(gatewayConfig, paymentService.NewRequestValidator(), logger)
	if err != nil {
		logger.Fatal("Failed to create request signer", zap.Error(err))
	}
	verifier, err := cmi.NewCallbackVerifier(gatewayConfig, logger)
	if err != nil {
		logger.Fatal("Failed to create callback verifier", zap.Error(err))
	}
	forms := cmi.NewFormRenderer(gatewayConfig.GatewayURL)

	// Payment ledger (optional)
	var ledger ports.PaymentAttemptRepository
	pool := initLedger(ctx, cfg, timeouts, logger)
	if pool != nil {
		shutdownMgr.RegisterNoErr("postgres", pool.Close)
		pgCfg := postgres.DefaultPostgreSQLConfig(cfg.DatabaseURL)
		ledger = postgres.NewPaymentAttemptRepository(postgres.NewLedgerDB(pool), pgCfg.QueryTimeout, logger)
	}

	// Callback replay guard (optional)
	var dedup ports.CallbackDeduplicator
	var redisHealth redis.UniversalClient
	if rdb := initRedis(ctx, cfg, timeouts, logger); rdb != nil {
		shutdownMgr.RegisterCloser("redis", rdb)
		dedup = callbackguard.NewGuard(rdb, callbackKeyPrefix, logger)
		redisHealth = rdb
	}

	checkoutSvc := paymentService.NewCheckoutService(signer, forms, ledger, logger)
	callbackSvc := paymentService.NewCallbackService(verifier, ledger, dedup, cfg.CallbackDedupTTL, logger)

	callbackOptions := paymentHandler.DefaultCallbackOptions()
	callbackOptions.OnSuccess = handlers.InstrumentHook("success", timeouts, callbackSvc.OnSuccess)
	callbackOptions.OnFailure = handlers.InstrumentHook("failure", timeouts, callbackSvc.OnFailure)

	proxies, err := middleware.NewTrustedProxyList(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	callbackSource, err := middleware.NewCallbackSource(cfg.CallbackAllowedCIDRs, proxies, logger)
	if err != nil {
		logger.Fatal("Invalid CMI_CALLBACK_ALLOWED_CIDRS", zap.Error(err))
	}

	checkoutLimiter := pkgmw.NewRateLimiter(cfg.CheckoutRateLimit, cfg.CheckoutRateBurst, proxies.ClientIP, logger)
	callbackLimiter := pkgmw.NewRateLimiter(cfg.CallbackRateLimit, cfg.CallbackRateBurst, proxies.ClientIP, logger)
	shutdownMgr.RegisterNoErr("checkout-rate-limiter", checkoutLimiter.Shutdown)
	shutdownMgr.RegisterNoErr("callback-rate-limiter", callbackLimiter.Shutdown)

	router := handlers.NewRouter(handlers.RouterDeps{
		Checkout:        paymentHandler.NewCheckoutHandler(checkoutSvc, gatewayConfig.GatewayURL, logger),
		Callback:        paymentHandler.NewCallbackHandler(callbackSvc, callbackOptions, logger),
		CallbackSource:  callbackSource,
		CheckoutLimiter: checkoutLimiter,
		CallbackLimiter: callbackLimiter,
		Timeouts:        timeouts,
		IsDevelopment:   cfg.IsDevelopment(),
		Logger:          logger,
	})

	metricsServer := observability.StartMetricsServer(cfg.MetricsAddr, reg, observability.NewHealthChecker(pool, redisHealth), logger)
	shutdownMgr.RegisterHTTPServer("metrics-server", metricsServer)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      timeouts.HTTPHandler + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	shutdownMgr.RegisterHTTPServer("http-server", httpServer)

	go func() {
		logger.Info("HTTP server starting",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("callback_path", handlers.CallbackPath),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if errs := shutdownMgr.WaitForShutdown(ctx); len(errs) > 0 {
		logger.Error("Shutdown completed with errors", zap.Int("failed_components", len(errs)))
		return
	}
	logger.Info("CMI payment service stopped")
}

// loadGatewayConfig resolves the store key and validates the gateway
// settings. Any ConfigurationError is fatal.
func loadGatewayConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) *cmi.Config {
	var secrets ports.SecretManagerAdapter
	if cfg.NeedsSecretManager() {
		secrets = initSecretManager(ctx, cfg, logger)
	}

	storeKey, err := cfg.ResolveStoreKey(ctx, secrets)
	if err != nil {
		logger.Fatal("Failed to resolve CMI store key", zap.Error(err))
	}

	gatewayConfig, err := cfg.GatewayConfigFor(storeKey)
	if err != nil {
		logger.Fatal("Invalid CMI gateway configuration",
			zap.String("field", domain.GetErrorField(err)),
			zap.Error(err),
		)
	}

	logger.Info("CMI gateway configured",
		zap.String("client_id", gatewayConfig.ClientID),
		zap.String("gateway_url", gatewayConfig.GatewayURL),
		zap.String("store_type", string(gatewayConfig.StoreType)),
		zap.String("tran_type", string(gatewayConfig.TranType)),
		zap.String("confirmation_mode", string(gatewayConfig.ConfirmationMode)),
	)
	return gatewayConfig
}

// initLedger connects to PostgreSQL and applies the schema. It returns nil
// when DATABASE_URL is unset.
func initLedger(ctx context.Context, cfg *config.Config, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, payment ledger disabled")
		return nil
	}

	pgCfg := postgres.DefaultPostgreSQLConfig(cfg.DatabaseURL)
	pgCfg.MaxConns = cfg.DBMaxConns

	var pool *pgxpool.Pool
	err := resilience.Retry(ctx, resilience.StartupBackoff(), startupAttempts, func(ctx context.Context) error {
		pingCtx, cancel := timeouts.DependencyPingContext(ctx)
		defer cancel()

		p, err := postgres.NewPool(pingCtx, pgCfg, logger)
		if err != nil {
			logger.Warn("PostgreSQL not ready", zap.Error(err))
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		logger.Fatal("Failed to apply ledger schema", zap.Error(err))
	}
	return pool
}

// initRedis connects the callback replay guard. It returns nil when
// REDIS_URL is unset.
func initRedis(ctx context.Context, cfg *config.Config, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, callback replay guard disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Invalid REDIS_URL", zap.Error(err))
	}
	rdb := redis.NewClient(opts)

	err = resilience.Retry(ctx, resilience.StartupBackoff(), startupAttempts, func(ctx context.Context) error {
		pingCtx, cancel := timeouts.DependencyPingContext(ctx)
		defer cancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis not ready", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	logger.Info("Redis connected", zap.String("addr", opts.Addr))
	return rdb
}

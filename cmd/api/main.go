package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/cache"
	"aecoin-store-api/internal/config"
	"aecoin-store-api/internal/handler"
	"aecoin-store-api/internal/logger"
	"aecoin-store-api/internal/metrics"
	"aecoin-store-api/internal/middleware"
	"aecoin-store-api/internal/notify"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/internal/router"
	"aecoin-store-api/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting AECOIN store API", zap.String("environment", cfg.App.Environment))

	// Metrics
	m := metrics.New(metrics.DefaultNamespace)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := m.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Relational store
	driver, dsn := cfg.Store.DSN()
	store, err := repository.Open(startCtx, driver, dsn, log)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(startCtx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	log.Info("store initialized", zap.String("driver", driver))

	// Cache (sessions, collection id)
	var c cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		c = rc
	default:
		if !cfg.App.IsDevelopment() {
			log.Warn("in-memory cache in use: sessions are not shared between instances")
		}
		c = cache.NewMemoryCache()
	}
	defer c.Close()
	log.Info("cache initialized", zap.String("type", cfg.Cache.Type))

	// Payment event audit log
	var events repository.PaymentEventLog
	if cfg.Mongo.URI != "" {
		mongoLog, err := repository.NewMongoPaymentEventLog(startCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, log)
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		events = mongoLog
		log.Info("payment events recorded to MongoDB")
	} else {
		events = repository.NewLoggingPaymentEventLog(log)
	}
	defer events.Close()

	// Payment gateway
	collections := billplz.NewCollectionCache(cache.NewCollectionStore(c, cache.CollectionKey), cfg.Billplz.CollectionID, log)
	gateway := billplz.NewClient(billplz.Config{
		BaseURL:     cfg.Billplz.BaseURL,
		SecretKey:   cfg.Billplz.SecretKey,
		Timeout:     cfg.Billplz.Timeout,
		MaxAttempts: cfg.Billplz.MaxAttempts,
	}, collections, log)
	verifier := billplz.NewVerifier(cfg.Billplz.SignatureKey, cfg.AllowUnsignedWebhooks(), log)

	// Order notifications
	dispatcher, err := notify.FromConfig(notify.Config{
		WebhookURL: cfg.Discord.WebhookURL,
		Timeout:    cfg.Discord.Timeout,
	}, log, m)
	if err != nil {
		return fmt.Errorf("configure notifications: %w", err)
	}

	// Services
	sessions := service.NewSessionService(c, cfg.App.SessionTTL, log)
	catalog := service.NewCatalogService(store.Packages(), log)
	orders := service.NewOrderService(store.Packages(), store.Orders(), store.Codes(), gateway, service.OrderConfig{
		CallbackURL: cfg.App.CallbackURL(),
		RedirectURL: cfg.App.RedirectURL(),
		MaxQuantity: cfg.Orders.MaxQuantity,
	}, log, m)
	payments := service.NewPaymentService(store.Orders(), gateway, verifier, events, dispatcher, log, m)
	rankings := service.NewRankingService(store.Rankings(), log)
	heroes := service.NewHeroService(store.Heroes(), log)

	expiry := service.NewExpiryScheduler(store.Orders(), service.ExpiryConfig{
		PendingTTL:   cfg.Orders.PendingTTL,
		Interval:     cfg.Orders.ExpiryInterval,
		InitialDelay: time.Minute,
	}, log, m)
	expiry.Start()

	// Middleware
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Server.RateLimit,
		Burst:             cfg.Server.RateBurst,
	}, log, m)

	if len(cfg.App.AdminAPIKeys) == 0 {
		log.Warn("ADMIN_API_KEYS not set: admin endpoints will reject every request")
	}

	// Create router
	r := router.New(router.Config{
		Handler: handler.New(cfg.App.Name, cfg.App.Version,
			handler.Dependency{Name: "store", Pinger: store},
			handler.Dependency{Name: "cache", Pinger: c},
		),
		SessionHandler: handler.NewSessionHandler(sessions, log),
		PackageHandler: handler.NewPackageHandler(catalog, log),
		OrderHandler:   handler.NewOrderHandler(orders, log),
		PaymentHandler: handler.NewPaymentHandler(payments, cfg.App.FrontendURL, log),
		RankingHandler: handler.NewRankingHandler(rankings, log),
		HeroHandler:    handler.NewHeroHandler(heroes, log),
		AdminHandler:   handler.NewAdminHandler(store.Orders(), events, gateway.CollectionID, driver, log),
		SessionAuth:    middleware.NewSessionAuth(sessions, log),
		AdminAuth:      middleware.NewAdminAuth(cfg.App.AdminAPIKeys, log),
		RateLimit:      limiter.Handler,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
		Metrics:        m,
		Gatherer:       registry,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	expiry.Stop()
	limiter.Close()

	// Drain queued Discord notifications before the process exits
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn("notifications not fully delivered", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"skycam/edgeagent/internal/agent"
	"skycam/edgeagent/internal/config"
	"skycam/edgeagent/internal/handler"
	"skycam/edgeagent/internal/model"
	"skycam/edgeagent/internal/repository"
	"skycam/edgeagent/internal/service"
	"skycam/edgeagent/pkg/fetch"
	jwtpkg "skycam/edgeagent/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Initialize cache store (Redis or in-memory)
	var cacheStore repository.CacheStore
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cacheStore = repository.NewRedisCacheStore(redisClient)
		logger.Info("using Redis cache store")
	case "memory":
		cacheStore = repository.NewMemoryCacheStore()
		logger.Info("using in-memory cache store")
	default:
		logger.Fatal("unknown cache backend", zap.String("backend", cfg.Cache.Backend))
	}

	// 4. Initialize pending-event store (Postgres or in-memory)
	var eventRepo repository.PendingEventRepository
	switch cfg.Events.Backend {
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		eventRepo = repository.NewPGPendingEventRepository(db)
	case "memory":
		eventRepo = repository.NewMemoryPendingEventRepository()
		logger.Info("using in-memory pending-event store")
	default:
		logger.Fatal("unknown events backend", zap.String("backend", cfg.Events.Backend))
	}

	// 5. Shared runtime: network client, clock, backend token manager
	client := fetch.NewHTTPClient()
	clock := service.NewSystemClock()
	tokenManager := jwtpkg.NewManager(
		cfg.Backend.Auth.SigningKey,
		cfg.Backend.Auth.Issuer,
		cfg.Backend.Auth.Subject,
		cfg.Backend.Auth.TokenTTL,
	)

	// 6. Initialize services
	lifecycleService := service.NewLifecycleService(
		cacheStore, client, logger,
		cfg.Cache.Version, cfg.Upstream.BaseURL,
		cfg.Cache.StaticManifest, cfg.Cache.NetworkTimeout,
		cfg.Cache.TakeControlOnInstall,
	)
	offlineService := service.NewOfflineService(cfg.Notification.AppName)
	strategyService := service.NewStrategyService(
		cacheStore, client, lifecycleService, offlineService, logger,
		cfg.Cache.NetworkTimeout, cfg.Upstream.APIPrefix, cfg.Cache.StaticManifest,
	)
	defer strategyService.Close()
	syncService := service.NewSyncService(
		eventRepo, client, clock, tokenManager, logger,
		cfg.Backend.BaseURL, cfg.Backend.SyncPath, cfg.Backend.Timeout,
		cfg.Sync.MaxRetryAttempts, cfg.Sync.BaseDelay,
	)

	hub := handler.NewWindowsHub(logger)
	notificationService := service.NewNotificationService(hub, logger, cfg.Notification)

	// 7. Assemble the agent and run its install/activate lifecycle
	ag := agent.New(lifecycleService, strategyService, syncService, notificationService, logger, cfg.Sync.Queue)

	startupCtx := context.Background()
	if err := ag.OnInstall(startupCtx); err != nil {
		logger.Fatal("install failed", zap.Error(err))
	}
	if err := ag.OnActivate(startupCtx); err != nil {
		logger.Fatal("activate failed", zap.Error(err))
	}

	// 8. Connectivity watcher: drains pending events when the backend
	// becomes reachable again.
	watchCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	if cfg.Connectivity.Enabled {
		watcher := agent.NewConnectivityWatcher(
			ag, client, logger,
			cfg.Backend.BaseURL, cfg.Connectivity.ProbePath,
			cfg.Connectivity.ProbeInterval, cfg.Connectivity.ProbeTimeout,
			cfg.Sync.Queue,
		)
		go watcher.Run(watchCtx)
	}

	// 9. Initialize handlers and router
	proxyHandler, err := handler.NewProxyHandler(ag, strategyService, lifecycleService, cfg.Upstream.BaseURL, logger)
	if err != nil {
		logger.Fatal("invalid upstream base URL", zap.Error(err))
	}
	controlHandler := handler.NewControlHandler(ag)
	pushHandler := handler.NewPushHandler(ag, hub)
	eventsHandler := handler.NewEventsHandler(eventRepo, cfg.Sync.Queue)

	router := handler.SetupRouter(cfg, logger, proxyHandler, controlHandler, pushHandler, eventsHandler, hub)

	// 10. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Start server with graceful shutdown
	go func() {
		logger.Info("edge agent starting", zap.String("addr", addr), zap.String("version", cfg.Cache.Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down edge agent...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("edge agent exited gracefully")
}

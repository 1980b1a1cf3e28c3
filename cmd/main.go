package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpcrunch-live-chat/internal/app"
	"helpcrunch-live-chat/internal/config"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/middleware"
	"helpcrunch-live-chat/routes"
	"helpcrunch-live-chat/services"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to initialize service", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	if cfg.ActivateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := a.Activate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to activate helpcrunch", "error", err)
			os.Exit(1)
		}
	}

	cron := services.NewCronService()
	if cfg.RedisEnabled {
		if err := cron.ScheduleCacheWarm(cfg.CacheWarmEvery, a.Settings); err != nil {
			logger.Warn("cache warm job not scheduled", "error", err)
		}
	}
	cron.Start()
	defer cron.Stop()

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	trustedProxies, err := utils.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestHostMiddleware(trustedProxies))
	if cfg.OTelEnabled {
		router.Use(middleware.TracingMiddleware(cfg.ServiceName))
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(a.Metrics))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	authMiddleware := middleware.NewAuthMiddleware(a.Tokens, a.Users, cfg.IsRelease())

	// A nil *redis.Client must not reach the limiter as a non-nil interface.
	limiter := middleware.NewRateLimiter(nil, cfg.RateLimitReqs, cfg.RateLimitWindow)
	if a.Redis != nil {
		limiter = middleware.NewRateLimiter(a.Redis, cfg.RateLimitReqs, cfg.RateLimitWindow)
	}

	routes.SetupHealthRoutes(router, a.HealthChecks())
	routes.SetupEmbedRoutes(router, routes.EmbedDeps{
		Registry: a.Registry,
		Resolver: a.Renderer,
		Auth:     authMiddleware,
		Limiter:  limiter,
	})
	routes.SetupSettingsRoutes(router, routes.SettingsDeps{
		Registry:    a.Registry,
		Service:     a.Plugin,
		Auth:        authMiddleware,
		Audit:       a.Audit,
		OptionName:  cfg.OptionName,
		MaxFormSize: cfg.MaxFormSize,
	})
	routes.SetupAuthRoutes(router, routes.AuthDeps{
		Users:        a.Users,
		Tokens:       a.Tokens,
		Auth:         authMiddleware,
		SecureCookie: cfg.IsRelease(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

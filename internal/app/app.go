// Package app assembles the service from configuration. The server and the
// command line tools share it so they always see the same option store.
package app

import (
	"context"
	"fmt"
	"time"

	"helpcrunch-live-chat/internal/auth"
	"helpcrunch-live-chat/internal/config"
	"helpcrunch-live-chat/internal/events"
	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/internal/options"
	"helpcrunch-live-chat/internal/plugin"
	"helpcrunch-live-chat/internal/settings"
	"helpcrunch-live-chat/internal/telemetry"
	"helpcrunch-live-chat/internal/widget"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/services"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	Config *config.Config

	Mongo *mongo.Client
	Redis *redis.Client

	Metrics   *telemetry.Metrics
	Options   options.Store
	Settings  *settings.Store
	Renderer  *widget.Renderer
	Plugin    *plugin.Plugin
	Registry  *hooks.Registry
	Publisher events.Publisher
	Tokens    *auth.Manager
	Users     services.UserStore
	Audit     *models.AuditLogger

	stopTracer func()
}

func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Publisher: events.Noop{}}

	if cfg.OTelEnabled {
		stop, err := telemetry.InitTracer(cfg.ServiceName, cfg.OTelEndpoint, cfg.GinMode)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			a.stopTracer = stop
		}
		metrics, err := telemetry.InitMetrics(cfg.ServiceName)
		if err != nil {
			logger.Warn("metrics disabled", "error", err)
		} else {
			a.Metrics = metrics
		}
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		return nil, err
	}
	a.Mongo = mongoClient
	db := mongoClient.Database(cfg.DBName)

	var store options.Store = options.NewMongoStore(db, a.Metrics)
	if cfg.RedisEnabled {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			a.Close(context.Background())
			return nil, err
		}
		a.Redis = rdb
		store = options.NewRedisCache(rdb, store, cfg.OptionCacheTTL)
	}
	a.Options = store

	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange, logger.With("component", "events"))
		if err != nil {
			logger.Warn("settings events disabled", "error", err)
		} else {
			a.Publisher = pub
		}
	}

	var rdb redis.Cmdable
	if a.Redis != nil {
		rdb = a.Redis
	}
	tokens, err := auth.NewManager(cfg.AccessSecret, cfg.RefreshSecret, rdb)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	a.Tokens = tokens

	a.Users = services.NewMongoUserStore(db)
	a.Audit = models.NewAuditLogger(models.NewMongoAuditSink(db))

	a.Settings = settings.NewStore(store, cfg.OptionName)
	a.Renderer = widget.NewRenderer(a.Settings, a.Metrics)
	a.Plugin = plugin.New(a.Settings, a.Renderer, a.Publisher, cfg.AdminBaseURL, a.Metrics)
	a.Registry = hooks.NewRegistry()
	a.Plugin.Register(a.Registry)

	return a, nil
}

// Activate runs the activation hooks once.
func (a *App) Activate(ctx context.Context) error {
	if err := a.Registry.Activate(ctx); err != nil {
		return fmt.Errorf("activation failed: %w", err)
	}
	return nil
}

// HealthChecks pings the backing services.
func (a *App) HealthChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"mongo": func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) },
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return checks
}

func (a *App) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.Publisher.Close(); err != nil {
		logger.Warn("closing event publisher", "error", err)
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			logger.Warn("disconnecting mongo", "error", err)
		}
	}
	if a.stopTracer != nil {
		a.stopTracer()
	}
}

package routes

import (
	"context"
	"net/http"

	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/middleware"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

// EmbedResolver decides what the widget needs for one page view.
type EmbedResolver interface {
	Embed(ctx context.Context, host string, visitor models.VisitorIdentity) (models.EmbedResponse, error)
}

type EmbedDeps struct {
	Registry *hooks.Registry
	Resolver EmbedResolver
	Auth     *middleware.AuthMiddleware
	Limiter  *middleware.RateLimiter
}

// SetupEmbedRoutes exposes the public widget endpoints. Failures never reach
// the visitor: they are logged and the widget is simply left out.
func SetupEmbedRoutes(router *gin.Engine, deps EmbedDeps) {
	embed := router.Group("/embed")
	if deps.Limiter != nil {
		embed.Use(deps.Limiter.Middleware())
	}
	embed.Use(deps.Auth.OptionalAuth())

	embed.GET("/head", middleware.Compression(), func(c *gin.Context) {
		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		defer cancel()

		req := hooks.RequestContext{
			Host:    middleware.GetRequestHost(c),
			Visitor: middleware.GetVisitor(c),
		}
		fragment, err := deps.Registry.RenderHead(ctx, req)
		if err != nil {
			logger.Error("head hook failed", "request_id", middleware.GetRequestID(c), "error", err)
		}

		c.Header("Cache-Control", "private, no-store")
		if fragment == "" {
			c.Status(http.StatusNoContent)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
	})

	embed.GET("/payload", func(c *gin.Context) {
		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		defer cancel()

		c.Header("Cache-Control", "private, no-store")
		resp, err := deps.Resolver.Embed(ctx, middleware.GetRequestHost(c), middleware.GetVisitor(c))
		if err != nil {
			logger.Error("widget payload failed", "request_id", middleware.GetRequestID(c), "error", err)
			c.JSON(http.StatusOK, models.EmbedResponse{Render: false, Scheme: resp.Scheme})
			return
		}
		c.JSON(http.StatusOK, resp)
	})
}

package routes

import (
	"errors"
	"net/http"
	"strconv"

	"helpcrunch-live-chat/internal/auth"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/middleware"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/services"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

type AuthDeps struct {
	Users        services.UserStore
	Tokens       *auth.Manager
	Auth         *middleware.AuthMiddleware
	SecureCookie bool
}

func SetupAuthRoutes(router *gin.Engine, deps AuthDeps) {
	group := router.Group("/auth")

	group.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input", "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		user, err := deps.Users.FindByEmail(ctx, req.Email)
		if err != nil && !errors.Is(err, services.ErrUserNotFound) {
			logger.Error("user lookup failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to log in", nil)
			return
		}
		if user == nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
			return
		}

		issueSession(c, deps, user)
	})

	group.POST("/refresh", func(c *gin.Context) {
		var req models.RefreshRequest
		_ = c.ShouldBindJSON(&req)
		token := req.RefreshToken
		if token == "" {
			token, _ = c.Cookie(middleware.RefreshCookie)
		}
		if token == "" {
			utils.RespondWithUnauthorized(c, "Refresh token is required")
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		claims, err := deps.Tokens.ValidateRefreshToken(ctx, token)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "refresh_token_expired", "Your session has expired. Please log in again.", nil)
			return
		}
		user, err := deps.Users.FindByID(ctx, claims.UserID)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Account no longer exists")
			return
		}
		if err := deps.Tokens.RevokeToken(ctx, claims.ID, true); err != nil {
			logger.Warn("failed to revoke refresh token", "error", err)
		}

		issueSession(c, deps, user)
	})

	authed := group.Group("", deps.Auth.RequireAuth())

	authed.POST("/logout", func(c *gin.Context) {
		ctx := c.Request.Context()
		if claims := middleware.GetClaims(c); claims != nil {
			if err := deps.Tokens.RevokeToken(ctx, claims.ID, false); err != nil {
				logger.Warn("failed to revoke access token", "error", err)
			}
		}
		if refresh, err := c.Cookie(middleware.RefreshCookie); err == nil && refresh != "" {
			if claims, err := deps.Tokens.ValidateRefreshToken(ctx, refresh); err == nil {
				_ = deps.Tokens.RevokeToken(ctx, claims.ID, true)
			}
		}
		middleware.ClearSessionCookies(c, deps.SecureCookie)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	})

	authed.GET("/me", func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		c.JSON(http.StatusOK, models.UserInfo{
			ID:           strconv.FormatInt(claims.UserID, 10),
			Email:        claims.Email,
			DisplayName:  claims.Name,
			Role:         claims.Role,
			Capabilities: claims.Capabilities,
		})
	})
}

func issueSession(c *gin.Context, deps AuthDeps, user *models.User) {
	pair, err := deps.Tokens.IssueTokenPair(c.Request.Context(), *user)
	if err != nil {
		logger.Error("failed to issue tokens", "user_id", user.ID, "error", err)
		utils.RespondWithInternalError(c, "Failed to generate token", nil)
		return
	}
	middleware.SetSessionCookies(c, pair, deps.SecureCookie)

	c.JSON(http.StatusOK, models.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExp:    pair.AccessExp,
		RefreshExp:   pair.RefreshExp,
		User: models.UserInfo{
			ID:           strconv.FormatInt(user.ID, 10),
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			Role:         user.Role,
			Capabilities: user.EffectiveCapabilities(),
		},
	})
}

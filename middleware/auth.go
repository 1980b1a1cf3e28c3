package middleware

import (
	"context"
	"net/http"

	"helpcrunch-live-chat/internal/auth"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	claimsKey  = "claims"
	visitorKey = "visitor"
)

// UserLookup loads the account behind a refresh token so reissued tokens
// carry current capabilities.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type AuthMiddleware struct {
	tokens       *auth.Manager
	users        UserLookup
	secureCookie bool
}

func NewAuthMiddleware(tokens *auth.Manager, users UserLookup, secureCookie bool) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:       tokens,
		users:        users,
		secureCookie: secureCookie,
	}
}

func tokenFromRequest(c *gin.Context) string {
	if token := utils.ExtractTokenFromHeader(c.GetHeader("Authorization")); token != "" {
		return token
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects requests without a valid session. An expired access
// token is transparently renewed from the refresh cookie.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			return
		}

		claims, err := a.tokens.ValidateAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			claims = a.refreshFromCookie(c)
		}
		if claims == nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "session_expired",
				"Your session has expired. Please log in again.", nil)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the visitor when a valid session is present and
// otherwise leaves the request anonymous.
func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := a.tokens.ValidateAccessToken(c.Request.Context(), tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func (a *AuthMiddleware) refreshFromCookie(c *gin.Context) *auth.Claims {
	refreshToken, err := c.Cookie(RefreshCookie)
	if err != nil || refreshToken == "" || a.users == nil {
		return nil
	}

	ctx := c.Request.Context()
	refreshClaims, err := a.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil
	}

	user, err := a.users.FindByID(ctx, refreshClaims.UserID)
	if err != nil || user == nil {
		return nil
	}

	if err := a.tokens.RevokeToken(ctx, refreshClaims.ID, true); err != nil {
		logger.Warn("failed to revoke refresh token", "error", err)
	}

	pair, err := a.tokens.IssueTokenPair(ctx, *user)
	if err != nil {
		logger.Error("failed to reissue token pair", "user_id", user.ID, "error", err)
		return nil
	}
	SetSessionCookies(c, pair, a.secureCookie)

	claims, err := a.tokens.ValidateAccessToken(ctx, pair.AccessToken)
	if err != nil {
		return nil
	}
	return claims
}

// SetSessionCookies stores a token pair in HTTP-only cookies.
func SetSessionCookies(c *gin.Context, pair *auth.TokenPair, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, pair.AccessToken, int(auth.AccessTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, int(auth.RefreshTTL.Seconds()), "/", "", secure, true)
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", secure, true)
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
	c.Set(visitorKey, claims.Visitor())
}

func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetVisitor returns the anonymous identity when no session was resolved.
func GetVisitor(c *gin.Context) models.VisitorIdentity {
	if v, ok := c.Get(visitorKey); ok {
		if visitor, ok := v.(models.VisitorIdentity); ok {
			return visitor
		}
	}
	return models.VisitorIdentity{}
}

func GetUserID(c *gin.Context) *int64 {
	if claims := GetClaims(c); claims != nil {
		id := claims.UserID
		return &id
	}
	return nil
}

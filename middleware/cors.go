package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	corsMethods = []string{"GET", "POST", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
)

// CORSMiddlewareWithOrigins allows the admin and session APIs from the
// configured origins. Patterns like https://*.example.com are accepted.
func CORSMiddlewareWithOrigins(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return isOriginAllowed(origin, allowedOrigins)
		},
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// EmbedCORS lets any site fetch the widget endpoints, but only the configured
// origins may read them with the visitor's session cookie. Other origins get
// a response without Access-Control-Allow-Credentials, so the browser drops
// a credentialed response before the page can read the signed identity.
func EmbedCORS(allowedOrigins []string) gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  corsHeaders,
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}

	credentialed := base
	credentialed.AllowOriginFunc = func(origin string) bool {
		return isOriginAllowed(origin, allowedOrigins)
	}
	credentialed.AllowCredentials = true

	public := base
	public.AllowOriginFunc = func(string) bool { return true }

	trusted := cors.New(credentialed)
	anonymous := cors.New(public)
	return func(c *gin.Context) {
		if isOriginAllowed(c.GetHeader("Origin"), allowedOrigins) {
			trusted(c)
			return
		}
		anonymous(c)
	}
}

// CORS applies EmbedCORS to /embed and the configured origins everywhere else.
// It runs on the engine so preflight requests are answered before routing.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	admin := CORSMiddlewareWithOrigins(allowedOrigins)
	embed := EmbedCORS(allowedOrigins)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/embed/") {
			embed(c)
			return
		}
		admin(c)
	}
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if matchOriginPattern(origin, strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func matchOriginPattern(origin, pattern string) bool {
	if pattern == "*" {
		return true
	}
	scheme, host, ok := strings.Cut(pattern, "://*.")
	if !ok {
		return origin == pattern
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != scheme {
		return false
	}
	return strings.HasSuffix(u.Host, "."+host)
}

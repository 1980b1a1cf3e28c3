package middleware

import (
	"net"

	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

const requestHostKey = "request_host"

// RequestHostMiddleware resolves the page host once per request. The
// forwarded host is used only when the peer is one of trustedProxies.
func RequestHostMiddleware(trustedProxies []*net.IPNet) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestHostKey, utils.RequestHost(c.Request, trustedProxies))
		c.Next()
	}
}

// GetRequestHost falls back to the Host header when the middleware is not installed.
func GetRequestHost(c *gin.Context) string {
	if host := c.GetString(requestHostKey); host != "" {
		return host
	}
	return c.Request.Host
}

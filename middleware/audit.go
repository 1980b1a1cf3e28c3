package middleware

import (
	"net/http"
	"strconv"

	"helpcrunch-live-chat/internal/telemetry"
	"helpcrunch-live-chat/models"

	"github.com/gin-gonic/gin"
)

const auditChangesKey = "audit_changes"

type Auditor interface {
	LogAsync(event *models.AuditEvent)
}

// AuditMiddleware records every mutating request against one resource. Reads
// are not audited. Handlers attach the redacted change set with SetAuditChanges.
func AuditMiddleware(auditor Auditor, resource, resourceID string, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := mapHTTPMethodToAction(c.Request.Method)
		if action == "READ" {
			return
		}

		event := &models.AuditEvent{
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			RequestID:  GetRequestID(c),
			Success:    c.Writer.Status() < http.StatusBadRequest,
		}
		if claims := GetClaims(c); claims != nil {
			event.UserID = strconv.FormatInt(claims.UserID, 10)
		}
		if !event.Success {
			event.ErrorMessage = http.StatusText(c.Writer.Status())
		}
		if v, ok := c.Get(auditChangesKey); ok {
			if changes, ok := v.(map[string]interface{}); ok {
				event.Changes = changes
			}
		}

		auditor.LogAsync(event)
		metrics.RecordAuditEvent(action, resource)
	}
}

// SetAuditChanges must only be given values that are safe to persist.
func SetAuditChanges(c *gin.Context, changes map[string]interface{}) {
	c.Set(auditChangesKey, changes)
}

func mapHTTPMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "READ"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

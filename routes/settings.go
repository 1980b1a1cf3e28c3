package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/internal/plugin"
	"helpcrunch-live-chat/internal/settings"
	"helpcrunch-live-chat/middleware"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
)

const (
	auditResource = "settings"
	historyLimit  = 50
	maxMemory     = 32 << 10
)

// SettingsService applies admin submissions.
type SettingsService interface {
	UpdateSettings(ctx context.Context, host string, input models.SettingsInput, actor *int64, requestID string) (models.Settings, []models.ValidationError, error)
}

type AuditTrail interface {
	middleware.Auditor
	Recent(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditEvent, error)
}

type SettingsDeps struct {
	Registry    *hooks.Registry
	Service     SettingsService
	Auth        *middleware.AuthMiddleware
	Audit       AuditTrail
	OptionName  string
	MaxFormSize int64
}

func SetupSettingsRoutes(router *gin.Engine, deps SettingsDeps) {
	admin := router.Group("/admin",
		deps.Auth.RequireAuth(),
		middleware.RequireCapability(models.CapManageOptions),
	)

	page := admin.Group("/settings/" + plugin.Slug)
	page.Use(middleware.AuditMiddleware(deps.Audit, auditResource, deps.OptionName, nil))

	page.GET("", handleSettingsPage(deps.Registry))
	page.POST("", middleware.RequestSizeLimit(deps.MaxFormSize), handleUpdateSettings(deps))
	page.GET("/schema", handleAPICodeSchema())
	page.GET("/history", handleSettingsHistory(deps))

	admin.GET("/plugins/action-links", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"plugin": plugin.Slug,
			"links":  deps.Registry.ActionLinks([]hooks.ActionLink{}),
		})
	})
}

func handleSettingsPage(reg *hooks.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		req := hooks.RequestContext{Host: middleware.GetRequestHost(c), Visitor: middleware.GetVisitor(c)}
		settingsPage, err := reg.AdminInit(ctx, req, plugin.Slug)
		if err != nil {
			logger.Error("failed to build settings page", "request_id", middleware.GetRequestID(c), "error", err)
			utils.RespondWithInternalError(c, "Failed to load settings", nil)
			return
		}
		c.JSON(http.StatusOK, settingsPage)
	}
}

func handleUpdateSettings(deps SettingsDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, err := bindSettingsInput(c, deps.OptionName)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		record, errs, err := deps.Service.UpdateSettings(ctx, middleware.GetRequestHost(c), input,
			middleware.GetUserID(c), middleware.GetRequestID(c))
		if err != nil {
			logger.Error("failed to update settings", "request_id", middleware.GetRequestID(c), "error", err)
			utils.RespondWithInternalError(c, "Failed to save settings", nil)
			return
		}
		if errs == nil {
			errs = []models.ValidationError{}
		}

		view := models.NewSettingsView(record)
		middleware.SetAuditChanges(c, map[string]interface{}{
			"api_code":          map[string]interface{}(view.APICode),
			"api_domain":        view.APIDomain,
			"show_chat_widget":  view.ShowChatWidget,
			"validation_errors": len(errs),
		})

		c.JSON(http.StatusOK, models.UpdateSettingsResponse{
			Settings:   view,
			Errors:     errs,
			Integrated: record.IsIntegrated(),
		})
	}
}

type settingsJSON struct {
	APICode        json.RawMessage `json:"api_code"`
	ShowChatWidget interface{}     `json:"show_chat_widget"`
	APIDomain      *string         `json:"api_domain"`
}

// bindSettingsInput accepts JSON, where api_code may be the pasted string or
// the object itself, and form posts using either "helpcrunch[field]" or the
// bare field names.
func bindSettingsInput(c *gin.Context, optionName string) (models.SettingsInput, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body settingsJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			return models.SettingsInput{}, err
		}
		input := models.SettingsInput{ShowChatWidget: body.ShowChatWidget, APIDomain: body.APIDomain}
		raw := strings.TrimSpace(string(body.APICode))
		switch {
		case raw == "" || raw == "null":
		case strings.HasPrefix(raw, `"`):
			var s string
			if err := json.Unmarshal(body.APICode, &s); err != nil {
				return models.SettingsInput{}, err
			}
			input.APICode = &s
		default:
			input.APICode = &raw
		}
		return input, nil
	}

	err := c.Request.ParseForm()
	if err == nil && c.ContentType() == "multipart/form-data" {
		err = c.Request.ParseMultipartForm(maxMemory)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return models.SettingsInput{}, errors.New("request body too large")
		}
		return models.SettingsInput{}, err
	}
	form := c.Request.PostForm

	lookup := func(field string) ([]string, bool) {
		if v, ok := form[optionName+"["+field+"]"]; ok {
			return v, true
		}
		v, ok := form[field]
		return v, ok
	}

	var input models.SettingsInput
	if v, ok := lookup(settings.FieldAPICode); ok && len(v) > 0 {
		code := v[len(v)-1]
		input.APICode = &code
	}
	if v, ok := lookup(settings.FieldAPIDomain); ok && len(v) > 0 {
		domain := v[len(v)-1]
		input.APIDomain = &domain
	}
	if v, ok := lookup(settings.FieldShowChatWidget); ok {
		input.ShowChatWidget = v
	}
	return input, nil
}

func handleAPICodeSchema() gin.HandlerFunc {
	r := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := r.Reflect(&models.APICodeFields{})
	schema.Title = "HelpCrunch API code"
	schema.Description = "JSON object copied from the HelpCrunch website widget settings."

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, schema)
	}
}

func handleSettingsHistory(deps SettingsDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		events, err := deps.Audit.Recent(ctx, auditResource, deps.OptionName, historyLimit)
		if err != nil {
			logger.Error("failed to load settings history", "error", err)
			utils.RespondWithInternalError(c, "Failed to load history", nil)
			return
		}
		if events == nil {
			events = []models.AuditEvent{}
		}
		c.JSON(http.StatusOK, gin.H{
			"events":      events,
			"chain_valid": models.VerifyChain(events),
		})
	}
}

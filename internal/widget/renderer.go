package widget

import (
	"context"
	"errors"
	"html/template"

	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/internal/telemetry"
	"helpcrunch-live-chat/models"
)

// RecordSource supplies the current configuration record.
type RecordSource interface {
	Record(ctx context.Context) (models.Settings, error)
}

// Renderer evaluates every request independently; it keeps no state between them.
type Renderer struct {
	settings RecordSource
	metrics  *telemetry.Metrics
}

func NewRenderer(settings RecordSource, metrics *telemetry.Metrics) *Renderer {
	return &Renderer{settings: settings, metrics: metrics}
}

// Embed resolves the payload for one request. Render is false when the
// install is not integrated.
func (r *Renderer) Embed(ctx context.Context, host string, visitor models.VisitorIdentity) (models.EmbedResponse, error) {
	resp, _, err := r.resolve(ctx, host, visitor)
	return resp, err
}

// RenderHead returns the script markup for the page head, or "" when suppressed.
func (r *Renderer) RenderHead(ctx context.Context, host string, visitor models.VisitorIdentity) (template.HTML, error) {
	resp, apiDomain, err := r.resolve(ctx, host, visitor)
	if err != nil || !resp.Render {
		return "", err
	}
	return RenderScript(*resp.Payload, apiDomain, resp.Scheme)
}

func (r *Renderer) resolve(ctx context.Context, host string, visitor models.VisitorIdentity) (models.EmbedResponse, string, error) {
	scheme := Scheme(host)
	resp := models.EmbedResponse{Scheme: scheme}

	record, err := r.settings.Record(ctx)
	if err != nil {
		return resp, "", err
	}

	if !ShouldRender(record) {
		r.metrics.RecordWidgetRender(ctx, "suppressed")
		return resp, "", nil
	}

	payload, err := BuildPayload(record, visitor)
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		logger.Warn("helpcrunch user identification skipped", "field", cfgErr.Field, "error", cfgErr.Err)
		r.metrics.RecordConfigurationError(ctx, cfgErr.Field)
	} else if err != nil {
		return resp, "", err
	}

	apiDomain := record.EffectiveAPIDomain()
	r.metrics.RecordWidgetRender(ctx, "emitting")
	resp.Render = true
	resp.LoaderURL = LoaderURL(scheme, apiDomain)
	resp.Payload = &payload
	return resp, apiDomain, nil
}

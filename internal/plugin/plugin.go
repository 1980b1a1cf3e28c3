// Package plugin wires the HelpCrunch integration into the service's hook
// registry: activation seeding, the admin settings page, the head script and
// the action links.
package plugin

import (
	"context"
	"fmt"
	"html/template"

	"helpcrunch-live-chat/internal/events"
	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/internal/settings"
	"helpcrunch-live-chat/internal/telemetry"
	"helpcrunch-live-chat/internal/widget"
	"helpcrunch-live-chat/models"
)

const (
	Slug       = "helpcrunch"
	OptionName = "helpcrunch"

	SettingsPath = "/admin/settings/" + Slug
)

type Plugin struct {
	store        *settings.Store
	renderer     *widget.Renderer
	publisher    events.Publisher
	adminBaseURL string
	metrics      *telemetry.Metrics
}

// New builds the plugin. A nil publisher drops settings events.
func New(store *settings.Store, renderer *widget.Renderer, publisher events.Publisher, adminBaseURL string, metrics *telemetry.Metrics) *Plugin {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Plugin{
		store:        store,
		renderer:     renderer,
		publisher:    publisher,
		adminBaseURL: adminBaseURL,
		metrics:      metrics,
	}
}

// Register subscribes the plugin to every extension point. The head hook is
// always registered; whether it emits anything is decided per request.
func (p *Plugin) Register(reg *hooks.Registry) {
	reg.OnActivate(func(ctx context.Context) error {
		_, err := p.Activate(ctx)
		return err
	})
	reg.OnAdminInit(p.buildSettingsPage)
	reg.OnHead(func(ctx context.Context, req hooks.RequestContext) (template.HTML, error) {
		return p.renderer.RenderHead(ctx, req.Host, req.Visitor)
	})
	reg.AddActionLinksFilter(p.actionLinks)
}

// Activate seeds the default record. It reports whether a record was written.
func (p *Plugin) Activate(ctx context.Context) (bool, error) {
	added, err := p.store.Activate(ctx)
	if err != nil {
		return false, err
	}
	if added {
		logger.Info("helpcrunch settings initialized", "option", p.store.OptionName())
	}
	return added, nil
}

// UpdateSettings sanitizes and saves an admin submission. Validation errors
// do not abort the save: the remaining fields are persisted and the errors
// are returned for display.
func (p *Plugin) UpdateSettings(ctx context.Context, host string, input models.SettingsInput, actor *int64, requestID string) (models.Settings, []models.ValidationError, error) {
	prior, err := p.store.Record(ctx)
	if err != nil {
		return models.Settings{}, nil, fmt.Errorf("load settings: %w", err)
	}

	record, errs := settings.Sanitize(p.store.OptionName(), input, prior, widget.IsTestEnvironment(host))

	if err := p.store.Save(ctx, record); err != nil {
		return models.Settings{}, nil, fmt.Errorf("save settings: %w", err)
	}

	p.metrics.RecordSettingsSave(ctx, record.IsIntegrated(), len(errs))
	for _, e := range errs {
		logger.Warn("helpcrunch settings validation failed", "setting", e.Setting, "code", e.Code)
	}

	org, _ := record.Organization()
	event := events.NewEnvelope(events.SettingsUpdatedKey, events.SettingsUpdated{
		OptionName:       p.store.OptionName(),
		Integrated:       record.IsIntegrated(),
		Organization:     org,
		APIDomain:        record.EffectiveAPIDomain(),
		ShowChatWidget:   record.ShowChatWidget,
		ValidationErrors: len(errs),
		UpdatedBy:        actor,
	}, requestID)
	if err := p.publisher.Publish(ctx, events.SettingsUpdatedKey, event); err != nil {
		logger.Error("failed to publish settings event", "error", err)
	}

	return record, errs, nil
}

// Settings returns the stored record for read-only use by handlers.
func (p *Plugin) Settings(ctx context.Context) (models.Settings, error) {
	return p.store.Record(ctx)
}

func (p *Plugin) actionLinks(links []hooks.ActionLink) []hooks.ActionLink {
	return append(links, hooks.ActionLink{
		Label: "Settings",
		URL:   p.adminBaseURL + SettingsPath,
	})
}

package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/internal/settings"
	"helpcrunch-live-chat/internal/widget"
	"helpcrunch-live-chat/models"
)

const (
	PageTitle = "HelpCrunch"

	SectionIntegration = "integration"
	SectionChat        = "chat"

	GuideURL  = "https://docs.helpcrunch.com/integrations.html#wordpress-integration"
	SignupURL = "https://helpcrunch.com/signup.html?utm_medium=helpcrunch&utm_campaign=extensions&utm_source=wordpress_extension"
)

// AccountURL is the HelpCrunch admin panel of an organization.
func AccountURL(scheme, organization, apiDomain string) string {
	return fmt.Sprintf("%s://%s.%s", scheme, organization, apiDomain)
}

func (p *Plugin) buildSettingsPage(ctx context.Context, req hooks.RequestContext, page *hooks.SettingsPage) error {
	if page.Slug != Slug {
		return nil
	}

	record, err := p.store.Record(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	scheme := widget.Scheme(req.Host)
	integrated := record.IsIntegrated()

	page.Title = PageTitle
	page.Status = integrationState(record, scheme)

	setup := page.AddSection(SectionIntegration, "Setup")

	var code string
	if integrated {
		raw, err := json.Marshal(record.APICode)
		if err != nil {
			return fmt.Errorf("encode api code: %w", err)
		}
		code = string(raw)
	}
	setup.AddField(hooks.Field{
		ID:    settings.FieldAPICode,
		Name:  p.fieldName(settings.FieldAPICode),
		Label: "API Code",
		Type:  "textarea",
		Value: code,
		Help:  "Copy the code from the HelpCrunch website widget settings and paste it here.",
	})

	if widget.IsTestEnvironment(req.Host) {
		setup.AddField(hooks.Field{
			ID:    settings.FieldAPIDomain,
			Name:  p.fieldName(settings.FieldAPIDomain),
			Label: "HelpCrunch Domain",
			Type:  "text",
			Value: record.EffectiveAPIDomain(),
		})
	}

	chat := page.AddSection(SectionChat, "Chat Widget")
	chat.AddField(hooks.Field{
		ID:    settings.FieldShowChatWidget,
		Name:  p.fieldName(settings.FieldShowChatWidget),
		Label: "Show chat widget automatically",
		Type:  "checkbox",
		Value: record.ShowChatWidget,
	})

	return nil
}

func (p *Plugin) fieldName(field string) string {
	return p.store.OptionName() + "[" + field + "]"
}

func integrationState(record models.Settings, scheme string) *hooks.IntegrationState {
	state := &hooks.IntegrationState{
		Integrated: record.IsIntegrated(),
		GuideURL:   GuideURL,
	}
	if !state.Integrated {
		state.Message = "Paste the API code from your HelpCrunch account to start chatting with your visitors."
		state.SignupURL = SignupURL
		return state
	}

	state.Message = "HelpCrunch is installed on your site."
	if org, ok := record.Organization(); ok && org != "" {
		state.AccountURL = AccountURL(scheme, org, record.EffectiveAPIDomain())
	}
	return state
}

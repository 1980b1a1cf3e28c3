package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DefaultAPIDomain is used whenever the stored domain is empty.
const DefaultAPIDomain = "helpcrunch.com"

// Keys recognised inside the API code blob copied from the HelpCrunch dashboard.
const (
	APICodeOrganization                 = "organization"
	APICodeApplicationID                = "application_id"
	APICodeApplicationSecret            = "application_secret"
	APICodeCustomerAuthenticationSecret = "customer_authentication_secret"
)

// APICode is the JSON object an admin pastes from the HelpCrunch dashboard.
// Any key may be missing and unknown keys are kept as-is.
type APICode map[string]interface{}

// Settings is the single persisted HelpCrunch configuration record.
type Settings struct {
	APICode        APICode `bson:"api_code" json:"api_code"`
	APIDomain      string  `bson:"api_domain,omitempty" json:"api_domain,omitempty"`
	ShowChatWidget bool    `bson:"show_chat_widget" json:"show_chat_widget"`
}

// DefaultSettings returns the record written on first activation.
func DefaultSettings() Settings {
	return Settings{
		APICode:        APICode{},
		APIDomain:      DefaultAPIDomain,
		ShowChatWidget: true,
	}
}

// IsIntegrated reports whether any API credentials were saved.
func (s Settings) IsIntegrated() bool {
	return len(s.APICode) > 0
}

// EffectiveAPIDomain never returns an empty string.
func (s Settings) EffectiveAPIDomain() string {
	if s.APIDomain == "" {
		return DefaultAPIDomain
	}
	return s.APIDomain
}

// Organization is the tenant id from the API code, if present.
func (s Settings) Organization() (string, bool) {
	return s.APICode.String(APICodeOrganization)
}

// String returns the value under key as a string. Numbers are formatted the
// way they were written; objects, arrays and null count as absent.
func (a APICode) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// UnmarshalJSON keeps numbers as json.Number so large ids survive the
// memory store and the Redis cache without rounding.
func (a *APICode) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*a = APICode(m)
	return nil
}

// Clone returns a shallow copy so callers cannot mutate a shared record.
func (a APICode) Clone() APICode {
	out := make(APICode, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Redacted returns a copy with secret values masked, for logs and audit entries.
func (a APICode) Redacted() APICode {
	out := a.Clone()
	for _, k := range []string{APICodeApplicationSecret, APICodeCustomerAuthenticationSecret} {
		if _, ok := out[k]; ok {
			out[k] = "[REDACTED]"
		}
	}
	return out
}

// APICodeFields documents the known keys of the API code blob. It is only used
// to publish a JSON schema for admins.
type APICodeFields struct {
	Organization                 string `json:"organization" jsonschema:"description=HelpCrunch organization (tenant) id"`
	ApplicationID                string `json:"application_id" jsonschema:"description=Website widget application id"`
	ApplicationSecret            string `json:"application_secret" jsonschema:"description=Website widget application secret"`
	CustomerAuthenticationSecret string `json:"customer_authentication_secret,omitempty" jsonschema:"description=Secret used to sign logged-in user ids"`
}

// SettingsInput is the raw admin form submission, before sanitizing.
type SettingsInput struct {
	APICode        *string     `json:"api_code" form:"api_code"`
	ShowChatWidget interface{} `json:"show_chat_widget" form:"show_chat_widget"`
	APIDomain      *string     `json:"api_domain" form:"api_domain"`
}

// ValidationError is reported next to the offending settings field.
type ValidationError struct {
	Setting string `json:"setting"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// UpdateSettingsResponse is returned by the settings POST endpoint.
type UpdateSettingsResponse struct {
	Settings   SettingsView      `json:"settings"`
	Errors     []ValidationError `json:"errors"`
	Integrated bool              `json:"integrated"`
}

// SettingsView is what the admin API exposes; secrets are never echoed in full.
type SettingsView struct {
	APICode        APICode `json:"api_code"`
	APIDomain      string  `json:"api_domain"`
	ShowChatWidget bool    `json:"show_chat_widget"`
}

// NewSettingsView redacts secrets and fills in the effective domain.
func NewSettingsView(s Settings) SettingsView {
	code := s.APICode
	if code == nil {
		code = APICode{}
	}
	return SettingsView{
		APICode:        code.Redacted(),
		APIDomain:      s.EffectiveAPIDomain(),
		ShowChatWidget: s.ShowChatWidget,
	}
}

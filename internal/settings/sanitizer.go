package settings

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"helpcrunch-live-chat/models"
)

const (
	FieldAPICode        = "api_code"
	FieldAPIDomain      = "api_domain"
	FieldShowChatWidget = "show_chat_widget"

	invalidAPICodeMessage = "Invalid API Code"
)

// Sanitize turns a raw form submission into the record to persist. It never
// fails: a malformed API code degrades to empty credentials plus one
// validation error, and the remaining fields are still applied.
//
// The domain can only be changed when allowDomainOverride is set, which the
// caller does for test-environment requests.
func Sanitize(optionName string, in models.SettingsInput, prior models.Settings, allowDomainOverride bool) (models.Settings, []models.ValidationError) {
	out := models.Settings{
		APICode:        models.APICode{},
		APIDomain:      prior.APIDomain,
		ShowChatWidget: Truthy(in.ShowChatWidget),
	}

	var errs []models.ValidationError

	if in.APICode != nil && *in.APICode != "" {
		code, ok := parseAPICode(*in.APICode)
		if ok {
			out.APICode = code
		} else {
			errs = append(errs, models.ValidationError{
				Setting: optionName + "[" + FieldAPICode + "]",
				Code:    FieldAPICode,
				Message: invalidAPICodeMessage,
				Type:    "error",
			})
		}
	}

	if allowDomainOverride && in.APIDomain != nil {
		out.APIDomain = *in.APIDomain
	}

	return out, errs
}

// parseAPICode accepts only a single JSON object; null, arrays, scalars and
// trailing data are rejected. Numbers keep their literal text.
func parseAPICode(raw string) (models.APICode, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var code map[string]interface{}
	if err := dec.Decode(&code); err != nil || code == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return models.APICode(code), true
}

// Truthy mirrors checkbox semantics: missing, empty, "0", false and zero are
// off, everything else is on.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case *string:
		return t != nil && Truthy(*t)
	case []string:
		return len(t) > 0 && Truthy(t[len(t)-1])
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := strconv.ParseFloat(strings.TrimSpace(t.String()), 64)
		return err != nil || f != 0
	default:
		return true
	}
}

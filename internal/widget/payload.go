// Package widget decides whether a page gets the HelpCrunch embed and builds it.
package widget

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"helpcrunch-live-chat/models"
)

// ErrMissingAuthSecret means a logged-in visitor could not be identified to
// HelpCrunch because customer_authentication_secret is not configured.
var ErrMissingAuthSecret = errors.New("customer_authentication_secret is not configured")

// ConfigurationError reports integrated settings that are missing a field the
// current request needed. The payload returned with it is still usable.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("helpcrunch configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ShouldRender is the only gate: unconfigured installs emit nothing.
func ShouldRender(s models.Settings) bool {
	return s.IsIntegrated()
}

// BuildPayload derives the init arguments for one visitor. It is pure.
//
// When the visitor has an id but no signing secret is configured, the user
// block is left out entirely and a *ConfigurationError is returned together
// with the payload.
func BuildPayload(s models.Settings, visitor models.VisitorIdentity) (models.EmbedPayload, error) {
	org, _ := s.APICode.String(models.APICodeOrganization)
	appID, _ := s.APICode.String(models.APICodeApplicationID)
	appSecret, _ := s.APICode.String(models.APICodeApplicationSecret)

	payload := models.EmbedPayload{
		Organization: org,
		Init: models.EmbedInit{
			ApplicationID:     appID,
			ApplicationSecret: appSecret,
		},
		AutoShow: s.ShowChatWidget,
	}

	user, err := buildUser(s.APICode, visitor)
	if err != nil {
		return payload, err
	}
	payload.Init.User = user
	return payload, nil
}

func buildUser(code models.APICode, visitor models.VisitorIdentity) (*models.EmbedUser, error) {
	user := models.EmbedUser{}
	set := false

	if visitor.ID != nil {
		secret, ok := code.String(models.APICodeCustomerAuthenticationSecret)
		if !ok || secret == "" {
			return nil, &ConfigurationError{Field: models.APICodeCustomerAuthenticationSecret, Err: ErrMissingAuthSecret}
		}
		id := *visitor.ID
		user.UserID = &id
		user.Signature = Signature(id, secret)
		set = true
	}
	if visitor.Email != "" {
		user.Email = visitor.Email
		set = true
	}
	if visitor.DisplayName != "" {
		user.Name = visitor.DisplayName
		set = true
	}

	if !set {
		return nil, nil
	}
	return &user, nil
}

// Signature is the hex HMAC-SHA256 of the decimal user id keyed by the
// customer authentication secret, as HelpCrunch verifies it.
func Signature(userID int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(userID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

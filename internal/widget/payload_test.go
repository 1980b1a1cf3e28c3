package widget

import (
	"errors"
	"testing"

	"helpcrunch-live-chat/models"
)

func int64Ptr(v int64) *int64 { return &v }

func integratedSettings() models.Settings {
	return models.Settings{
		APICode: models.APICode{
			"organization":                   "acme",
			"application_id":                 "a1",
			"application_secret":             "s1",
			"customer_authentication_secret": "k",
		},
		APIDomain:      "helpcrunch.com",
		ShowChatWidget: true,
	}
}

func TestShouldRenderMatchesIntegration(t *testing.T) {
	records := []models.Settings{
		{},
		{APICode: models.APICode{}},
		{APICode: models.APICode{"organization": "acme"}},
		{APICode: models.APICode{"unrelated": 1.0}},
		integratedSettings(),
	}
	for _, record := range records {
		if ShouldRender(record) != record.IsIntegrated() {
			t.Errorf("ShouldRender(%v) disagrees with IsIntegrated", record.APICode)
		}
	}
	if ShouldRender(models.Settings{APICode: models.APICode{}}) {
		t.Errorf("empty api_code must suppress the widget")
	}
}

func TestBuildPayloadAnonymousVisitor(t *testing.T) {
	payload, err := BuildPayload(integratedSettings(), models.VisitorIdentity{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Init.User != nil {
		t.Fatalf("anonymous visitor must not get a user block, got %+v", payload.Init.User)
	}
	if payload.Organization != "acme" || payload.Init.ApplicationID != "a1" || payload.Init.ApplicationSecret != "s1" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if !payload.AutoShow {
		t.Errorf("auto show should follow show_chat_widget")
	}
}

func TestBuildPayloadLoggedInVisitor(t *testing.T) {
	visitor := models.VisitorIdentity{ID: int64Ptr(42), Email: "a@b.com"}

	payload, err := BuildPayload(integratedSettings(), visitor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user := payload.Init.User
	if user == nil {
		t.Fatal("expected user block")
	}
	if user.UserID == nil || *user.UserID != 42 {
		t.Errorf("user_id = %v", user.UserID)
	}
	if user.Signature != "7955074f51169f1f64053d8b2c403d7f41ee7ca4f3f9fe1c7b84f91083f2c50a" {
		t.Errorf("signature = %s", user.Signature)
	}
	if user.Email != "a@b.com" {
		t.Errorf("email = %q", user.Email)
	}
	if user.Name != "" {
		t.Errorf("name should be omitted, got %q", user.Name)
	}
}

func TestBuildPayloadEmailOnlyVisitor(t *testing.T) {
	payload, err := BuildPayload(integratedSettings(), models.VisitorIdentity{DisplayName: "Ann"})
	if err != nil {
		t.Fatal(err)
	}
	if payload.Init.User == nil || payload.Init.User.Name != "Ann" {
		t.Fatalf("expected name-only user block, got %+v", payload.Init.User)
	}
	if payload.Init.User.UserID != nil || payload.Init.User.Signature != "" {
		t.Errorf("no id means no signature")
	}
}

func TestBuildPayloadMissingSecret(t *testing.T) {
	record := integratedSettings()
	delete(record.APICode, "customer_authentication_secret")
	visitor := models.VisitorIdentity{ID: int64Ptr(7), Email: "a@b.com", DisplayName: "Ann"}

	payload, err := BuildPayload(record, visitor)

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !errors.Is(err, ErrMissingAuthSecret) {
		t.Errorf("error should wrap ErrMissingAuthSecret")
	}
	if payload.Init.User != nil {
		t.Errorf("user block must be omitted without a signing secret")
	}
	if payload.Init.ApplicationID != "a1" {
		t.Errorf("rest of the payload should still be built")
	}

	record.APICode["customer_authentication_secret"] = ""
	if _, err := BuildPayload(record, visitor); !errors.Is(err, ErrMissingAuthSecret) {
		t.Errorf("empty secret should be treated as missing, got %v", err)
	}
}

func TestBuildPayloadWithoutOrganization(t *testing.T) {
	record := models.Settings{APICode: models.APICode{"application_id": "a1"}}

	payload, err := BuildPayload(record, models.VisitorIdentity{})
	if err != nil {
		t.Fatal(err)
	}
	if payload.Organization != "" {
		t.Errorf("organization = %q", payload.Organization)
	}
	if payload.AutoShow {
		t.Errorf("auto show should be off")
	}
}

func TestSignatureDeterministic(t *testing.T) {
	a := Signature(42, "k")
	if a != Signature(42, "k") {
		t.Fatal("signature must be stable")
	}
	if a == Signature(43, "k") {
		t.Error("different id must change the signature")
	}
	if a == Signature(42, "other") {
		t.Error("different secret must change the signature")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got %d chars", len(a))
	}
}

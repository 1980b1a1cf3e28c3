package events

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewEnvelope(t *testing.T) {
	a := NewEnvelope(SettingsUpdatedKey, SettingsUpdated{OptionName: "helpcrunch"}, "req-1")
	b := NewEnvelope(SettingsUpdatedKey, SettingsUpdated{OptionName: "helpcrunch"}, "")

	if a.Meta.ID == "" || a.Meta.ID == b.Meta.ID {
		t.Errorf("envelope ids must be unique, got %q and %q", a.Meta.ID, b.Meta.ID)
	}
	if a.Meta.Type != SettingsUpdatedKey {
		t.Errorf("type = %q", a.Meta.Type)
	}
	if a.Meta.CorrelationID == nil || *a.Meta.CorrelationID != "req-1" {
		t.Errorf("correlation id = %v", a.Meta.CorrelationID)
	}
	if b.Meta.CorrelationID != nil {
		t.Errorf("empty correlation id should be omitted")
	}
	if a.Meta.OccurredAt.Location().String() != "UTC" {
		t.Errorf("occurred_at should be UTC")
	}
}

func TestSettingsUpdatedWireFormat(t *testing.T) {
	env := NewEnvelope(SettingsUpdatedKey, SettingsUpdated{
		OptionName:     "helpcrunch",
		Integrated:     true,
		Organization:   "acme",
		APIDomain:      "helpcrunch.com",
		ShowChatWidget: true,
	}, "")

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, want := range []string{`"type":"helpcrunch.settings.updated"`, `"organization":"acme"`, `"integrated":true`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %s in %s", want, body)
		}
	}
	for _, absent := range []string{"correlation_id", "updated_by", "secret"} {
		if strings.Contains(body, absent) {
			t.Errorf("unexpected %s in %s", absent, body)
		}
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var p Publisher = &r
	if err := p.Publish(context.Background(), SettingsUpdatedKey, NewEnvelope(SettingsUpdatedKey, nil, "")); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 1 || r.Events[0].Key != SettingsUpdatedKey {
		t.Errorf("unexpected events %+v", r.Events)
	}
	if err := (Noop{}).Publish(context.Background(), SettingsUpdatedKey, Envelope{}); err != nil {
		t.Errorf("noop publish: %v", err)
	}
}

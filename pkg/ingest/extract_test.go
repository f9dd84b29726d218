package ingest

import "testing"

func TestExtractWebhookMeta_Slack(t *testing.T) {
	body := []byte(`{"team_id":"T123","event_id":"Ev456"}`)
	meta, err := ExtractWebhookMeta("slack", body)
	if err != nil {
		t.Fatalf("ExtractWebhookMeta() = %v", err)
	}
	if meta.Discriminator != "T123" || meta.ExternalEventID != "Ev456" {
		t.Errorf("got %+v", meta)
	}
}

func TestExtractWebhookMeta_HubSpotWithTimestamp(t *testing.T) {
	body := []byte(`{"portalId":12345,"eventId":"e-1","occurredAt":"2026-01-02T15:04:05Z"}`)
	meta, err := ExtractWebhookMeta("hubspot", body)
	if err != nil {
		t.Fatalf("ExtractWebhookMeta() = %v", err)
	}
	if meta.Discriminator != "12345" {
		t.Errorf("Discriminator = %q, want 12345", meta.Discriminator)
	}
	if meta.OccurredAt == nil {
		t.Fatal("OccurredAt = nil, want parsed timestamp")
	}
}

func TestExtractWebhookMeta_MissingDiscriminator(t *testing.T) {
	body := []byte(`{"event_id":"Ev456"}`)
	if _, err := ExtractWebhookMeta("slack", body); err == nil {
		t.Fatal("ExtractWebhookMeta() = nil error, want error for missing discriminator")
	}
}

func TestExtractWebhookMeta_UnknownKind(t *testing.T) {
	if _, err := ExtractWebhookMeta("nonesuch", []byte(`{}`)); err == nil {
		t.Fatal("ExtractWebhookMeta() = nil error, want error for unregistered kind")
	}
}

func TestExtractChange_HubSpotContactUpdate(t *testing.T) {
	body := []byte(`{"objectId":"obj-1","email":"a@example.com","firstname":"Ada","lastname":"Lovelace","updated_at":"2026-01-02T15:04:05Z"}`)
	change, ok, err := ExtractChange("hubspot", body)
	if err != nil {
		t.Fatalf("ExtractChange() = %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true for registered integration")
	}
	if change.EntityKind != EntityKindContact {
		t.Errorf("EntityKind = %q, want contact", change.EntityKind)
	}
	if change.ExternalID != "obj-1" {
		t.Errorf("ExternalID = %q, want obj-1", change.ExternalID)
	}
	if change.Kind != ChangeUpdate {
		t.Errorf("Kind = %q, want update", change.Kind)
	}
	if change.Fields["email"] != "a@example.com" {
		t.Errorf("Fields[email] = %q, want a@example.com", change.Fields["email"])
	}
	if change.ExternalLastModified.IsZero() {
		t.Error("ExternalLastModified is zero, want parsed updated_at")
	}
}

func TestExtractChange_HubSpotDeletedFlag(t *testing.T) {
	body := []byte(`{"objectId":"obj-2","deleted":true}`)
	change, ok, err := ExtractChange("hubspot", body)
	if err != nil {
		t.Fatalf("ExtractChange() = %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if change.Kind != ChangeDelete {
		t.Errorf("Kind = %q, want delete", change.Kind)
	}
}

func TestExtractChange_UnregisteredIntegrationReturnsNotOK(t *testing.T) {
	change, ok, err := ExtractChange("slack", []byte(`{"team_id":"T123"}`))
	if err != nil {
		t.Fatalf("ExtractChange() = %v, want nil error for unregistered integration", err)
	}
	if ok {
		t.Fatal("ok = true, want false for notification-only integration")
	}
	if (change != Change{}) {
		t.Errorf("change = %+v, want zero value", change)
	}
}

func TestExtractChange_MissingExternalIDErrors(t *testing.T) {
	if _, ok, err := ExtractChange("hubspot", []byte(`{"email":"a@example.com"}`)); err == nil || ok {
		t.Fatalf("ExtractChange() = (ok=%v, err=%v), want error and ok=false", ok, err)
	}
}

package ingest

import (
	"encoding/json"
	"fmt"
	"time"
)

// WebhookMeta is the minimal set of fields every provider's webhook payload
// must yield before tenant resolution and ledger dedup can proceed: a
// discriminator identifying which tenant installation emitted the event
// (matched against a stored credential's endpoint hint) and the provider's
// own event id (the ledger dedup key).
type WebhookMeta struct {
	Discriminator   string
	ExternalEventID string
	OccurredAt      *time.Time
}

// FieldPaths names, for one integration kind, the top-level JSON fields its
// webhook envelope carries the discriminator and event id under. Every
// integration in this system sends a flat top-level envelope (Slack's
// team_id, HubSpot's portalId, etc.), so a one-level field lookup is
// sufficient; an integration needing deeper extraction gets its own
// Extractor registered instead of a FieldPaths entry.
type FieldPaths struct {
	Discriminator string
	EventID       string
	OccurredAt    string // RFC3339; optional
}

// DefaultFieldPaths holds the per-integration envelope shape used by
// ExtractWebhookMeta.
var DefaultFieldPaths = map[string]FieldPaths{
	"slack":     {Discriminator: "team_id", EventID: "event_id", OccurredAt: ""},
	"hubspot":   {Discriminator: "portalId", EventID: "eventId", OccurredAt: "occurredAt"},
	"google":    {Discriminator: "resourceId", EventID: "messageNumber"},
	"fathom":    {Discriminator: "team_id", EventID: "id"},
	"savvycal":  {Discriminator: "link_id", EventID: "id"},
	"stripe":    {Discriminator: "account", EventID: "id", OccurredAt: "created"},
	"bullhorn":  {Discriminator: "corpToken", EventID: "eventId"},
}

// ExtractWebhookMeta decodes rawBody as a flat JSON object and pulls the
// discriminator/event-id/occurred-at fields registered for kind.
func ExtractWebhookMeta(kind string, rawBody []byte) (WebhookMeta, error) {
	paths, ok := DefaultFieldPaths[kind]
	if !ok {
		return WebhookMeta{}, fmt.Errorf("no webhook field mapping registered for %s", kind)
	}

	var fields map[string]any
	if err := json.Unmarshal(rawBody, &fields); err != nil {
		return WebhookMeta{}, fmt.Errorf("decoding webhook body: %w", err)
	}

	meta := WebhookMeta{
		Discriminator:   stringField(fields, paths.Discriminator),
		ExternalEventID: stringField(fields, paths.EventID),
	}
	if meta.Discriminator == "" {
		return WebhookMeta{}, fmt.Errorf("webhook missing discriminator field %q", paths.Discriminator)
	}
	if meta.ExternalEventID == "" {
		return WebhookMeta{}, fmt.Errorf("webhook missing event id field %q", paths.EventID)
	}

	if paths.OccurredAt != "" {
		if raw := stringField(fields, paths.OccurredAt); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				meta.OccurredAt = &t
			}
		}
	}
	return meta, nil
}

// EntityFieldPaths names, for integrations whose webhook envelope
// represents a mutation to a reconcilable entity (as opposed to a
// notification-only event like a Slack message or a Stripe charge),
// the entity kind, its external id field, an optional deletion flag
// field, and the top-level fields Reconcile needs for that entity kind.
// An integration absent from DefaultEntityFieldPaths has no reconcilable
// entity — its webhooks only ever reach the ledger.
type EntityFieldPaths struct {
	EntityKind  EntityKind
	ExternalID  string
	DeletedFlag string            // optional; top-level bool field signaling a delete
	Fields      map[string]string // internal field name -> top-level JSON field
}

// DefaultEntityFieldPaths holds the per-integration entity envelope shape
// used by ExtractChange. Only integrations whose webhooks carry CRM-style
// record mutations are listed: HubSpot's contact property-change events
// and Fathom's meeting-completed event with its extracted topics.
var DefaultEntityFieldPaths = map[string]EntityFieldPaths{
	"hubspot": {
		EntityKind:  EntityKindContact,
		ExternalID:  "objectId",
		DeletedFlag: "deleted",
		Fields: map[string]string{
			"email":      "email",
			"first_name": "firstname",
			"last_name":  "lastname",
			"company":    "company",
		},
	},
	"fathom": {
		EntityKind: EntityKindMeeting,
		ExternalID: "id",
		Fields: map[string]string{
			"title":       "title",
			"occurred_at": "occurred_at",
			"contact_id":  "contact_id",
			"raw_topics":  "topics",
		},
	},
}

// ExtractChange decodes rawBody into a reconcilable Change for kind,
// returning ok=false (no error) when kind has no registered
// EntityFieldPaths — its webhooks are notification-only and never reach
// Reconcile.
func ExtractChange(kind string, rawBody []byte) (change Change, ok bool, err error) {
	paths, registered := DefaultEntityFieldPaths[kind]
	if !registered {
		return Change{}, false, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(rawBody, &fields); err != nil {
		return Change{}, false, fmt.Errorf("decoding webhook body: %w", err)
	}

	externalID := stringField(fields, paths.ExternalID)
	if externalID == "" {
		return Change{}, false, fmt.Errorf("webhook missing external id field %q", paths.ExternalID)
	}

	changeKind := ChangeUpdate
	if paths.DeletedFlag != "" {
		if v, _ := fields[paths.DeletedFlag].(bool); v {
			changeKind = ChangeDelete
		}
	}

	extracted := make(map[string]string, len(paths.Fields))
	for internalName, jsonField := range paths.Fields {
		extracted[internalName] = stringField(fields, jsonField)
	}

	lastModified := time.Now()
	if raw := stringField(fields, "updated_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			lastModified = t
		}
	}

	return Change{
		ExternalSystem:       kind,
		EntityKind:           paths.EntityKind,
		ExternalID:           externalID,
		Kind:                 changeKind,
		ExternalLastModified: lastModified,
		Fields:               extracted,
	}, true, nil
}

// stringField coerces a loosely-typed decoded JSON field (string or number)
// to a string, returning "" when absent.
func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

package db

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a row in the global public.tenants table.
type Tenant struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	Config    []byte
	CreatedAt time.Time
}

// IntegrationCredential is a row in tenant.integration_credentials. At most
// one row exists per (tenant, integration_kind) — the status column tracks
// lifecycle rather than history, so "at most one active credential" falls
// out of the unique constraint on integration_kind itself.
type IntegrationCredential struct {
	ID               uuid.UUID
	IntegrationKind  string
	AccessSecretEnc  []byte
	RefreshSecretEnc []byte
	SessionTokenEnc  []byte
	EndpointHint     string
	ExpiresAt        *time.Time
	Status           string
	LastRefreshAt    *time.Time
	Metadata         []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OAuthState is a short-lived row in tenant.oauth_states, consumed exactly
// once when the provider redirects back.
type OAuthState struct {
	Token           string
	UserID          *uuid.UUID
	IntegrationKind string
	RedirectURI     string
	PKCEVerifier    string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ConsumedAt      *time.Time
}

// SyncState is a row in tenant.sync_states, one per integration.
type SyncState struct {
	IntegrationKind     string
	LastSuccessfulSync  *time.Time
	Cursor              string
	Mode                string
	ErrorCount          int
	UpdatedAt           time.Time
}

// EntityMapping links an external record to an internal one.
type EntityMapping struct {
	ID                    uuid.UUID
	ExternalSystem        string
	ExternalEntityKind    string
	ExternalID            string
	InternalTable         string
	InternalID            uuid.UUID
	Direction             string
	ExternalLastModified  time.Time
	InternalLastModified  time.Time
	SoftDeleted           bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// EventLedgerEntry is a row in tenant.event_ledger, the dedup ledger for
// inbound webhook events.
type EventLedgerEntry struct {
	ExternalSystem    string
	ExternalEventID   string
	PayloadHash       string
	ReceivedAt        time.Time
	ExternalOccurredAt *time.Time
	ProcessingResult  string
}

// WorkQueueItem is a row in tenant.work_queue_items.
type WorkQueueItem struct {
	ID          uuid.UUID
	Kind        string
	SubjectRef  string
	Status      string
	Attempts    int
	LastError   *string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// GlobalTopic is a row in tenant.global_topics.
type GlobalTopic struct {
	ID                    uuid.UUID
	CanonicalTitle        string
	CanonicalDescription  string
	SourceCount           int
	FirstSeen             time.Time
	LastSeen              time.Time
	FrequencyScore        float64
	RecencyScore          float64
	RelevanceScore        float64
	Archived              bool
	Deleted               bool
}

// TopicSource is a row in tenant.topic_sources, recording which meeting
// contributed which raw topic to a global topic.
type TopicSource struct {
	ID             uuid.UUID
	GlobalTopicID  uuid.UUID
	MeetingID      uuid.UUID
	TopicIndex     int
	SimilarityScore float64
	CreatedAt      time.Time
}

// AISuggestion is a row in tenant.ai_suggestions.
type AISuggestion struct {
	ID                 uuid.UUID
	ActionKind         string
	Confidence         float64
	ContextQuality     int
	DraftedContent     string
	RoutingDecision    string
	RelatedEntityRefs  []byte
	GeneratedAt        time.Time
}

// AIFeedback is a row in tenant.ai_feedback.
type AIFeedback struct {
	ID                        uuid.UUID
	SuggestionID              uuid.UUID
	Action                    string
	OriginalContent           *string
	EditedContent             *string
	EditDelta                 []byte
	DecisionLatencyMS         int64
	OutcomeMeasured           bool
	OutcomePositive           *bool
	OutcomeKind               *string
	ConfidenceAtGeneration    float64
	ContextQualityAtGeneration int
	CreatedAt                 time.Time
}

// UserAIPreferences is a row in tenant.user_ai_preferences, one per user.
type UserAIPreferences struct {
	UserID                 uuid.UUID
	PreferredTone          *string
	PreferredLength        *string
	PrefersCTAs            *bool
	PrefersBullets         *bool
	TotalSuggestions       int
	Approvals              int
	Edits                  int
	Rejections             int
	Ignored                int
	AutoApproveThreshold   int
	AlwaysHITLActions      []string
	NeverAutoSend          bool
	NotificationFrequency  string
	PreferredChannels      []string
}

// OrgAIPreferences is a row in tenant.org_ai_preferences, one per tenant,
// applied as the base layer beneath per-user preferences.
type OrgAIPreferences struct {
	ApprovalHistoryWeight float64
	LowContextPenalty     float64
	AutoApproveThreshold  int
	AlwaysHITLActions     []string
}

// UserAPIKey is a row in tenant.user_api_keys — the hashed credential an
// end user presents as a bearer token.
type UserAPIKey struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	KeyHash    string
	Label      string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Contact is a minimal reconciliation target for C3 (spec's
// external_entity_kind "contact"), natural-keyed on email.
type Contact struct {
	ID         uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	Company    string
	SoftDeleted bool
	UpdatedAt  time.Time
}

// Deal is a minimal reconciliation target for C3, natural-keyed on
// (external_system, external_id) via entity_mappings rather than its own
// natural key, since deal identity is system-specific.
type Deal struct {
	ID          uuid.UUID
	Title       string
	Stage       string
	ValueCents  int64
	ContactID   *uuid.UUID
	SoftDeleted bool
	UpdatedAt   time.Time
}

// Meeting is a minimal reconciliation target for C3 and the source row C5
// clusters topics from.
type Meeting struct {
	ID          uuid.UUID
	Title       string
	OccurredAt  time.Time
	ContactID   *uuid.UUID
	RawTopics   []byte
	SoftDeleted bool
	UpdatedAt   time.Time
}

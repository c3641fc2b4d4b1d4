package audit

import "time"

// Event is an immutable, append-only record of a call or action outcome.
//
// Invariants:
// - Events are never updated or deleted.
// - Room is required; it is the only identifier every call has.
// - Audit is best-effort; callers never block a call on it.
//
// Postgres: table call_audit_events with an INSERT-only grant.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	Room       string `json:"room" db:"room"`
	CallLogID  string `json:"call_log_id,omitempty" db:"call_log_id"`
	LeadID     string `json:"lead_id,omitempty" db:"lead_id"`
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`

	// Action is the side-effect kind for action events.
	Action string `json:"action,omitempty" db:"action"`

	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallStarted     EventType = "call_started"
	EventTypeCallEnded       EventType = "call_ended"
	EventTypeDialFailed      EventType = "dial_failed"
	EventTypeActionSucceeded EventType = "action_succeeded"
	EventTypeActionFailed    EventType = "action_failed"
)

// CallRef identifies the call an event belongs to.
type CallRef struct {
	Room       string
	CallLogID  string
	LeadID     string
	CampaignID string
}

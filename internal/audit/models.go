package audit

import "time"

// Event is an immutable, append-only audit log record of a session lifecycle step.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and IP capture are best-effort; do not block auth flows on audit failures.
// - Email is recorded for human review only.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the subject of the token involved, when it could be decoded.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorEmail  string `json:"actor_email,omitempty" db:"actor_email"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the resolved client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// TokenID is the jti of the token that triggered the event.
	TokenID string `json:"token_id,omitempty" db:"token_id"`

	Message  string `json:"message,omitempty" db:"message"`
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLogin           EventType = "login"
	EventTypeLoginFailed     EventType = "login_failed"
	EventTypeLogout          EventType = "logout"
	EventTypeRefresh         EventType = "refresh"
	EventTypeRefreshRejected EventType = "refresh_rejected"
	EventTypeTokenTampering  EventType = "token_tampering"
)

// requiresActor reports whether the event type only makes sense for a known subject.
func (t EventType) requiresActor() bool {
	switch t {
	case EventTypeLogin, EventTypeLogout, EventTypeRefresh:
		return true
	default:
		return false
	}
}

package events

import (
	"time"

	"github.com/spec-kit/freeler-client/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionHydrated  EventType = "session_hydrated"
	EventSessionLoggedIn  EventType = "session_logged_in"
	EventSessionLoginFail EventType = "session_login_failed"
	EventSessionLoggedOut EventType = "session_logged_out"
	EventSessionRefreshed EventType = "session_refreshed"
	EventLookupResolved   EventType = "lookup_resolved"
	EventLookupUnresolved EventType = "lookup_unresolved"
)

// Event represents a state transition emitted by the client core.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload describes the session state after a transition.
type SessionPayload struct {
	State       string             `json:"state"`
	SessionType domain.SessionType `json:"session_type,omitempty"`
	UserID      domain.ID          `json:"user_id,omitempty"`
	Role        domain.Role        `json:"role,omitempty"`
	Err         string             `json:"error,omitempty"`
}

// LookupPayload describes a settled lookup.
type LookupPayload struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

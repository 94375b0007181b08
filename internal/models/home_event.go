package models

import "time"

// Audit event types.
const (
	EventLamp      = "LAMP"
	EventSettings  = "SETTINGS"
	EventHomeBound = "HOME_BOUND"
)

// HomeEvent is a single audit log entry for a home.
type HomeEvent struct {
	EventID     string    `json:"event_id"`
	HomeID      string    `json:"home_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // LAMP | SETTINGS | HOME_BOUND
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

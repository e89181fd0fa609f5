package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn is the append-only audit record of a successful admission. At most
// one row exists per registration: it records the single pending->checked_in
// transition, not every scan attempt.
type CheckIn struct {
	CheckinID      uuid.UUID `json:"checkin_id"`
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

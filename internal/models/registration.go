package models

import "time"

// RegistrationStatus is the check-in state of a registration.
type RegistrationStatus string

const (
	// StatusPending means the attendee registered but has not been admitted.
	StatusPending RegistrationStatus = "pending"
	// StatusCheckedIn means the attendee was admitted. Terminal; there is no
	// reverse transition.
	StatusCheckedIn RegistrationStatus = "checked_in"
)

// RegistrationType records how the registration was created.
type RegistrationType string

const (
	RegistrationOnline RegistrationType = "online"
	RegistrationKiosk  RegistrationType = "kiosk"
)

// Registration is an attendee registration for an event.
//
// RegistrationID and Credential are minted once at creation and never change.
// Status moves pending -> checked_in at most once; CheckedInAt is non-nil
// exactly when Status is checked_in.
type Registration struct {
	RegistrationID string             `json:"registration_id"`
	EventID        string             `json:"event_id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Organization   string             `json:"organization,omitempty"`
	Designation    string             `json:"designation,omitempty"`
	Credential     string             `json:"credential"`
	QRObjectKey    string             `json:"qr_object_key,omitempty"`
	Type           RegistrationType   `json:"registration_type"`
	Status         RegistrationStatus `json:"status"`
	CheckedInAt    *time.Time         `json:"checked_in_at,omitempty"`
	WhatsappSent   bool               `json:"whatsapp_sent"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

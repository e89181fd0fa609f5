package models

import "time"

// Event is a venue event attendees can register for.
type Event struct {
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Venue       string    `json:"venue"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	MaxCapacity int       `json:"max_capacity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventSummary is the event view returned alongside check-in outcomes and on
// detail pages: the event plus its live aggregate counts.
type EventSummary struct {
	Event
	RegistrationCount int `json:"registration_count"`
	CheckedInCount    int `json:"checked_in_count"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a dashboard/back-office user.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is a browser web-push endpoint registered by a user.
type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

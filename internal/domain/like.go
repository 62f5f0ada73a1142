package domain

import (
	"time"

	"github.com/google/uuid"
)

type Like struct {
	ID          int64     `json:"id"`
	LikerID     uuid.UUID `json:"liker_id"`
	LikedID     uuid.UUID `json:"liked_id"`
	IsSuperLike bool      `json:"is_super_like"`
	CreatedAt   time.Time `json:"created_at"`
}

// IncomingLike is a like received by a user, joined to the liker's profile.
type IncomingLike struct {
	LikeID      int64          `json:"like_id"`
	IsSuperLike bool           `json:"is_super_like"`
	LikedAt     time.Time      `json:"liked_at"`
	IsMatch     bool           `json:"is_match"`
	Liker       *PublicProfile `json:"liker"`
}

// PageRequest is a keyset position over (created_at, id) in descending order.
type PageRequest struct {
	BeforeTime *time.Time
	BeforeID   int64
	Limit      int
}

package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID        int64     `json:"id"`
	User1ID   uuid.UUID `json:"user1_id"`
	User2ID   uuid.UUID `json:"user2_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Match) HasUser(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) GetOtherUserID(userID uuid.UUID) (uuid.UUID, bool) {
	if m.User1ID == userID {
		return m.User2ID, true
	}
	if m.User2ID == userID {
		return m.User1ID, true
	}
	return uuid.Nil, false
}

// MatchWithProfile is an active match as seen by one of its users.
type MatchWithProfile struct {
	Match       *Match         `json:"match"`
	MatchedUser *PublicProfile `json:"matched_user"`
}

// NormalizePair orders two ids so that the first is the smaller one.
// Matches are always stored in this order.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

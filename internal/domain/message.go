package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxMessageLength = 2000

type Message struct {
	ID         int64     `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Counterpart returns the other participant from userID's point of view.
func (m *Message) Counterpart(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation groups one user's messages with a single counterpart, newest first.
type Conversation struct {
	OtherUserID uuid.UUID  `json:"other_user_id"`
	Messages    []*Message `json:"messages"`
}

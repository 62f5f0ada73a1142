package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
)

type messageRepository struct {
	run runner
	now func() time.Time
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.run(func(st *state) error {
		if _, ok := st.users[msg.SenderID]; !ok {
			return domain.ErrUserNotFound
		}
		if _, ok := st.users[msg.ReceiverID]; !ok {
			return domain.ErrUserNotFound
		}
		st.nextMessageID++
		msg.ID = st.nextMessageID
		msg.CreatedAt = r.now()
		cp := *msg
		st.messages = append(st.messages, &cp)
		return nil
	})
}

// Messages are appended in id order, which is also creation order.
func (r *messageRepository) ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]*domain.Message, error) {
	var out []*domain.Message
	err := r.run(func(st *state) error {
		out = make([]*domain.Message, 0)
		for _, m := range st.messages {
			if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *messageRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	var out []*domain.Message
	err := r.run(func(st *state) error {
		out = make([]*domain.Message, 0)
		for i := len(st.messages) - 1; i >= 0; i-- {
			m := st.messages[i]
			if m.SenderID == userID || m.ReceiverID == userID {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *messageRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.run(func(st *state) error {
		st.deleteMessagesOf(userID)
		return nil
	})
}

func (st *state) deleteMessagesOf(userID uuid.UUID) {
	kept := st.messages[:0]
	for _, m := range st.messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			kept = append(kept, m)
		}
	}
	st.messages = kept
}

package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/infrastructure/realtime"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/repository"
)

type ChatUseCase struct {
	store    repository.Store
	notifier realtime.Notifier
	metrics  *telemetry.Metrics
}

func NewChatUseCase(store repository.Store, notifier realtime.Notifier, metrics *telemetry.Metrics) *ChatUseCase {
	return &ChatUseCase{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
	}
}

// SendMessageRequest represents a chat message
type SendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiverId" binding:"required"`
	Content    string    `json:"content" binding:"required"`
}

// Send stores a message between two matched users and notifies the receiver.
func (uc *ChatUseCase) Send(ctx context.Context, senderID uuid.UUID, req *SendMessageRequest) (*domain.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, domain.ErrMessageTooLong
	}
	if senderID == req.ReceiverID {
		return nil, domain.ErrCannotChatSelf
	}

	if _, err := uc.store.Users().GetByID(ctx, req.ReceiverID); err != nil {
		return nil, err
	}

	matched, err := uc.store.Matches().ExistsActive(ctx, senderID, req.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check match: %w", err)
	}
	if !matched {
		return nil, domain.ErrNotMatched
	}

	msg := &domain.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    content,
	}
	if err := uc.store.Messages().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	uc.metrics.MessageSent()
	uc.notifier.Notify(req.ReceiverID, realtime.NewEvent(realtime.EventMessage, msg))
	return msg, nil
}

// History returns the messages exchanged with otherUserID, oldest first.
func (uc *ChatUseCase) History(ctx context.Context, userID, otherUserID uuid.UUID) ([]*domain.Message, error) {
	msgs, err := uc.store.Messages().ListBetween(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// Conversations groups the user's messages by counterpart. Groups are
// ordered by their latest message and hold messages newest first.
func (uc *ChatUseCase) Conversations(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	msgs, err := uc.store.Messages().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	out := []*domain.Conversation{}
	index := make(map[uuid.UUID]*domain.Conversation)
	for _, m := range msgs {
		other := m.Counterpart(userID)
		conv, ok := index[other]
		if !ok {
			conv = &domain.Conversation{OtherUserID: other}
			index[other] = conv
			out = append(out, conv)
		}
		conv.Messages = append(conv.Messages, m)
	}
	return out, nil
}

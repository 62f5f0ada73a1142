package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grapeapp/grape-backend/internal/domain"
)

type messageRow struct {
	ID         int64     `db:"id"`
	SenderID   uuid.UUID `db:"sender_id"`
	ReceiverID uuid.UUID `db:"receiver_id"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
}

type messageRepository struct {
	db sqlx.ExtContext
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, msg.SenderID, msg.ReceiverID, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt)
	return mapError(err)
}

func (r *messageRepository) ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, userA, userB)
}

func (r *messageRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, userID)
}

func (r *messageRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	var rows []messageRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}
	messages := make([]*domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, &domain.Message{
			ID:         row.ID,
			SenderID:   row.SenderID,
			ReceiverID: row.ReceiverID,
			Content:    row.Content,
			CreatedAt:  row.CreatedAt,
		})
	}
	return messages, nil
}

func (r *messageRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, userID)
	return mapError(err)
}

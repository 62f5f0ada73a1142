package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grapeapp/grape-backend/internal/domain"
)

type likeRepository struct {
	db sqlx.ExtContext
}

type incomingLikeRow struct {
	LikeID      int64     `db:"like_id"`
	IsSuperLike bool      `db:"is_super_like"`
	LikedAt     time.Time `db:"liked_at"`
	IsMatch     bool      `db:"is_match"`
	profileRow
}

func (r *likeRepository) Create(ctx context.Context, like *domain.Like) error {
	query := `
		INSERT INTO likes (liker_id, liked_id, is_super_like)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, like.LikerID, like.LikedID, like.IsSuperLike).
		Scan(&like.ID, &like.CreatedAt)
	return mapError(err)
}

func (r *likeRepository) Exists(ctx context.Context, likerID, likedID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE liker_id = $1 AND liked_id = $2)`
	err := sqlx.GetContext(ctx, r.db, &exists, query, likerID, likedID)
	return exists, mapError(err)
}

func (r *likeRepository) Delete(ctx context.Context, likerID, likedID uuid.UUID) error {
	query := `DELETE FROM likes WHERE liker_id = $1 AND liked_id = $2`
	return execExpectingRow(ctx, r.db, domain.ErrLikeNotFound, query, likerID, likedID)
}

func (r *likeRepository) ListIncoming(ctx context.Context, likedID uuid.UUID, page domain.PageRequest) ([]*domain.IncomingLike, error) {
	query := `
		SELECT
			l.id AS like_id,
			l.is_super_like,
			l.created_at AS liked_at,
			EXISTS (
				SELECT 1 FROM matches m
				WHERE m.user1_id = LEAST(l.liker_id, l.liked_id)
				  AND m.user2_id = GREATEST(l.liker_id, l.liked_id)
				  AND m.is_active
			) AS is_match,
			` + publicProfileColumns + `
		FROM likes l
		JOIN users u ON u.id = l.liker_id
		WHERE l.liked_id = $1
		  AND ($2::timestamptz IS NULL OR (l.created_at, l.id) < ($2::timestamptz, $3))
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $4
	`
	var rows []incomingLikeRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, likedID, page.BeforeTime, page.BeforeID, page.Limit); err != nil {
		return nil, mapError(err)
	}

	likes := make([]*domain.IncomingLike, 0, len(rows))
	for i := range rows {
		likes = append(likes, &domain.IncomingLike{
			LikeID:      rows[i].LikeID,
			IsSuperLike: rows[i].IsSuperLike,
			LikedAt:     rows[i].LikedAt,
			IsMatch:     rows[i].IsMatch,
			Liker:       rows[i].profileRow.toDomain(),
		})
	}
	return likes, nil
}

func (r *likeRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE liker_id = $1 OR liked_id = $1`, userID)
	return mapError(err)
}

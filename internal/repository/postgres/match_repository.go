package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grapeapp/grape-backend/internal/domain"
)

const matchColumns = `id, user1_id, user2_id, is_active, created_at, updated_at`

type matchRow struct {
	ID        int64     `db:"id"`
	User1ID   uuid.UUID `db:"user1_id"`
	User2ID   uuid.UUID `db:"user2_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *matchRow) toDomain() *domain.Match {
	return &domain.Match{
		ID:        r.ID,
		User1ID:   r.User1ID,
		User2ID:   r.User2ID,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type matchWithProfileRow struct {
	MatchID        int64     `db:"match_id"`
	User1ID        uuid.UUID `db:"user1_id"`
	User2ID        uuid.UUID `db:"user2_id"`
	IsActive       bool      `db:"is_active"`
	MatchCreatedAt time.Time `db:"match_created_at"`
	MatchUpdatedAt time.Time `db:"match_updated_at"`
	profileRow
}

type matchRepository struct {
	db sqlx.ExtContext
}

// CreateIfAbsent relies on the partial unique index over active pairs:
// a conflicting insert is skipped and the existing row is returned instead.
func (r *matchRepository) CreateIfAbsent(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, bool, error) {
	user1ID, user2ID := domain.NormalizePair(userA, userB)
	if user1ID == user2ID {
		return nil, false, domain.ErrCannotMatchSelf
	}

	query := `
		INSERT INTO matches (user1_id, user2_id)
		VALUES ($1, $2)
		ON CONFLICT (user1_id, user2_id) WHERE is_active DO NOTHING
		RETURNING ` + matchColumns

	var row matchRow
	err := sqlx.GetContext(ctx, r.db, &row, query, user1ID, user2ID)
	if err == nil {
		return row.toDomain(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, mapError(err)
	}

	existing, err := r.GetActive(ctx, user1ID, user2ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *matchRepository) GetActive(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error) {
	user1ID, user2ID := domain.NormalizePair(userA, userB)

	var row matchRow
	query := `SELECT ` + matchColumns + ` FROM matches WHERE user1_id = $1 AND user2_id = $2 AND is_active`
	if err := sqlx.GetContext(ctx, r.db, &row, query, user1ID, user2ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (r *matchRepository) ExistsActive(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	user1ID, user2ID := domain.NormalizePair(userA, userB)

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM matches WHERE user1_id = $1 AND user2_id = $2 AND is_active)`
	err := sqlx.GetContext(ctx, r.db, &exists, query, user1ID, user2ID)
	return exists, mapError(err)
}

func (r *matchRepository) Deactivate(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error) {
	user1ID, user2ID := domain.NormalizePair(userA, userB)

	query := `
		UPDATE matches SET is_active = false, updated_at = NOW()
		WHERE user1_id = $1 AND user2_id = $2 AND is_active
		RETURNING ` + matchColumns

	var row matchRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, user1ID, user2ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (r *matchRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MatchWithProfile, error) {
	query := `
		SELECT
			m.id AS match_id, m.user1_id, m.user2_id, m.is_active,
			m.created_at AS match_created_at, m.updated_at AS match_updated_at,
			` + publicProfileColumns + `
		FROM matches m
		JOIN users u ON u.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
		WHERE (m.user1_id = $1 OR m.user2_id = $1) AND m.is_active
		ORDER BY m.created_at DESC, m.id DESC
	`
	var rows []matchWithProfileRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, userID); err != nil {
		return nil, mapError(err)
	}

	matches := make([]*domain.MatchWithProfile, 0, len(rows))
	for i := range rows {
		matches = append(matches, &domain.MatchWithProfile{
			Match: &domain.Match{
				ID:        rows[i].MatchID,
				User1ID:   rows[i].User1ID,
				User2ID:   rows[i].User2ID,
				IsActive:  rows[i].IsActive,
				CreatedAt: rows[i].MatchCreatedAt,
				UpdatedAt: rows[i].MatchUpdatedAt,
			},
			MatchedUser: rows[i].profileRow.toDomain(),
		})
	}
	return matches, nil
}

func (r *matchRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE user1_id = $1 OR user2_id = $1`, userID)
	return mapError(err)
}

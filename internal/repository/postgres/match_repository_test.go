package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository"
)

var (
	userLow  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userHigh = uuid.MustParse("99999999-9999-9999-9999-999999999999")
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func matchRows(id int64, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user1_id", "user2_id", "is_active", "created_at", "updated_at"}).
		AddRow(id, userLow.String(), userHigh.String(), active, now, now)
}

func TestMatchRepository_CreateIfAbsent_Inserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user1_id, user2_id) WHERE is_active DO NOTHING")).
		WithArgs(userLow, userHigh).
		WillReturnRows(matchRows(7, true))

	// Reverse order on input must be normalized before hitting storage.
	match, created, err := store.Matches().CreateIfAbsent(context.Background(), userHigh, userLow)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(7), match.ID)
	assert.Equal(t, userLow, match.User1ID)
	assert.Equal(t, userHigh, match.User2ID)
}

func TestMatchRepository_CreateIfAbsent_ExistingMatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO matches")).
		WithArgs(userLow, userHigh).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE user1_id = $1 AND user2_id = $2 AND is_active")).
		WithArgs(userLow, userHigh).
		WillReturnRows(matchRows(3, true))

	match, created, err := store.Matches().CreateIfAbsent(context.Background(), userLow, userHigh)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), match.ID)
}

func TestMatchRepository_CreateIfAbsent_Self(t *testing.T) {
	store, _ := newMockStore(t)

	_, _, err := store.Matches().CreateIfAbsent(context.Background(), userLow, userLow)
	assert.ErrorIs(t, err, domain.ErrCannotMatchSelf)
}

func TestMatchRepository_Deactivate_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE matches SET is_active = false")).
		WithArgs(userLow, userHigh).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Matches().Deactivate(context.Background(), userHigh, userLow)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestLikeRepository_Create_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO likes")).
		WithArgs(userLow, userHigh, false).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "likes_liker_id_liked_id_key"})

	err := store.Likes().Create(context.Background(), &domain.Like{LikerID: userLow, LikedID: userHigh})
	assert.ErrorIs(t, err, domain.ErrDuplicateLike)
}

func TestStore_WithTx_LocksPairAndCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtextextended($1, 0))")).
		WithArgs(userLow.String() + ":" + userHigh.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.LockPair(context.Background(), userHigh, userLow)
	})
	require.NoError(t, err)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}

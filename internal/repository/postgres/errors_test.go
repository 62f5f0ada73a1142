package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		kind svcErr.Kind
	}{
		{
			name: "duplicate like",
			err:  &pq.Error{Code: "23505", Constraint: "likes_liker_id_liked_id_key"},
			want: domain.ErrDuplicateLike,
		},
		{
			name: "duplicate active match",
			err:  fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "matches_active_pair_key"}),
			want: domain.ErrAlreadyMatched,
		},
		{
			name: "email taken",
			err:  &pq.Error{Code: "23505", Constraint: "users_email_key"},
			want: domain.ErrEmailTaken,
		},
		{
			name: "phone taken",
			err:  &pq.Error{Code: "23505", Constraint: "users_phone_number_key"},
			want: domain.ErrPhoneTaken,
		},
		{
			name: "unknown unique constraint",
			err:  &pq.Error{Code: "23505", Constraint: "something_else"},
			kind: svcErr.KindConflict,
		},
		{
			name: "missing user reference",
			err:  &pq.Error{Code: "23503", Constraint: "likes_liked_id_fkey"},
			want: domain.ErrUserNotFound,
		},
		{
			name: "self like check",
			err:  &pq.Error{Code: "23514", Constraint: "likes_no_self_like"},
			want: domain.ErrCannotLikeSelf,
		},
		{
			name: "pictures check",
			err:  &pq.Error{Code: "23514", Constraint: "users_pictures_max"},
			want: domain.ErrTooManyPictures,
		},
		{
			name: "malformed uuid",
			err:  &pq.Error{Code: "22P02"},
			kind: svcErr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.want != nil {
				assert.True(t, errors.Is(got, tt.want), "got %v", got)
				return
			}
			assert.Equal(t, tt.kind, svcErr.KindOf(got))
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.NoError(t, mapError(nil))

	raw := errors.New("connection reset")
	assert.Same(t, raw, mapError(raw))
}

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository/memory"
)

func TestSeed(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	users, err := seed(ctx, store, 4)
	require.NoError(t, err)
	require.Len(t, users, 4)

	for _, u := range users {
		stored, err := store.Users().GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, stored.ProfileCompleted)
		assert.NotEqual(t, domain.PlaceholderFirstName, stored.FirstName)
		require.NotNil(t, stored.Location)
	}

	matched, err := store.Matches().ExistsActive(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, matched)

	msgs, err := store.Messages().ListBetween(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	incoming, err := store.Likes().ListIncoming(ctx, users[2].ID, domain.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, users[1].ID, incoming[0].Liker.ID)
}

func TestSeed_TooFew(t *testing.T) {
	_, err := seed(context.Background(), memory.NewStore(), 1)
	assert.Error(t, err)
}

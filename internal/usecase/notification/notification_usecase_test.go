package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository/memory"
)

const testKey = "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM"

func newRequest(endpoint string) *SubscribeRequest {
	req := &SubscribeRequest{Endpoint: endpoint}
	req.Keys.P256dh = "p256dh-key"
	req.Keys.Auth = "auth-secret"
	return req
}

func seed(t *testing.T, store *memory.Store, phone string) uuid.UUID {
	t.Helper()
	u := domain.NewMinimalUser(&phone, nil, false)
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u.ID
}

func TestSubscribe(t *testing.T) {
	store := memory.NewStore()
	uc := NewNotificationUseCase(store.PushSubscriptions(), testKey)
	ctx := context.Background()
	alice := seed(t, store, "+15550000001")
	bob := seed(t, store, "+15550000002")

	endpoint := "https://fcm.googleapis.com/fcm/send/abc"
	sub, err := uc.Subscribe(ctx, alice, newRequest(endpoint))
	require.NoError(t, err)
	assert.Equal(t, alice, sub.UserID)
	assert.NotZero(t, sub.ID)

	// Same browser, different account.
	moved, err := uc.Subscribe(ctx, bob, newRequest(endpoint))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, moved.ID)

	aliceSubs, err := store.PushSubscriptions().ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, aliceSubs)

	bobSubs, err := store.PushSubscriptions().ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobSubs, 1)
	assert.Equal(t, endpoint, bobSubs[0].Endpoint)
}

func TestSubscribe_Rejects(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	alice := seed(t, store, "+15550000001")

	uc := NewNotificationUseCase(store.PushSubscriptions(), testKey)
	for _, endpoint := range []string{"http://push.example.com/x", "not a url", "https://"} {
		_, err := uc.Subscribe(ctx, alice, newRequest(endpoint))
		assert.ErrorIs(t, err, ErrInvalidEndpoint, endpoint)
	}

	_, err := uc.Subscribe(ctx, uuid.New(), newRequest("https://push.example.com/x"))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	disabled := NewNotificationUseCase(store.PushSubscriptions(), "")
	_, err = disabled.Subscribe(ctx, alice, newRequest("https://push.example.com/x"))
	assert.ErrorIs(t, err, ErrPushDisabled)
}

func TestVapidPublicKey(t *testing.T) {
	store := memory.NewStore()

	key, err := NewNotificationUseCase(store.PushSubscriptions(), testKey).VapidPublicKey()
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	_, err = NewNotificationUseCase(store.PushSubscriptions(), "").VapidPublicKey()
	assert.ErrorIs(t, err, ErrPushDisabled)
}

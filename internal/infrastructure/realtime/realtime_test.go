package realtime

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/config"
	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository/memory"
)

func attachFake(h *Hub, userID uuid.UUID) *Client {
	c := newClient(h, nil, userID)
	h.register(c)
	return c
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case frame := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
		return Event{}
	}
}

func TestHub_DeliverToEveryConnection(t *testing.T) {
	h := NewHub(nil)
	alice, bob := uuid.New(), uuid.New()
	a1, a2 := attachFake(h, alice), attachFake(h, alice)
	b := attachFake(h, bob)

	require.NoError(t, h.Publish(context.Background(), alice, NewEvent(EventMatch, map[string]string{"with": bob.String()})))

	assert.Equal(t, EventMatch, receive(t, a1).Type)
	assert.Equal(t, EventMatch, receive(t, a2).Type)
	assert.Empty(t, b.send)

	online, _ := h.Online(context.Background(), alice)
	assert.True(t, online)

	h.unregister(a1)
	h.unregister(a2)
	online, _ = h.Online(context.Background(), alice)
	assert.False(t, online)
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub(nil)
	user := uuid.New()
	attachFake(h, user)

	for i := 0; i < sendBuffer; i++ {
		assert.Equal(t, 1, h.Deliver(user, []byte(`{}`)))
	}
	assert.Equal(t, 0, h.Deliver(user, []byte(`{}`)))
	assert.Equal(t, 0, h.ConnectionCount(user))
}

func TestHub_WebsocketRoundTrip(t *testing.T) {
	h := NewHub(nil)
	user := uuid.New()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Attach(conn, user)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.ConnectionCount(user) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, h.Publish(context.Background(), user, NewEvent(EventMessage, map[string]string{"content": "hi"})))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventMessage, ev.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventType("pong"), ev.Type)

	_ = conn.Close()
	require.Eventually(t, func() bool { return h.ConnectionCount(user) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisBroker_FanOut(t *testing.T) {
	_, client := newRedis(t)
	broker := NewRedisBroker(client)
	h := NewHub(broker)
	user := uuid.New()
	c := attachFake(h, user)

	online, err := broker.Online(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, online)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- broker.Run(ctx, h) }()

	// The subscription is asynchronous; publish until it is observed.
	require.Eventually(t, func() bool {
		_ = broker.Publish(context.Background(), user, NewEvent(EventLike, nil))
		select {
		case frame := <-c.send:
			var ev Event
			return json.Unmarshal(frame, &ev) == nil && ev.Type == EventLike
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("broker did not stop")
	}

	h.unregister(c)
	online, err = broker.Online(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, online)
}

type fakePushService struct {
	mu       sync.Mutex
	statuses map[string]int
	hits     map[string]int
	authz    []string
}

func (f *fakePushService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.URL.Path]++
	f.authz = append(f.authz, r.Header.Get("Authorization"))
	w.WriteHeader(f.statuses[r.URL.Path])
}

func browserKeys(tb testing.TB) (p256dh, auth string) {
	tb.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(tb, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(tb, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func newPushFixture(t *testing.T) (*memory.Store, *WebPushSender, *fakePushService, *httptest.Server, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	phone := "+14155550100"
	user := domain.NewMinimalUser(&phone, nil, false)
	require.NoError(t, store.Users().Create(context.Background(), user))

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	svc := &fakePushService{
		statuses: map[string]int{"/live": http.StatusCreated, "/gone": http.StatusGone},
		hits:     map[string]int{},
	}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	sender := NewWebPushSender(store.PushSubscriptions(), &config.WebPushConfig{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subscriber: "ops@grape.app",
	})
	return store, sender, svc, srv, user.ID
}

func subscribe(t *testing.T, store *memory.Store, userID uuid.UUID, endpoint string) {
	t.Helper()
	p256dh, auth := browserKeys(t)
	require.NoError(t, store.PushSubscriptions().Upsert(context.Background(), &domain.PushSubscription{
		UserID: userID, Endpoint: endpoint, P256dh: p256dh, Auth: auth,
	}))
}

func TestWebPushSender_RemovesGoneSubscriptions(t *testing.T) {
	store, sender, svc, srv, userID := newPushFixture(t)
	subscribe(t, store, userID, srv.URL+"/live")
	subscribe(t, store, userID, srv.URL+"/gone")

	sent, err := sender.Send(context.Background(), userID, NewEvent(EventMatch, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, svc.hits["/live"])
	assert.Equal(t, 1, svc.hits["/gone"])
	for _, h := range svc.authz {
		assert.True(t, strings.HasPrefix(h, "vapid "), h)
	}

	subs, err := store.PushSubscriptions().ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, srv.URL+"/live", subs[0].Endpoint)
}

func TestWebPushSender_NoSubscriptions(t *testing.T) {
	_, sender, svc, _, userID := newPushFixture(t)
	sent, err := sender.Send(context.Background(), userID, NewEvent(EventLike, nil))
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, svc.hits)
}

func TestDispatcher_OnlineUsesWebsocketOfflineUsesPush(t *testing.T) {
	store, sender, svc, srv, userID := newPushFixture(t)
	subscribe(t, store, userID, srv.URL+"/live")

	h := NewHub(nil)
	d := NewDispatcher(h, h, sender)
	done := make(chan error, 2)
	d.onDone = func(_ uuid.UUID, _ Event, err error) { done <- err }

	d.Notify(userID, NewEvent(EventMessage, nil))
	require.NoError(t, <-done)
	svc.mu.Lock()
	assert.Equal(t, 1, svc.hits["/live"])
	svc.mu.Unlock()

	c := attachFake(h, userID)
	d.Notify(userID, NewEvent(EventMessage, nil))
	require.NoError(t, <-done)
	assert.Equal(t, EventMessage, receive(t, c).Type)
	svc.mu.Lock()
	assert.Equal(t, 1, svc.hits["/live"])
	svc.mu.Unlock()
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	n.Notify(uuid.New(), NewEvent(EventLike, nil))
}

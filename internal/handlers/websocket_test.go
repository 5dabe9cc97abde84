package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/services"
	"togethermiles-backend/internal/stream"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireMessage mirrors WSMessage with raw data for assertions.
type wireMessage struct {
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data"`
}

// gatedMessageStore blocks ListByCouple until released, so a test can slip
// events into the window while a snapshot query is running.
type gatedMessageStore struct {
	entered  chan struct{}
	release  chan struct{}
	once     sync.Once
	snapshot []*models.Message
}

func (g *gatedMessageStore) Create(context.Context, *models.Message) error { return nil }

func (g *gatedMessageStore) ListByCouple(context.Context, string) ([]*models.Message, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.snapshot, nil
}

func testWSSession() *models.Session {
	return &models.Session{CoupleID: "ABC123", Username: "alice_u", Nickname: "Alice", Role: models.RolePartner1}
}

func TestSubscribe_EventDuringSnapshotNotLost(t *testing.T) {
	hub := stream.NewHub()
	tokens := services.NewTokenService("test-secret")
	store := &gatedMessageStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		snapshot: []*models.Message{
			{ID: "m1", CoupleID: "ABC123", SenderNickname: "Alice", Text: "hi"},
		},
	}
	messages := services.NewMessageService(store, nil, hub, nil)
	h := NewWebSocketHandler(hub, tokens, messages, nil, nil, nil, nil, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	token, err := tokens.Generate(testWSSession())
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http")+"/?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "subscribe", Category: "message"}))

	// The subscription is live before the snapshot query returns; commit a
	// new message into exactly that window.
	<-store.entered
	hub.Publish("ABC123", stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryMessage,
		Record:   &models.Message{ID: "m2", CoupleID: "ABC123", SenderNickname: "Bob", Text: "hello"},
	})
	close(store.release)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first wireMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)
	assert.Contains(t, string(first.Data), `"m1"`)
	assert.NotContains(t, string(first.Data), `"m2"`)

	// The raced insert follows the snapshot instead of being erased by it.
	var second wireMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "event", second.Type)
	assert.Equal(t, "insert", second.Action)
	assert.Contains(t, string(second.Data), `"m2"`)
}

// newTestWSConn builds a wsConn over a real client connection to a throwaway
// server, so teardown paths that close the socket can run.
func newTestWSConn(t *testing.T) *wsConn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverConn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			t.Cleanup(func() { serverConn.Close() })
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &wsConn{
		conn: conn,
		sess: testWSSession(),
		send: make(chan WSMessage, sendBuffer),
		done: make(chan struct{}),
		subs: make(map[models.Category]*stream.Subscription),
	}
}

func TestRegister_RefusedAfterShutdown(t *testing.T) {
	hub := stream.NewHub()
	c := newTestWSConn(t)
	c.shutdown()

	delivered := 0
	sub := hub.Subscribe("ABC123", models.CategoryMessage, func(stream.Event) { delivered++ })

	// The read loop lost the race with teardown; the sweep already ran, so
	// the registration is refused and the caller cancels the subscription.
	ok := c.register(models.CategoryMessage, sub)
	assert.False(t, ok)
	sub.Cancel()

	hub.Publish("ABC123", stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryMessage,
		Record:   &models.Message{ID: "m1", CoupleID: "ABC123"},
	})
	assert.Zero(t, delivered)
}

func TestRegister_ReplacesPreviousSubscription(t *testing.T) {
	hub := stream.NewHub()
	c := newTestWSConn(t)

	first := 0
	ok := c.register(models.CategoryMessage, hub.Subscribe("ABC123", models.CategoryMessage, func(stream.Event) { first++ }))
	require.True(t, ok)
	second := 0
	ok = c.register(models.CategoryMessage, hub.Subscribe("ABC123", models.CategoryMessage, func(stream.Event) { second++ }))
	require.True(t, ok)

	hub.Publish("ABC123", stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryMessage,
		Record:   &models.Message{ID: "m1", CoupleID: "ABC123"},
	})
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestEnqueue_SlowClientDisconnected(t *testing.T) {
	c := newTestWSConn(t)

	// No write pump draining; overflow the buffer.
	for i := 0; i < sendBuffer+1; i++ {
		c.enqueue(WSMessage{Type: "pong"})
	}

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("overflowing the send buffer did not tear the connection down")
	}
}

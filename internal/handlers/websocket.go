package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"togethermiles-backend/internal/metrics"
	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/services"
	"togethermiles-backend/internal/stream"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// sendBuffer is the per-connection outbound queue. A client that cannot
// drain it fast enough is disconnected rather than slowing the hub.
const sendBuffer = 64

// WSMessage is the envelope for both directions of the socket.
type WSMessage struct {
	Type     string      `json:"type"`
	Category string      `json:"category,omitempty"`
	Action   string      `json:"action,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// WebSocketHandler streams change events to connected clients.
type WebSocketHandler struct {
	hub      *stream.Hub
	tokens   *services.TokenService
	messages *services.MessageService
	rounds   *services.RoundService
	gallery  *services.MediaService
	snaps    *services.MediaService
	diary    *services.DiaryService
	todos    *services.TodoService
	notifier *services.Notifier
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *stream.Hub,
	tokens *services.TokenService,
	messages *services.MessageService,
	rounds *services.RoundService,
	gallery *services.MediaService,
	snaps *services.MediaService,
	diary *services.DiaryService,
	todos *services.TodoService,
	notifier *services.Notifier,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		tokens:   tokens,
		messages: messages,
		rounds:   rounds,
		gallery:  gallery,
		snaps:    snaps,
		diary:    diary,
		todos:    todos,
		notifier: notifier,
	}
}

// wsConn owns one client connection and its active subscriptions.
type wsConn struct {
	conn *websocket.Conn
	sess *models.Session

	send chan WSMessage
	once sync.Once
	done chan struct{}

	mu   sync.Mutex
	subs map[models.Category]*stream.Subscription
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	sess, err := h.tokens.Validate(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	c := &wsConn{
		conn: conn,
		sess: sess,
		send: make(chan WSMessage, sendBuffer),
		done: make(chan struct{}),
		subs: make(map[models.Category]*stream.Subscription),
	}
	defer c.shutdown()

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	log.Info().
		Str("couple_id", sess.CoupleID).
		Str("nickname", sess.Nickname).
		Msg("WebSocket connection established")

	go c.writePump()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("WebSocket error")
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to parse WebSocket message")
			c.enqueue(WSMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		if err := h.handleMessage(r.Context(), c, msg); err != nil {
			log.Error().Err(err).Str("couple_id", sess.CoupleID).Str("type", msg.Type).Msg("Failed to handle message")
			c.enqueue(WSMessage{Type: "error", Message: err.Error()})
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, c *wsConn, msg WSMessage) error {
	switch msg.Type {
	case "subscribe":
		return h.subscribe(ctx, c, models.Category(msg.Category))
	case "unsubscribe":
		c.unsubscribe(models.Category(msg.Category))
		return nil
	case "ping":
		c.enqueue(WSMessage{Type: "pong"})
		return nil
	default:
		c.enqueue(WSMessage{Type: "error", Message: "Unknown message type"})
		return nil
	}
}

// subscribe registers the client on a category topic and replies with a
// snapshot of its current records. Resubscribing replaces the old
// subscription, so a snapshot can always be refreshed by subscribing again.
//
// The subscription goes live before the snapshot query runs, with events held
// back until the snapshot has been enqueued: a record committed during the
// query arrives as a buffered event after it instead of being erased by it.
// The view reconciler drops the duplicate deliveries this can produce.
func (h *WebSocketHandler) subscribe(ctx context.Context, c *wsConn, category models.Category) error {
	buf := &eventBuffer{conn: c, holding: true}
	sub := h.hub.Subscribe(c.sess.CoupleID, category, func(ev stream.Event) {
		metrics.StreamEvents.WithLabelValues(string(ev.Category), string(ev.Action)).Inc()
		buf.emit(WSMessage{
			Type:     "event",
			Category: string(ev.Category),
			Action:   string(ev.Action),
			Data:     ev.Record,
		})
	})

	if !c.register(category, sub) {
		sub.Cancel()
		return nil
	}

	snapshot, err := h.snapshot(ctx, c.sess, category)
	if err != nil {
		c.unsubscribe(category)
		return err
	}

	buf.release(WSMessage{
		Type:     "snapshot",
		Category: string(category),
		Data:     snapshot,
	})
	return nil
}

// eventBuffer holds live events back until the snapshot that must precede
// them has been enqueued.
type eventBuffer struct {
	conn *wsConn

	mu      sync.Mutex
	holding bool
	pending []WSMessage
}

func (b *eventBuffer) emit(msg WSMessage) {
	b.mu.Lock()
	if b.holding {
		b.pending = append(b.pending, msg)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	b.conn.enqueue(msg)
}

// release enqueues head, replays the held events behind it, and switches to
// direct delivery. Holding the mutex across the replay keeps a concurrent
// emit from jumping ahead of older events.
func (b *eventBuffer) release(head WSMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conn.enqueue(head)
	for _, msg := range b.pending {
		b.conn.enqueue(msg)
	}
	b.pending = nil
	b.holding = false
}

func (h *WebSocketHandler) snapshot(ctx context.Context, sess *models.Session, category models.Category) (interface{}, error) {
	switch category {
	case models.CategoryMessage:
		return h.messages.List(ctx, sess.CoupleID)
	case models.CategoryTruthOrDare:
		return h.rounds.List(ctx, sess.CoupleID)
	case models.CategoryGalleryPhoto:
		return h.gallery.List(ctx, sess)
	case models.CategorySnapMoment:
		return h.snaps.List(ctx, sess)
	case models.CategoryDiaryEntry:
		return h.diary.List(ctx, sess)
	case models.CategoryCoupleTodo:
		return h.todos.List(ctx, sess.CoupleID)
	case models.CategoryNotification:
		return h.notifier.List(ctx, sess.CoupleID, sess.Nickname, 0)
	default:
		return nil, errUnknownCategory
	}
}

// register records the live subscription, replacing any previous one for the
// category. It refuses once the connection is shut down: the teardown sweep
// may already have run, and a subscription stored after it would leak in the
// hub.
func (c *wsConn) register(category models.Category, sub *stream.Subscription) bool {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return false
	default:
	}
	old := c.subs[category]
	c.subs[category] = sub
	c.mu.Unlock()
	if old != nil {
		old.Cancel()
	}
	return true
}

func (c *wsConn) unsubscribe(category models.Category) {
	c.mu.Lock()
	sub, ok := c.subs[category]
	if ok {
		delete(c.subs, category)
	}
	c.mu.Unlock()
	if ok {
		sub.Cancel()
	}
}

// enqueue queues a message for the write pump. A full queue means the client
// is too slow, so the connection is torn down. The teardown runs on its own
// goroutine: enqueue is called from hub delivery callbacks, which must not
// cancel subscriptions synchronously.
func (c *wsConn) enqueue(msg WSMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		log.Warn().
			Str("couple_id", c.sess.CoupleID).
			Msg("WebSocket send buffer full, disconnecting client")
		go c.shutdown()
	}
}

func (c *wsConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal WebSocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

// shutdown cancels all subscriptions and closes the connection. Safe to
// call more than once.
func (c *wsConn) shutdown() {
	c.once.Do(func() {
		close(c.done)

		c.mu.Lock()
		subs := make([]*stream.Subscription, 0, len(c.subs))
		for _, sub := range c.subs {
			subs = append(subs, sub)
		}
		c.subs = make(map[models.Category]*stream.Subscription)
		c.mu.Unlock()

		for _, sub := range subs {
			sub.Cancel()
		}
		c.conn.Close()
	})
}

package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"savora-be/internal/catalog"
	"savora-be/internal/logger"
	"savora-be/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Notice is what connected clients receive: which concern went stale, so the
// UI can refetch and, for product changes, show a "prices or availability
// changed" banner.
type Notice struct {
	Concern Concern `json:"concern"`
	Message string  `json:"message,omitempty"`
	SentAt  int64   `json:"sent_at"`
}

// clientUpdate is what clients send: the product refs their cart currently
// holds, their user id for address events, and the payment reference of an
// in-flight checkout so refreshes pause while it settles.
type clientUpdate struct {
	Refs      []catalog.ProductRef `json:"refs"`
	UserID    *uint                `json:"user_id,omitempty"`
	Reference string               `json:"reference,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan Notice

	mu         sync.Mutex
	reference  string
	sendClosed bool
	sub        *Subscription
}

// Hub attaches one change-feed subscription per websocket client. Slow
// clients get dropped rather than allowed to back-pressure everyone else.
type Hub struct {
	feed *Feed

	// SuspendedFn reports whether refreshes for a payment reference should
	// be held back (checkout in flight).
	suspendedFn func(reference string) bool

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(feed *Feed, suspendedFn func(reference string) bool) *Hub {
	if suspendedFn == nil {
		suspendedFn = func(string) bool { return false }
	}
	return &Hub{
		feed:        feed,
		suspendedFn: suspendedFn,
		clients:     make(map[*client]struct{}),
	}
}

// Serve upgrades the request, subscribes the client to the change feed and
// pumps notices until it disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan Notice, 16)}

	c.sub = NewSubscription(
		func(concern Concern) { c.notify(concern) },
		func() bool {
			c.mu.Lock()
			ref := c.reference
			c.mu.Unlock()
			return ref != "" && h.suspendedFn(ref)
		},
	)
	h.feed.Subscribe(c.sub)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeClients.Inc()

	go h.writePump(c)
	h.readPump(c)
}

// notify races with drop: a debounce timer can still fire after the client
// disconnected, so the send channel is only written under the same lock that
// marks it closed.
func (c *client) notify(concern Concern) {
	n := Notice{Concern: concern, SentAt: time.Now().Unix()}
	if concern == ConcernProducts {
		n.Message = "prices or availability changed"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return
	}

	select {
	case c.send <- n:
	default:
		// Buffer full; the writer goroutine will clean up.
	}
}

func (c *client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// readPump consumes subscription updates from the client until it hangs up.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var upd clientUpdate
		if err := json.Unmarshal(data, &upd); err != nil {
			continue
		}

		c.sub.SetRefs(upd.Refs)
		if upd.UserID != nil {
			c.sub.SetUser(*upd.UserID)
		}

		c.mu.Lock()
		c.reference = upd.Reference
		c.mu.Unlock()
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for n := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(n); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	c.sub.Close()
	c.closeSend()

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.RealtimeClients.Dec()
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Package realtime relays folder store change events to connected views
// over WebSocket, so the sidebar tree and the home-panel tabs stay in sync
// without polling. It is intra-instance fan-out only; nothing here talks to
// other instances.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sessiondeck/folderdeck/internal/folders"
	"github.com/sessiondeck/folderdeck/pkg/logger"
	"github.com/sessiondeck/folderdeck/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 32
)

// Message is the JSON payload delivered to subscribers.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub fans folder change events out to connected clients.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log: logger.WithModule("realtime"),
	}
}

// Attach subscribes the hub to a folder store and relays every change to
// connected clients. The returned function cancels the subscription.
func (h *Hub) Attach(store *folders.Store) func() {
	return store.Subscribe(func(change folders.Change) {
		h.Broadcast(Message{Event: string(change.Kind), Data: change})
	})
}

// Serve upgrades the HTTP connection and streams change events until the
// client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan Message, sendBufferSize),
		done: make(chan struct{}),
	}

	h.register(cl)
	defer h.unregister(cl)

	go cl.writeLoop()
	cl.readLoop()
}

// Broadcast delivers a message to every connected client. Slow clients that
// cannot drain their buffer are disconnected rather than blocking the rest.
func (h *Hub) Broadcast(message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for cl := range h.clients {
		select {
		case cl.send <- message:
		case <-cl.done:
		default:
			h.log.Warn("dropping slow realtime client")
			cl.close()
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeClients.Inc()
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		metrics.RealtimeClients.Dec()
	}
	h.mu.Unlock()
	cl.close()
}

type client struct {
	conn *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains inbound frames to service pong handlers; clients have
// nothing to say to the hub.
func (c *client) readLoop() {
	defer c.close()

	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

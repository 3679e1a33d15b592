package console

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/config"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/logging"
)

const clientSendBuffer = 16

// Event is one message on the console event stream.
type Event struct {
	Kind string    `json:"kind"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// Hub fans console events out to connected WebSocket clients. Slow clients
// are dropped rather than allowed to back-pressure the hub.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	broadcast chan Event
}

type wsClient struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub builds a Hub; call Run to start it.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:       cfg,
		logger:    logger,
		clients:   make(map[*wsClient]struct{}),
		broadcast: make(chan Event, 64),
	}
}

// Run distributes events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					// Slow consumer; cut it loose.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for all clients. Never blocks; when the hub
// itself is saturated the event is dropped.
func (h *Hub) Broadcast(kind string, data any) {
	ev := Event{Kind: kind, Time: time.Now(), Data: data}
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("console event dropped, hub saturated", "kind", kind)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleWebSocket authenticates and upgrades an event stream client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if _, err := ParseToken(token, s.cfg.JWT.Secret); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  s.cfg.WebSocket.MaxMessageSize,
		WriteBufferSize: s.cfg.WebSocket.MaxMessageSize,
		// The console binds to the maintenance interface; origin checks
		// add nothing over the bearer token here.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan Event, clientSendBuffer)}
	s.hub.add(client)
	s.logger.Info("console event stream connected", "remote", r.RemoteAddr)

	go s.writePump(client)
	go s.readPump(client)
}

// writePump pushes events and pings to one client.
func (s *Server) writePump(c *wsClient) {
	pingInterval := time.Duration(s.cfg.WebSocket.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. It exists to
// process pongs and notice the client going away.
func (s *Server) readPump(c *wsClient) {
	defer s.hub.remove(c)

	pongTimeout := time.Duration(s.cfg.WebSocket.PongTimeout) * time.Second
	if pongTimeout <= 0 {
		pongTimeout = 10 * time.Second
	}
	pingInterval := time.Duration(s.cfg.WebSocket.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	c.conn.SetReadLimit(int64(s.cfg.WebSocket.MaxMessageSize))
	_ = c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

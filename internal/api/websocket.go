package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"skyarena/internal/command"
	"skyarena/internal/game"
	"skyarena/internal/metrics"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	writeWait      = 5 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Commands is where the hub sends decoded client messages.
type Commands interface {
	Enqueue(cmd command.Command) bool
	Disconnect(s *command.Session)
}

// wsClient is one connection with its own codec and send buffer.
type wsClient struct {
	hub     *Hub
	conn    *websocket.Conn
	ip      string
	codec   Codec
	session *command.Session
	send    chan []byte
}

// Hub owns every websocket connection. It implements game.Publisher:
// each event is encoded once per codec in use and queued on every client.
// A client whose buffer is full misses the frame instead of stalling the tick.
type Hub struct {
	commands Commands
	logger   *log.Logger
	upgrader websocket.Upgrader
	origins  []string

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}

	wsLimiter *WebSocketRateLimiter
}

// NewHub creates a hub. Run must be started before connections are accepted.
func NewHub(commands Commands, allowedOrigins []string, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	h := &Hub{
		commands:   commands,
		logger:     logger.WithPrefix("ws"),
		origins:    allowedOrigins,
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		Subprotocols:    []string{SubprotocolMsgpack, SubprotocolJSON},
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Non-browser clients send no Origin
	if origin == "" || IsAllowedOrigin(origin, h.origins) {
		return true
	}
	h.logger.Warn("websocket connection rejected", "origin", origin)
	metrics.RecordConnectionRejected("origin")
	return false
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client connected", "ip", c.ip, "codec", c.codec.Name(), "total", count)
			metrics.UpdateWSConnections(count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.wsLimiter.Release(c.ip)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.commands.Disconnect(c.session)
			h.logger.Info("client disconnected", "session", c.session.ID, "remaining", count)
			metrics.UpdateWSConnections(count)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
				h.commands.Disconnect(c.session)
			}
			h.mu.Unlock()
			metrics.UpdateWSConnections(0)
			return
		}
	}
}

// Publish broadcasts events to every client.
func (h *Hub) Publish(events []game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	for _, ev := range events {
		frames := make(map[Codec][]byte, 2)
		for c := range h.clients {
			frame, ok := frames[c.codec]
			if !ok {
				var err error
				frame, err = c.codec.Encode(ev.Type.String(), ev.Data)
				if err != nil {
					h.logger.Error("encode failed", "event", ev.Type, "codec", c.codec.Name(), "err", err)
					frame = nil
				}
				frames[c.codec] = frame
			}
			if frame != nil {
				c.trySend(frame)
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and starts the client's pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		h.logger.Warn("websocket connection rejected: total limit reached")
		metrics.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		h.logger.Warn("websocket connection rejected: per-IP limit reached", "ip", ip)
		metrics.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		h.wsLimiter.Release(ip)
		return
	}

	c := &wsClient{
		hub:     h,
		conn:    conn,
		ip:      ip,
		codec:   codecFor(conn.Subprotocol()),
		session: command.NewSession(uuid.NewString()),
		send:    make(chan []byte, sendBufferSize),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	go c.writePump()
	go c.readPump()
}

// trySend queues a frame without blocking. Caller holds hub.mu.
func (c *wsClient) trySend(frame []byte) {
	select {
	case c.send <- frame:
		metrics.IncrementWSMessages(c.codec.Name())
	default:
		metrics.RecordWSDropped()
	}
}

// reply sends a command reply to this client only.
func (c *wsClient) reply(r command.Reply) {
	frame, err := c.codec.Encode(r.Event.String(), r.Data)
	if err != nil {
		c.hub.logger.Error("encode reply failed", "err", err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		c.trySend(frame)
	}
}

func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg command.Message
		if err := c.codec.Decode(frame, &msg); err != nil {
			c.reply(command.Reply{Event: game.EventError, Data: game.ErrorEvent{Message: "malformed message"}})
			continue
		}

		cmd := command.NewCommand(c.session, msg, c.reply)
		if cmd.Type == command.CmdDisconnect {
			return
		}
		c.hub.commands.Enqueue(cmd)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(c.codec.MessageType(), frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Package ws drives a streaming request hook over a WebSocket. The client
// sends query, retry and clear commands and receives every state transition.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vedpatil1345/codetalk/internal/service/request"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Handler upgrades connections and owns one hook per connection.
type Handler struct {
	streamer request.Streamer
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler. allowedOrigins follows the CORS list;
// "*" accepts any origin.
func New(streamer request.Streamer, allowedOrigins []string) *Handler {
	return &Handler{
		streamer: streamer,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts /ws.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(msgType string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	msg := outgoingMessage{Type: msgType, Data: data, Timestamp: time.Now().Unix()}
	if err := c.ws.WriteJSON(msg); err != nil {
		slog.Debug("websocket write failed", "type", msgType, "error", err)
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer wsConn.Close()

	c := &conn{ws: wsConn}
	hook := request.New(h.streamer)
	defer hook.Close()
	hook.Subscribe(func(s request.State) {
		c.send("state", s)
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go pingLoop(ctx, c)

	slog.Debug("websocket connected", "remote", r.RemoteAddr)
	c.send("connected", hook.State())

	for {
		var msg inboundMessage
		if err := wsConn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))

		handleMessage(c, hook, msg)
	}
}

func handleMessage(c *conn, hook *request.Hook, msg inboundMessage) {
	switch msg.Type {
	case "query":
		hook.SetQuery(msg.Query)
	case "retry":
		hook.Retry()
	case "clear":
		hook.Clear()
	case "state":
		c.send("state", hook.State())
	default:
		c.send("error", map[string]string{"message": "unsupported message type: " + msg.Type})
	}
}

func pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

// originChecker admits same-origin requests and explicitly listed origins.
// The session cookie rides along on the upgrade, so "*" does not count.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

package transport

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"technomancy/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades incoming HTTP connections to websockets and hands each
// one to onConnect, which is responsible for wiring the resulting Client
// into a running game (typically via a supervisor.Registry.Spawn call).
// Connections are otherwise content-agnostic: the engine speaks the same
// Request/Response protocol over every one of them.
type Handler struct {
	onConnect func(*Client)
	log       *zap.Logger
}

// NewHandler builds a Handler that calls onConnect once per accepted
// connection, after wrapping it as a Client.
func NewHandler(onConnect func(*Client)) *Handler {
	return &Handler{onConnect: onConnect, log: logger.Get()}
}

// ServeHTTP implements http.Handler, upgrading the request to a websocket.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("failed to upgrade connection to websocket", zap.Error(err))
		return
	}

	client := NewClient(conn)
	h.log.Info("outside connection established", zap.String("remote_addr", r.RemoteAddr))
	h.onConnect(client)
}

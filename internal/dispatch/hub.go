package dispatch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Hub bridges broadcaster events onto WebSocket connections. Each
// connection subscribes on the default channel; an observer_id query
// parameter additionally opts the connection into targeted notifications.
type Hub struct {
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
}

func NewHub(broadcaster *Broadcaster) *Hub {
	return &Hub{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Browser clients connect from the app origin
			},
		},
	}
}

// Handle upgrades the request and streams events until the client
// disconnects or the broadcaster closes.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	observerID := r.URL.Query().Get("observer_id")
	subID, events := h.broadcaster.Subscribe(observerID)
	slog.Info("observer connected", "observer_id", observerID, "subscribers", h.broadcaster.SubscriberCount())

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, events, done)

	h.broadcaster.Unsubscribe(subID)
	conn.Close()
	slog.Info("observer disconnected", "observer_id", observerID)
}

// readLoop drains client frames so pings and close frames are processed.
func (h *Hub) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, events <-chan Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

package recommend

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/recommend"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin of the request
		return true
	},
}

// ProgressUpdate is one state transition pushed to connected clients.
type ProgressUpdate struct {
	State string `json:"state"`
}

// ProgressHub fans recommendation state transitions out to every connected
// WebSocket client.
type ProgressHub struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func (*ProgressHub) Pattern() string {
	return "/recommend/progress"
}

func NewProgressHub(log *zap.SugaredLogger) *ProgressHub {
	return &ProgressHub{
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *ProgressHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("Error upgrading connection to WebSocket", "error", err)
		return
	}

	h.log.Info("WebSocket client connected")

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Reads are discarded; the read loop only notices disconnects.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes a state transition to every client. Clients that fail a
// write are dropped.
func (h *ProgressHub) Broadcast(state recommend.State) {
	update := ProgressUpdate{State: string(state)}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(update); err != nil {
			h.log.Errorw("Error sending WebSocket message", "error", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *ProgressHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.conns, conn)
}

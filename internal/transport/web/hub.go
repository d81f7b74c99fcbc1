package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KotFed0t/sector_dashboard/internal/converter/webConverter"
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/model/webModel"
	"github.com/KotFed0t/sector_dashboard/utils"
)

const wsWriteTimeout = 5 * time.Second

// Hub tracks connected dashboard pages and pushes dataset refresh events to
// them, so an open page reloads its data without polling.
type Hub struct {
	upgrader websocket.Upgrader

	// mu guards the connection set, writeMu serializes broadcasts.
	mu      sync.Mutex
	writeMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The socket only pushes public dataset metadata, cross-origin
			// pages cannot do anything harmful with it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	rqID := utils.GetRequestIDFromCtx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("got error from upgrader.Upgrade", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.conns[conn] = struct{}{}
	clients := len(h.conns)
	h.mu.Unlock()

	slog.Debug("websocket client connected", slog.String("rqID", rqID), slog.Int("clients", clients))

	go h.readLoop(conn, rqID)
}

// readLoop drains incoming frames. The page never sends anything meaningful,
// reading only detects the disconnect.
func (h *Hub) readLoop(conn *websocket.Conn, rqID string) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			slog.Debug("websocket client disconnected", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// NotifyDatasetRefreshed broadcasts the new dataset state to every connected
// page.
func (h *Hub) NotifyDatasetRefreshed(meta model.DatasetMeta) {
	payload, err := json.Marshal(webModel.RefreshEvent{
		Event:   "dataset_refreshed",
		Dataset: webConverter.ConvertDatasetMeta(true, meta),
	})
	if err != nil {
		slog.Error("got error marshaling refresh event", slog.String("err", err.Error()))
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("dropping websocket client after failed write", slog.String("err", err.Error()))
			h.drop(conn)
		}
	}
}

// Close disconnects every client and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
}

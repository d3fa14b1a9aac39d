package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"homefix_orders/internal/domain/entities"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	viewerSendBuffer = 16
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

type wsEvent struct {
	Type string                 `json:"type"`
	Data entities.StatusChanged `json:"data"`
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes status changes to websocket viewers of a single order.
// A viewer whose send buffer is full misses the event.
type Hub struct {
	mu       sync.RWMutex
	viewers  map[string]map[*viewer]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		viewers: map[string]map[*viewer]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

func (h *Hub) Name() string { return "websocket" }

func (h *Hub) Deliver(_ context.Context, ev entities.StatusChanged) error {
	payload, err := json.Marshal(wsEvent{Type: "status_changed", Data: ev})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for v := range h.viewers[ev.OrderID] {
		select {
		case v.send <- payload:
		default:
			h.log.Debug("notify.ws.viewer.lagging", zap.String("order_id", ev.OrderID))
		}
	}
	return nil
}

// Serve upgrades the request and blocks until the viewer disconnects.
// Authorization must happen before calling it.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, orderID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	v := &viewer{conn: conn, send: make(chan []byte, viewerSendBuffer)}
	h.register(orderID, v)
	go h.writeLoop(v)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Server push only; client frames are read to notice the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(orderID, v)
	return nil
}

// ViewerCount reports how many viewers are attached to an order.
func (h *Hub) ViewerCount(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[orderID])
}

func (h *Hub) register(orderID string, v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.viewers[orderID]
	if !ok {
		set = map[*viewer]struct{}{}
		h.viewers[orderID] = set
	}
	set[v] = struct{}{}
}

func (h *Hub) unregister(orderID string, v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.viewers[orderID]
	if _, ok := set[v]; !ok {
		return
	}
	delete(set, v)
	close(v.send)
	if len(set) == 0 {
		delete(h.viewers, orderID)
	}
}

func (h *Hub) writeLoop(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

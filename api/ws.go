package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// hub fans each new trade report out to every connected dashboard client.
// Deliveries happen on a dedicated writer goroutine so a stalled client can
// never hold up the monitor cycle that produced the report.
type hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger
	reports  chan *models.Report
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
}

func newHub(logger *logrus.Logger) *hub {
	if logger == nil {
		logger = logrus.New()
	}
	h := &hub{
		upgrader: websocket.Upgrader{
			// The dashboard is read-only and public; cross-origin reads are fine.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		reports: make(chan *models.Report, 16),
		clients: make(map[*websocket.Conn]struct{}),
	}
	go h.writeLoop()
	return h
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Drain the connection so pings and close frames are handled; drop the
	// client on any read error.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcastReport queues a report for delivery. It never blocks: when the
// queue is full the report is dropped, since the dashboard can always catch
// up from the events endpoint.
func (h *hub) broadcastReport(report *models.Report) {
	select {
	case h.reports <- report:
	default:
		h.logger.Warn("Websocket broadcast queue full, dropping report")
	}
}

func (h *hub) writeLoop() {
	for report := range h.reports {
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(report); err != nil {
				h.logger.WithError(err).Debug("Dropping slow websocket client")
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

func (h *hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
}

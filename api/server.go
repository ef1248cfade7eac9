package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/insightlabs/alphawatch/internal/monitor"
	"github.com/insightlabs/alphawatch/internal/store"
	"github.com/sirupsen/logrus"
)

// Server exposes the read-only status surface: a JSON API, an HTML dashboard
// rendered from the last persisted snapshot, and a websocket feed of new
// trade reports. The only mutating endpoint (test notification) is guarded
// by a bearer token.
type Server struct {
	monitor    *monitor.Monitor
	store      *store.Store
	logger     *logrus.Logger
	port       string
	authSecret string
	hub        *hub
}

func NewServer(mon *monitor.Monitor, st *store.Store, logger *logrus.Logger, port, authSecret string) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		monitor:    mon,
		store:      st,
		logger:     logger,
		port:       port,
		authSecret: authSecret,
		hub:        newHub(logger),
	}
	mon.AddReportHook(s.hub.broadcastReport)
	return s
}

func (s *Server) Start() error {
	s.logger.Infof("Starting status server on port %s", s.port)
	return http.ListenAndServe(":"+s.port, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/ws", s.hub.handleWS)

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/notify/test", s.requireAuth(s.handleTestNotification))

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view := buildPositionsView(s.store.LoadLast())
	if view == nil {
		http.Error(w, "No snapshot available yet", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, s.monitor.RecentReports())
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.monitor.TestNotification(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

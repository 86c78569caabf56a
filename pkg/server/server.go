package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"xchbal/pkg/config"
	"xchbal/pkg/screen"
	"xchbal/pkg/watcher"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	watcher  *watcher.Watcher
	gatherer prometheus.Gatherer
	log      *zap.Logger
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	mux      *http.ServeMux
}

// statusResponse is the body of /api/status and of the initial websocket message.
type statusResponse struct {
	Snapshot  screen.Snapshot `json:"snapshot"`
	Currency  string          `json:"currency"`
	Addresses int             `json:"addresses"`
	FiatValue float64         `json:"fiat_value"`
}

// NewServer wires the HTTP routes. A nil gatherer disables /metrics.
func NewServer(w *watcher.Watcher, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		watcher:  w,
		gatherer: gatherer,
		log:      log,
		clients:  make(map[*websocket.Conn]bool),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/ws", s.handleWS)
	if s.gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) Start(port int) error {
	go s.listenToWatcher()

	s.log.Info("API server listening", zap.Int("port", port))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) status() statusResponse {
	snap := s.watcher.Snapshot()
	return statusResponse{
		Snapshot:  snap,
		Currency:  s.watcher.Currency(),
		Addresses: len(s.watcher.GetAddresses()),
		FiatValue: snap.Aggregate.FiatValue(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

// handleRefresh starts a refresh in the background. It answers 409 when nothing is checked.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if len(config.CheckedAddresses(s.watcher.GetAddresses())) == 0 {
		http.Error(w, screen.MsgNoAddresses, http.StatusConflict)
		return
	}
	go s.watcher.Refresh(context.Background())
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	// Send initial state before registering, so it is always the first message.
	initialData := map[string]interface{}{
		"type": "initial",
		"data": s.status(),
	}
	s.mu.Lock()
	err = conn.WriteJSON(initialData)
	if err == nil {
		s.clients[conn] = true
	}
	s.mu.Unlock()
	if err != nil {
		return
	}

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToWatcher() {
	sub := s.watcher.Subscribe()
	defer s.watcher.Unsubscribe(sub)

	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event watcher.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			s.log.Debug("dropping websocket client", zap.Error(err))
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

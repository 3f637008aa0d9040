// Package web serves the store over HTTP: a health probe and a websocket
// listen for browser widgets.
package web

import (
	"chat-wall/contract"
	"chat-wall/domain/document"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/process"
)

const writeWait = 10 * time.Second

type HealthResponse struct {
	Status     string    `json:"status"`
	Project    string    `json:"project"`
	Timestamp  time.Time `json:"timestamp"`
	Uptime     string    `json:"uptime"`
	PID        int32     `json:"pid"`
	RSSBytes   uint64    `json:"rssBytes"`
	CPUPercent float64   `json:"cpuPercent"`
}

type Server struct {
	store    contract.DocumentStore
	project  string
	log      *slog.Logger
	started  time.Time
	upgrader websocket.Upgrader
}

func NewServer(store contract.DocumentStore, project string, log *slog.Logger) *Server {
	return &Server{
		store:   store,
		project: project,
		log:     log,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/{collection}/listen", s.HandleListen)
	return r
}

// HandleHealth reports the process memory and CPU usage.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:    "UP",
		Project:   s.project,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		PID:       int32(os.Getpid()),
	}
	if p, err := process.NewProcess(response.PID); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			response.RSSBytes = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			response.CPUPercent = cpuPercent
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.log.Warn("Health response not written", "error", err)
	}
}

// HandleListen upgrades to a websocket and pushes every batch of the
// collection as a JSON text frame, the snapshot first.
// The stream ends when the client closes the socket.
func (s *Server) HandleListen(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	if collection == "" {
		http.Error(w, "collection is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade error", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Nothing is expected from the client, reading only detects the close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.log.Debug("Websocket listen opened", "collection", collection, "remote", r.RemoteAddr)
	err = s.store.Listen(ctx, collection, func(batch document.Batch) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(batch)
	})
	if err != nil {
		s.log.Warn("Websocket listen closed", "collection", collection, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		return
	}
	s.log.Debug("Websocket listen closed", "collection", collection)
}

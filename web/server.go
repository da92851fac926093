package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"markestedt/pastemd/config"
	"markestedt/pastemd/hotkey"
	"markestedt/pastemd/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard is served on localhost only
	},
}

// VersionSource reports the converter version shown on the status page
type VersionSource interface {
	Version(ctx context.Context) (string, error)
}

// Server represents the web server
type Server struct {
	db       *storage.DB
	config   *config.Config
	port     int
	hub      *Hub
	recorder *hotkey.Recorder
	pandoc   VersionSource
	mu       sync.RWMutex

	status         string
	onConfigChange func(old, updated *config.Config)

	recMu     sync.Mutex
	sessionID string
}

// NewServer creates a new web server
func NewServer(db *storage.DB, cfg *config.Config, recorder *hotkey.Recorder) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		db:       db,
		config:   cfg,
		port:     cfg.Web.Port,
		hub:      hub,
		recorder: recorder,
		status:   "idle",
	}
}

// SetVersionSource sets where /api/status reads the converter version from
func (s *Server) SetVersionSource(v VersionSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pandoc = v
}

// OnConfigChange registers fn to run after a config update is saved
func (s *Server) OnConfigChange(fn func(old, updated *config.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfigChange = fn
}

// Handler returns the HTTP routes
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistory)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/hotkey/record", s.handleHotkeyRecord)
	mux.HandleFunc("/ws", s.handleWebSocket)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return mux, nil
}

// Start serves the dashboard on localhost until ctx is done
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.hub.Stop()
	}()

	slog.Info("Starting web server", "port", s.port, "url", s.URL())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// URL returns the dashboard address
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// GetConfig returns the current configuration (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig updates the configuration (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// BroadcastStatus broadcasts a status update to all connected clients
func (s *Server) BroadcastStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: StatusMessage{Status: status},
	})
}

// BroadcastPaste broadcasts a new history entry to all connected clients
func (s *Server) BroadcastPaste(p *storage.Paste) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypePaste,
		Data: PasteMessage{
			ID:        p.ID,
			Source:    p.Source,
			TargetApp: p.TargetApp,
			Method:    p.Method,
			Size:      humanize.Bytes(uint64(max(p.OutputBytes, 0))),
			Success:   p.Success,
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
		},
	})
}

// Notify pushes a user-facing notification to the dashboard
func (s *Server) Notify(title, message string, ok bool) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeNotification,
		Data: NotificationMessage{Title: title, Message: message, OK: ok},
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

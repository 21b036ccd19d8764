// Package server exposes a store to remote panels: an HTTP snapshot endpoint
// and a WebSocket that streams store notifications and accepts edit actions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/scenestore/internal/core/events"
	"github.com/zeusync/scenestore/internal/core/events/bus"
	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/store"
)

type Config struct {
	ListenAddr      string
	ClientBuffer    int
	Token           string
	ShutdownTimeout time.Duration
	// ActionRateLimit caps actions per client per second; 0 disables it.
	ActionRateLimit int
	// SaveDir is where clients may save scenes under a new path; empty
	// allows only the scene's current file.
	SaveDir string
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:7777",
		ClientBuffer:    256,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serializes every store call behind one mutex. Bus handlers only
// queue encoded frames on per-client channels, so they never block the
// store call that published them.
type Server struct {
	cfg    Config
	logger log.Log

	mu    sync.Mutex
	store *store.Store

	clientsMu sync.Mutex
	clients   map[string]*client
	closed    bool

	subs     []bus.Subscription
	upgrader websocket.Upgrader
}

// Frame is one server-to-client WebSocket message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func New(st *store.Store, logger log.Log, cfg Config) *Server {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = DefaultConfig().ClientBuffer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger.With(log.String("component", "server")),
		store:   st,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, ch := range events.Channels() {
		sub, err := st.Bus().Subscribe(ch, s.broadcast)
		if err != nil {
			s.logger.Error("subscribe", log.String("event", ch), log.Error(err))
			continue
		}
		s.subs = append(s.subs, sub)
	}
	return s
}

// Do runs fn with exclusive access to the store.
func (s *Server) Do(fn func(*store.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /scene", s.handleScene)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return s.withLogging(mux)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("listening", log.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drops the bus subscriptions and disconnects every client.
func (s *Server) Close() {
	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		return
	}
	s.closed = true
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	for _, sub := range s.subs {
		_ = sub.Cancel()
	}
}

// broadcast queues e on every client. A client whose queue is full misses
// the frame.
func (s *Server) broadcast(e bus.Event) error {
	b, err := json.Marshal(Frame{Event: e.Type(), Data: e.Data()})
	if err != nil {
		return err
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for _, c := range s.clients {
		if !c.enqueue(b) {
			s.logger.Warn("client too slow, frame dropped",
				log.String("client", c.id),
				log.String("event", e.Type()))
		}
	}
	return nil
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

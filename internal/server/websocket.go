package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/store"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

type client struct {
	id      string
	send    chan []byte
	once    sync.Once
	limiter *rateLimiter
}

func (c *client) enqueue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// close is only called with clientsMu held, after which nothing enqueues.
func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// snapshotFrame is sent once to every client right after it connects.
type snapshotFrame struct {
	Scene    any            `json:"scene"`
	Metadata store.Metadata `json:"metadata"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", log.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{
		id:      uuid.NewString(),
		send:    make(chan []byte, s.cfg.ClientBuffer),
		limiter: newRateLimiter(s.cfg.ActionRateLimit, time.Second),
	}

	// register and snapshot under the store lock so no event is missed or
	// delivered before the snapshot it applies to
	var hello []byte
	s.Do(func(st *store.Store) {
		hello, err = json.Marshal(Frame{Event: "scene.snapshot", Data: snapshotFrame{
			Scene:    st.Snapshot(),
			Metadata: st.Metadata(),
		}})
		if err != nil {
			return
		}
		s.clientsMu.Lock()
		defer s.clientsMu.Unlock()
		if s.closed {
			err = ErrServerClosed
			return
		}
		c.enqueue(hello)
		s.clients[c.id] = c
	})
	if err != nil {
		s.logger.Warn("websocket register", log.Error(err))
		_ = conn.Close()
		return
	}

	logger := s.logger.With(log.String("client", c.id))
	logger.Info("client connected", log.String("remote", r.RemoteAddr))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(conn, c)
	}()
	s.readLoop(conn, c, logger)

	s.unregister(c)
	<-done
	_ = conn.Close()
	logger.Info("client disconnected")
}

func (s *Server) unregister(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, c.id)
	c.close()
}

func (s *Server) writeLoop(conn *websocket.Conn, c *client) {
	for b := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			// wake the read loop so the client gets unregistered
			_ = conn.Close()
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}

func (s *Server) readLoop(conn *websocket.Conn, c *client, logger log.Log) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read", log.Error(err))
			}
			return
		}
		var a Action
		if err = json.Unmarshal(data, &a); err != nil {
			s.reply(c, a.Action, ErrInvalidMessage)
			continue
		}
		if !c.limiter.allow() {
			logger.Warn("rate limit exceeded", log.String("action", a.Action))
			s.reply(c, a.Action, ErrRateLimited)
			continue
		}
		if err = s.apply(a); err != nil {
			logger.Debug("action failed", log.String("action", a.Action), log.Error(err))
			s.reply(c, a.Action, err)
		}
	}
}

type errorData struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// reply sends an error frame to one client only.
func (s *Server) reply(c *client, action string, err error) {
	b, mErr := json.Marshal(Frame{Event: "error", Data: errorData{Action: action, Message: err.Error()}})
	if mErr != nil {
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if _, ok := s.clients[c.id]; ok {
		c.enqueue(b)
	}
}

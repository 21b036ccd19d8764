// Package client is a Go SDK for the editord WebSocket: it receives the scene
// snapshot and store notifications and sends edit actions.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/scene"
	"github.com/zeusync/scenestore/internal/core/selection"
	"github.com/zeusync/scenestore/internal/core/store"
	"github.com/zeusync/scenestore/internal/server"
)

// Client is one panel connected to editord.
type Client struct {
	conn *websocket.Conn

	snapshot Snapshot

	frameHandlers map[string][]FrameHandler
	eventHandlers map[EventType][]EventHandler
	handlerMutex  sync.RWMutex

	writeMu sync.Mutex

	connected atomic.Bool
	closed    atomic.Bool
	done      chan struct{}

	config Config
	logger log.Log
}

// Config holds configuration for the client
type Config struct {
	// ServerURL is the WebSocket endpoint, e.g. ws://127.0.0.1:7777/ws.
	ServerURL      string
	Token          string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	Logger         log.Log
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:      "ws://127.0.0.1:7777/ws",
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// Frame is one server notification. Data is left raw for the handler to
// decode into the matching payload type.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Data, v)
}

// Snapshot is the scene state the server sends on connect.
type Snapshot struct {
	Scene    scene.Scene    `json:"scene"`
	Metadata store.Metadata `json:"metadata"`
}

// FrameHandler handles one server frame. Handlers run on the receive
// goroutine in arrival order.
type FrameHandler func(f Frame) error

// EventHandler defines a function type for handling client events
type EventHandler func(event Event) error

// EventType represents different types of client events
type EventType string

const (
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
)

// Event represents a client event
type Event struct {
	Type      EventType
	Timestamp time.Time
	Error     error
}

// NewClient creates a new client. Register handlers before Connect so no
// frame is missed.
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		frameHandlers: make(map[string][]FrameHandler),
		eventHandlers: make(map[EventType][]EventHandler),
		done:          make(chan struct{}),
		config:        config,
		logger:        logger.With(log.String("component", "client")),
	}
}

// Connect dials the server and waits for the scene snapshot. A client
// connects at most once.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.conn != nil {
		return ErrAlreadyConnected
	}
	if c.config.ServerURL == "" {
		return ErrInvalidConfig
	}

	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	header := http.Header{}
	if c.config.Token != "" {
		header.Set("Authorization", "Bearer "+c.config.Token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.ServerURL, header)
	if err != nil {
		c.logger.Error("Failed to connect to server", log.String("url", c.config.ServerURL), log.Error(err))
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	var hello Frame
	if err = conn.ReadJSON(&hello); err != nil {
		_ = conn.Close()
		return err
	}
	if hello.Event != "scene.snapshot" {
		_ = conn.Close()
		return ErrUnexpectedGreeting
	}
	if err = hello.Decode(&c.snapshot); err != nil {
		_ = conn.Close()
		return err
	}
	_ = conn.SetReadDeadline(time.Time{})

	c.conn = conn
	c.connected.Store(true)
	c.logger.Info("Connected to server",
		log.String("url", c.config.ServerURL),
		log.Uint64("scene_version", c.snapshot.Metadata.SceneVersion))

	go c.messageReceiver()
	c.emitEvent(Event{Type: EventTypeConnected, Timestamp: time.Now()})
	return nil
}

// Close closes the connection and waits for the receiver to stop.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.conn == nil {
		close(c.done)
		return nil
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = c.conn.Close()
	<-c.done
	return nil
}

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Snapshot returns the scene state received on connect.
func (c *Client) Snapshot() Snapshot { return c.snapshot }

func (c *Client) IsConnected() bool { return c.connected.Load() }

// Send writes one action. Failures come back asynchronously as "error"
// frames.
func (c *Client) Send(a server.Action) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.connected.Load() {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	c.logger.Debug("Sending action", log.String("action", a.Action))
	return c.conn.WriteJSON(a)
}

func (c *Client) CreateEntity(name string, parent scene.EntityID) error {
	return c.Send(server.Action{Action: "create", Name: name, Parent: parent})
}

func (c *Client) DeleteEntity(id scene.EntityID) error {
	return c.Send(server.Action{Action: "delete", Entity: id})
}

func (c *Client) RenameEntity(id scene.EntityID, name string) error {
	return c.Send(server.Action{Action: "rename", Entity: id, Name: name})
}

func (c *Client) SetProperty(id scene.EntityID, component, property string, v scene.Value) error {
	return c.Send(server.Action{Action: "setProperty", Entity: id, Component: component, Property: property, Value: &v})
}

func (c *Client) Select(id scene.EntityID, mode selection.Mode) error {
	return c.Send(server.Action{Action: "select", Entity: id, Mode: mode.String()})
}

func (c *Client) Undo() error { return c.Send(server.Action{Action: "undo"}) }
func (c *Client) Redo() error { return c.Send(server.Action{Action: "redo"}) }

// Save asks the server to write the scene; an empty path reuses the
// scene's current file.
func (c *Client) Save(path string) error {
	return c.Send(server.Action{Action: "save", Path: path})
}

// OnFrame registers a handler for one event name; "*" receives every frame.
func (c *Client) OnFrame(event string, handler FrameHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.frameHandlers[event] = append(c.frameHandlers[event], handler)
}

// OnEvent registers an event handler for a specific event type
func (c *Client) OnEvent(eventType EventType, handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.eventHandlers[eventType] = append(c.eventHandlers[eventType], handler)
}

func (c *Client) messageReceiver() {
	defer close(c.done)

	var cause error
	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if !c.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("Connection lost", log.Error(err))
				cause = err
			}
			break
		}
		c.handleFrame(f)
	}

	c.connected.Store(false)
	_ = c.conn.Close()
	c.emitEvent(Event{Type: EventTypeDisconnected, Timestamp: time.Now(), Error: cause})
}

func (c *Client) handleFrame(f Frame) {
	c.handlerMutex.RLock()
	handlers := append(append([]FrameHandler(nil), c.frameHandlers[f.Event]...), c.frameHandlers["*"]...)
	c.handlerMutex.RUnlock()

	for _, h := range handlers {
		if err := h(f); err != nil {
			c.logger.Error("Frame handler error", log.String("event", f.Event), log.Error(err))
		}
	}
}

func (c *Client) emitEvent(event Event) {
	c.handlerMutex.RLock()
	handlers := c.eventHandlers[event.Type]
	c.handlerMutex.RUnlock()

	for _, h := range handlers {
		if err := h(event); err != nil {
			c.logger.Error("Event handler error", log.Error(err))
		}
	}
}

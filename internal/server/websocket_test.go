package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenestore/internal/core/scene"
	"github.com/zeusync/scenestore/internal/core/store"
	"github.com/zeusync/scenestore/internal/persist"
	"github.com/zeusync/scenestore/internal/scenefile"
)

type rawFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	st := store.New(nil, nil, store.WithTemplate(scene.TemplateEmpty))
	srv := New(st, nil, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until one with the given event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) rawFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f rawFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == event {
			return f
		}
	}
}

func TestWebSocketSnapshotOnConnect(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())
	srv.Do(func(st *store.Store) { st.CreateEntity("Player", scene.NoEntity) })

	conn := dial(t, ts, "")
	f := readUntil(t, conn, "scene.snapshot")
	var snap struct {
		Scene    scene.Scene    `json:"scene"`
		Metadata store.Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &snap))
	require.Len(t, snap.Scene.Entities, 1)
	assert.Equal(t, "Player", snap.Scene.Entities[0].Name)
	assert.Equal(t, uint64(1), snap.Metadata.SceneVersion)
}

func TestWebSocketActionsAndEvents(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())
	conn := dial(t, ts, "")
	readUntil(t, conn, "scene.snapshot")

	require.NoError(t, conn.WriteJSON(Action{Action: "create", Name: "Player"}))
	f := readUntil(t, conn, "entity.lifecycle")
	var lc struct {
		Entity scene.EntityID `json:"entity"`
		Type   string         `json:"type"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &lc))
	assert.Equal(t, "created", lc.Type)
	readUntil(t, conn, "scene.changed")

	v := scene.Number(1)
	require.NoError(t, conn.WriteJSON(Action{Action: "addComponent", Entity: lc.Entity, Component: "Sprite",
		Data: scene.Properties{"opacity": v}}))
	readUntil(t, conn, "entity.component")

	half := scene.Number(0.5)
	require.NoError(t, conn.WriteJSON(Action{Action: "setProperty", Entity: lc.Entity, Component: "Sprite",
		Property: "opacity", Value: &half}))
	readUntil(t, conn, "entity.property")

	require.NoError(t, conn.WriteJSON(Action{Action: "undo"}))
	readUntil(t, conn, "entity.property")

	srv.Do(func(st *store.Store) {
		got, err := st.GetProperty(lc.Entity, "Sprite", "opacity")
		require.NoError(t, err)
		assert.True(t, got.Equal(scene.Number(1)))
		assert.Equal(t, "Set Sprite.opacity", st.RedoLabel())
	})
}

func TestWebSocketErrorsGoToSender(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())
	conn := dial(t, ts, "")
	readUntil(t, conn, "scene.snapshot")

	require.NoError(t, conn.WriteJSON(Action{Action: "rename", Entity: 42, Name: "x"}))
	f := readUntil(t, conn, "error")
	var e errorData
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Equal(t, "rename", e.Action)
	assert.Contains(t, e.Message, "not found")

	require.NoError(t, conn.WriteJSON(Action{Action: "explode"}))
	f = readUntil(t, conn, "error")
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Contains(t, e.Message, ErrUnknownAction.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	f = readUntil(t, conn, "error")
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Equal(t, ErrInvalidMessage.Error(), e.Message)
}

func TestWebSocketSelectionAndSave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SaveDir = t.TempDir()
	srv, ts := newTestServer(t, cfg)
	var a, b scene.EntityID
	srv.Do(func(st *store.Store) {
		a = st.CreateEntity("a", scene.NoEntity)
		b = st.CreateEntity("b", scene.NoEntity)
	})
	conn := dial(t, ts, "")
	readUntil(t, conn, "scene.snapshot")

	require.NoError(t, conn.WriteJSON(Action{Action: "selectRange", Entity: b, To: a}))
	f := readUntil(t, conn, "selection.changed")
	var sel struct {
		IDs []scene.EntityID `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &sel))
	assert.Equal(t, []scene.EntityID{a, b}, sel.IDs)

	require.NoError(t, conn.WriteJSON(Action{Action: "save"}))
	f = readUntil(t, conn, "error")
	assert.Contains(t, string(f.Data), persist.ErrNoFilePath.Error())

	path := filepath.Join(cfg.SaveDir, "level.yaml")
	require.NoError(t, conn.WriteJSON(Action{Action: "save", Path: path}))
	readUntil(t, conn, "scene.changed")

	saved, err := scenefile.Load(path)
	require.NoError(t, err)
	assert.Len(t, saved.Entities, 2)
	srv.Do(func(st *store.Store) {
		m := st.Metadata()
		assert.False(t, m.IsDirty)
		assert.Equal(t, path, m.FilePath)
	})
}

func TestWebSocketRequiresToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token = "supersecrettoken"
	_, ts := newTestServer(t, cfg)
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, _, err = websocket.DefaultDialer.Dial(u+"?token=invalid", nil)
	assert.Error(t, err)

	conn := dial(t, ts, "?token=supersecrettoken")
	readUntil(t, conn, "scene.snapshot")
}

func TestSceneEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())
	srv.Do(func(st *store.Store) { st.CreateEntity("Player", scene.NoEntity) })

	resp, err := http.Get(ts.URL + "/scene")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Scene-Version"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var got scene.Scene
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got.Entities, 1)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/scene", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)

	srv.Do(func(st *store.Store) { st.CreateEntity("Enemy", scene.NoEntity) })
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
	assert.NotEqual(t, etag, resp3.Header.Get("ETag"))
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlowClientDropsFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClientBuffer = 1
	srv := New(store.New(nil, nil, store.WithTemplate(scene.TemplateEmpty)), nil, cfg)
	c := &client{id: "slow", send: make(chan []byte, 1)}
	srv.clients[c.id] = c

	srv.Do(func(st *store.Store) {
		for range 5 {
			st.CreateEntity("", scene.NoEntity)
		}
	})
	assert.Len(t, c.send, 1)
	srv.Close()
	assert.Zero(t, srv.Clients())
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionRateLimit = 1
	srv, ts := newTestServer(t, cfg)
	conn := dial(t, ts, "")
	readUntil(t, conn, "scene.snapshot")

	require.NoError(t, conn.WriteJSON(Action{Action: "create", Name: "a"}))
	require.NoError(t, conn.WriteJSON(Action{Action: "create", Name: "b"}))
	f := readUntil(t, conn, "error")
	var e errorData
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Equal(t, "create", e.Action)
	assert.Equal(t, ErrRateLimited.Error(), e.Message)

	srv.Do(func(st *store.Store) { assert.Len(t, st.Snapshot().Entities, 1) })
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenestore/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, log.LevelInfo, cfg.LogLevel())
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(`
log:
  level: debug
history:
  max_depth: 10
server:
  shutdown_timeout: 2s
`))
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Equal(t, 10, cfg.History.MaxDepth)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.ListenAddr)
	assert.Equal(t, "Untitled", cfg.Scene.DefaultName)
}

func TestLoadYAMLEmptyInput(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadYAMLRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "history:\n  depth: 3\n",
		"bad level":      "log:\n  level: loud\n",
		"bad encoding":   "log:\n  encoding: xml\n",
		"negative depth": "history:\n  max_depth: -1\n",
		"bad template":   "scene:\n  template: huge\n",
		"empty name":     "scene:\n  default_name: \"\"\n",
		"no listen addr": "server:\n  listen_addr: \"\"\n",
		"zero buffer":    "server:\n  client_buffer: 0\n",
		"malformed yaml": "log: [",
		"negative save":  "scene:\n  autosave_interval: -1s\n",
		"negative limit": "server:\n  action_rate_limit: -1\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestDisabledServerSkipsServerChecks(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader("server:\n  enabled: false\n  listen_addr: \"\"\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Server.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editord.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scene:\n  template: empty\n"), 0o600))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "empty", cfg.Scene.Template)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

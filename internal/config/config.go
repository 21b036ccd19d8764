// Package config holds the settings of the editor daemon.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/scene"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	History HistoryConfig `json:"history" yaml:"history"`
	Scene   SceneConfig   `json:"scene" yaml:"scene"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

type HistoryConfig struct {
	// MaxDepth caps the undo stack; 0 keeps every step.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
}

type SceneConfig struct {
	DefaultName string `json:"default_name" yaml:"default_name"`
	Template    string `json:"template" yaml:"template"`
	// Path is loaded at startup when set.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// AutosaveInterval writes a dirty scene back to its file; 0 disables.
	AutosaveInterval time.Duration `json:"autosave_interval,omitempty" yaml:"autosave_interval,omitempty"`
}

type ServerConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// ClientBuffer is the number of frames queued per client before frames
	// are dropped.
	ClientBuffer    int           `json:"client_buffer" yaml:"client_buffer"`
	Token           string        `json:"token,omitempty" yaml:"token,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	// ActionRateLimit caps WebSocket actions per client per second; 0 is
	// unlimited.
	ActionRateLimit int `json:"action_rate_limit,omitempty" yaml:"action_rate_limit,omitempty"`
	// SaveDir bounds the paths remote panels may save to; empty limits them
	// to the scene's current file.
	SaveDir string `json:"save_dir,omitempty" yaml:"save_dir,omitempty"`
}

func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Encoding: "json"},
		History: HistoryConfig{MaxDepth: 200},
		Scene:   SceneConfig{DefaultName: "Untitled", Template: string(scene.TemplateDefault)},
		Server: ServerConfig{
			Enabled:         true,
			ListenAddr:      "127.0.0.1:7777",
			ClientBuffer:    256,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.encoding must be json or console, got %q", ErrInvalidConfig, c.Log.Encoding)
	}
	if c.History.MaxDepth < 0 {
		return fmt.Errorf("%w: history.max_depth must not be negative", ErrInvalidConfig)
	}
	if c.Scene.DefaultName == "" {
		return fmt.Errorf("%w: scene.default_name is required", ErrInvalidConfig)
	}
	if c.Scene.AutosaveInterval < 0 {
		return fmt.Errorf("%w: scene.autosave_interval must not be negative", ErrInvalidConfig)
	}
	switch scene.Template(c.Scene.Template) {
	case scene.TemplateDefault, scene.TemplateEmpty:
	default:
		return fmt.Errorf("%w: scene.template must be default or empty, got %q", ErrInvalidConfig, c.Scene.Template)
	}
	if c.Server.Enabled {
		if c.Server.ListenAddr == "" {
			return fmt.Errorf("%w: server.listen_addr is required", ErrInvalidConfig)
		}
		if c.Server.ClientBuffer <= 0 {
			return fmt.Errorf("%w: server.client_buffer must be positive", ErrInvalidConfig)
		}
		if c.Server.ActionRateLimit < 0 {
			return fmt.Errorf("%w: server.action_rate_limit must not be negative", ErrInvalidConfig)
		}
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.Level {
	lvl, _ := log.ParseLevel(c.Log.Level)
	return lvl
}

// LoadYAML decodes a configuration on top of Default and validates it.
func LoadYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}

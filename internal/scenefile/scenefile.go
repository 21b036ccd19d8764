// Package scenefile reads and writes scenes as JSON or YAML documents.
package scenefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenestore/internal/core/scene"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown scene file format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

func Decode(r io.Reader, format Format) (scene.Scene, error) {
	var s scene.Scene
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return scene.Scene{}, fmt.Errorf("decode scene: %w", err)
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return scene.Scene{}, fmt.Errorf("decode scene: %w", err)
		}
	default:
		return scene.Scene{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return s, nil
}

func Encode(w io.Writer, s scene.Scene, format Format) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode scene: %w", err)
		}
		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode scene: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Load reads a scene file in the format implied by its extension.
func Load(path string) (scene.Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return scene.Scene{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return scene.Scene{}, err
	}
	defer f.Close()
	return Decode(f, format)
}

// Save writes s next to path and renames it into place so a failed write
// never truncates an existing file.
func Save(path string, s scene.Scene) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err = Encode(tmp, s, format); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

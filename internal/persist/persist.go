// Package persist writes the store's scene back to disk, on request or
// periodically.
package persist

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/store"
	"github.com/zeusync/scenestore/internal/scenefile"
)

var ErrNoFilePath = errors.New("scene has no file path")

// Save writes the scene to path, or to the store's file path when path is
// empty, and marks the store saved.
func Save(st *store.Store, path string) error {
	if path == "" {
		path = st.Metadata().FilePath
	}
	if path == "" {
		return ErrNoFilePath
	}
	if err := scenefile.Save(path, st.Snapshot()); err != nil {
		return err
	}
	st.MarkSaved(path)
	return nil
}

// SaveIfDirty saves only a dirty scene that already has a file path.
func SaveIfDirty(st *store.Store) (bool, error) {
	m := st.Metadata()
	if !m.IsDirty || m.FilePath == "" {
		return false, nil
	}
	if err := Save(st, m.FilePath); err != nil {
		return false, err
	}
	return true, nil
}

// Autosaver periodically calls SaveIfDirty. Do serializes store access with
// whatever else uses the store.
type Autosaver struct {
	Interval time.Duration
	Do       func(func(*store.Store))
	Logger   log.Log
}

// Run blocks until ctx is done. A failed save is logged and retried on the
// next tick.
func (a *Autosaver) Run(ctx context.Context) error {
	logger := a.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "autosave"))

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		var (
			saved bool
			err   error
			path  string
		)
		a.Do(func(st *store.Store) {
			saved, err = SaveIfDirty(st)
			path = st.Metadata().FilePath
		})
		switch {
		case err != nil:
			logger.Error("autosave failed", log.String("path", path), log.Error(err))
		case saved:
			logger.Info("scene autosaved", log.String("path", path))
		}
	}
}

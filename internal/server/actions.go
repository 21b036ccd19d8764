package server

import (
	"fmt"
	"path/filepath"

	"github.com/zeusync/scenestore/internal/core/scene"
	"github.com/zeusync/scenestore/internal/core/selection"
	"github.com/zeusync/scenestore/internal/core/store"
	"github.com/zeusync/scenestore/internal/persist"
)

// Action is one client-to-server WebSocket message. Which fields matter
// depends on the action name.
type Action struct {
	Action    string           `json:"action"`
	Entity    scene.EntityID   `json:"entity,omitempty"`
	To        scene.EntityID   `json:"to,omitempty"`
	Parent    scene.EntityID   `json:"parent,omitempty"`
	IDs       []scene.EntityID `json:"ids,omitempty"`
	Name      string           `json:"name,omitempty"`
	Component string           `json:"component,omitempty"`
	Property  string           `json:"property,omitempty"`
	Value     *scene.Value     `json:"value,omitempty"`
	Before    *scene.Value     `json:"before,omitempty"`
	Direct    bool             `json:"direct,omitempty"`
	Data      scene.Properties `json:"data,omitempty"`
	Mode      string           `json:"mode,omitempty"`
	Path      string           `json:"path,omitempty"`
}

func (s *Server) apply(a Action) error {
	var err error
	s.Do(func(st *store.Store) { err = s.dispatch(st, a) })
	return err
}

func (s *Server) dispatch(st *store.Store, a Action) error {
	switch a.Action {
	case "create":
		st.CreateEntity(a.Name, a.Parent)
		return nil
	case "delete":
		return st.DeleteEntity(a.Entity)
	case "deleteSelection":
		return st.DeleteSelectedEntities()
	case "duplicate":
		_, err := st.DuplicateEntity(a.Entity)
		return err
	case "rename":
		return st.RenameEntity(a.Entity, a.Name)
	case "reparent":
		return st.ReparentEntity(a.Entity, a.Parent)
	case "addComponent":
		return st.AddComponent(a.Entity, a.Component, a.Data)
	case "removeComponent":
		return st.RemoveComponent(a.Entity, a.Component)
	case "setProperty":
		if a.Value == nil {
			return fmt.Errorf("%w: setProperty needs a value", ErrInvalidMessage)
		}
		switch {
		case a.Direct:
			return st.UpdatePropertyDirect(a.Entity, a.Component, a.Property, *a.Value)
		case a.Before != nil:
			return st.CommitProperty(a.Entity, a.Component, a.Property, *a.Before, *a.Value)
		default:
			return st.UpdateProperty(a.Entity, a.Component, a.Property, *a.Value)
		}
	case "select":
		if a.IDs != nil {
			st.SelectEntities(a.IDs)
			return nil
		}
		return st.SelectEntity(a.Entity, selection.ParseMode(a.Mode))
	case "selectRange":
		return st.SelectRange(a.Entity, a.To)
	case "undo":
		st.Undo()
		return nil
	case "redo":
		st.Redo()
		return nil
	case "toggleVisibility":
		return st.ToggleVisibility(a.Entity)
	case "focus":
		return st.FocusEntity(a.Entity)
	case "save":
		path, err := s.savePath(st, a.Path)
		if err != nil {
			return err
		}
		return persist.Save(st, path)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Action)
	}
}

// savePath resolves where a client may save. An empty path or the scene's
// own file is always allowed; anything else must land inside SaveDir, with
// relative paths taken from there. Without a SaveDir only the scene's own
// file can be written.
func (s *Server) savePath(st *store.Store, path string) (string, error) {
	current := st.Metadata().FilePath
	if path == "" || path == current {
		return path, nil
	}
	if s.cfg.SaveDir == "" {
		return "", fmt.Errorf("%w: %s", ErrPathNotAllowed, path)
	}
	dir, err := filepath.Abs(s.cfg.SaveDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathNotAllowed, path)
	}
	return filepath.Join(dir, rel), nil
}

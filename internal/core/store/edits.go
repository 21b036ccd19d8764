package store

import (
	"github.com/zeusync/scenestore/internal/core/events"
	"github.com/zeusync/scenestore/internal/core/history"
	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/scene"
)

// CreateEntity adds an entity under parent, or as a root when parent does
// not resolve, and returns its id.
func (s *Store) CreateEntity(name string, parent scene.EntityID) scene.EntityID {
	cmd := history.NewCreateEntity(name, parent)
	if err := s.execute(cmd); err != nil {
		s.logger.Error("create entity", log.Error(err))
		return scene.NoEntity
	}
	return cmd.ID()
}

// DeleteEntity removes id and its descendants as one undo step.
func (s *Store) DeleteEntity(id scene.EntityID) error {
	return s.execute(history.NewDeleteEntity(id))
}

// DeleteSelectedEntities deletes every selected entity, with descendants, as
// one undo step and leaves the selection empty.
func (s *Store) DeleteSelectedEntities() error {
	if s.selection.Len() == 0 {
		return ErrNothingSelected
	}
	return s.execute(history.NewCompoundDelete(s.selection.IDs()))
}

// DuplicateEntity copies id and its descendants next to the original and
// returns the id of the copy.
func (s *Store) DuplicateEntity(id scene.EntityID) (scene.EntityID, error) {
	cmd := history.NewDuplicate(id)
	if err := s.execute(cmd); err != nil {
		return scene.NoEntity, err
	}
	return cmd.ID(), nil
}

func (s *Store) RenameEntity(id scene.EntityID, name string) error {
	return s.execute(history.NewRename(id, name))
}

// ReparentEntity moves id under newParent; NoEntity makes it a root. Moving
// an entity to the parent it already has is a no-op.
func (s *Store) ReparentEntity(id, newParent scene.EntityID) error {
	parent, _, err := s.graph.Position(id)
	if err != nil {
		return err
	}
	if parent == newParent {
		return nil
	}
	return s.execute(history.NewReparent(id, newParent))
}

// AddComponent attaches a component, replacing one of the same type.
func (s *Store) AddComponent(id scene.EntityID, typ string, data scene.Properties) error {
	return s.execute(history.NewAddComponent(id, typ, data))
}

func (s *Store) RemoveComponent(id scene.EntityID, typ string) error {
	return s.execute(history.NewRemoveComponent(id, typ))
}

// UpdateProperty writes value as an undoable step whose old value is the
// one currently stored. Writing the stored value again is a no-op.
func (s *Store) UpdateProperty(id scene.EntityID, typ, prop string, value scene.Value) error {
	current, err := s.graph.GetProperty(id, typ, prop)
	if err != nil {
		return err
	}
	if current.Equal(value) {
		return nil
	}
	return s.CommitProperty(id, typ, prop, current, value)
}

// CommitProperty records a property edit with caller-supplied old and new
// values. It closes an interaction that previewed values through
// UpdatePropertyDirect: undo returns to before, not to the last preview.
func (s *Store) CommitProperty(id scene.EntityID, typ, prop string, before, after scene.Value) error {
	cmd, err := history.NewSetProperty(id, typ, prop, before, after)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// UpdateProperties writes several properties of one component as a single
// undoable step. Either all values are written or none. Values equal to the
// stored ones are skipped; if nothing changes no step is recorded.
func (s *Store) UpdateProperties(id scene.EntityID, typ string, values []scene.PropertyValue) error {
	var before, after []scene.PropertyValue
	for _, pv := range values {
		cur, err := s.graph.GetProperty(id, typ, pv.Name)
		if err != nil {
			return err
		}
		if cur.Equal(pv.Value) {
			continue
		}
		before = append(before, scene.PropertyValue{Name: pv.Name, Value: cur})
		after = append(after, pv)
	}
	if len(after) == 0 {
		return nil
	}
	cmd, err := history.NewSetProperties(id, typ, before, after)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// UpdatePropertyDirect writes value without creating an undo step. It is
// meant for live previews such as slider drags.
func (s *Store) UpdatePropertyDirect(id scene.EntityID, typ, prop string, value scene.Value) error {
	if err := s.graph.SetProperty(id, typ, prop, value); err != nil {
		return err
	}
	s.bump()
	s.publish(
		events.New(events.PropertyChanged{Entity: id, Component: typ, Property: prop}),
		s.changedEvent(),
	)
	return nil
}

// ToggleVisibility flips the entity's visibility. It is a view change and
// does not create an undo step.
func (s *Store) ToggleVisibility(id scene.EntityID) error {
	rec, ok := s.graph.GetEntity(id)
	if !ok {
		return scene.ErrEntityNotFound
	}
	if err := s.graph.SetVisible(id, !rec.Visible); err != nil {
		return err
	}
	s.bump()
	s.publish(
		events.New(events.VisibilityChanged{Entity: id, Visible: !rec.Visible}),
		s.changedEvent(),
	)
	return nil
}

// FocusEntity asks views to frame id. Nothing in the scene changes.
func (s *Store) FocusEntity(id scene.EntityID) error {
	if !s.graph.Exists(id) {
		return scene.ErrEntityNotFound
	}
	s.publish(events.New(events.FocusRequested{Entity: id}))
	return nil
}

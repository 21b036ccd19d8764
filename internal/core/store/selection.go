package store

import (
	"github.com/zeusync/scenestore/internal/core/scene"
	"github.com/zeusync/scenestore/internal/core/selection"
)

// SelectEntity changes the selection according to mode. Replace with
// NoEntity clears it. Selecting an entity clears the asset selection.
func (s *Store) SelectEntity(id scene.EntityID, mode selection.Mode) error {
	if id != scene.NoEntity && !s.graph.Exists(id) {
		return scene.ErrEntityNotFound
	}
	s.afterSelect(s.selection.Select(id, mode))
	return nil
}

// SelectRange selects every entity between a and b, inclusive, in hierarchy
// order. Either may come first.
func (s *Store) SelectRange(a, b scene.EntityID) error {
	if !s.graph.Exists(a) || !s.graph.Exists(b) {
		return scene.ErrEntityNotFound
	}
	s.afterSelect(s.selection.SelectRange(a, b, s.graph.HierarchyOrder()))
	return nil
}

// SelectEntities replaces the selection with ids. Duplicates collapse and
// ids that do not resolve are dropped.
func (s *Store) SelectEntities(ids []scene.EntityID) {
	s.afterSelect(s.selection.SelectAll(ids, s.graph.Exists))
}

func (s *Store) ClearSelection() {
	s.afterSelect(s.selection.Clear())
}

func (s *Store) afterSelect(changed bool) {
	if s.selection.Len() > 0 && s.meta.SelectedAsset != nil {
		s.meta.SelectedAsset = nil
		changed = true
	}
	if changed {
		s.publish(s.selectionEvent(), s.changedEvent())
	}
}

// SelectAsset records an asset pick and clears the entity selection.
func (s *Store) SelectAsset(ref AssetRef) {
	s.selection.Clear()
	s.meta.SelectedAsset = &ref
	s.publish(s.selectionEvent(), s.changedEvent())
}

// ClearAssetSelection forgets the selected asset.
func (s *Store) ClearAssetSelection() {
	if s.meta.SelectedAsset == nil {
		return
	}
	s.meta.SelectedAsset = nil
	s.publish(s.selectionEvent(), s.changedEvent())
}

// SelectedAsset returns the asset pick, if any.
func (s *Store) SelectedAsset() (AssetRef, bool) {
	if s.meta.SelectedAsset == nil {
		return AssetRef{}, false
	}
	return *s.meta.SelectedAsset, true
}

// SelectedEntity returns the selected id only when exactly one entity is
// selected.
func (s *Store) SelectedEntity() (scene.EntityID, bool) { return s.selection.Single() }

// SelectedEntities returns the selection in the order entities were added.
func (s *Store) SelectedEntities() []scene.EntityID { return s.selection.IDs() }

func (s *Store) IsSelected(id scene.EntityID) bool { return s.selection.Contains(id) }

// GetSelectedEntityData resolves SelectedEntity.
func (s *Store) GetSelectedEntityData() (scene.EntityRecord, bool) {
	id, ok := s.selection.Single()
	if !ok {
		return scene.EntityRecord{}, false
	}
	return s.graph.GetEntity(id)
}

// GetSelectedEntitiesData resolves every selected id, skipping any that no
// longer exist.
func (s *Store) GetSelectedEntitiesData() []scene.EntityRecord {
	ids := s.selection.IDs()
	out := make([]scene.EntityRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.graph.GetEntity(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

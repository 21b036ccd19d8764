package store

import "github.com/zeusync/scenestore/internal/core/scene"

// GetEntityData returns a copy of the entity record.
func (s *Store) GetEntityData(id scene.EntityID) (scene.EntityRecord, bool) {
	return s.graph.GetEntity(id)
}

func (s *Store) GetComponent(id scene.EntityID, typ string) (scene.ComponentRecord, bool) {
	return s.graph.GetComponent(id, typ)
}

func (s *Store) GetProperty(id scene.EntityID, typ, prop string) (scene.Value, error) {
	return s.graph.GetProperty(id, typ, prop)
}

// ForEachEntity visits copies of all entities in scene order until fn
// returns false.
func (s *Store) ForEachEntity(fn func(scene.EntityRecord) bool) { s.graph.ForEachEntity(fn) }

func (s *Store) IsVisible(id scene.EntityID) bool            { return s.graph.IsVisible(id) }
func (s *Store) Exists(id scene.EntityID) bool               { return s.graph.Exists(id) }
func (s *Store) Children(id scene.EntityID) []scene.EntityID { return s.graph.Children(id) }
func (s *Store) Roots() []scene.EntityID                     { return s.graph.Roots() }

// HierarchyOrder flattens the hierarchy depth-first, as a tree view shows it.
func (s *Store) HierarchyOrder() []scene.EntityID { return s.graph.HierarchyOrder() }

// Prefab queries. Prefab instances are not modelled yet, so every entity is
// an ordinary one and no prefab is being edited.

func (s *Store) IsPrefabInstance(scene.EntityID) bool      { return false }
func (s *Store) IsPrefabRoot(scene.EntityID) bool          { return false }
func (s *Store) GetPrefabInstanceID(scene.EntityID) string { return "" }
func (s *Store) GetPrefabPath(scene.EntityID) string       { return "" }
func (s *Store) IsEditingPrefab() bool                     { return false }
func (s *Store) PrefabEditingPath() string                 { return "" }

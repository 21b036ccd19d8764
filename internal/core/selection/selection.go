package selection

import (
	"slices"

	"github.com/zeusync/scenestore/internal/core/scene"
)

// Mode controls how a pick combines with the current selection.
type Mode uint8

const (
	Replace Mode = iota
	Add
	Toggle
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Add:
		return "add"
	case Toggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to a Mode; unknown names select Replace.
func ParseMode(s string) Mode {
	switch s {
	case "add":
		return Add
	case "toggle":
		return Toggle
	default:
		return Replace
	}
}

// Set is an ordered, duplicate-free set of entity ids kept in the order they
// were added. The zero value is an empty set.
type Set struct {
	ids []scene.EntityID
}

// Select applies id to the set according to mode. Replace with NoEntity
// clears the set. It reports whether the set changed.
func (s *Set) Select(id scene.EntityID, mode Mode) bool {
	switch mode {
	case Add:
		if id == scene.NoEntity || s.Contains(id) {
			return false
		}
		s.ids = append(s.ids, id)
		return true
	case Toggle:
		if id == scene.NoEntity {
			return false
		}
		if i := slices.Index(s.ids, id); i >= 0 {
			s.ids = slices.Delete(s.ids, i, i+1)
			return true
		}
		s.ids = append(s.ids, id)
		return true
	default:
		if id == scene.NoEntity {
			return s.Clear()
		}
		if len(s.ids) == 1 && s.ids[0] == id {
			return false
		}
		s.ids = append(s.ids[:0], id)
		return true
	}
}

// SelectRange replaces the set with the inclusive span between from and to
// in order. Either anchor may come first. If an anchor is not in order the
// set is left untouched and false is returned.
func (s *Set) SelectRange(from, to scene.EntityID, order []scene.EntityID) bool {
	i, j := slices.Index(order, from), slices.Index(order, to)
	if i < 0 || j < 0 {
		return false
	}
	if i > j {
		i, j = j, i
	}
	return s.replace(order[i : j+1])
}

// SelectAll replaces the set with ids, collapsing duplicates and dropping
// ids for which exists reports false.
func (s *Set) SelectAll(ids []scene.EntityID, exists func(scene.EntityID) bool) bool {
	next := make([]scene.EntityID, 0, len(ids))
	for _, id := range ids {
		if id == scene.NoEntity || slices.Contains(next, id) {
			continue
		}
		if exists != nil && !exists(id) {
			continue
		}
		next = append(next, id)
	}
	return s.replace(next)
}

func (s *Set) replace(ids []scene.EntityID) bool {
	if slices.Equal(s.ids, ids) {
		return false
	}
	s.ids = append(s.ids[:0], ids...)
	return true
}

// Clear empties the set and reports whether anything was selected.
func (s *Set) Clear() bool {
	if len(s.ids) == 0 {
		return false
	}
	s.ids = s.ids[:0]
	return true
}

// Evict removes every given id and reports whether any was selected.
func (s *Set) Evict(ids ...scene.EntityID) bool {
	n := len(s.ids)
	s.ids = slices.DeleteFunc(s.ids, func(id scene.EntityID) bool {
		return slices.Contains(ids, id)
	})
	return len(s.ids) != n
}

// Retain drops every id for which keep reports false.
func (s *Set) Retain(keep func(scene.EntityID) bool) bool {
	n := len(s.ids)
	s.ids = slices.DeleteFunc(s.ids, func(id scene.EntityID) bool { return !keep(id) })
	return len(s.ids) != n
}

func (s *Set) Contains(id scene.EntityID) bool { return slices.Contains(s.ids, id) }
func (s *Set) Len() int                        { return len(s.ids) }

// IDs returns a copy of the selection in add order.
func (s *Set) IDs() []scene.EntityID { return slices.Clone(s.ids) }

// Single returns the selected id when exactly one entity is selected.
func (s *Set) Single() (scene.EntityID, bool) {
	if len(s.ids) != 1 {
		return scene.NoEntity, false
	}
	return s.ids[0], true
}

// First returns the earliest selected id still in the set.
func (s *Set) First() (scene.EntityID, bool) {
	if len(s.ids) == 0 {
		return scene.NoEntity, false
	}
	return s.ids[0], true
}

// Package events defines the typed notification channels published by the
// scene store and helpers to subscribe to them without type assertions.
package events

import (
	"github.com/zeusync/scenestore/internal/core/events/bus"
	"github.com/zeusync/scenestore/internal/core/scene"
)

// Channel names.
const (
	TypeChanged           = "scene.changed"
	TypePropertyChanged   = "entity.property"
	TypeHierarchyChanged  = "entity.hierarchy"
	TypeLifecycle         = "entity.lifecycle"
	TypeComponentChanged  = "entity.component"
	TypeVisibilityChanged = "entity.visibility"
	TypeFocusRequested    = "entity.focus"
	TypeSelectionChanged  = "selection.changed"
)

// Source is the Event.Source of everything the store publishes.
const Source = "store"

// Changed fires after any change of store state.
type Changed struct {
	Version uint64 `json:"version"`
}

// PropertyChanged reports a property write. Renames are reported with an
// empty Component and Property "name".
type PropertyChanged struct {
	Entity    scene.EntityID `json:"entity"`
	Component string         `json:"component"`
	Property  string         `json:"property"`
}

type HierarchyChanged struct {
	Entity    scene.EntityID `json:"entity"`
	NewParent scene.EntityID `json:"newParent"`
}

type LifecycleType string

const (
	Created LifecycleType = "created"
	Deleted LifecycleType = "deleted"
)

type Lifecycle struct {
	Entity scene.EntityID `json:"entity"`
	Type   LifecycleType  `json:"type"`
}

type ComponentAction string

const (
	Added   ComponentAction = "added"
	Removed ComponentAction = "removed"
)

type ComponentChanged struct {
	Entity    scene.EntityID  `json:"entity"`
	Component string          `json:"component"`
	Action    ComponentAction `json:"action"`
}

type VisibilityChanged struct {
	Entity  scene.EntityID `json:"entity"`
	Visible bool           `json:"visible"`
}

type FocusRequested struct {
	Entity scene.EntityID `json:"entity"`
}

// AssetRef identifies an asset picked in an asset browser. It is opaque to
// the store.
type AssetRef struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

type SelectionChanged struct {
	IDs   []scene.EntityID `json:"ids"`
	Asset *AssetRef        `json:"asset,omitempty"`
}

// Payload is the set of notification types.
type Payload interface {
	Changed | PropertyChanged | HierarchyChanged | Lifecycle | ComponentChanged |
		VisibilityChanged | FocusRequested | SelectionChanged
}

// TypeOf returns the channel a payload is published on.
func TypeOf(p any) string {
	switch p.(type) {
	case Changed:
		return TypeChanged
	case PropertyChanged:
		return TypePropertyChanged
	case HierarchyChanged:
		return TypeHierarchyChanged
	case Lifecycle:
		return TypeLifecycle
	case ComponentChanged:
		return TypeComponentChanged
	case VisibilityChanged:
		return TypeVisibilityChanged
	case FocusRequested:
		return TypeFocusRequested
	case SelectionChanged:
		return TypeSelectionChanged
	default:
		return ""
	}
}

// Channels lists every channel name in a stable order.
func Channels() []string {
	return []string{
		TypeChanged,
		TypePropertyChanged,
		TypeHierarchyChanged,
		TypeLifecycle,
		TypeComponentChanged,
		TypeVisibilityChanged,
		TypeFocusRequested,
		TypeSelectionChanged,
	}
}

// New wraps a payload in a bus event on its channel.
func New[T Payload](p T) bus.Event {
	return bus.NewEvent(TypeOf(p), Source, p)
}

// Subscribe registers fn for the channel of T. Events on that channel whose
// data is not a T are ignored.
func Subscribe[T Payload](b bus.EventBus, fn func(T)) (bus.Subscription, error) {
	var zero T
	return b.Subscribe(TypeOf(zero), func(e bus.Event) error {
		if p, ok := e.Data().(T); ok {
			fn(p)
		}
		return nil
	})
}

package history

import "github.com/zeusync/scenestore/internal/core/scene"

// EffectKind identifies one primitive scene change.
type EffectKind uint8

const (
	EffectCreated EffectKind = iota + 1
	EffectDeleted
	EffectRenamed
	EffectReparented
	EffectComponentAdded
	EffectComponentRemoved
	EffectPropertyChanged
)

func (k EffectKind) String() string {
	switch k {
	case EffectCreated:
		return "created"
	case EffectDeleted:
		return "deleted"
	case EffectRenamed:
		return "renamed"
	case EffectReparented:
		return "reparented"
	case EffectComponentAdded:
		return "component_added"
	case EffectComponentRemoved:
		return "component_removed"
	case EffectPropertyChanged:
		return "property_changed"
	default:
		return "unknown"
	}
}

// Effect records what a command did to the graph so the caller can publish
// notifications and fix up dependent state.
type Effect struct {
	Kind      EffectKind
	Entity    scene.EntityID
	Parent    scene.EntityID
	Component string
	Property  string
}

// Effects is the ordered list of changes produced by one apply or revert.
type Effects []Effect

// Deleted returns the ids removed by these effects, in removal order.
func (e Effects) Deleted() []scene.EntityID {
	var ids []scene.EntityID
	for _, eff := range e {
		if eff.Kind == EffectDeleted {
			ids = append(ids, eff.Entity)
		}
	}
	return ids
}

func created(ids ...scene.EntityID) Effects {
	out := make(Effects, len(ids))
	for i, id := range ids {
		out[i] = Effect{Kind: EffectCreated, Entity: id}
	}
	return out
}

func deleted(ids ...scene.EntityID) Effects {
	out := make(Effects, len(ids))
	for i, id := range ids {
		out[i] = Effect{Kind: EffectDeleted, Entity: id}
	}
	return out
}

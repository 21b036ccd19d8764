package history

import (
	"fmt"
	"slices"

	"github.com/zeusync/scenestore/internal/core/scene"
)

// Command is a reversible scene edit. The set of commands is closed: only
// the types in this package implement it.
type Command interface {
	// Label is a short human readable description, e.g. for an Undo menu.
	Label() string

	apply(g *scene.Graph) (Effects, error)
	revert(g *scene.Graph) (Effects, error)
}

// CreateEntity adds one entity. Redo restores the same id.
type CreateEntity struct {
	name   string
	parent scene.EntityID
	id     scene.EntityID
	undone *scene.Subtree
}

func NewCreateEntity(name string, parent scene.EntityID) *CreateEntity {
	return &CreateEntity{name: name, parent: parent}
}

// ID returns the entity id once the command has been applied.
func (c *CreateEntity) ID() scene.EntityID { return c.id }

func (c *CreateEntity) Label() string {
	if c.name == "" {
		return "Create Entity"
	}
	return "Create " + c.name
}

func (c *CreateEntity) apply(g *scene.Graph) (Effects, error) {
	if c.undone != nil {
		if err := g.RestoreSubtree(*c.undone); err != nil {
			return nil, err
		}
		ids := c.undone.IDs()
		c.undone = nil
		return created(ids...), nil
	}
	c.id = g.CreateEntity(c.name, c.parent)
	return created(c.id), nil
}

func (c *CreateEntity) revert(g *scene.Graph) (Effects, error) {
	st, err := g.DeleteEntity(c.id)
	if err != nil {
		return nil, err
	}
	c.undone = &st
	return deleted(st.IDs()...), nil
}

// DeleteEntity removes an entity together with its descendants.
type DeleteEntity struct {
	id      scene.EntityID
	name    string
	removed scene.Subtree
}

func NewDeleteEntity(id scene.EntityID) *DeleteEntity {
	return &DeleteEntity{id: id}
}

func (c *DeleteEntity) Label() string {
	if c.name == "" {
		return "Delete Entity"
	}
	return "Delete " + c.name
}

func (c *DeleteEntity) apply(g *scene.Graph) (Effects, error) {
	st, err := g.DeleteEntity(c.id)
	if err != nil {
		return nil, err
	}
	c.removed = st
	c.name = st.Records[0].Name
	return deleted(st.IDs()...), nil
}

func (c *DeleteEntity) revert(g *scene.Graph) (Effects, error) {
	if err := g.RestoreSubtree(c.removed); err != nil {
		return nil, err
	}
	return created(c.removed.IDs()...), nil
}

// CompoundDelete removes several entities as one undo step. Ids that are
// already gone by the time their turn comes (descendants of an earlier id)
// are skipped.
type CompoundDelete struct {
	ids     []scene.EntityID
	removed []scene.Subtree
}

func NewCompoundDelete(ids []scene.EntityID) *CompoundDelete {
	return &CompoundDelete{ids: slices.Clone(ids)}
}

func (c *CompoundDelete) Label() string {
	if len(c.ids) == 1 {
		return "Delete Entity"
	}
	return fmt.Sprintf("Delete %d Entities", len(c.ids))
}

func (c *CompoundDelete) apply(g *scene.Graph) (Effects, error) {
	c.removed = c.removed[:0]
	var effects Effects
	for _, id := range c.ids {
		if !g.Exists(id) {
			continue
		}
		st, err := g.DeleteEntity(id)
		if err != nil {
			return nil, err
		}
		c.removed = append(c.removed, st)
		effects = append(effects, deleted(st.IDs()...)...)
	}
	if len(c.removed) == 0 {
		return nil, scene.ErrEntityNotFound
	}
	return effects, nil
}

func (c *CompoundDelete) revert(g *scene.Graph) (Effects, error) {
	var effects Effects
	for i := len(c.removed) - 1; i >= 0; i-- {
		if err := g.RestoreSubtree(c.removed[i]); err != nil {
			return nil, err
		}
		effects = append(effects, created(c.removed[i].IDs()...)...)
	}
	return effects, nil
}

// Rename changes an entity's name.
type Rename struct {
	id       scene.EntityID
	from, to string
}

func NewRename(id scene.EntityID, name string) *Rename {
	return &Rename{id: id, to: name}
}

func (c *Rename) Label() string { return "Rename to " + c.to }

func (c *Rename) apply(g *scene.Graph) (Effects, error) {
	rec, ok := g.GetEntity(c.id)
	if !ok {
		return nil, scene.ErrEntityNotFound
	}
	c.from = rec.Name
	if err := g.RenameEntity(c.id, c.to); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectRenamed, Entity: c.id}}, nil
}

func (c *Rename) revert(g *scene.Graph) (Effects, error) {
	if err := g.RenameEntity(c.id, c.from); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectRenamed, Entity: c.id}}, nil
}

// Reparent moves an entity in the hierarchy; revert puts it back in its old
// child slot.
type Reparent struct {
	id        scene.EntityID
	newParent scene.EntityID
	oldParent scene.EntityID
	oldSlot   int
}

func NewReparent(id, newParent scene.EntityID) *Reparent {
	return &Reparent{id: id, newParent: newParent}
}

func (c *Reparent) Label() string { return "Reparent" }

func (c *Reparent) apply(g *scene.Graph) (Effects, error) {
	parent, slot, err := g.Position(c.id)
	if err != nil {
		return nil, err
	}
	if !g.Exists(parent) {
		parent, slot = scene.NoEntity, -1
	}
	if err = g.ReparentEntity(c.id, c.newParent); err != nil {
		return nil, err
	}
	c.oldParent, c.oldSlot = parent, slot
	return Effects{{Kind: EffectReparented, Entity: c.id, Parent: c.newParent}}, nil
}

func (c *Reparent) revert(g *scene.Graph) (Effects, error) {
	if err := g.MoveEntity(c.id, c.oldParent, c.oldSlot); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectReparented, Entity: c.id, Parent: c.oldParent}}, nil
}

// AddComponent attaches a component; revert restores whatever component of
// that type was there before, if any.
type AddComponent struct {
	id       scene.EntityID
	typ      string
	data     scene.Properties
	previous *scene.ComponentRecord
}

func NewAddComponent(id scene.EntityID, typ string, data scene.Properties) *AddComponent {
	return &AddComponent{id: id, typ: typ, data: data.Clone()}
}

func (c *AddComponent) Label() string { return "Add " + c.typ }

func (c *AddComponent) apply(g *scene.Graph) (Effects, error) {
	c.previous = nil
	if prev, ok := g.GetComponent(c.id, c.typ); ok {
		c.previous = &prev
	}
	if err := g.AddComponent(c.id, c.typ, c.data); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectComponentAdded, Entity: c.id, Component: c.typ}}, nil
}

func (c *AddComponent) revert(g *scene.Graph) (Effects, error) {
	if c.previous != nil {
		if err := g.AddComponent(c.id, c.typ, c.previous.Data); err != nil {
			return nil, err
		}
		return Effects{{Kind: EffectComponentAdded, Entity: c.id, Component: c.typ}}, nil
	}
	if err := g.RemoveComponent(c.id, c.typ); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectComponentRemoved, Entity: c.id, Component: c.typ}}, nil
}

// RemoveComponent detaches a component, keeping its data for revert.
type RemoveComponent struct {
	id      scene.EntityID
	typ     string
	removed scene.ComponentRecord
}

func NewRemoveComponent(id scene.EntityID, typ string) *RemoveComponent {
	return &RemoveComponent{id: id, typ: typ}
}

func (c *RemoveComponent) Label() string { return "Remove " + c.typ }

func (c *RemoveComponent) apply(g *scene.Graph) (Effects, error) {
	if !g.Exists(c.id) {
		return nil, scene.ErrEntityNotFound
	}
	comp, ok := g.GetComponent(c.id, c.typ)
	if !ok {
		return nil, scene.ErrComponentNotFound
	}
	if err := g.RemoveComponent(c.id, c.typ); err != nil {
		return nil, err
	}
	c.removed = comp
	return Effects{{Kind: EffectComponentRemoved, Entity: c.id, Component: c.typ}}, nil
}

func (c *RemoveComponent) revert(g *scene.Graph) (Effects, error) {
	if err := g.AddComponent(c.id, c.typ, c.removed.Data); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectComponentAdded, Entity: c.id, Component: c.typ}}, nil
}

// SetProperty writes one property. The old value is the one supplied by the
// caller, so an edit previewed through direct writes still reverts to the
// value it started from.
type SetProperty struct {
	id     scene.EntityID
	typ    string
	prop   string
	before scene.Value
	after  scene.Value
}

func NewSetProperty(id scene.EntityID, typ, prop string, before, after scene.Value) (*SetProperty, error) {
	if before.Kind() != after.Kind() {
		return nil, fmt.Errorf("%w: old value is %s, new value is %s", scene.ErrTypeMismatch, before.Kind(), after.Kind())
	}
	return &SetProperty{id: id, typ: typ, prop: prop, before: before, after: after}, nil
}

func (c *SetProperty) Label() string { return "Set " + c.typ + "." + c.prop }

func (c *SetProperty) apply(g *scene.Graph) (Effects, error) {
	return c.write(g, c.after)
}

func (c *SetProperty) revert(g *scene.Graph) (Effects, error) {
	return c.write(g, c.before)
}

func (c *SetProperty) write(g *scene.Graph, v scene.Value) (Effects, error) {
	if err := g.SetProperty(c.id, c.typ, c.prop, v); err != nil {
		return nil, err
	}
	return Effects{{Kind: EffectPropertyChanged, Entity: c.id, Component: c.typ, Property: c.prop}}, nil
}

// SetProperties writes several properties of one component atomically.
type SetProperties struct {
	id     scene.EntityID
	typ    string
	before []scene.PropertyValue
	after  []scene.PropertyValue
}

// NewSetProperties pairs old and new values by position; both lists must
// name the same properties with matching kinds.
func NewSetProperties(id scene.EntityID, typ string, before, after []scene.PropertyValue) (*SetProperties, error) {
	if len(before) != len(after) || len(after) == 0 {
		return nil, fmt.Errorf("%w: %d old values for %d new values", scene.ErrInvalidValue, len(before), len(after))
	}
	for i := range after {
		if before[i].Name != after[i].Name {
			return nil, fmt.Errorf("%w: property %q paired with %q", scene.ErrInvalidValue, before[i].Name, after[i].Name)
		}
		if before[i].Value.Kind() != after[i].Value.Kind() {
			return nil, fmt.Errorf("%w: %s.%s", scene.ErrTypeMismatch, typ, after[i].Name)
		}
	}
	return &SetProperties{id: id, typ: typ, before: slices.Clone(before), after: slices.Clone(after)}, nil
}

func (c *SetProperties) Label() string {
	return fmt.Sprintf("Set %d %s Properties", len(c.after), c.typ)
}

func (c *SetProperties) apply(g *scene.Graph) (Effects, error) {
	return c.write(g, c.after)
}

func (c *SetProperties) revert(g *scene.Graph) (Effects, error) {
	return c.write(g, c.before)
}

func (c *SetProperties) write(g *scene.Graph, values []scene.PropertyValue) (Effects, error) {
	if err := g.SetProperties(c.id, c.typ, values); err != nil {
		return nil, err
	}
	effects := make(Effects, len(values))
	for i, pv := range values {
		effects[i] = Effect{Kind: EffectPropertyChanged, Entity: c.id, Component: c.typ, Property: pv.Name}
	}
	return effects, nil
}

// Duplicate copies an entity and its descendants next to the original.
// Ref values pointing inside the copied subtree are remapped to the copies.
type Duplicate struct {
	source scene.EntityID
	root   scene.EntityID
	undone *scene.Subtree
}

func NewDuplicate(source scene.EntityID) *Duplicate {
	return &Duplicate{source: source}
}

// ID returns the id of the copied root once the command has been applied.
func (c *Duplicate) ID() scene.EntityID { return c.root }

func (c *Duplicate) Label() string { return "Duplicate" }

func (c *Duplicate) apply(g *scene.Graph) (Effects, error) {
	if c.undone != nil {
		if err := g.RestoreSubtree(*c.undone); err != nil {
			return nil, err
		}
		ids := c.undone.IDs()
		c.undone = nil
		return created(ids...), nil
	}

	src := g.SubtreeIDs(c.source)
	if len(src) == 0 {
		return nil, scene.ErrEntityNotFound
	}
	mapping := make(map[scene.EntityID]scene.EntityID, len(src))
	copies := make([]scene.EntityID, 0, len(src))
	for i, id := range src {
		rec, _ := g.GetEntity(id)
		name, parent := rec.Name, mapping[rec.Parent]
		if i == 0 {
			name, parent = rec.Name+" Copy", rec.Parent
		}
		dup := g.CreateEntity(name, parent)
		_ = g.SetVisible(dup, rec.Visible)
		mapping[id] = dup
		copies = append(copies, dup)
	}
	for _, id := range src {
		rec, _ := g.GetEntity(id)
		for typ, comp := range rec.Components {
			data := comp.Data.Clone()
			for name, v := range data {
				if target, ok := mapping[v.Entity()]; ok && v.Kind() == scene.KindRef {
					data[name] = scene.Ref(target)
				}
			}
			if err := g.AddComponent(mapping[id], typ, data); err != nil {
				return nil, err
			}
		}
	}
	c.root = copies[0]
	return created(copies...), nil
}

func (c *Duplicate) revert(g *scene.Graph) (Effects, error) {
	st, err := g.DeleteEntity(c.root)
	if err != nil {
		return nil, err
	}
	c.undone = &st
	return deleted(st.IDs()...), nil
}

package scene

import (
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Graph owns the entities of one scene. It is an arena keyed by EntityID
// plus the declared scene order; it has no notion of history.
//
// Graph is not safe for concurrent use.
type Graph struct {
	name    string
	records map[EntityID]*EntityRecord
	order   []EntityID
	nextID  EntityID
}

// PropertyValue is one entry of a batch property write.
type PropertyValue struct {
	Name  string
	Value Value
}

// Subtree is everything DeleteEntity removed: the records in parent-first
// order, their former scene-order positions and the root's former slot under
// its parent. RestoreSubtree puts it back verbatim.
type Subtree struct {
	Root      EntityID
	Parent    EntityID
	Slot      int
	Records   []EntityRecord
	Positions []int
}

// IDs returns the removed ids, parent first.
func (s Subtree) IDs() []EntityID {
	ids := make([]EntityID, len(s.Records))
	for i, r := range s.Records {
		ids[i] = r.ID
	}
	return ids
}

// NewGraph creates an empty scene graph.
func NewGraph(name string) *Graph {
	return &Graph{
		name:    name,
		records: make(map[EntityID]*EntityRecord),
		nextID:  1,
	}
}

// FromScene builds a graph from serialized data. Duplicate or zero ids and
// parent cycles are rejected; references to missing entities are kept and
// filtered on query. Parent links win over children lists.
func FromScene(s Scene) (*Graph, error) {
	g := NewGraph(s.Name)
	for _, rec := range s.Entities {
		if rec.ID == NoEntity {
			return nil, fmt.Errorf("%w: entity %q has no id", ErrInvalidScene, rec.Name)
		}
		if _, dup := g.records[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate entity id %d", ErrInvalidScene, rec.ID)
		}
		r := rec.Clone()
		g.records[r.ID] = &r
		g.order = append(g.order, r.ID)
		if r.ID >= g.nextID {
			g.nextID = r.ID + 1
		}
	}
	for _, id := range g.order {
		if g.hasParentCycle(id) {
			return nil, fmt.Errorf("%w: entity %d is its own ancestor", ErrInvalidScene, id)
		}
	}
	g.relink()
	return g, nil
}

// relink makes every children list agree with the parent links. A listed
// child whose parent is elsewhere is dropped, as is a repeated one; a child
// nobody lists is appended to its parent in scene order. Ids of missing
// entities stay listed.
func (g *Graph) relink() {
	listed := make(map[EntityID]struct{}, len(g.order))
	for _, id := range g.order {
		rec := g.records[id]
		rec.Children = slices.DeleteFunc(rec.Children, func(c EntityID) bool {
			child, ok := g.records[c]
			if !ok {
				return false
			}
			if _, dup := listed[c]; dup || child.Parent != id {
				return true
			}
			listed[c] = struct{}{}
			return false
		})
	}
	for _, id := range g.order {
		if _, ok := listed[id]; ok {
			continue
		}
		if p, ok := g.records[g.records[id].Parent]; ok {
			p.Children = append(p.Children, id)
		}
	}
}

func (g *Graph) hasParentCycle(id EntityID) bool {
	seen := map[EntityID]struct{}{id: {}}
	for cur := g.records[id].Parent; cur != NoEntity; {
		if _, ok := seen[cur]; ok {
			return true
		}
		seen[cur] = struct{}{}
		p, ok := g.records[cur]
		if !ok {
			return false
		}
		cur = p.Parent
	}
	return false
}

func (g *Graph) Len() int { return len(g.order) }

// Snapshot returns a deep copy of the graph as a plain Scene.
func (g *Graph) Snapshot() Scene {
	s := Scene{Name: g.name, Entities: make([]EntityRecord, 0, len(g.order))}
	for _, id := range g.order {
		s.Entities = append(s.Entities, g.records[id].Clone())
	}
	return s
}

// CreateEntity allocates a new entity. An empty name becomes "Entity_<id>".
// A parent that does not resolve is ignored and the entity becomes a root.
func (g *Graph) CreateEntity(name string, parent EntityID) EntityID {
	id := g.nextID
	g.nextID++
	if name == "" {
		name = "Entity_" + id.String()
	}
	rec := &EntityRecord{ID: id, Name: name, Visible: true}
	if p, ok := g.records[parent]; ok && parent != NoEntity {
		rec.Parent = parent
		p.Children = append(p.Children, id)
	}
	g.records[id] = rec
	g.order = append(g.order, id)
	return id
}

// DeleteEntity removes id and all of its descendants.
func (g *Graph) DeleteEntity(id EntityID) (Subtree, error) {
	rec, ok := g.records[id]
	if !ok {
		return Subtree{}, ErrEntityNotFound
	}

	st := Subtree{Root: id, Parent: rec.Parent, Slot: -1}
	if p, ok := g.records[rec.Parent]; ok {
		st.Slot = slices.Index(p.Children, id)
		if st.Slot >= 0 {
			p.Children = slices.Delete(p.Children, st.Slot, st.Slot+1)
		}
	}

	ids := g.preorder(id, nil)
	removed := make(map[EntityID]struct{}, len(ids))
	for _, cur := range ids {
		st.Records = append(st.Records, g.records[cur].Clone())
		st.Positions = append(st.Positions, slices.Index(g.order, cur))
		removed[cur] = struct{}{}
		delete(g.records, cur)
	}
	g.order = slices.DeleteFunc(g.order, func(cur EntityID) bool {
		_, gone := removed[cur]
		return gone
	})
	return st, nil
}

// RestoreSubtree reinserts a subtree returned by DeleteEntity at its former
// positions, keeping the original ids.
func (g *Graph) RestoreSubtree(st Subtree) error {
	if len(st.Records) == 0 || len(st.Records) != len(st.Positions) {
		return fmt.Errorf("%w: malformed subtree", ErrInvalidScene)
	}
	for _, rec := range st.Records {
		if _, exists := g.records[rec.ID]; exists {
			return fmt.Errorf("%w: entity %d already exists", ErrInvalidScene, rec.ID)
		}
	}

	idx := make([]int, len(st.Records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return st.Positions[idx[a]] < st.Positions[idx[b]] })
	for _, i := range idx {
		rec := st.Records[i].Clone()
		g.records[rec.ID] = &rec
		pos := st.Positions[i]
		if pos < 0 || pos > len(g.order) {
			pos = len(g.order)
		}
		g.order = slices.Insert(g.order, pos, rec.ID)
	}

	root := g.records[st.Root]
	if p, ok := g.records[st.Parent]; ok && st.Parent != NoEntity {
		root.Parent = st.Parent
		p.Children = insertAt(p.Children, st.Slot, st.Root)
	} else {
		root.Parent = NoEntity
	}
	return nil
}

// Position reports the entity's parent and its slot among the parent's
// children; roots report slot -1.
func (g *Graph) Position(id EntityID) (EntityID, int, error) {
	rec, ok := g.records[id]
	if !ok {
		return NoEntity, -1, ErrEntityNotFound
	}
	p, ok := g.records[rec.Parent]
	if !ok {
		return rec.Parent, -1, nil
	}
	return rec.Parent, slices.Index(p.Children, id), nil
}

// ReparentEntity moves id under newParent (NoEntity makes it a root),
// appending it to the new parent's children.
func (g *Graph) ReparentEntity(id, newParent EntityID) error {
	return g.MoveEntity(id, newParent, -1)
}

// MoveEntity moves id under parent at the given child slot; a negative or
// out-of-range slot appends.
func (g *Graph) MoveEntity(id, parent EntityID, slot int) error {
	rec, ok := g.records[id]
	if !ok {
		return ErrEntityNotFound
	}
	var np *EntityRecord
	if parent != NoEntity {
		if np, ok = g.records[parent]; !ok {
			return ErrEntityNotFound
		}
		if parent == id || g.IsDescendant(parent, id) {
			return ErrCycle
		}
	}

	if old, ok := g.records[rec.Parent]; ok {
		old.Children = slices.DeleteFunc(old.Children, func(c EntityID) bool { return c == id })
	}
	rec.Parent = parent
	if np != nil {
		np.Children = insertAt(np.Children, slot, id)
	}
	return nil
}

// IsDescendant reports whether id sits anywhere below ancestor.
func (g *Graph) IsDescendant(id, ancestor EntityID) bool {
	rec, ok := g.records[id]
	for steps := 0; ok && steps <= len(g.records); steps++ {
		if rec.Parent == NoEntity {
			return false
		}
		if rec.Parent == ancestor {
			return true
		}
		rec, ok = g.records[rec.Parent]
	}
	return false
}

func (g *Graph) RenameEntity(id EntityID, name string) error {
	rec, ok := g.records[id]
	if !ok {
		return ErrEntityNotFound
	}
	rec.Name = name
	return nil
}

func (g *Graph) SetVisible(id EntityID, visible bool) error {
	rec, ok := g.records[id]
	if !ok {
		return ErrEntityNotFound
	}
	rec.Visible = visible
	return nil
}

// AddComponent attaches a component, replacing one of the same type.
func (g *Graph) AddComponent(id EntityID, typ string, data Properties) error {
	rec, ok := g.records[id]
	if !ok {
		return ErrEntityNotFound
	}
	if typ == "" {
		return fmt.Errorf("%w: empty component type", ErrInvalidValue)
	}
	for name, v := range data {
		if !v.IsValid() {
			return fmt.Errorf("%w: property %q", ErrInvalidValue, name)
		}
	}
	if rec.Components == nil {
		rec.Components = make(map[string]ComponentRecord)
	}
	data = data.Clone()
	if data == nil {
		data = Properties{}
	}
	rec.Components[typ] = ComponentRecord{Type: typ, Data: data}
	return nil
}

func (g *Graph) RemoveComponent(id EntityID, typ string) error {
	rec, ok := g.records[id]
	if !ok {
		return ErrEntityNotFound
	}
	if _, ok = rec.Components[typ]; !ok {
		return ErrComponentNotFound
	}
	delete(rec.Components, typ)
	return nil
}

// SetProperty overwrites an existing property with a value of the same kind.
func (g *Graph) SetProperty(id EntityID, typ, prop string, v Value) error {
	return g.SetProperties(id, typ, []PropertyValue{{Name: prop, Value: v}})
}

// SetProperties writes all values or none of them.
func (g *Graph) SetProperties(id EntityID, typ string, values []PropertyValue) error {
	comp, err := g.component(id, typ)
	if err != nil {
		return err
	}
	for _, pv := range values {
		if !pv.Value.IsValid() {
			return fmt.Errorf("%w: %s.%s", ErrInvalidValue, typ, pv.Name)
		}
		cur, ok := comp.Data[pv.Name]
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, typ, pv.Name)
		}
		if cur.Kind() != pv.Value.Kind() {
			return fmt.Errorf("%w: %s.%s is %s, got %s", ErrTypeMismatch, typ, pv.Name, cur.Kind(), pv.Value.Kind())
		}
	}
	for _, pv := range values {
		comp.Data[pv.Name] = pv.Value
	}
	return nil
}

func (g *Graph) component(id EntityID, typ string) (ComponentRecord, error) {
	rec, ok := g.records[id]
	if !ok {
		return ComponentRecord{}, ErrEntityNotFound
	}
	comp, ok := rec.Components[typ]
	if !ok {
		return ComponentRecord{}, ErrComponentNotFound
	}
	return comp, nil
}

// GetProperty returns the committed value of one property.
func (g *Graph) GetProperty(id EntityID, typ, prop string) (Value, error) {
	comp, err := g.component(id, typ)
	if err != nil {
		return Value{}, err
	}
	v, ok := comp.Data[prop]
	if !ok {
		return Value{}, ErrPropertyNotFound
	}
	return v, nil
}

// GetEntity returns a copy of the entity record.
func (g *Graph) GetEntity(id EntityID) (EntityRecord, bool) {
	rec, ok := g.records[id]
	if !ok {
		return EntityRecord{}, false
	}
	return rec.Clone(), true
}

// GetComponent returns a copy of the component record.
func (g *Graph) GetComponent(id EntityID, typ string) (ComponentRecord, bool) {
	comp, err := g.component(id, typ)
	if err != nil {
		return ComponentRecord{}, false
	}
	return comp.Clone(), true
}

func (g *Graph) Exists(id EntityID) bool {
	_, ok := g.records[id]
	return ok
}

// IsVisible reports the entity's visibility; entities without a record of
// being hidden are visible.
func (g *Graph) IsVisible(id EntityID) bool {
	rec, ok := g.records[id]
	return !ok || rec.Visible
}

// ForEachEntity calls fn with a copy of every record in scene order until fn
// returns false.
func (g *Graph) ForEachEntity(fn func(EntityRecord) bool) {
	for rec := range g.All() {
		if !fn(rec) {
			return
		}
	}
}

// All iterates copies of every record in scene order.
func (g *Graph) All() iter.Seq[EntityRecord] {
	return func(yield func(EntityRecord) bool) {
		for _, id := range slices.Clone(g.order) {
			rec, ok := g.records[id]
			if !ok {
				continue
			}
			if !yield(rec.Clone()) {
				return
			}
		}
	}
}

// Children returns the live children of id; stale ids are dropped.
func (g *Graph) Children(id EntityID) []EntityID {
	rec, ok := g.records[id]
	if !ok {
		return nil
	}
	out := make([]EntityID, 0, len(rec.Children))
	for _, c := range rec.Children {
		if child, ok := g.records[c]; ok && child.Parent == id {
			out = append(out, c)
		}
	}
	return out
}

// Roots returns, in scene order, every entity whose parent does not resolve.
func (g *Graph) Roots() []EntityID {
	var out []EntityID
	for _, id := range g.order {
		if _, ok := g.records[g.records[id].Parent]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// HierarchyOrder flattens the forest depth-first: roots in scene order, each
// followed by its descendants in child order.
func (g *Graph) HierarchyOrder() []EntityID {
	out := make([]EntityID, 0, len(g.order))
	seen := make(map[EntityID]struct{}, len(g.order))
	for _, root := range g.Roots() {
		out = g.preorderSeen(root, out, seen)
	}
	return out
}

// SubtreeIDs returns id and its descendants, parent first.
func (g *Graph) SubtreeIDs(id EntityID) []EntityID {
	if !g.Exists(id) {
		return nil
	}
	return g.preorder(id, nil)
}

func (g *Graph) preorder(id EntityID, out []EntityID) []EntityID {
	return g.preorderSeen(id, out, make(map[EntityID]struct{}))
}

func (g *Graph) preorderSeen(id EntityID, out []EntityID, seen map[EntityID]struct{}) []EntityID {
	if _, ok := seen[id]; ok {
		return out
	}
	seen[id] = struct{}{}
	out = append(out, id)
	for _, c := range g.Children(id) {
		out = g.preorderSeen(c, out, seen)
	}
	return out
}

func insertAt(ids []EntityID, slot int, id EntityID) []EntityID {
	if slot < 0 || slot > len(ids) {
		return append(ids, id)
	}
	return slices.Insert(ids, slot, id)
}

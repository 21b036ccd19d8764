package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenestore/internal/core/scene"
)

func fingerprint(t *testing.T, g *scene.Graph) uint64 {
	t.Helper()
	fp, err := scene.Fingerprint(g.Snapshot())
	require.NoError(t, err)
	return fp
}

func mustExecute(t *testing.T, h *History, cmd Command) Effects {
	t.Helper()
	effects, err := h.Execute(cmd)
	require.NoError(t, err)
	return effects
}

func TestCreateUndoRedoKeepsID(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)

	cmd := NewCreateEntity("Player", scene.NoEntity)
	effects := mustExecute(t, h, cmd)
	id := cmd.ID()
	assert.Equal(t, Effects{{Kind: EffectCreated, Entity: id}}, effects)
	assert.True(t, g.Exists(id))

	effects, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, []scene.EntityID{id}, effects.Deleted())
	assert.False(t, g.Exists(id))

	_, err = h.Redo()
	require.NoError(t, err)
	rec, ok := g.GetEntity(id)
	require.True(t, ok)
	assert.Equal(t, "Player", rec.Name)
}

func TestExecuteClearsRedo(t *testing.T) {
	h := New(scene.NewGraph("test"), 0)
	mustExecute(t, h, NewCreateEntity("a", scene.NoEntity))
	_, err := h.Undo()
	require.NoError(t, err)
	assert.True(t, h.CanRedo())

	mustExecute(t, h, NewCreateEntity("b", scene.NoEntity))
	assert.False(t, h.CanRedo())
	assert.Equal(t, "Create b", h.UndoLabel())
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	h := New(scene.NewGraph("test"), 0)
	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.False(t, h.CanUndo())
	assert.Empty(t, h.UndoLabel())
}

func TestFailedCommandIsNotRecorded(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	a := g.CreateEntity("a", scene.NoEntity)
	b := g.CreateEntity("b", a)

	_, err := h.Execute(NewReparent(a, b))
	assert.ErrorIs(t, err, scene.ErrCycle)
	_, err = h.Execute(NewRename(99, "x"))
	assert.ErrorIs(t, err, scene.ErrEntityNotFound)
	_, err = h.Execute(NewRemoveComponent(a, "Sprite"))
	assert.ErrorIs(t, err, scene.ErrComponentNotFound)
	assert.False(t, h.CanUndo())
}

func TestUndoAllRestoresOriginalScene(t *testing.T) {
	g := scene.NewFromTemplate("test", scene.TemplateDefault)
	h := New(g, 0)
	before := fingerprint(t, g)

	create := NewCreateEntity("Player", scene.NoEntity)
	mustExecute(t, h, create)
	player := create.ID()

	setOpacity, err := NewSetProperty(player, "Sprite", "opacity", scene.Number(1), scene.Number(0.5))
	require.NoError(t, err)

	cmds := []Command{
		NewAddComponent(player, "Sprite", scene.Properties{"opacity": scene.Number(1)}),
		setOpacity,
		NewRename(player, "Hero"),
		NewReparent(player, 1),
		NewAddComponent(1, "Camera", scene.Properties{"fov": scene.Number(90)}),
		NewRemoveComponent(2, "Light"),
		NewDuplicate(1),
		NewDeleteEntity(2),
	}
	for _, cmd := range cmds {
		mustExecute(t, h, cmd)
	}
	after := fingerprint(t, g)
	assert.NotEqual(t, before, after)

	for h.CanUndo() {
		_, err = h.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, before, fingerprint(t, g))

	for h.CanRedo() {
		_, err = h.Redo()
		require.NoError(t, err)
	}
	assert.Equal(t, after, fingerprint(t, g))
}

func TestCompoundDeleteIsOneStep(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	parent := g.CreateEntity("parent", scene.NoEntity)
	child := g.CreateEntity("child", parent)
	other := g.CreateEntity("other", scene.NoEntity)
	require.NoError(t, g.AddComponent(other, "Sprite", scene.Properties{"opacity": scene.Number(1)}))
	before := fingerprint(t, g)

	effects := mustExecute(t, h, NewCompoundDelete([]scene.EntityID{child, parent, other}))
	assert.Equal(t, []scene.EntityID{child, parent, other}, effects.Deleted())
	assert.Zero(t, g.Len())

	undo, _ := h.Depth()
	assert.Equal(t, 1, undo)

	_, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, before, fingerprint(t, g))
	assert.False(t, h.CanUndo())
}

func TestCompoundDeleteSkipsDescendantsOfEarlierIDs(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	parent := g.CreateEntity("parent", scene.NoEntity)
	child := g.CreateEntity("child", parent)

	effects := mustExecute(t, h, NewCompoundDelete([]scene.EntityID{parent, child}))
	assert.Equal(t, []scene.EntityID{parent, child}, effects.Deleted())

	_, err := h.Execute(NewCompoundDelete([]scene.EntityID{parent}))
	assert.ErrorIs(t, err, scene.ErrEntityNotFound)
}

func TestSetPropertyUsesCallerSuppliedOldValue(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	e := g.CreateEntity("e", scene.NoEntity)
	require.NoError(t, g.AddComponent(e, "Sprite", scene.Properties{"opacity": scene.Number(1)}))

	// a live drag already wrote 0.7 directly
	require.NoError(t, g.SetProperty(e, "Sprite", "opacity", scene.Number(0.7)))

	cmd, err := NewSetProperty(e, "Sprite", "opacity", scene.Number(1), scene.Number(0.2))
	require.NoError(t, err)
	mustExecute(t, h, cmd)

	_, err = h.Undo()
	require.NoError(t, err)
	v, err := g.GetProperty(e, "Sprite", "opacity")
	require.NoError(t, err)
	assert.True(t, v.Equal(scene.Number(1)))

	_, err = NewSetProperty(e, "Sprite", "opacity", scene.Number(1), scene.String("x"))
	assert.ErrorIs(t, err, scene.ErrTypeMismatch)
}

func TestSetPropertiesBatch(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	e := g.CreateEntity("e", scene.NoEntity)
	require.NoError(t, g.AddComponent(e, "Transform", scene.Properties{
		"position": scene.Vec3(0, 0, 0),
		"scale":    scene.Vec3(1, 1, 1),
	}))

	before := []scene.PropertyValue{{Name: "position", Value: scene.Vec3(0, 0, 0)}, {Name: "scale", Value: scene.Vec3(1, 1, 1)}}
	after := []scene.PropertyValue{{Name: "position", Value: scene.Vec3(1, 2, 3)}, {Name: "scale", Value: scene.Vec3(2, 2, 2)}}
	cmd, err := NewSetProperties(e, "Transform", before, after)
	require.NoError(t, err)

	effects := mustExecute(t, h, cmd)
	assert.Len(t, effects, 2)
	assert.Equal(t, "Set 2 Transform Properties", h.UndoLabel())

	_, err = h.Undo()
	require.NoError(t, err)
	v, _ := g.GetProperty(e, "Transform", "scale")
	assert.True(t, v.Equal(scene.Vec3(1, 1, 1)))

	_, err = NewSetProperties(e, "Transform", before[:1], after)
	assert.ErrorIs(t, err, scene.ErrInvalidValue)
}

func TestAddComponentRevertRestoresReplaced(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	e := g.CreateEntity("e", scene.NoEntity)
	require.NoError(t, g.AddComponent(e, "Sprite", scene.Properties{"opacity": scene.Number(1)}))

	mustExecute(t, h, NewAddComponent(e, "Sprite", scene.Properties{"path": scene.String("a.png")}))
	effects, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, EffectComponentAdded, effects[0].Kind)

	comp, ok := g.GetComponent(e, "Sprite")
	require.True(t, ok)
	assert.Contains(t, comp.Data, "opacity")
	assert.NotContains(t, comp.Data, "path")
}

func TestReparentRevertRestoresSlot(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	p := g.CreateEntity("p", scene.NoEntity)
	a := g.CreateEntity("a", p)
	b := g.CreateEntity("b", p)
	q := g.CreateEntity("q", scene.NoEntity)

	effects := mustExecute(t, h, NewReparent(a, q))
	assert.Equal(t, Effects{{Kind: EffectReparented, Entity: a, Parent: q}}, effects)

	effects, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, Effects{{Kind: EffectReparented, Entity: a, Parent: p}}, effects)
	assert.Equal(t, []scene.EntityID{a, b}, g.Children(p))
}

func TestDuplicateRemapsInternalRefs(t *testing.T) {
	g := scene.NewGraph("test")
	h := New(g, 0)
	root := g.CreateEntity("Rig", scene.NoEntity)
	bone := g.CreateEntity("Bone", root)
	outside := g.CreateEntity("Target", scene.NoEntity)
	require.NoError(t, g.AddComponent(root, "Rig", scene.Properties{
		"bone":   scene.Ref(bone),
		"target": scene.Ref(outside),
	}))

	cmd := NewDuplicate(root)
	effects := mustExecute(t, h, cmd)
	require.Len(t, effects, 2)

	copyRoot := cmd.ID()
	rec, ok := g.GetEntity(copyRoot)
	require.True(t, ok)
	assert.Equal(t, "Rig Copy", rec.Name)
	require.Len(t, rec.Children, 1)

	comp, _ := g.GetComponent(copyRoot, "Rig")
	assert.Equal(t, rec.Children[0], comp.Data["bone"].Entity())
	assert.Equal(t, outside, comp.Data["target"].Entity())

	_, err := h.Undo()
	require.NoError(t, err)
	assert.False(t, g.Exists(copyRoot))
	_, err = h.Redo()
	require.NoError(t, err)
	assert.True(t, g.Exists(copyRoot))
}

func TestMaxDepthDropsOldest(t *testing.T) {
	h := New(scene.NewGraph("test"), 2)
	for _, name := range []string{"a", "b", "c"} {
		mustExecute(t, h, NewCreateEntity(name, scene.NoEntity))
	}
	undo, _ := h.Depth()
	assert.Equal(t, 2, undo)

	_, _ = h.Undo()
	_, _ = h.Undo()
	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, 1, h.Graph().Len())
}

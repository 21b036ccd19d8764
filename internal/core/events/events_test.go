package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenestore/internal/core/events/bus"
)

func TestTypedSubscribe(t *testing.T) {
	b := bus.New()
	var got []PropertyChanged
	sub, err := Subscribe(b, func(p PropertyChanged) { got = append(got, p) })
	require.NoError(t, err)
	assert.Equal(t, TypePropertyChanged, sub.EventType())

	require.NoError(t, b.Publish(New(PropertyChanged{Entity: 3, Component: "Sprite", Property: "opacity"})))
	require.NoError(t, b.Publish(New(Changed{Version: 1})))
	require.NoError(t, b.Publish(bus.NewEvent(TypePropertyChanged, "other", "not a payload")))

	assert.Equal(t, []PropertyChanged{{Entity: 3, Component: "Sprite", Property: "opacity"}}, got)
}

func TestEveryPayloadHasAChannel(t *testing.T) {
	payloads := []any{
		Changed{}, PropertyChanged{}, HierarchyChanged{}, Lifecycle{},
		ComponentChanged{}, VisibilityChanged{}, FocusRequested{}, SelectionChanged{},
	}
	var names []string
	for _, p := range payloads {
		names = append(names, TypeOf(p))
	}
	assert.Equal(t, Channels(), names)
	assert.Empty(t, TypeOf(42))
}

func TestEventSource(t *testing.T) {
	e := New(FocusRequested{Entity: 7})
	assert.Equal(t, TypeFocusRequested, e.Type())
	assert.Equal(t, Source, e.Source())
	assert.Equal(t, FocusRequested{Entity: 7}, e.Data())
}

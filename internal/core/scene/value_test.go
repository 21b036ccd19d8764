package scene

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValueEquality(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(String("1")))
	assert.False(t, Vec2(1, 2).Equal(Vec3(1, 2, 0)))
	assert.True(t, Ref(4).Equal(Ref(4)))
	assert.False(t, Value{}.IsValid())
	assert.Equal(t, "(1, 2, 3)", Vec3(1, 2, 3).String())
}

func TestValueJSON(t *testing.T) {
	values := []Value{
		Number(0.5), String("hero"), Bool(true), Vec2(1, 2),
		Vec3(1, 2, 3), Color(1, 0, 0, 1), Ref(12),
	}
	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)

			var out Value
			require.NoError(t, json.Unmarshal(data, &out))
			assert.True(t, v.Equal(out), "got %s from %s", out, data)
		})
	}

	data, err := json.Marshal(Number(2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"number","value":2}`, string(data))

	_, err = json.Marshal(Value{})
	assert.Error(t, err)
}

func TestValueRejectsMalformed(t *testing.T) {
	cases := []string{
		`{"type":"nope","value":1}`,
		`{"type":"number","value":"x"}`,
		`{"type":"vec3","value":[1,2]}`,
		`{"type":"ref","value":-1}`,
	}
	for _, c := range cases {
		var v Value
		assert.ErrorIs(t, json.Unmarshal([]byte(c), &v), ErrInvalidValue, c)
	}
}

func TestValueRejectsNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	for _, v := range []Value{Number(nan), Number(-inf), Vec2(0, nan), Vec3(inf, 0, 0), Color(1, 1, 1, nan)} {
		assert.False(t, v.IsValid(), v.String())
	}
	assert.True(t, Vec3(1, 2, 3).IsValid())

	for _, doc := range []string{"type: number\nvalue: .nan\n", "type: vec2\nvalue: [1, .inf]\n"} {
		var v Value
		assert.ErrorIs(t, yaml.Unmarshal([]byte(doc), &v), ErrInvalidValue, doc)
	}
}

func TestSceneYAMLRoundTrip(t *testing.T) {
	g := NewFromTemplate("Level", TemplateDefault)
	child := g.CreateEntity("Player", 1)
	require.NoError(t, g.AddComponent(child, "Sprite", Properties{
		"opacity": Number(0.75),
		"target":  Ref(2),
	}))
	require.NoError(t, g.SetVisible(child, false))
	snap := g.Snapshot()

	data, err := yaml.Marshal(snap)
	require.NoError(t, err)

	var out Scene
	require.NoError(t, yaml.Unmarshal(data, &out))

	want, err := Fingerprint(snap)
	require.NoError(t, err)
	got, err := Fingerprint(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEntityVisibleDefaultsToTrue(t *testing.T) {
	var rec EntityRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"a"}`), &rec))
	assert.True(t, rec.Visible)

	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"a","visible":false}`), &rec))
	assert.False(t, rec.Visible)

	require.NoError(t, yaml.Unmarshal([]byte("id: 3\nname: a\n"), &rec))
	assert.True(t, rec.Visible)
}

package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind identifies which member of the Value union is set.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNumber
	KindString
	KindBool
	KindVec2
	KindVec3
	KindColor
	KindRef
)

var kindNames = map[Kind]string{
	KindNumber: "number",
	KindString: "string",
	KindBool:   "bool",
	KindVec2:   "vec2",
	KindVec3:   "vec3",
	KindColor:  "color",
	KindRef:    "ref",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindInvalid, false
}

// Value is a component property value. The zero Value is invalid.
type Value struct {
	kind Kind
	num  float64
	str  string
	vec  [4]float64
	ref  EntityID
	flag bool
}

func Number(v float64) Value { return Value{kind: KindNumber, num: v} }
func String(v string) Value  { return Value{kind: KindString, str: v} }
func Bool(v bool) Value      { return Value{kind: KindBool, flag: v} }
func Ref(id EntityID) Value  { return Value{kind: KindRef, ref: id} }

func Vec2(x, y float64) Value {
	return Value{kind: KindVec2, vec: [4]float64{x, y}}
}

func Vec3(x, y, z float64) Value {
	return Value{kind: KindVec3, vec: [4]float64{x, y, z}}
}

func Color(r, g, b, a float64) Value {
	return Value{kind: KindColor, vec: [4]float64{r, g, b, a}}
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) Float() float64   { return v.num }
func (v Value) Str() string      { return v.str }
func (v Value) Truth() bool      { return v.flag }
func (v Value) Entity() EntityID { return v.ref }

// IsValid reports whether v is set and all of its numbers are finite.
func (v Value) IsValid() bool {
	switch v.kind {
	case KindInvalid:
		return false
	case KindNumber:
		return finite(v.num)
	case KindVec2, KindVec3, KindColor:
		for _, f := range v.vec {
			if !finite(f) {
				return false
			}
		}
	}
	return true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Components returns the vector or color components; unused slots are zero.
func (v Value) Components() [4]float64 { return v.vec }

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.flag == o.flag
	case KindVec2, KindVec3, KindColor:
		return v.vec == o.vec
	case KindRef:
		return v.ref == o.ref
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindVec2:
		return fmt.Sprintf("(%g, %g)", v.vec[0], v.vec[1])
	case KindVec3:
		return fmt.Sprintf("(%g, %g, %g)", v.vec[0], v.vec[1], v.vec[2])
	case KindColor:
		return fmt.Sprintf("rgba(%g, %g, %g, %g)", v.vec[0], v.vec[1], v.vec[2], v.vec[3])
	case KindRef:
		return "#" + strconv.FormatUint(uint64(v.ref), 10)
	default:
		return "<invalid>"
	}
}

// valueDoc is the wire form shared by the JSON and YAML codecs.
type valueDoc struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

func (v Value) doc() (valueDoc, error) {
	d := valueDoc{Type: v.kind.String()}
	switch v.kind {
	case KindNumber:
		d.Value = v.num
	case KindString:
		d.Value = v.str
	case KindBool:
		d.Value = v.flag
	case KindVec2:
		d.Value = []float64{v.vec[0], v.vec[1]}
	case KindVec3:
		d.Value = []float64{v.vec[0], v.vec[1], v.vec[2]}
	case KindColor:
		d.Value = []float64{v.vec[0], v.vec[1], v.vec[2], v.vec[3]}
	case KindRef:
		d.Value = uint64(v.ref)
	default:
		return d, ErrInvalidValue
	}
	return d, nil
}

func fromDoc(d valueDoc) (Value, error) {
	kind, ok := parseKind(d.Type)
	if !ok {
		return Value{}, fmt.Errorf("%w: unknown type %q", ErrInvalidValue, d.Type)
	}
	switch kind {
	case KindNumber:
		f, ok := toFloat(d.Value)
		if !ok {
			return Value{}, fmt.Errorf("%w: number expected", ErrInvalidValue)
		}
		return Number(f), nil
	case KindString:
		s, ok := d.Value.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: string expected", ErrInvalidValue)
		}
		return String(s), nil
	case KindBool:
		b, ok := d.Value.(bool)
		if !ok {
			return Value{}, fmt.Errorf("%w: bool expected", ErrInvalidValue)
		}
		return Bool(b), nil
	case KindRef:
		f, ok := toFloat(d.Value)
		if !ok || f < 0 || f != math.Trunc(f) {
			return Value{}, fmt.Errorf("%w: entity id expected", ErrInvalidValue)
		}
		return Ref(EntityID(f)), nil
	}

	want := map[Kind]int{KindVec2: 2, KindVec3: 3, KindColor: 4}[kind]
	items, ok := d.Value.([]any)
	if !ok || len(items) != want {
		return Value{}, fmt.Errorf("%w: %s needs %d components", ErrInvalidValue, kind, want)
	}
	out := Value{kind: kind}
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s component %d is not a number", ErrInvalidValue, kind, i)
		}
		out.vec[i] = f
	}
	return out, nil
}

// toFloat accepts any decoded finite number.
func toFloat(v any) (float64, bool) {
	f, ok := anyFloat(v)
	return f, ok && finite(f)
}

func anyFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	d, err := v.doc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var d valueDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	out, err := fromDoc(d)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.doc()
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var d valueDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	out, err := fromDoc(d)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

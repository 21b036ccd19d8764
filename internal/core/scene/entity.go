package scene

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EntityID is an opaque entity handle. Ids are allocated in increasing order
// and never reused within a session.
type EntityID uint64

// NoEntity is the "no entity" sentinel.
const NoEntity EntityID = 0

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Properties is a component's property bag.
type Properties map[string]Value

func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// ComponentRecord is a typed bag of properties attached to an entity.
type ComponentRecord struct {
	Type string     `json:"type" yaml:"type"`
	Data Properties `json:"data" yaml:"data"`
}

func (c ComponentRecord) Clone() ComponentRecord {
	return ComponentRecord{Type: c.Type, Data: c.Data.Clone()}
}

// EntityRecord is one node of the scene graph.
type EntityRecord struct {
	ID         EntityID                   `json:"id" yaml:"id"`
	Name       string                     `json:"name" yaml:"name"`
	Parent     EntityID                   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children   []EntityID                 `json:"children,omitempty" yaml:"children,omitempty"`
	Components map[string]ComponentRecord `json:"components,omitempty" yaml:"components,omitempty"`
	Visible    bool                       `json:"visible" yaml:"visible"`
}

// Clone returns a deep copy of the record.
func (e EntityRecord) Clone() EntityRecord {
	out := e
	out.Children = slices.Clone(e.Children)
	if e.Components != nil {
		out.Components = make(map[string]ComponentRecord, len(e.Components))
		for typ, c := range e.Components {
			out.Components[typ] = c.Clone()
		}
	}
	return out
}

// HasComponent reports whether a component of the given type is attached.
func (e EntityRecord) HasComponent(typ string) bool {
	_, ok := e.Components[typ]
	return ok
}

// entityDoc mirrors EntityRecord with an optional visibility flag so that a
// missing key decodes as visible.
type entityDoc struct {
	ID         EntityID                   `json:"id" yaml:"id"`
	Name       string                     `json:"name" yaml:"name"`
	Parent     EntityID                   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children   []EntityID                 `json:"children,omitempty" yaml:"children,omitempty"`
	Components map[string]ComponentRecord `json:"components,omitempty" yaml:"components,omitempty"`
	Visible    *bool                      `json:"visible,omitempty" yaml:"visible,omitempty"`
}

func (d entityDoc) record() EntityRecord {
	visible := d.Visible == nil || *d.Visible
	return EntityRecord{
		ID:         d.ID,
		Name:       d.Name,
		Parent:     d.Parent,
		Children:   d.Children,
		Components: d.Components,
		Visible:    visible,
	}
}

func (e *EntityRecord) UnmarshalJSON(data []byte) error {
	var d entityDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*e = d.record()
	return nil
}

func (e *EntityRecord) UnmarshalYAML(node *yaml.Node) error {
	var d entityDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	*e = d.record()
	return nil
}

// Scene is the plain, serializable form of a scene graph.
type Scene struct {
	Name     string         `json:"name" yaml:"name"`
	Entities []EntityRecord `json:"entities" yaml:"entities"`
}

func (s Scene) Clone() Scene {
	out := Scene{Name: s.Name, Entities: make([]EntityRecord, len(s.Entities))}
	for i, e := range s.Entities {
		out.Entities[i] = e.Clone()
	}
	return out
}

package scene

// Template selects how a new scene is populated.
type Template string

const (
	TemplateDefault Template = "default"
	TemplateEmpty   Template = "empty"
)

// NewFromTemplate builds a fresh graph for the template. Unknown templates
// fall back to the default one.
func NewFromTemplate(name string, tpl Template) *Graph {
	g := NewGraph(name)
	if tpl == TemplateEmpty {
		return g
	}

	camera := g.CreateEntity("Main Camera", NoEntity)
	_ = g.AddComponent(camera, "Transform", transform(0, 1, -10))
	_ = g.AddComponent(camera, "Camera", Properties{
		"fov":  Number(60),
		"near": Number(0.1),
		"far":  Number(1000),
	})

	light := g.CreateEntity("Directional Light", NoEntity)
	_ = g.AddComponent(light, "Transform", transform(0, 3, 0))
	_ = g.AddComponent(light, "Light", Properties{
		"kind":      String("directional"),
		"color":     Color(1, 0.956, 0.839, 1),
		"intensity": Number(1),
	})
	return g
}

func transform(x, y, z float64) Properties {
	return Properties{
		"position": Vec3(x, y, z),
		"rotation": Vec3(0, 0, 0),
		"scale":    Vec3(1, 1, 1),
	}
}

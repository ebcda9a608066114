package material

import (
	"fmt"
	"sort"
	"strings"
)

// Property curves below come from published correlations for each material,
// fitted over the temperature ranges the solver runs in.

// SS304L austenitic stainless steel.
func SS304L() *Material {
	melting := 1673.0
	return &Material{
		name:         "SS304L",
		meltingPoint: melting,
		density:      8050,
		conductivity: func(temp float64) float64 {
			if temp < melting {
				return (0.08116 + 0.0001618*temp) * 100
			}
			return (0.1229 + 3.279e-5*temp) * 100
		},
		specificHeat: func(temp float64) float64 {
			return (0.1122 + 3.222e-5*temp) * 4.184 * 1000
		},
	}
}

// CuCrZr copper alloy, properties near constant over the working range.
func CuCrZr() *Material {
	return &Material{
		name:         "CuCrZr",
		meltingPoint: 1293,
		density:      8750,
		conductivity: func(temp float64) float64 { return 353 },
		specificHeat: func(temp float64) float64 { return 400 },
	}
}

// JetA1 aviation kerosene (liquid phase).
func JetA1() *Material {
	return &Material{
		name:    "JetA1",
		density: 805,
		conductivity: func(temp float64) float64 {
			return -0.0002*temp + 0.1553
		},
		specificHeat: func(temp float64) float64 {
			return (0.0036*temp + 0.8225) * 1000
		},
	}
}

// Registry maps material names to presets. Lookup is case-insensitive.
type Registry struct {
	byName map[string]*Material
}

// NewRegistry returns a registry holding the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Material)}
	r.Register(SS304L())
	r.Register(CuCrZr())
	r.Register(JetA1())
	return r
}

// Register adds or replaces a material under its own name.
func (r *Registry) Register(m *Material) {
	r.byName[strings.ToLower(m.name)] = m
}

// Lookup resolves a material by name. An unknown name is a configuration
// error and names the known materials in the message.
func (r *Registry) Lookup(name string) (*Material, error) {
	m, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("material: unknown material %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return m, nil
}

// Names lists registered material names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, m := range r.byName {
		names = append(names, m.name)
	}
	sort.Strings(names)
	return names
}

package config

import (
	"sort"

	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/integrators"
	"github.com/san-kum/deformsim/internal/shape"
)

var soft = element.Params{MassDensity: 1000, YoungModulus: 1e5, PoissonRatio: 0.3}

// Presets are built on demand so callers may modify what they get.
var Presets = map[string]map[string]func() *Config{
	MassSpring: {
		"chain": func() *Config { return chain(10, nil) },
		"coupled": func() *Config {
			return chain(10, &CouplerConfig{Node: 9, Stiffness: 50, Damping: 1, Target: [3]float64{0.9, 0.3, 0}})
		},
		"lattice": func() *Config {
			return scene("lattice", BodyConfig{
				Name: "lattice", Type: MassSpring,
				Material: element.Params{Stiffness: 400, Damping: 0.5},
				Geometry: &GeometryConfig{
					Shape: shape.Spec{Shape: shape.NewBox(0.4, 0.4, 0.4)}, Resolution: [3]int{2, 2, 2},
					Element: "spring", TotalMass: 1,
				},
				Fix: []string{"y-"},
			})
		},
	},
	Fem1D: {
		"rod": func() *Config {
			m := element.Params{MassDensity: 7800, YoungModulus: 2e9, PoissonRatio: 0.3}
			return scene("rod", BodyConfig{
				Name: "rod", Type: Fem1D, RayleighMass: 0.5,
				Material: m,
				Geometry: &GeometryConfig{
					Shape:      shape.Spec{Shape: shape.NewCylinder(1, 0.02)},
					Resolution: [3]int{0, 8, 0}, Element: "beam",
				},
				Transform: &TransformConfig{Axis: [3]float64{0, 0, 1}, AngleDeg: -90},
				Fix:       []string{"x-"},
			})
		},
	},
	Fem2D: {
		"membrane": func() *Config {
			m := soft
			m.Thickness = 0.01
			return scene("membrane", BodyConfig{
				Name: "membrane", Type: Fem2D, RayleighMass: 1,
				Material: m,
				Geometry: &GeometryConfig{
					Shape: shape.Spec{Shape: shape.NewBox(1, 1, 0)}, Resolution: [3]int{6, 6, 0}, Element: "triangle",
				},
				Fix: []string{"y+"},
			})
		},
	},
	Fem3D: {
		"cantilever": func() *Config { return beamOf("cantilever", "tetrahedron", soft) },
		"corotational": func() *Config {
			return beamOf("corotational", "corotational_tetrahedron", element.Params{MassDensity: 1000, YoungModulus: 2e4, PoissonRatio: 0.3})
		},
		"block": func() *Config {
			return scene("block", BodyConfig{
				Name: "block", Type: Fem3D, RayleighMass: 0.5,
				Material: soft,
				Geometry: &GeometryConfig{
					Shape: shape.Spec{Shape: shape.NewBox(0.5, 0.5, 0.5)}, Resolution: [3]int{2, 2, 2}, Element: "cube",
				},
				Fix: []string{"y-"},
			})
		},
	},
}

func scene(name string, bodies ...BodyConfig) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Bodies = bodies
	return cfg
}

func chain(n int, coupler *CouplerConfig) *Config {
	b := BodyConfig{
		Name: "chain", Type: MassSpring, Integrator: integrators.ModifiedExplicitEulerName,
		Fixed: []int{0},
	}
	for i := 0; i < n; i++ {
		b.Nodes = append(b.Nodes, [3]float64{0.1 * float64(i), 0, 0})
		b.Masses = append(b.Masses, 0.05)
	}
	for i := 0; i+1 < n; i++ {
		p := element.Params{Stiffness: 200, Damping: 0.2}
		b.Elements = append(b.Elements, ElementConfig{Type: "spring", Nodes: []int{i, i + 1}, Params: &p})
	}
	cfg := scene("chain", b)
	if coupler != nil {
		coupler.Body = b.Name
		cfg.Name = "coupled"
		cfg.Couplers = []CouplerConfig{*coupler}
	}
	return cfg
}

func beamOf(name, kind string, m element.Params) *Config {
	return scene(name, BodyConfig{
		Name: name, Type: Fem3D, RayleighMass: 1, RayleighStiffness: 0.001,
		Material: m,
		Geometry: &GeometryConfig{
			Shape: shape.Spec{Shape: shape.NewBox(1, 0.2, 0.2)}, Resolution: [3]int{5, 1, 1}, Element: kind,
		},
		Fix: []string{"x-"},
	})
}

// GetPreset returns a fresh copy of a preset, nil when unknown.
func GetPreset(kind, preset string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	build, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	return build()
}

// FindPreset looks a preset up by name across every body kind.
func FindPreset(preset string) *Config {
	for _, kindPresets := range Presets {
		if build, ok := kindPresets[preset]; ok {
			return build()
		}
	}
	return nil
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

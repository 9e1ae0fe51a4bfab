package element

import (
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/deformsim/internal/dynamo"
)

// Params carries every parameter an element builder may need. Builders
// read only the fields relevant to their element kind.
type Params struct {
	MassDensity  float64 `yaml:"mass_density"`
	YoungModulus float64 `yaml:"young_modulus"`
	PoissonRatio float64 `yaml:"poisson_ratio"`

	Radius       float64 `yaml:"radius"`
	ShearEnabled bool    `yaml:"shear"`
	Thickness    float64 `yaml:"thickness"`

	Stiffness  float64 `yaml:"stiffness"`
	Damping    float64 `yaml:"damping"`
	RestLength float64 `yaml:"rest_length"`
}

// Builder creates an uninitialized element over nodeIDs.
type Builder func(nodeIDs []int, p Params) Element

type entry struct {
	numNodes int
	build    Builder
}

var (
	registryMu sync.RWMutex
	registry   = map[string]entry{}
)

func init() {
	Register("spring", 2, func(ids []int, p Params) Element {
		s := NewLinearSpring(ids, p.Stiffness, p.Damping)
		if p.RestLength > 0 {
			s.SetRestLength(p.RestLength)
		}
		return s
	})
	Register("beam", 2, func(ids []int, p Params) Element {
		b := NewBeam(ids)
		setMaterial(b, p)
		b.SetRadius(p.Radius)
		b.SetShearEnabled(p.ShearEnabled)
		return b
	})
	Register("triangle", 3, func(ids []int, p Params) Element {
		t := NewTriangle(ids)
		setMaterial(t, p)
		t.SetThickness(p.Thickness)
		return t
	})
	Register("tetrahedron", 4, func(ids []int, p Params) Element {
		t := NewTetrahedron(ids)
		setMaterial(t, p)
		return t
	})
	Register("corotational_tetrahedron", 4, func(ids []int, p Params) Element {
		t := NewCorotationalTetrahedron(ids)
		setMaterial(t, p)
		return t
	})
	Register("cube", 8, func(ids []int, p Params) Element {
		c := NewCube(ids)
		setMaterial(c, p)
		return c
	})
}

func setMaterial(m Material, p Params) {
	m.SetMassDensity(p.MassDensity)
	m.SetYoungModulus(p.YoungModulus)
	m.SetPoissonRatio(p.PoissonRatio)
}

// Register makes an element kind with numNodes nodes available to New under name.
func Register(name string, numNodes int, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = entry{numNodes: numNodes, build: b}
}

// New builds the element registered under name.
func New(name string, nodeIDs []int, p Params) (Element, error) {
	registryMu.RLock()
	e, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("element %q: %w", name, dynamo.ErrUnknownType)
	}
	if len(nodeIDs) != e.numNodes {
		return nil, fmt.Errorf("element %q needs %d nodes, got %d: %w",
			name, e.numNodes, len(nodeIDs), dynamo.ErrInvalidParameter)
	}
	return e.build(nodeIDs, p), nil
}

// Names lists the registered element kinds in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

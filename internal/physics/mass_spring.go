package physics

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
)

// MassSpring is a body of lumped node masses joined by linear springs.
type MassSpring struct {
	Deformable
	springs []*element.LinearSpring
}

func NewMassSpring(name string) *MassSpring {
	return &MassSpring{Deformable: newDeformable(name, MassSpringType, 3)}
}

// AddMass appends the mass of the next node.
func (b *MassSpring) AddMass(mass float64) {
	dynamo.Assertf(mass > 0, dynamo.ErrInvalidParameter, "%s: node mass %g must be positive", b.name, mass)
	b.nodeMasses = append(b.nodeMasses, mass)
}

func (b *MassSpring) AddSpring(s *element.LinearSpring) {
	dynamo.Assertf(!b.initialized, dynamo.ErrLifecycle, "%s: spring added after initialize", b.name)
	b.springs = append(b.springs, s)
	b.elements = append(b.elements, s)
}

func (b *MassSpring) NumMasses() int                     { return len(b.nodeMasses) }
func (b *MassSpring) NumSprings() int                    { return len(b.springs) }
func (b *MassSpring) Mass(node int) float64              { return b.nodeMasses[node] }
func (b *MassSpring) Spring(i int) *element.LinearSpring { return b.springs[i] }

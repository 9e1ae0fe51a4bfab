package physics

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
)

// Fem is a finite element body. The element kinds it accepts follow its
// dimension: beams for 1D, triangles for 2D, solids for 3D.
type Fem struct {
	Deformable
}

// NewFem1D builds a beam body with 6 dofs per node.
func NewFem1D(name string) *Fem {
	return &Fem{Deformable: newDeformable(name, Fem1DType, 6)}
}

// NewFem2D builds a membrane body with 3 dofs per node.
func NewFem2D(name string) *Fem {
	return &Fem{Deformable: newDeformable(name, Fem2DType, 3)}
}

// NewFem3D builds a solid body with 3 dofs per node.
func NewFem3D(name string) *Fem {
	return &Fem{Deformable: newDeformable(name, Fem3DType, 3)}
}

func (b *Fem) AddElement(e element.Element) {
	dynamo.Assertf(!b.initialized, dynamo.ErrLifecycle, "%s: element added after initialize", b.name)
	dynamo.Assertf(e.NumDofPerNode() == b.numDofPerNode, dynamo.ErrDimensionMismatch,
		"%s: %s body needs %d dof per node, element has %d", b.name, b.kind, b.numDofPerNode, e.NumDofPerNode())
	b.elements = append(b.elements, e)
}

func (b *Fem) NumElements() int              { return len(b.elements) }
func (b *Fem) Element(i int) element.Element { return b.elements[i] }

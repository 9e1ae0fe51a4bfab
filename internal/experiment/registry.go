package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/physics"
)

// meshed is a body that accepts the elements and lumped masses of a mesh.
type meshed interface {
	deformable() *physics.Deformable
	addElement(e element.Element) error
	addMass(m float64)
}

type springBody struct{ *physics.MassSpring }

func (b springBody) deformable() *physics.Deformable { return &b.Deformable }
func (b springBody) addMass(m float64)               { b.AddMass(m) }

func (b springBody) addElement(e element.Element) error {
	s, ok := e.(*element.LinearSpring)
	if !ok {
		return fmt.Errorf("%w: mass-spring body %q takes springs only", dynamo.ErrUnknownType, b.Name())
	}
	b.AddSpring(s)
	return nil
}

type femBody struct{ *physics.Fem }

func (b femBody) deformable() *physics.Deformable { return &b.Deformable }
func (b femBody) addMass(float64)                 {}

func (b femBody) addElement(e element.Element) error {
	b.AddElement(e)
	return nil
}

var bodyKinds = map[string]func(name string) meshed{
	config.MassSpring: func(name string) meshed { return springBody{physics.NewMassSpring(name)} },
	config.Fem1D:      func(name string) meshed { return femBody{physics.NewFem1D(name)} },
	config.Fem2D:      func(name string) meshed { return femBody{physics.NewFem2D(name)} },
	config.Fem3D:      func(name string) meshed { return femBody{physics.NewFem3D(name)} },
}

func newBody(kind, name string) (meshed, error) {
	fn, ok := bodyKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: body type %q", dynamo.ErrUnknownType, kind)
	}
	return fn(name), nil
}

func ListBodyTypes() []string {
	names := make([]string, 0, len(bodyKinds))
	for name := range bodyKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

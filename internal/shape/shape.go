// Package shape provides analytic volumes used to describe body geometry.
package shape

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

type Type int

const (
	SphereType Type = iota
	BoxType
	CylinderType
	CapsuleType
	PlaneType
	DoubleSidedPlaneType
)

// Shape is a solid centered on its local origin.
type Shape interface {
	Type() Type
	ClassName() string
	Volume() float64
	Center() mgl64.Vec3
	// SecondMomentOfVolume is the inertia tensor divided by the mass density.
	SecondMomentOfVolume() mgl64.Mat3
}

type Sphere struct {
	Radius float64 `yaml:"Radius"`
}

func NewSphere(radius float64) *Sphere { return &Sphere{Radius: radius} }

func (s *Sphere) Type() Type         { return SphereType }
func (s *Sphere) ClassName() string  { return "SphereShape" }
func (s *Sphere) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (s *Sphere) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
}

func (s *Sphere) SecondMomentOfVolume() mgl64.Mat3 {
	return diag(2.0 / 5.0 * s.Volume() * s.Radius * s.Radius)
}

type Box struct {
	SizeX float64 `yaml:"SizeX"`
	SizeY float64 `yaml:"SizeY"`
	SizeZ float64 `yaml:"SizeZ"`
}

func NewBox(x, y, z float64) *Box { return &Box{SizeX: x, SizeY: y, SizeZ: z} }

func (b *Box) Type() Type         { return BoxType }
func (b *Box) ClassName() string  { return "BoxShape" }
func (b *Box) Center() mgl64.Vec3 { return mgl64.Vec3{} }
func (b *Box) Size() mgl64.Vec3   { return mgl64.Vec3{b.SizeX, b.SizeY, b.SizeZ} }
func (b *Box) Volume() float64    { return b.SizeX * b.SizeY * b.SizeZ }

func (b *Box) SecondMomentOfVolume() mgl64.Mat3 {
	coef := b.Volume() / 12
	x2, y2, z2 := b.SizeX*b.SizeX, b.SizeY*b.SizeY, b.SizeZ*b.SizeZ
	return mgl64.Diag3(mgl64.Vec3{coef * (y2 + z2), coef * (x2 + z2), coef * (x2 + y2)})
}

// Cylinder is aligned with the Y axis.
type Cylinder struct {
	Length float64 `yaml:"Length"`
	Radius float64 `yaml:"Radius"`
}

func NewCylinder(length, radius float64) *Cylinder {
	return &Cylinder{Length: length, Radius: radius}
}

func (c *Cylinder) Type() Type         { return CylinderType }
func (c *Cylinder) ClassName() string  { return "CylinderShape" }
func (c *Cylinder) Center() mgl64.Vec3 { return mgl64.Vec3{} }
func (c *Cylinder) Volume() float64    { return math.Pi * c.Radius * c.Radius * c.Length }

func (c *Cylinder) SecondMomentOfVolume() mgl64.Mat3 {
	v := c.Volume()
	r2, l2 := c.Radius*c.Radius, c.Length*c.Length
	coef := v / 12 * (3*r2 + l2)
	return mgl64.Diag3(mgl64.Vec3{coef, v / 2 * r2, coef})
}

// Capsule is a Y aligned cylinder of the given length capped by two
// hemispheres.
type Capsule struct {
	Length float64 `yaml:"Length"`
	Radius float64 `yaml:"Radius"`
}

func NewCapsule(length, radius float64) *Capsule {
	return &Capsule{Length: length, Radius: radius}
}

func (c *Capsule) Type() Type         { return CapsuleType }
func (c *Capsule) ClassName() string  { return "CapsuleShape" }
func (c *Capsule) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (c *Capsule) volumes() (cylinder, sphere float64) {
	r := c.Radius
	return math.Pi * r * r * c.Length, 4.0 / 3.0 * math.Pi * r * r * r
}

func (c *Capsule) Volume() float64 {
	cylinder, sphere := c.volumes()
	return cylinder + sphere
}

func (c *Capsule) SecondMomentOfVolume() mgl64.Mat3 {
	cylinder, sphere := c.volumes()
	r, l := c.Radius, c.Length
	r2, l2 := r*r, l*l

	axial := 2.0/5.0*sphere*r2 + cylinder*r2/2
	transverse := 2.0/5.0*sphere*r2 + sphere*(l2/4+3.0/8.0*r*l) + cylinder/12*(3*r2+l2)
	return mgl64.Diag3(mgl64.Vec3{transverse, axial, transverse})
}

// Plane is the half space below y = 0.
type Plane struct{}

func (Plane) Type() Type                       { return PlaneType }
func (Plane) ClassName() string                { return "PlaneShape" }
func (Plane) Volume() float64                  { return 0 }
func (Plane) Center() mgl64.Vec3               { return mgl64.Vec3{} }
func (Plane) SecondMomentOfVolume() mgl64.Mat3 { return mgl64.Mat3{} }
func (Plane) Normal() mgl64.Vec3               { return mgl64.Vec3{0, 1, 0} }
func (Plane) D() float64                       { return 0 }

// DoubleSidedPlane is the plane y = 0 with both sides solid.
type DoubleSidedPlane struct{}

func (DoubleSidedPlane) Type() Type                       { return DoubleSidedPlaneType }
func (DoubleSidedPlane) ClassName() string                { return "DoubleSidedPlaneShape" }
func (DoubleSidedPlane) Volume() float64                  { return 0 }
func (DoubleSidedPlane) Center() mgl64.Vec3               { return mgl64.Vec3{} }
func (DoubleSidedPlane) SecondMomentOfVolume() mgl64.Mat3 { return mgl64.Mat3{} }
func (DoubleSidedPlane) Normal() mgl64.Vec3               { return mgl64.Vec3{0, 1, 0} }
func (DoubleSidedPlane) D() float64                       { return 0 }

func diag(v float64) mgl64.Mat3 {
	return mgl64.Diag3(mgl64.Vec3{v, v, v})
}

var factory = map[string]func() Shape{
	"SphereShape":           func() Shape { return &Sphere{} },
	"BoxShape":              func() Shape { return &Box{} },
	"CylinderShape":         func() Shape { return &Cylinder{} },
	"CapsuleShape":          func() Shape { return &Capsule{} },
	"PlaneShape":            func() Shape { return &Plane{} },
	"DoubleSidedPlaneShape": func() Shape { return &DoubleSidedPlane{} },
}

// New creates a zero valued shape from its class name.
func New(className string) (Shape, error) {
	build, ok := factory[className]
	if !ok {
		return nil, fmt.Errorf("%w: shape %q", dynamo.ErrUnknownType, className)
	}
	return build(), nil
}

// ClassNames lists the registered shape class names, sorted.
func ClassNames() []string {
	names := make([]string, 0, len(factory))
	for name := range factory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec wraps a Shape so it serializes as {ClassName: {Param: value}}.
type Spec struct {
	Shape
}

func (s Spec) MarshalYAML() (any, error) {
	if s.Shape == nil {
		return nil, fmt.Errorf("%w: cannot encode an empty shape", dynamo.ErrInvalidParameter)
	}
	return map[string]Shape{s.ClassName(): s.Shape}, nil
}

func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("%w: shape must be a single {ClassName: params} entry", dynamo.ErrInvalidParameter)
	}
	shape, err := New(node.Content[0].Value)
	if err != nil {
		return err
	}
	params := node.Content[1]
	if params.Kind == yaml.MappingNode {
		if err := params.Decode(shape); err != nil {
			return fmt.Errorf("decode %s: %w", node.Content[0].Value, err)
		}
	}
	s.Shape = shape
	return nil
}

// Encode serializes s.
func Encode(s Shape) ([]byte, error) {
	return yaml.Marshal(Spec{Shape: s})
}

// Decode parses a shape written by Encode.
func Decode(data []byte) (Shape, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return spec.Shape, nil
}

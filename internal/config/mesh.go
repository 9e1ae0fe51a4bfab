package config

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/integrators"
	"github.com/san-kum/deformsim/internal/shape"
)

// Mesh is the explicit geometry of a body.
type Mesh struct {
	Nodes      [][3]float64
	Velocities [][3]float64
	Masses     []float64
	Elements   []ElementConfig
}

var bodyElements = map[string][]string{
	MassSpring: {"spring"},
	Fem1D:      {"beam"},
	Fem2D:      {"triangle"},
	Fem3D:      {"tetrahedron", "corotational_tetrahedron", "cube"},
}

// BodyTypes lists the accepted body kinds, sorted.
func BodyTypes() []string {
	types := make([]string, 0, len(bodyElements))
	for t := range bodyElements {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Mesh resolves the body geometry, generating it from Geometry when set,
// and validates it.
func (b *BodyConfig) Mesh() (*Mesh, error) {
	allowed, ok := bodyElements[b.Type]
	if !ok {
		return nil, fmt.Errorf("%w: body type %q", dynamo.ErrUnknownType, b.Type)
	}
	if !slices.Contains(integrators.Names(), b.IntegratorName()) {
		return nil, fmt.Errorf("%w: integration scheme %q", dynamo.ErrUnknownType, b.IntegratorName())
	}

	var mesh *Mesh
	if b.Geometry != nil {
		var err error
		if mesh, err = b.Geometry.generate(b.Material); err != nil {
			return nil, err
		}
	} else {
		mesh = &Mesh{Nodes: b.Nodes, Velocities: b.Velocities, Masses: b.Masses, Elements: b.Elements}
	}

	if err := b.validateMesh(mesh, allowed); err != nil {
		return nil, err
	}
	return mesh, nil
}

func (b *BodyConfig) validateMesh(mesh *Mesh, allowed []string) error {
	n := len(mesh.Nodes)
	if n == 0 {
		return invalid("no nodes")
	}
	if len(mesh.Velocities) != 0 && len(mesh.Velocities) != n {
		return invalid("%d velocities for %d nodes", len(mesh.Velocities), n)
	}
	if len(mesh.Elements) == 0 {
		return invalid("no elements")
	}
	if b.Type == MassSpring {
		if len(mesh.Masses) != n {
			return invalid("%d masses for %d nodes", len(mesh.Masses), n)
		}
		for i, m := range mesh.Masses {
			if m <= 0 {
				return invalid("mass of node %d is %g", i, m)
			}
		}
	} else if len(mesh.Masses) != 0 {
		return invalid("%s bodies take their mass from the material", b.Type)
	}

	for i, e := range mesh.Elements {
		if !slices.Contains(allowed, e.Type) {
			return fmt.Errorf("%w: element %q in a %s body", dynamo.ErrUnknownType, e.Type, b.Type)
		}
		if err := checkNodes(e.Nodes, n); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		p := b.Material
		if e.Params != nil {
			p = *e.Params
		}
		if err := checkParams(e.Type, p); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}

	if b.Transform != nil && b.Transform.AngleDeg != 0 && mgl64.Vec3(b.Transform.Axis).Len() == 0 {
		return invalid("transform axis is zero")
	}
	_, err := FixedNodes(mesh.Nodes, b.Fixed, b.Fix)
	return err
}

func checkNodes(ids []int, numNodes int) error {
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id < 0 || id >= numNodes {
			return fmt.Errorf("%w: node %d, body has %d nodes", dynamo.ErrNodeOutOfRange, id, numNodes)
		}
		if seen[id] {
			return invalid("node %d repeated", id)
		}
		seen[id] = true
	}
	return nil
}

// checkParams mirrors the element initialization checks so a bad file is
// reported as an error rather than a panic.
func checkParams(kind string, p element.Params) error {
	if kind == "spring" {
		if p.Stiffness < 0 || p.Damping < 0 || p.RestLength < 0 {
			return invalid("spring parameters must be non-negative")
		}
		return nil
	}
	if p.MassDensity <= 0 || p.YoungModulus <= 0 || p.PoissonRatio < 0 || p.PoissonRatio >= 0.5 {
		return invalid("material needs mass_density > 0, young_modulus > 0 and 0 <= poisson_ratio < 0.5")
	}
	switch kind {
	case "beam":
		if p.Radius <= 0 {
			return invalid("beam radius must be positive")
		}
	case "triangle":
		if p.Thickness <= 0 {
			return invalid("triangle thickness must be positive")
		}
	}
	return nil
}

// FixedNodes merges explicit node ids with the nodes lying on the named
// bounding box faces ("x-", "y+", ...), sorted and without duplicates.
func FixedNodes(nodes [][3]float64, fixed []int, faces []string) ([]int, error) {
	set := map[int]bool{}
	for _, id := range fixed {
		if id < 0 || id >= len(nodes) {
			return nil, fmt.Errorf("%w: fixed node %d, body has %d nodes", dynamo.ErrNodeOutOfRange, id, len(nodes))
		}
		set[id] = true
	}
	for _, face := range faces {
		axis, upper, err := parseFace(face)
		if err != nil {
			return nil, err
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range nodes {
			lo, hi = math.Min(lo, p[axis]), math.Max(hi, p[axis])
		}
		target, tol := lo, 1e-9*(1+hi-lo)
		if upper {
			target = hi
		}
		for i, p := range nodes {
			if math.Abs(p[axis]-target) <= tol {
				set[i] = true
			}
		}
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func parseFace(face string) (axis int, upper bool, err error) {
	if len(face) != 2 || (face[1] != '-' && face[1] != '+') {
		return 0, false, invalid("face %q, want one of x- x+ y- y+ z- z+", face)
	}
	switch face[0] {
	case 'x':
		axis = 0
	case 'y':
		axis = 1
	case 'z':
		axis = 2
	default:
		return 0, false, invalid("face %q, want one of x- x+ y- y+ z- z+", face)
	}
	return axis, face[1] == '+', nil
}

func (g *GeometryConfig) generate(material element.Params) (*Mesh, error) {
	switch s := g.Shape.Shape.(type) {
	case *shape.Box:
		return g.meshBox(s)
	case *shape.Cylinder:
		if g.Element != "beam" {
			return nil, invalid("a cylinder meshes into beams, not %q", g.Element)
		}
		return meshCylinder(s, g.Resolution[1], material), nil
	case nil:
		return nil, invalid("geometry has no shape")
	default:
		return nil, invalid("cannot mesh a %s", s.ClassName())
	}
}

func cells(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// grid lays (nx+1)(ny+1)(nz+1) points over the box, x fastest.
type grid struct {
	nx, ny, nz int
	nodes      [][3]float64
}

func newGrid(b *shape.Box, nx, ny, nz int) *grid {
	g := &grid{nx: nx, ny: ny, nz: nz}
	step := [3]float64{b.SizeX / float64(nx), b.SizeY / float64(ny), 0}
	if nz > 0 {
		step[2] = b.SizeZ / float64(nz)
	}
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				g.nodes = append(g.nodes, [3]float64{
					-b.SizeX/2 + float64(i)*step[0],
					-b.SizeY/2 + float64(j)*step[1],
					-b.SizeZ/2 + float64(k)*step[2],
				})
			}
		}
	}
	return g
}

func (g *grid) index(i, j, k int) int {
	return i + (g.nx+1)*(j+(g.ny+1)*k)
}

// corners returns the cell's 8 nodes in hexahedron order.
func (g *grid) corners(i, j, k int) [8]int {
	return [8]int{
		g.index(i, j, k), g.index(i+1, j, k), g.index(i+1, j+1, k), g.index(i, j+1, k),
		g.index(i, j, k+1), g.index(i+1, j, k+1), g.index(i+1, j+1, k+1), g.index(i, j+1, k+1),
	}
}

// kuhn splits a cube into six tetrahedra sharing the diagonal 0-6.
var kuhn = [6][4]int{
	{0, 1, 2, 6}, {0, 2, 3, 6}, {0, 3, 7, 6},
	{0, 7, 4, 6}, {0, 4, 5, 6}, {0, 5, 1, 6},
}

func (g *GeometryConfig) meshBox(b *shape.Box) (*Mesh, error) {
	nx, ny, nz := cells(g.Resolution[0]), cells(g.Resolution[1]), cells(g.Resolution[2])
	mesh := &Mesh{}

	switch g.Element {
	case "cube", "tetrahedron", "corotational_tetrahedron", "spring":
		grid := newGrid(b, nx, ny, nz)
		mesh.Nodes = grid.nodes
		springs := map[[2]int]bool{}
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					c := grid.corners(i, j, k)
					switch g.Element {
					case "cube":
						mesh.Elements = append(mesh.Elements, ElementConfig{Type: "cube", Nodes: c[:]})
					case "spring":
						for a := 0; a < 8; a++ {
							for z := a + 1; z < 8; z++ {
								springs[[2]int{min(c[a], c[z]), max(c[a], c[z])}] = true
							}
						}
					default:
						for _, t := range kuhn {
							ids := []int{c[t[0]], c[t[1]], c[t[2]], c[t[3]]}
							orient(mesh.Nodes, ids)
							mesh.Elements = append(mesh.Elements, ElementConfig{Type: g.Element, Nodes: ids})
						}
					}
				}
			}
		}
		if g.Element == "spring" {
			if err := g.lumpMasses(mesh); err != nil {
				return nil, err
			}
			pairs := make([][2]int, 0, len(springs))
			for p := range springs {
				pairs = append(pairs, p)
			}
			sort.Slice(pairs, func(a, z int) bool {
				if pairs[a][0] != pairs[z][0] {
					return pairs[a][0] < pairs[z][0]
				}
				return pairs[a][1] < pairs[z][1]
			})
			for _, p := range pairs {
				mesh.Elements = append(mesh.Elements, ElementConfig{Type: "spring", Nodes: []int{p[0], p[1]}})
			}
		}

	case "triangle":
		// Membranes lie in the z = 0 plane of the box.
		grid := newGrid(&shape.Box{SizeX: b.SizeX, SizeY: b.SizeY}, nx, ny, 0)
		mesh.Nodes = grid.nodes
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := grid.corners(i, j, 0)
				mesh.Elements = append(mesh.Elements,
					ElementConfig{Type: "triangle", Nodes: []int{c[0], c[1], c[2]}},
					ElementConfig{Type: "triangle", Nodes: []int{c[0], c[2], c[3]}})
			}
		}

	default:
		return nil, invalid("a box meshes into cubes, tetrahedra, triangles or springs, not %q", g.Element)
	}
	return mesh, nil
}

func (g *GeometryConfig) lumpMasses(mesh *Mesh) error {
	if g.TotalMass <= 0 {
		return invalid("a spring lattice needs total_mass > 0")
	}
	mesh.Masses = make([]float64, len(mesh.Nodes))
	for i := range mesh.Masses {
		mesh.Masses[i] = g.TotalMass / float64(len(mesh.Nodes))
	}
	return nil
}

// orient swaps the last two nodes of a tetrahedron with negative volume.
func orient(nodes [][3]float64, ids []int) {
	a, b := mgl64.Vec3(nodes[ids[0]]), mgl64.Vec3(nodes[ids[1]])
	c, d := mgl64.Vec3(nodes[ids[2]]), mgl64.Vec3(nodes[ids[3]])
	if b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a)) < 0 {
		ids[2], ids[3] = ids[3], ids[2]
	}
}

// meshCylinder lays a chain of beams along the cylinder axis.
func meshCylinder(c *shape.Cylinder, segments int, material element.Params) *Mesh {
	n := cells(segments)
	params := material
	if params.Radius == 0 {
		params.Radius = c.Radius
	}
	mesh := &Mesh{}
	for i := 0; i <= n; i++ {
		mesh.Nodes = append(mesh.Nodes, [3]float64{0, -c.Length/2 + c.Length*float64(i)/float64(n), 0})
	}
	for i := 0; i < n; i++ {
		p := params
		mesh.Elements = append(mesh.Elements, ElementConfig{Type: "beam", Nodes: []int{i, i + 1}, Params: &p})
	}
	return mesh
}

package config

import (
	"fmt"
	"os"

	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/integrators"
	"github.com/san-kum/deformsim/internal/linalg"
	"github.com/san-kum/deformsim/internal/shape"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.001
	DefaultDuration    = 2.0
	DefaultWorkers     = 4
	DefaultRecordEvery = 10
	DefaultIntegrator  = integrators.ImplicitEulerName
)

// Body kinds accepted in BodyConfig.Type.
const (
	MassSpring = "mass_spring"
	Fem1D      = "fem1d"
	Fem2D      = "fem2d"
	Fem3D      = "fem3d"
)

// Config describes a whole scene.
type Config struct {
	Name        string          `yaml:"name"`
	Dt          float64         `yaml:"dt"`
	Duration    float64         `yaml:"duration"`
	Workers     int             `yaml:"workers"`
	RecordEvery int             `yaml:"record_every"`
	Bodies      []BodyConfig    `yaml:"bodies"`
	Couplers    []CouplerConfig `yaml:"couplers,omitempty"`
}

type BodyConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Integrator string `yaml:"integrator,omitempty"`
	// LinearSolver is dense_lu (default) or diagonal.
	LinearSolver string `yaml:"linear_solver,omitempty"`

	Gravity                    *[3]float64 `yaml:"gravity,omitempty"`
	GravityEnabled             *bool       `yaml:"gravity_enabled,omitempty"`
	RayleighMass               float64     `yaml:"rayleigh_mass,omitempty"`
	RayleighStiffness          float64     `yaml:"rayleigh_stiffness,omitempty"`
	BoundaryConditionStiffness float64     `yaml:"boundary_condition_stiffness,omitempty"`

	// Material is the default for every element of the body.
	Material element.Params `yaml:"material"`

	// Explicit mesh. Ignored when Geometry is set.
	Nodes      [][3]float64    `yaml:"nodes,omitempty"`
	Velocities [][3]float64    `yaml:"velocities,omitempty"`
	Masses     []float64       `yaml:"masses,omitempty"`
	Elements   []ElementConfig `yaml:"elements,omitempty"`

	Geometry  *GeometryConfig  `yaml:"geometry,omitempty"`
	Transform *TransformConfig `yaml:"transform,omitempty"`

	// Fixed lists node ids; Fix lists faces such as "x-" or "y+" whose
	// nodes are fixed after the transform.
	Fixed []int    `yaml:"fixed,omitempty"`
	Fix   []string `yaml:"fix,omitempty"`
}

type ElementConfig struct {
	Type   string          `yaml:"type"`
	Nodes  []int           `yaml:"nodes"`
	Params *element.Params `yaml:"params,omitempty"`
}

// GeometryConfig meshes an analytic shape procedurally.
type GeometryConfig struct {
	Shape      shape.Spec `yaml:"shape"`
	Resolution [3]int     `yaml:"resolution"`
	Element    string     `yaml:"element"`
	// TotalMass is split evenly over the nodes of a mass-spring mesh.
	TotalMass float64 `yaml:"total_mass,omitempty"`
}

type TransformConfig struct {
	Translation [3]float64 `yaml:"translation"`
	Axis        [3]float64 `yaml:"axis"`
	AngleDeg    float64    `yaml:"angle_deg"`
}

// CouplerConfig drags one node of a body toward Target.
type CouplerConfig struct {
	Body           string     `yaml:"body"`
	Node           int        `yaml:"node"`
	Stiffness      float64    `yaml:"stiffness"`
	Damping        float64    `yaml:"damping"`
	Target         [3]float64 `yaml:"target"`
	TargetVelocity [3]float64 `yaml:"target_velocity,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:        "scene",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Workers:     DefaultWorkers,
		RecordEvery: DefaultRecordEvery,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IntegratorName falls back to DefaultIntegrator.
func (b *BodyConfig) IntegratorName() string {
	if b.Integrator == "" {
		return DefaultIntegrator
	}
	return b.Integrator
}

// DofPerNode is the number of dofs per node of the body kind.
func (b *BodyConfig) DofPerNode() int {
	if b.Type == Fem1D {
		return 6
	}
	return 3
}

// Validate checks the scene without building it.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return invalid("dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		return invalid("duration must be positive, got %g", c.Duration)
	}
	if c.Workers < 0 {
		return invalid("workers must not be negative, got %d", c.Workers)
	}
	if len(c.Bodies) == 0 {
		return invalid("scene %q has no bodies", c.Name)
	}

	names := make(map[string]int, len(c.Bodies))
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Name == "" {
			return invalid("body %d has no name", i)
		}
		if _, dup := names[b.Name]; dup {
			return invalid("duplicate body name %q", b.Name)
		}
		if b.LinearSolver != "" {
			if _, ok := linalg.NewLinearSolver(b.LinearSolver); !ok {
				return fmt.Errorf("%w: body %q: linear solver %q, want one of %v",
					dynamo.ErrUnknownType, b.Name, b.LinearSolver, linalg.LinearSolverNames())
			}
		}
		mesh, err := b.Mesh()
		if err != nil {
			return fmt.Errorf("body %q: %w", b.Name, err)
		}
		names[b.Name] = len(mesh.Nodes)
	}

	for _, cp := range c.Couplers {
		n, ok := names[cp.Body]
		if !ok {
			return invalid("coupler references unknown body %q", cp.Body)
		}
		if cp.Node < 0 || cp.Node >= n {
			return fmt.Errorf("%w: coupler node %d, body %q has %d nodes", dynamo.ErrNodeOutOfRange, cp.Node, cp.Body, n)
		}
		if cp.Stiffness < 0 || cp.Damping < 0 {
			return invalid("coupler gains must be non-negative")
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dynamo.ErrInvalidParameter, fmt.Sprintf(format, args...))
}

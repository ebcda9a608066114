package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"heatfield/material"
	"heatfield/mesh"
	"heatfield/solver"
)

// Config is the full simulation setup. Zero values are never used
// directly; start from Default and overlay a file or flags.
type Config struct {
	Grid     GridConfig
	Boundary BoundaryConfig
	Run      RunConfig
	Server   ServerConfig
}

type GridConfig struct {
	NX, NY, NZ int
	LX, LY, LZ float64 // mm
	Material   string
}

type BoundaryConfig struct {
	Layout  string // "four-edge" or "left-edge"
	Initial float64
	Left    float64
	Right   float64
	Front   float64
	Rear    float64
}

type RunConfig struct {
	Policy    string // "fixed-flag" or "edge-index"
	Duration  float64
	Dt        float64
	Workers   int
	PushEvery int
}

type ServerConfig struct {
	Addr string
}

// Default is the CuCrZr plate scenario: a 30x20 grid heated from the left
// edge, everything else at room temperature.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			NX: 30, NY: 20, NZ: 1,
			LX: 30, LY: 30, LZ: 10,
			Material: "CuCrZr",
		},
		Boundary: BoundaryConfig{
			Layout:  "left-edge",
			Initial: 298,
			Left:    823,
			Right:   298,
			Front:   298,
			Rear:    298,
		},
		Run: RunConfig{
			Policy:    "fixed-flag",
			Duration:  10,
			Dt:        0.01,
			Workers:   4,
			PushEvery: 100,
		},
		Server: ServerConfig{
			Addr: ":9000",
		},
	}
}

// Load reads an ini file over the defaults. Missing keys keep their
// default values.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c := Default()

	grid := file.Section("grid")
	c.Grid.NX = grid.Key("nx").MustInt(c.Grid.NX)
	c.Grid.NY = grid.Key("ny").MustInt(c.Grid.NY)
	c.Grid.NZ = grid.Key("nz").MustInt(c.Grid.NZ)
	c.Grid.LX = grid.Key("lx").MustFloat64(c.Grid.LX)
	c.Grid.LY = grid.Key("ly").MustFloat64(c.Grid.LY)
	c.Grid.LZ = grid.Key("lz").MustFloat64(c.Grid.LZ)
	c.Grid.Material = grid.Key("material").MustString(c.Grid.Material)

	boundary := file.Section("boundary")
	c.Boundary.Layout = boundary.Key("layout").MustString(c.Boundary.Layout)
	c.Boundary.Initial = boundary.Key("initial").MustFloat64(c.Boundary.Initial)
	c.Boundary.Left = boundary.Key("left").MustFloat64(c.Boundary.Left)
	c.Boundary.Right = boundary.Key("right").MustFloat64(c.Boundary.Right)
	c.Boundary.Front = boundary.Key("front").MustFloat64(c.Boundary.Front)
	c.Boundary.Rear = boundary.Key("rear").MustFloat64(c.Boundary.Rear)

	run := file.Section("run")
	c.Run.Policy = run.Key("policy").MustString(c.Run.Policy)
	c.Run.Duration = run.Key("duration").MustFloat64(c.Run.Duration)
	c.Run.Dt = run.Key("dt").MustFloat64(c.Run.Dt)
	c.Run.Workers = run.Key("workers").MustInt(c.Run.Workers)
	c.Run.PushEvery = run.Key("push_every").MustInt(c.Run.PushEvery)

	server := file.Section("server")
	c.Server.Addr = server.Key("addr").MustString(c.Server.Addr)

	return c, nil
}

// ParseLayout maps a layout name to its mesh constant.
func ParseLayout(s string) (mesh.Layout, error) {
	switch s {
	case "four-edge":
		return mesh.FourEdge, nil
	case "left-edge":
		return mesh.LeftEdge, nil
	}
	return 0, fmt.Errorf("config: unknown layout %q (want four-edge or left-edge)", s)
}

// ParsePolicy maps a boundary-policy name to its solver constant.
func ParsePolicy(s string) (solver.BoundaryPolicy, error) {
	switch s {
	case "fixed-flag":
		return solver.PolicyFixedFlag, nil
	case "edge-index":
		return solver.PolicyEdgeIndex, nil
	}
	return 0, fmt.Errorf("config: unknown boundary policy %q (want fixed-flag or edge-index)", s)
}

// MeshSpec resolves the grid and boundary sections into a buildable spec.
func (c *Config) MeshSpec(reg *material.Registry) (mesh.Spec, error) {
	mtl, err := reg.Lookup(c.Grid.Material)
	if err != nil {
		return mesh.Spec{}, err
	}
	layout, err := ParseLayout(c.Boundary.Layout)
	if err != nil {
		return mesh.Spec{}, err
	}
	return mesh.Spec{
		NX: c.Grid.NX, NY: c.Grid.NY, NZ: c.Grid.NZ,
		LX: c.Grid.LX, LY: c.Grid.LY, LZ: c.Grid.LZ,
		Mtl:     mtl,
		Layout:  layout,
		Initial: c.Boundary.Initial,
		Left:    c.Boundary.Left,
		Right:   c.Boundary.Right,
		Front:   c.Boundary.Front,
		Rear:    c.Boundary.Rear,
	}, nil
}

// Policy resolves the run section's boundary policy.
func (c *Config) Policy() (solver.BoundaryPolicy, error) {
	return ParsePolicy(c.Run.Policy)
}

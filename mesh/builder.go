package mesh

import (
	"fmt"

	"heatfield/material"
)

// Layout selects which cells of the grid carry fixed boundary temperatures.
type Layout int

const (
	// FourEdge fixes all four in-plane edges. At the corners the x edges
	// take priority over the y edges.
	FourEdge Layout = iota
	// LeftEdge fixes only the ix==0 edge; the other three edges stay free.
	LeftEdge
)

func (l Layout) String() string {
	switch l {
	case FourEdge:
		return "four-edge"
	case LeftEdge:
		return "left-edge"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Spec describes an equal-cell mesh to build. Lengths are millimetres,
// temperatures kelvin.
type Spec struct {
	NX, NY, NZ int
	LX, LY, LZ float64
	Mtl        *material.Material
	Layout     Layout
	Initial    float64 // free cells
	Left       float64 // ix == 0
	Right      float64 // ix == NX-1, FourEdge only
	Front      float64 // iy == 0, FourEdge only
	Rear       float64 // iy == NY-1, FourEdge only
}

// Build allocates and initializes a mesh from spec. It validates the
// dimensions and never depends on cell visiting order.
func Build(spec Spec) (*Mesh, error) {
	if spec.NX < 2 || spec.NY < 2 {
		return nil, fmt.Errorf("mesh: in-plane dimensions must be at least 2, got %dx%d", spec.NX, spec.NY)
	}
	if spec.NZ < 1 {
		return nil, fmt.Errorf("mesh: nz must be at least 1, got %d", spec.NZ)
	}
	if spec.LX <= 0 || spec.LY <= 0 || spec.LZ <= 0 {
		return nil, fmt.Errorf("mesh: cell sizes must be positive, got %gx%gx%g mm", spec.LX, spec.LY, spec.LZ)
	}
	if spec.Mtl == nil {
		return nil, fmt.Errorf("mesh: no material given")
	}
	if spec.Layout != FourEdge && spec.Layout != LeftEdge {
		return nil, fmt.Errorf("mesh: unknown layout %v", spec.Layout)
	}

	m := &Mesh{
		NX: spec.NX, NY: spec.NY, NZ: spec.NZ,
		LX: spec.LX, LY: spec.LY, LZ: spec.LZ,
		cells: make([]Cell, spec.NX*spec.NY*spec.NZ),
	}
	for iz := 0; iz < spec.NZ; iz++ {
		for iy := 0; iy < spec.NY; iy++ {
			for ix := 0; ix < spec.NX; ix++ {
				temp, fixed := spec.classify(ix, iy)
				m.cells[m.index(ix, iy, iz)] = newCell(ix, iy, iz, spec.LX, spec.LY, spec.LZ, spec.Mtl, temp, fixed)
			}
		}
	}
	return m, nil
}

func (s Spec) classify(ix, iy int) (temp float64, fixed bool) {
	switch s.Layout {
	case FourEdge:
		switch {
		case ix == 0:
			return s.Left, true
		case ix == s.NX-1:
			return s.Right, true
		case iy == 0:
			return s.Front, true
		case iy == s.NY-1:
			return s.Rear, true
		}
	case LeftEdge:
		if ix == 0 {
			return s.Left, true
		}
	}
	return s.Initial, false
}

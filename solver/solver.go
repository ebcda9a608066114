package solver

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"heatfield/mesh"
)

// BoundaryPolicy selects how the stencil decides which cells are boundary
// cells and what a missing neighbor means.
type BoundaryPolicy int

const (
	// PolicyFixedFlag treats exactly the fixed-temperature cells as
	// boundary. A free cell missing an in-plane neighbor mirrors its own
	// temperature across the open face (zero-flux fallback).
	PolicyFixedFlag BoundaryPolicy = iota
	// PolicyEdgeIndex treats every cell on an in-plane edge of the grid
	// as boundary regardless of its fixed flag. Under this policy a free
	// cell always has all four in-plane neighbors; a miss means the grid
	// bounds and the edge classification disagree and is reported as an
	// internal error.
	PolicyEdgeIndex
)

func (p BoundaryPolicy) String() string {
	switch p {
	case PolicyFixedFlag:
		return "fixed-flag"
	case PolicyEdgeIndex:
		return "edge-index"
	}
	return fmt.Sprintf("BoundaryPolicy(%d)", int(p))
}

// stableLimit is the largest Fourier number the explicit scheme tolerates.
const stableLimit = 0.5

// Solver advances the temperature field of a mesh with the explicit
// five-point scheme. Each step differences a read-only snapshot in
// parallel, then applies all deltas in one sweep.
type Solver struct {
	m      *mesh.Mesh
	policy BoundaryPolicy
	deltas []float64
	exec   *executor

	// mu makes the apply sweep atomic with respect to Snapshot, so a
	// streaming consumer never sees a half-applied step.
	mu     sync.Mutex
	warned bool
}

// New builds a solver over m. workers <= 0 means one worker per CPU.
func New(m *mesh.Mesh, policy BoundaryPolicy, workers int) *Solver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s := &Solver{
		m:      m,
		policy: policy,
		deltas: make([]float64, m.Len()),
	}
	s.exec = newExecutor(workers, func(t task) error {
		return s.computeRange(t.first, t.last, t.dt)
	})
	return s
}

// Close stops the worker pool. The solver must not be used afterwards.
func (s *Solver) Close() { s.exec.close() }

// Mesh returns the mesh this solver advances.
func (s *Solver) Mesh() *mesh.Mesh { return s.m }

// ComputeStep computes the per-cell temperature delta for one step of dt
// seconds from the current field, without mutating it. The returned slice
// is indexed like the mesh and reused by the next call.
func (s *Solver) ComputeStep(dt float64) ([]float64, error) {
	if err := s.exec.dispatch(s.m.Len(), dt); err != nil {
		return nil, err
	}
	return s.deltas, nil
}

func (s *Solver) computeRange(first, last int, dt float64) error {
	for i := first; i < last; i++ {
		d, err := s.cellDelta(s.m.At(i), dt)
		if err != nil {
			return err
		}
		s.deltas[i] = d
	}
	return nil
}

func (s *Solver) isBoundary(c *mesh.Cell) bool {
	if s.policy == PolicyEdgeIndex {
		return c.IX == 0 || c.IX == s.m.NX-1 || c.IY == 0 || c.IY == s.m.NY-1
	}
	return c.Fixed()
}

func (s *Solver) cellDelta(c *mesh.Cell, dt float64) (float64, error) {
	if s.isBoundary(c) {
		return 0, nil
	}

	left, lok := s.m.Get(c.IX-1, c.IY, c.IZ)
	right, rok := s.m.Get(c.IX+1, c.IY, c.IZ)
	front, fok := s.m.Get(c.IX, c.IY-1, c.IZ)
	rear, bok := s.m.Get(c.IX, c.IY+1, c.IZ)
	if s.policy == PolicyEdgeIndex && !(lok && rok && fok && bok) {
		return 0, fmt.Errorf("solver: free cell (%d,%d,%d) is missing an in-plane neighbor; grid bounds and edge classification disagree",
			c.IX, c.IY, c.IZ)
	}

	// A missing neighbor mirrors the cell's own temperature and spacing.
	tc := c.T
	tl, dxmm := tc, c.LX
	if lok {
		tl, dxmm = left.T, math.Abs(c.X-left.X)
	}
	tr := tc
	if rok {
		tr = right.T
	}
	tf, dymm := tc, c.LY
	if fok {
		tf, dymm = front.T, math.Abs(c.Y-front.Y)
	}
	tb := tc
	if bok {
		tb = rear.T
	}

	// Geometry is in mm; the stencil works in SI, converted here only.
	dx := dxmm * 1e-3
	dy := dymm * 1e-3
	alpha := c.Mtl.Diffusivity(tc)
	return alpha * ((tl-2*tc+tr)/(dx*dx) + (tf-2*tc+tb)/(dy*dy)) * dt, nil
}

// Advance runs fixed steps of dt seconds until timeEnd seconds of
// simulated time have elapsed. A non-positive timeEnd is a no-op.
func (s *Solver) Advance(timeEnd, dt float64) error {
	return s.advance(timeEnd, dt, nil, 0)
}

// AdvanceStreaming is Advance plus run control: it stops early when
// hub.Stop closes and raises hub.PushSignal every pushEvery steps and
// once more at the end.
func (s *Solver) AdvanceStreaming(timeEnd, dt float64, pushEvery int, hub *CalcHub) error {
	return s.advance(timeEnd, dt, hub, pushEvery)
}

func (s *Solver) advance(timeEnd, dt float64, hub *CalcHub, pushEvery int) error {
	if dt <= 0 {
		return fmt.Errorf("solver: step size must be positive, got %g", dt)
	}
	if f := s.StabilityNumber(dt); f > stableLimit && !s.warned {
		s.warned = true
		log.WithFields(log.Fields{
			"fourier": f,
			"limit":   stableLimit,
			"dt":      dt,
		}).Warn("explicit step outside the stable region, expect the field to diverge")
	}

	steps := 0
	for t := 0.0; t < timeEnd; t += dt {
		if hub != nil {
			select {
			case <-hub.Stop:
				return nil
			default:
			}
		}
		deltas, err := s.ComputeStep(dt)
		if err != nil {
			return err
		}
		s.apply(deltas)
		steps++
		if hub != nil && pushEvery > 0 && steps%pushEvery == 0 {
			hub.PushSignal()
		}
	}
	if hub != nil {
		hub.PushSignal()
	}
	return nil
}

func (s *Solver) apply(deltas []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Traverse(func(i int, c *mesh.Cell) {
		if c.Fixed() {
			return
		}
		c.T += deltas[i]
	})
}

// Snapshot copies slice iz of the field between steps, never mid-apply.
func (s *Solver) Snapshot(iz int) (*mesh.Plane, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Plane(iz)
}

// StabilityNumber returns the largest Fourier number alpha*dt/h^2 over the
// mesh for a step of dt seconds. Above 0.5 the explicit scheme diverges;
// the solver warns but does not refuse to run.
func (s *Solver) StabilityNumber(dt float64) float64 {
	var max float64
	s.m.Traverse(func(_ int, c *mesh.Cell) {
		alpha := c.Mtl.Diffusivity(c.T)
		dx := c.LX * 1e-3
		dy := c.LY * 1e-3
		if f := alpha * dt / (dx * dx); f > max {
			max = f
		}
		if f := alpha * dt / (dy * dy); f > max {
			max = f
		}
	})
	return max
}

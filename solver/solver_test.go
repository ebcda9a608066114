package solver

import (
	"math"
	"testing"

	"heatfield/material"
	"heatfield/mesh"
)

// uniformMaterial has alpha = 1/(1000*500) = 2e-6 m2/s at any temperature.
func uniformMaterial() *material.Material {
	return material.New("uniform", 1000,
		func(temp float64) float64 { return 1 },
		func(temp float64) float64 { return 500 },
	)
}

func buildMesh(t *testing.T, spec mesh.Spec) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Build(spec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func fourEdgeSpec(nx, ny int) mesh.Spec {
	return mesh.Spec{
		NX: nx, NY: ny, NZ: 1,
		LX: 10, LY: 10, LZ: 10,
		Mtl:     uniformMaterial(),
		Layout:  mesh.FourEdge,
		Initial: 300,
		Left:    400, Right: 400, Front: 400, Rear: 400,
	}
}

func newSolver(t *testing.T, m *mesh.Mesh, policy BoundaryPolicy, workers int) *Solver {
	t.Helper()
	s := New(m, policy, workers)
	t.Cleanup(s.Close)
	return s
}

func TestSingleStepInteriorCell(t *testing.T) {
	// 3x3 grid, all edges at 400 K, center at 300 K, 10 mm cells,
	// alpha = 2e-6: one 0.01 s step heats the center to 300.08 K.
	for _, policy := range []BoundaryPolicy{PolicyFixedFlag, PolicyEdgeIndex} {
		t.Run(policy.String(), func(t *testing.T) {
			m := buildMesh(t, fourEdgeSpec(3, 3))
			s := newSolver(t, m, policy, 2)

			if err := s.Advance(0.01, 0.01); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			c, _ := m.Get(1, 1, 0)
			if math.Abs(c.T-300.08) > 1e-9 {
				t.Errorf("center T = %.12f, want 300.08", c.T)
			}
		})
	}
}

func TestZeroDurationIsIdentity(t *testing.T) {
	m := buildMesh(t, fourEdgeSpec(5, 4))
	before := make([]float64, m.Len())
	m.Traverse(func(i int, c *mesh.Cell) { before[i] = c.T })

	s := newSolver(t, m, PolicyFixedFlag, 4)
	if err := s.Advance(0, 0.01); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	m.Traverse(func(i int, c *mesh.Cell) {
		if c.T != before[i] {
			t.Fatalf("cell %d changed from %g to %g over zero duration", i, before[i], c.T)
		}
	})
}

func TestBoundaryInvariance(t *testing.T) {
	for _, policy := range []BoundaryPolicy{PolicyFixedFlag, PolicyEdgeIndex} {
		t.Run(policy.String(), func(t *testing.T) {
			spec := fourEdgeSpec(6, 5)
			spec.Left, spec.Right, spec.Front, spec.Rear = 400, 380, 360, 340
			m := buildMesh(t, spec)
			s := newSolver(t, m, policy, 3)

			if err := s.Advance(1.0, 0.01); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			m.Traverse(func(_ int, c *mesh.Cell) {
				if !c.Fixed() {
					return
				}
				want := spec.Left
				switch {
				case c.IX == m.NX-1:
					want = spec.Right
				case c.IX == 0:
				case c.IY == 0:
					want = spec.Front
				case c.IY == m.NY-1:
					want = spec.Rear
				}
				if c.T != want {
					t.Errorf("fixed cell (%d,%d) drifted to %g, want %g", c.IX, c.IY, c.T, want)
				}
			})
		})
	}
}

func TestNoNewInteriorExtrema(t *testing.T) {
	spec := fourEdgeSpec(8, 7)
	spec.Left, spec.Right, spec.Front, spec.Rear = 300, 340, 360, 400
	spec.Initial = 350 // inside the boundary range
	m := buildMesh(t, spec)
	s := newSolver(t, m, PolicyFixedFlag, 4)

	for step := 0; step < 200; step++ {
		if err := s.Advance(0.01, 0.01); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		min, max, ok := m.Extremes()
		if !ok {
			t.Fatal("no free cells")
		}
		if min < 300 || max > 400 {
			t.Fatalf("step %d: free-cell range [%g, %g] left the boundary range [300, 400]", step, min, max)
		}
	}
}

func TestReflectiveSymmetry(t *testing.T) {
	spec := fourEdgeSpec(7, 7)
	spec.Left, spec.Right = 400, 400
	spec.Front, spec.Rear = 350, 350
	m := buildMesh(t, spec)
	s := newSolver(t, m, PolicyFixedFlag, 4)

	if err := s.Advance(2.0, 0.01); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			c, _ := m.Get(ix, iy, 0)
			mx, _ := m.Get(m.NX-1-ix, iy, 0)
			my, _ := m.Get(ix, m.NY-1-iy, 0)
			if math.Abs(c.T-mx.T) > 1e-12 {
				t.Errorf("x mirror broken at (%d,%d): %g vs %g", ix, iy, c.T, mx.T)
			}
			if math.Abs(c.T-my.T) > 1e-12 {
				t.Errorf("y mirror broken at (%d,%d): %g vs %g", ix, iy, c.T, my.T)
			}
		}
	}
}

func TestComputeStepDoesNotMutate(t *testing.T) {
	m := buildMesh(t, fourEdgeSpec(5, 5))
	before := make([]float64, m.Len())
	m.Traverse(func(i int, c *mesh.Cell) { before[i] = c.T })

	s := newSolver(t, m, PolicyFixedFlag, 4)
	deltas, err := s.ComputeStep(0.01)
	if err != nil {
		t.Fatalf("ComputeStep: %v", err)
	}
	if len(deltas) != m.Len() {
		t.Fatalf("got %d deltas for %d cells", len(deltas), m.Len())
	}
	m.Traverse(func(i int, c *mesh.Cell) {
		if c.T != before[i] {
			t.Fatalf("ComputeStep mutated cell %d", i)
		}
	})
}

func TestFixedFlagFallbackAtOpenEdge(t *testing.T) {
	// Left-edge-only layout: the right edge is free and has no right
	// neighbor, so under the fixed-flag policy it mirrors its own
	// temperature across the open face.
	spec := mesh.Spec{
		NX: 3, NY: 3, NZ: 1,
		LX: 10, LY: 10, LZ: 10,
		Mtl:     uniformMaterial(),
		Layout:  mesh.LeftEdge,
		Initial: 300,
		Left:    400,
	}
	m := buildMesh(t, spec)

	// Make the field non-trivial around the open-edge cell (2,1).
	set := func(ix, iy int, temp float64) {
		c, _ := m.Get(ix, iy, 0)
		c.T = temp
	}
	set(1, 1, 320)
	set(2, 0, 310)
	set(2, 1, 330)
	set(2, 2, 340)

	s := newSolver(t, m, PolicyFixedFlag, 1)
	deltas, err := s.ComputeStep(0.01)
	if err != nil {
		t.Fatalf("ComputeStep: %v", err)
	}

	// Cell (2,1): left 320, right missing -> own 330, front 310, rear 340.
	alpha, h := 2e-6, 0.01
	want := alpha * ((320-2*330+330)/(h*h) + (310-2*330+340)/(h*h)) * 0.01
	c, _ := m.Get(2, 1, 0)
	got := deltas[(c.IZ*m.NY+c.IY)*m.NX+c.IX]
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("open-edge delta = %g, want %g", got, want)
	}
}

func TestEdgeIndexFreezesGridEdges(t *testing.T) {
	// Under the edge-index policy a free cell sitting on a grid edge is
	// still boundary and never moves.
	spec := mesh.Spec{
		NX: 4, NY: 4, NZ: 1,
		LX: 10, LY: 10, LZ: 10,
		Mtl:     uniformMaterial(),
		Layout:  mesh.LeftEdge,
		Initial: 300,
		Left:    400,
	}
	m := buildMesh(t, spec)
	s := newSolver(t, m, PolicyEdgeIndex, 2)

	if err := s.Advance(1.0, 0.01); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	m.Traverse(func(_ int, c *mesh.Cell) {
		onEdge := c.IX == 0 || c.IX == m.NX-1 || c.IY == 0 || c.IY == m.NY-1
		if !onEdge {
			return
		}
		want := 300.0
		if c.IX == 0 {
			want = 400
		}
		if c.T != want {
			t.Errorf("edge cell (%d,%d) moved to %g, want %g", c.IX, c.IY, c.T, want)
		}
	})
}

func TestParallelMatchesSerial(t *testing.T) {
	run := func(workers int) *mesh.Mesh {
		spec := fourEdgeSpec(12, 9)
		spec.Left, spec.Right, spec.Front, spec.Rear = 400, 390, 380, 370
		m := buildMesh(t, spec)
		s := newSolver(t, m, PolicyFixedFlag, workers)
		if err := s.Advance(0.1, 0.01); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		return m
	}
	serial, parallel := run(1), run(8)
	serial.Traverse(func(i int, c *mesh.Cell) {
		if pc := parallel.At(i); pc.T != c.T {
			t.Fatalf("cell %d: serial %g vs parallel %g", i, c.T, pc.T)
		}
	})
}

func TestStabilityNumber(t *testing.T) {
	m := buildMesh(t, fourEdgeSpec(3, 3))
	s := newSolver(t, m, PolicyFixedFlag, 1)

	// alpha*dt/h^2 = 2e-6 * 0.01 / (0.01)^2 = 2e-4.
	if f := s.StabilityNumber(0.01); math.Abs(f-2e-4) > 1e-15 {
		t.Errorf("StabilityNumber(0.01) = %g, want 2e-4", f)
	}
	if f := s.StabilityNumber(50); math.Abs(f-1.0) > 1e-12 {
		t.Errorf("StabilityNumber(50) = %g, want 1", f)
	}
}

func TestAdvanceRejectsBadStep(t *testing.T) {
	m := buildMesh(t, fourEdgeSpec(3, 3))
	s := newSolver(t, m, PolicyFixedFlag, 1)
	if err := s.Advance(1, 0); err == nil {
		t.Error("Advance accepted dt = 0")
	}
	if err := s.Advance(1, -0.01); err == nil {
		t.Error("Advance accepted a negative dt")
	}
}

func TestAdvanceStreaming(t *testing.T) {
	m := buildMesh(t, fourEdgeSpec(5, 5))
	s := newSolver(t, m, PolicyFixedFlag, 2)
	hub := NewCalcHub()

	ticks := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range hub.PeriodResult {
			ticks++
			if _, ok := s.Snapshot(0); !ok {
				t.Error("Snapshot(0) not found")
			}
		}
	}()

	if err := s.AdvanceStreaming(0.5, 0.01, 10, hub); err != nil {
		t.Fatalf("AdvanceStreaming: %v", err)
	}
	close(hub.PeriodResult)
	<-done
	if ticks == 0 {
		t.Error("no result ticks were raised")
	}
}

func TestAdvanceStreamingStops(t *testing.T) {
	m := buildMesh(t, fourEdgeSpec(5, 5))
	s := newSolver(t, m, PolicyFixedFlag, 2)
	hub := NewCalcHub()
	hub.StopSignal()

	before, _ := m.Get(2, 2, 0)
	temp := before.T
	if err := s.AdvanceStreaming(10, 0.01, 0, hub); err != nil {
		t.Fatalf("AdvanceStreaming: %v", err)
	}
	if after, _ := m.Get(2, 2, 0); after.T != temp {
		t.Error("run did not stop on the stop signal")
	}
}

func BenchmarkAdvance(b *testing.B) {
	spec := fourEdgeSpec(30, 20)
	m, err := mesh.Build(spec)
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	s := New(m, PolicyFixedFlag, 0)
	defer s.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Advance(0.01, 0.01); err != nil {
			b.Fatal(err)
		}
	}
}

package mesh

// Mesh is a structured grid of cells over one flat backing slice, row-major
// with x fastest: index = (iz*NY+iy)*NX + ix.
type Mesh struct {
	NX, NY, NZ int
	LX, LY, LZ float64 // cell edge lengths, mm
	cells      []Cell
}

func (m *Mesh) index(ix, iy, iz int) int {
	return (iz*m.NY+iy)*m.NX + ix
}

// Len returns the number of cells.
func (m *Mesh) Len() int { return len(m.cells) }

// Get returns the cell at grid coordinates (ix,iy,iz). Any out-of-range
// coordinate yields (nil, false).
func (m *Mesh) Get(ix, iy, iz int) (*Cell, bool) {
	if ix < 0 || ix >= m.NX || iy < 0 || iy >= m.NY || iz < 0 || iz >= m.NZ {
		return nil, false
	}
	return &m.cells[m.index(ix, iy, iz)], true
}

// At returns the cell at flat index i. The caller owns range checking.
func (m *Mesh) At(i int) *Cell { return &m.cells[i] }

// Traverse visits every cell in flat-index order.
func (m *Mesh) Traverse(visit func(i int, c *Cell)) {
	m.TraverseRange(0, len(m.cells), visit)
}

// TraverseRange visits cells with flat index in [first, last).
func (m *Mesh) TraverseRange(first, last int, visit func(i int, c *Cell)) {
	for i := first; i < last; i++ {
		visit(i, &m.cells[i])
	}
}

// Extremes returns the minimum and maximum temperature over the free
// (non-fixed) cells. ok is false when every cell is fixed.
func (m *Mesh) Extremes() (min, max float64, ok bool) {
	for i := range m.cells {
		c := &m.cells[i]
		if c.fixed {
			continue
		}
		if !ok {
			min, max, ok = c.T, c.T, true
			continue
		}
		if c.T < min {
			min = c.T
		}
		if c.T > max {
			max = c.T
		}
	}
	return min, max, ok
}

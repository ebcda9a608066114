package mesh

// Plane is the temperature field of one z slice in the shape contour
// plotters want: axis coordinates plus a row-per-y matrix.
type Plane struct {
	XS []float64   `json:"xs"` // cell x positions, mm
	YS []float64   `json:"ys"` // cell y positions, mm
	T  [][]float64 `json:"t"`  // T[iy][ix], K
}

// Plane extracts slice iz. The returned data is a copy; mutating it does
// not touch the mesh. An out-of-range iz yields (nil, false).
func (m *Mesh) Plane(iz int) (*Plane, bool) {
	if iz < 0 || iz >= m.NZ {
		return nil, false
	}
	p := &Plane{
		XS: make([]float64, m.NX),
		YS: make([]float64, m.NY),
		T:  make([][]float64, m.NY),
	}
	for ix := 0; ix < m.NX; ix++ {
		p.XS[ix] = m.LX * float64(ix)
	}
	for iy := 0; iy < m.NY; iy++ {
		p.YS[iy] = m.LY * float64(iy)
		row := make([]float64, m.NX)
		for ix := 0; ix < m.NX; ix++ {
			row[ix] = m.cells[m.index(ix, iy, iz)].T
		}
		p.T[iy] = row
	}
	return p, true
}

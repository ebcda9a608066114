package mesh

import "heatfield/material"

// Cell is one rectangular volume element of the grid.
//
// Geometry is carried in millimetres, mass in grams; the solver converts
// to SI at its own boundary. T is the only field that changes after the
// mesh is built, and only for cells whose temperature is not fixed.
type Cell struct {
	IX, IY, IZ int     // grid index
	X, Y, Z    float64 // position, mm
	LX, LY, LZ float64 // edge lengths, mm
	AX, AY, AZ float64 // face areas normal to each axis, mm2
	V          float64 // volume, mm3
	M          float64 // mass, g

	Mtl *material.Material
	T   float64 // K

	fixed bool
}

// Fixed reports whether this cell holds a prescribed boundary temperature.
func (c *Cell) Fixed() bool { return c.fixed }

func newCell(ix, iy, iz int, lx, ly, lz float64, mtl *material.Material, temp float64, fixed bool) Cell {
	v := lx * ly * lz
	return Cell{
		IX: ix, IY: iy, IZ: iz,
		X: lx * float64(ix), Y: ly * float64(iy), Z: lz * float64(iz),
		LX: lx, LY: ly, LZ: lz,
		AX: ly * lz, AY: lx * lz, AZ: lx * ly,
		V: v,
		// density kg/m3 times volume mm3 gives mass in grams after 1e-6.
		M:     mtl.Density() * v * 1e-6,
		Mtl:   mtl,
		T:     temp,
		fixed: fixed,
	}
}

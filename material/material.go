package material

// Thermophysical property lookup for the simulator.
//
// Units, unless stated otherwise:
// density kg m-3, thermal conductivity W m-1 K-1, specific heat J kg-1 K-1,
// temperature K.

// Material exposes a constant density and temperature-dependent property
// curves. A Material is shared by reference between cells and is never
// mutated after construction.
type Material struct {
	name         string
	meltingPoint float64 // K, zero when not applicable
	density      float64
	conductivity func(temp float64) float64
	specificHeat func(temp float64) float64
}

// New builds a material from a constant density and property curves.
func New(name string, density float64, conductivity, specificHeat func(temp float64) float64) *Material {
	return &Material{
		name:         name,
		density:      density,
		conductivity: conductivity,
		specificHeat: specificHeat,
	}
}

func (m *Material) Name() string { return m.name }

func (m *Material) MeltingPoint() float64 { return m.meltingPoint }

func (m *Material) Density() float64 { return m.density }

func (m *Material) Conductivity(temp float64) float64 { return m.conductivity(temp) }

func (m *Material) SpecificHeat(temp float64) float64 { return m.specificHeat(temp) }

// Diffusivity returns k/(rho*c) in m2 s-1 at the given temperature.
func (m *Material) Diffusivity(temp float64) float64 {
	return m.conductivity(temp) / (m.density * m.specificHeat(temp))
}

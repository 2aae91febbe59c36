package mesh

import "github.com/pthm-cable/ibmesh/geometry"

// FluidSource is an integer-indexed point source/sink of incompressibility.
// Element fluid sources model cell growth (zero strength in the core);
// balancing sources enforce net-zero mass injection across the mesh.
type FluidSource struct {
	Index    int
	Location geometry.Vec2
	Strength float64
}

// EstablishElementFluidSources gives every non-membrane element its own
// element fluid source at its current centroid (invariant 3), for every
// element that doesn't already have one.
func (m *Mesh) EstablishElementFluidSources() {
	for i := range m.Elements {
		m.reestablishElementFluidSource(i)
	}
}

// EstablishBalancingSources (re)populates the mesh's fixed sequence of
// balancing sources on the midline y=0, spaced 4*Dx apart with the first
// source offset from x=0 by Dx/8, matching the reference fluid framework's
// SetupFluidSourcesFromSpacing half-cell-avoiding placement so no balancing
// source coincides with a grid node.
func (m *Mesh) EstablishBalancingSources() {
	dx := m.DeltaX()
	spacing := 4 * dx
	offset := dx / 8

	m.BalancingFluidSources = m.BalancingFluidSources[:0]
	for x := offset; x < 1.0; x += spacing {
		m.BalancingFluidSources = append(m.BalancingFluidSources, FluidSource{
			Index:    len(m.BalancingFluidSources),
			Location: geometry.Vec2{X: x, Y: 0},
		})
	}
	m.BalanceFluidSources()
}

// BalanceFluidSources sets every balancing source's strength so that
// invariant 4 holds: the sum over all active fluid sources of strength
// equals the negative sum of balancing-source strengths. The total
// element-source strength is distributed evenly across the balancing
// sources.
func (m *Mesh) BalanceFluidSources() {
	if len(m.BalancingFluidSources) == 0 {
		return
	}
	var total float64
	for _, s := range m.ElementFluidSources {
		total += s.Strength
	}
	share := -total / float64(len(m.BalancingFluidSources))
	for i := range m.BalancingFluidSources {
		m.BalancingFluidSources[i].Strength = share
	}
}

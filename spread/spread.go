// Package spread implements the regularised delta function that couples
// the Lagrangian nodes to the Eulerian fluid grid: spreading node forces
// onto the grid, and interpolating grid velocities back onto nodes.
package spread

import (
	"math"

	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

// delta is phi(|d|, h) = (1/4h)(1 + cos(pi|d|/2h)) for |d| <= 2h, else 0.
func delta(d, h float64) float64 {
	ad := math.Abs(d)
	if ad > 2*h {
		return 0
	}
	return (1.0 / (4 * h)) * (1 + math.Cos(math.Pi*ad/(2*h)))
}

func lowerLeftIndex(x, h float64) int {
	return int(math.Floor(x/h)) - 1
}

func wrap(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}

// stencil calls fn for each of the 16 grid points in the 4x4 stencil
// around loc, passing the wrapped grid indices and the stencil weight.
func stencil(loc geometry.Vec2, dx, dy float64, nx, ny int, fn func(gi, gj int, w float64)) {
	i0 := lowerLeftIndex(loc.X, dx)
	j0 := lowerLeftIndex(loc.Y, dy)
	for a := 0; a < 4; a++ {
		gi := wrap(i0+a, nx)
		gx := float64(i0+a) * dx
		for b := 0; b < 4; b++ {
			gj := wrap(j0+b, ny)
			gy := float64(j0+b) * dy
			d := geometry.VectorFrom(geometry.Vec2{X: gx, Y: gy}, loc)
			w := delta(d.X, dx) * delta(d.Y, dy)
			fn(gi, gj, w)
		}
	}
}

// Spread adds every node's accumulated force into m.ForceX/ForceY via the
// 4x4 regularised delta stencil, scaled by the mesh's characteristic node
// spacing dl. The stencil weights sum to 1/(Δx·Δy), so the total force
// deposited for a node is its applied force times dl/(Δx·Δy).
func Spread(m *mesh.Mesh) {
	dx, dy := m.DeltaX(), m.DeltaY()
	dl := m.CharacteristicNodeSpacing
	for i := range m.Nodes {
		n := &m.Nodes[i]
		stencil(n.Location, dx, dy, m.Nx, m.Ny, func(gi, gj int, w float64) {
			m.ForceX[gj][gi] += n.Force.X * w * dl
			m.ForceY[gj][gi] += n.Force.Y * w * dl
		})
	}
}

// Interpolate sets every node's Velocity from the grid's VelocityU/V via
// the same 4x4 stencil, with dl replaced by the grid cell area so the
// result is a proper area-weighted average.
func Interpolate(m *mesh.Mesh) {
	dx, dy := m.DeltaX(), m.DeltaY()
	cellArea := dx * dy
	for i := range m.Nodes {
		n := &m.Nodes[i]
		var ux, uy float64
		stencil(n.Location, dx, dy, m.Nx, m.Ny, func(gi, gj int, w float64) {
			ux += m.VelocityU[gj][gi] * w * cellArea
			uy += m.VelocityV[gj][gi] * w * cellArea
		})
		n.Velocity = geometry.Vec2{X: ux, Y: uy}
	}
}

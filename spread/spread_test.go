package spread

import (
	"math"
	"testing"

	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

// The regularised delta kernel is normalised so that, at grid points
// spaced h apart, Sum_i phi(x-ih,h)*h = 1 for every x: a discrete
// partition of unity once weighted by the cell's length (area in 2D).
// Interpolate relies on exactly this identity via its Delta x * Delta y
// factor.
func TestStencilWeightsPartitionOfUnity(t *testing.T) {
	dx, dy := 1.0/32.0, 1.0/32.0
	locs := []geometry.Vec2{
		{X: 0.5, Y: 0.5},
		{X: 0.0, Y: 0.0},
		{X: 0.999, Y: 0.001},
		{X: 1.0/32.0 + 0.4*dx, Y: 1.0/32.0 + 0.7*dy},
	}
	for _, loc := range locs {
		sum := 0.0
		stencil(loc, dx, dy, 32, 32, func(_, _ int, w float64) {
			sum += w * dx * dy
		})
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("area-weighted stencil weights at %v sum to %v, want 1", loc, sum)
		}
	}
}

func TestSpreadConservesTotalForce(t *testing.T) {
	m, err := mesh.NewMesh(32, 32)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	m.CharacteristicNodeSpacing = 0.02

	locs := []geometry.Vec2{{X: 0.1, Y: 0.1}, {X: 0.55, Y: 0.3}, {X: 0.99, Y: 0.99}}
	forces := []geometry.Vec2{{X: 1, Y: -2}, {X: 0.5, Y: 0.5}, {X: -3, Y: 1}}
	for i, loc := range locs {
		n := mesh.NewNode(i, loc)
		n.Force = forces[i]
		m.Nodes = append(m.Nodes, n)
	}

	Spread(m)

	var totalX, totalY float64
	for y := 0; y < m.Ny; y++ {
		for x := 0; x < m.Nx; x++ {
			totalX += m.ForceX[y][x]
			totalY += m.ForceY[y][x]
		}
	}

	// The kernel's partition of unity holds once weighted by cell area
	// (Delta x * Delta y), not by dl; the total deposited force is
	// therefore each node's force scaled by dl/(Delta x * Delta y), the
	// ratio between the arc-length weight and the grid's own cell area.
	cellArea := m.DeltaX() * m.DeltaY()
	var wantX, wantY float64
	for _, f := range forces {
		wantX += f.X * m.CharacteristicNodeSpacing / cellArea
		wantY += f.Y * m.CharacteristicNodeSpacing / cellArea
	}

	if math.Abs(totalX-wantX) > 1e-6*math.Abs(wantX) || math.Abs(totalY-wantY) > 1e-6*math.Abs(wantY) {
		t.Errorf("total spread force = (%v,%v), want (%v,%v)", totalX, totalY, wantX, wantY)
	}
}

func TestInterpolateUniformFieldReturnsConstant(t *testing.T) {
	m, err := mesh.NewMesh(16, 16)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	for y := 0; y < m.Ny; y++ {
		for x := 0; x < m.Nx; x++ {
			m.VelocityU[y][x] = 2.5
			m.VelocityV[y][x] = -1.5
		}
	}
	m.Nodes = append(m.Nodes, mesh.NewNode(0, geometry.Vec2{X: 0.37, Y: 0.82}))

	Interpolate(m)

	v := m.Nodes[0].Velocity
	if math.Abs(v.X-2.5) > 1e-9 || math.Abs(v.Y-(-1.5)) > 1e-9 {
		t.Errorf("Interpolate on uniform field = %v, want (2.5,-1.5)", v)
	}
}

package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/ibmesh/geometry"
)

func TestNewForMeshDomainCentersOnUnitTorus(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)

	if cam.WorldScale != 800 {
		t.Errorf("expected WorldScale 800, got %f", cam.WorldScale)
	}
	if cam.Center.X != 0.5 || cam.Center.Y != 0.5 {
		t.Errorf("expected camera centered at (0.5, 0.5), got (%f, %f)", cam.Center.X, cam.Center.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)

	sx, sy := cam.WorldToScreen(geometry.Vec2{X: 0.5, Y: 0.5})
	if math.Abs(float64(sx-400)) > 0.01 || math.Abs(float64(sy-400)) > 0.01 {
		t.Errorf("expected screen center (400, 400), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := NewForMeshDomain(900, 900, 900)

	testCases := []struct{ sx, sy float32 }{
		{450, 450}, // center
		{100, 100}, // top-left
		{800, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		p := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(p)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)",
				tc.sx, tc.sy, p, sx, sy)
		}
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)
	cam.Center = geometry.Vec2{X: 0.05, Y: 0.5} // near left edge of the domain

	// A node near the domain's right edge should appear on the left side
	// of the screen (closer via the toroidal shortest path).
	sx, _ := cam.WorldToScreen(geometry.Vec2{X: 0.98, Y: 0.5})

	if sx >= 400 {
		t.Errorf("expected node on left of screen, got x=%f", sx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)
	cam.Center = geometry.Vec2{X: 0.02, Y: 0.5}

	// Pan left should wrap the camera to the right side of the domain.
	cam.Pan(-400, 0)

	if cam.Center.X < 0.5 {
		t.Errorf("expected Center.X to wrap around, got %f", cam.Center.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)

	if cam.MinZoom != 1.0 {
		t.Errorf("expected MinZoom 1.0, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // below min
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to MinZoom, got %f", cam.Zoom)
	}

	cam.SetZoom(10.0) // above max
	if cam.Zoom != 4.0 {
		t.Errorf("expected zoom clamped to 4.0, got %f", cam.Zoom)
	}
}

func TestMinZoomPreventsDeadSpace(t *testing.T) {
	// Asymmetric viewport: MinZoom should be max(800/800, 600/800) = 1.0
	cam := NewForMeshDomain(800, 600, 800)

	if math.Abs(float64(cam.MinZoom-1.0)) > 0.001 {
		t.Errorf("expected MinZoom 1.0, got %f", cam.MinZoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)

	if !cam.IsVisible(geometry.Vec2{X: 0.5, Y: 0.5}, 0.01) {
		t.Error("center should be visible")
	}

	// At zoom 1 the whole domain fits on screen; zoom in so the viewport
	// covers only the middle quarter of the domain.
	cam.SetZoom(4)
	if !cam.IsVisible(geometry.Vec2{X: 0.5, Y: 0.5}, 0.01) {
		t.Error("center should stay visible when zoomed in")
	}
	if cam.IsVisible(geometry.Vec2{X: 0.02, Y: 0.02}, 0.01) {
		t.Error("far point should not be visible")
	}
}

func TestReset(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)
	cam.Center = geometry.Vec2{X: 0.1, Y: 0.9}
	cam.Zoom = 2.5

	cam.Reset()

	if cam.Center.X != 0.5 || cam.Center.Y != 0.5 {
		t.Errorf("expected center (0.5, 0.5), got (%f, %f)", cam.Center.X, cam.Center.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestGhostPositionsNearWrapBoundary(t *testing.T) {
	cam := NewForMeshDomain(800, 800, 800)
	cam.Center = geometry.Vec2{X: 0.5, Y: 0.5}

	// Centred at zoom 1, the domain's wrap boundary lies on the screen
	// edges: a node just inside the right edge should produce a ghost just
	// outside the left edge.
	ghosts := cam.GhostPositions(geometry.Vec2{X: 0.995, Y: 0.5}, 0.01)
	if len(ghosts) == 0 {
		t.Error("expected at least one ghost position near the domain wrap boundary")
	}
}

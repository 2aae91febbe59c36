// Package camera provides a 2D viewport camera for the debug visualizer,
// with pan and zoom over the mesh's doubly-periodic domain. It works
// directly in mesh coordinates (geometry.Vec2, [0,1)x[0,1)) and uses
// geometry.VectorFrom for the shortest toroidal path from the camera
// center to any point, so a mesh element that straddles the domain
// boundary renders as two "ghost" halves rather than snapping
// discontinuously across the screen.
package camera

import (
	"github.com/pthm-cable/ibmesh/geometry"
)

// Camera controls the viewport into the periodic mesh domain.
type Camera struct {
	// Center is the camera's look-at point, in mesh coordinates.
	Center geometry.Vec2

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification).
	Zoom float32

	// Viewport dimensions (screen size, in pixels).
	ViewportW, ViewportH float32

	// WorldScale is the number of screen pixels one mesh-domain unit
	// covers at zoom 1.0.
	WorldScale float32

	// Zoom constraints.
	MinZoom, MaxZoom float32
}

// NewForMeshDomain creates a camera centered on the mesh's unit-torus
// domain [0,1)x[0,1) at 1:1 zoom, with worldScale screen pixels per
// mesh-domain unit.
func NewForMeshDomain(viewportW, viewportH, worldScale float32) *Camera {
	minZoom := viewportW / worldScale
	if alt := viewportH / worldScale; alt > minZoom {
		minZoom = alt
	}
	return &Camera{
		Center:     geometry.Vec2{X: 0.5, Y: 0.5},
		Zoom:       1.0,
		ViewportW:  viewportW,
		ViewportH:  viewportH,
		WorldScale: worldScale,
		MinZoom:    minZoom,
		MaxZoom:    4.0,
	}
}

// WorldToScreen converts a mesh-domain point to screen coordinates,
// taking the shortest toroidal path from the camera center.
func (c *Camera) WorldToScreen(p geometry.Vec2) (sx, sy float32) {
	d := geometry.VectorFrom(c.Center, p)
	dx := float32(d.X) * c.WorldScale
	dy := float32(d.Y) * c.WorldScale
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates back to a mesh-domain point,
// canonicalized into [0,1)x[0,1).
func (c *Camera) ScreenToWorld(sx, sy float32) geometry.Vec2 {
	dx := float64((sx - c.ViewportW/2) / c.Zoom / c.WorldScale)
	dy := float64((sy - c.ViewportH/2) / c.Zoom / c.WorldScale)
	return geometry.Canonicalize(geometry.Vec2{X: c.Center.X + dx, Y: c.Center.Y + dy})
}

// IsVisible reports whether a circle at mesh-domain point p with the
// given mesh-domain radius could be visible on screen (a conservative
// check for culling).
func (c *Camera) IsVisible(p geometry.Vec2, radius float32) bool {
	d := geometry.VectorFrom(c.Center, p)
	dx := float32(d.X) * c.WorldScale
	dy := float32(d.Y) * c.WorldScale
	screenRadius := radius * c.WorldScale

	halfW := c.ViewportW/(2*c.Zoom) + screenRadius
	halfH := c.ViewportH/(2*c.Zoom) + screenRadius

	return absf(dx) <= halfW && absf(dy) <= halfH
}

// GhostPositions returns additional screen positions for a mesh-domain
// point near the domain edges, given its mesh-domain radius. These
// "ghost" copies ensure a node sitting just inside one boundary also
// draws just outside the opposite one, so an element edge spanning the
// wrap doesn't appear to snap across the screen. Returns up to 3
// additional positions (plus the primary position makes 4 max for
// corners).
func (c *Camera) GhostPositions(p geometry.Vec2, radius float32) []struct{ X, Y float32 } {
	var ghosts []struct{ X, Y float32 }

	d := geometry.VectorFrom(c.Center, p)
	dx := float32(d.X) * c.WorldScale
	dy := float32(d.Y) * c.WorldScale
	screenRadius := radius * c.WorldScale

	worldW := c.WorldScale
	worldH := c.WorldScale

	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	needsHorizontalGhost := false
	var hGhostX float32
	if dx > halfW-screenRadius && dx < halfW+screenRadius {
		needsHorizontalGhost = true
		hGhostX = c.ViewportW/2 + (dx-worldW)*c.Zoom
	} else if dx < -halfW+screenRadius && dx > -halfW-screenRadius {
		needsHorizontalGhost = true
		hGhostX = c.ViewportW/2 + (dx+worldW)*c.Zoom
	}

	needsVerticalGhost := false
	var vGhostY float32
	if dy > halfH-screenRadius && dy < halfH+screenRadius {
		needsVerticalGhost = true
		vGhostY = c.ViewportH/2 + (dy-worldH)*c.Zoom
	} else if dy < -halfH+screenRadius && dy > -halfH-screenRadius {
		needsVerticalGhost = true
		vGhostY = c.ViewportH/2 + (dy+worldH)*c.Zoom
	}

	sx := c.ViewportW/2 + dx*c.Zoom
	sy := c.ViewportH/2 + dy*c.Zoom

	if needsHorizontalGhost {
		ghosts = append(ghosts, struct{ X, Y float32 }{hGhostX, sy})
	}
	if needsVerticalGhost {
		ghosts = append(ghosts, struct{ X, Y float32 }{sx, vGhostY})
	}
	if needsHorizontalGhost && needsVerticalGhost {
		ghosts = append(ghosts, struct{ X, Y float32 }{hGhostX, vGhostY})
	}

	return ghosts
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = viewportW / c.WorldScale
	if alt := viewportH / c.WorldScale; alt > c.MinZoom {
		c.MinZoom = alt
	}
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// Pan moves the camera by the given delta in screen pixels, wrapping
// around the mesh's periodic domain.
func (c *Camera) Pan(dx, dy float32) {
	ddx := float64(dx / c.Zoom / c.WorldScale)
	ddy := float64(dy / c.Zoom / c.WorldScale)
	c.Center = geometry.Canonicalize(geometry.Vec2{X: c.Center.X + ddx, Y: c.Center.Y + ddy})
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the domain center at 1:1 zoom.
func (c *Camera) Reset() {
	c.Center = geometry.Vec2{X: 0.5, Y: 0.5}
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the mesh-domain bounds of the visible area
// as (minX, minY, maxX, maxY). These are NOT canonicalized: for a view
// that straddles the domain wrap, min may be negative or max may exceed
// 1, matching the periodic geometry package's convention that only
// Canonicalize and VectorFrom enforce [0,1) wrap-around.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	halfW := float64(c.ViewportW / (2 * c.Zoom) / c.WorldScale)
	halfH := float64(c.ViewportH / (2 * c.Zoom) / c.WorldScale)

	minX = c.Center.X - halfW
	maxX = c.Center.X + halfW
	minY = c.Center.Y - halfH
	maxY = c.Center.Y + halfH
	return
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

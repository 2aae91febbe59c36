package mesh

import (
	"math"

	"github.com/pthm-cable/ibmesh/errs"
	"github.com/pthm-cable/ibmesh/geometry"
)

// Mesh owns every node and element, the two fluid grids and their force
// companions, and the fluid source lists. It is the single arena that
// everything else in this module references by index.
type Mesh struct {
	Nodes    []Node
	Elements []Element

	ElementFluidSources   []FluidSource
	BalancingFluidSources []FluidSource

	// VelocityU/V and ForceX/Y are Ny x Nx, row-major [y][x], matching
	// the reference framework's grid storage convention.
	VelocityU [][]float64
	VelocityV [][]float64
	ForceX    [][]float64
	ForceY    [][]float64

	Nx, Ny int

	// MembraneElementIndex is NoMembraneElement if the mesh has no
	// basement-lamina element.
	MembraneElementIndex int

	// CharacteristicNodeSpacing is the mean inter-node arclength over
	// all non-membrane cells, used by the spreading kernel's dl factor.
	CharacteristicNodeSpacing float64
}

// NewMesh constructs an empty mesh over an Nx x Ny periodic grid.
func NewMesh(nx, ny int) (*Mesh, error) {
	if nx <= 0 || ny <= 0 || nx%2 != 0 || ny%2 != 0 {
		return nil, errs.NewConfigError("grid", "Nx and Ny must be positive even integers")
	}
	m := &Mesh{
		Nx:                    nx,
		Ny:                    ny,
		MembraneElementIndex:  NoMembraneElement,
		VelocityU:             allocGrid(ny, nx),
		VelocityV:             allocGrid(ny, nx),
		ForceX:                allocGrid(ny, nx),
		ForceY:                allocGrid(ny, nx),
	}
	return m, nil
}

func allocGrid(ny, nx int) [][]float64 {
	g := make([][]float64, ny)
	for y := range g {
		g[y] = make([]float64, nx)
	}
	return g
}

// DeltaX returns the grid spacing in x, 1/Nx.
func (m *Mesh) DeltaX() float64 { return 1.0 / float64(m.Nx) }

// DeltaY returns the grid spacing in y, 1/Ny.
func (m *Mesh) DeltaY() float64 { return 1.0 / float64(m.Ny) }

// SetNumGridPts resizes the fluid grids to nx x ny, zeroing their content.
func (m *Mesh) SetNumGridPts(nx, ny int) error {
	if nx <= 0 || ny <= 0 || nx%2 != 0 || ny%2 != 0 {
		return errs.NewConfigError("grid", "Nx and Ny must be positive even integers")
	}
	m.Nx, m.Ny = nx, ny
	m.VelocityU = allocGrid(ny, nx)
	m.VelocityV = allocGrid(ny, nx)
	m.ForceX = allocGrid(ny, nx)
	m.ForceY = allocGrid(ny, nx)
	return nil
}

// GetSpacingRatio returns the characteristic node spacing divided by the
// grid spacing in x: the dimensionless ratio that controls spreading
// quality.
func (m *Mesh) GetSpacingRatio() float64 {
	return m.CharacteristicNodeSpacing * float64(m.Nx)
}

// nodeLoc returns the location of the node at nodeIndex.
func (m *Mesh) nodeLoc(nodeIndex int) geometry.Vec2 {
	return m.Nodes[nodeIndex].Location
}

// NodeLocation returns the location of the node at nodeIndex.
func (m *Mesh) NodeLocation(nodeIndex int) geometry.Vec2 {
	return m.Nodes[nodeIndex].Location
}

// FirstContainingElement returns the smallest element index that the node
// at nodeIndex belongs to, or -1 if it belongs to none. Mirrors the
// reference framework's use of the first entry of a node's (ordered)
// containing-element set.
func (m *Mesh) FirstContainingElement(nodeIndex int) int {
	best := -1
	for idx := range m.Nodes[nodeIndex].ContainingElements {
		if best == -1 || idx < best {
			best = idx
		}
	}
	return best
}

// edgeVectorsFromNodeZero returns, for each node i of elem, VectorFrom of
// node 0 to node i: shortest-vector edges anchored at the first node, the
// shared basis every shoelace-style computation in this file builds on.
func (m *Mesh) edgeVectorsFromNodeZero(elem *Element) []geometry.Vec2 {
	n := elem.NumNodes()
	base := m.nodeLoc(elem.NodeIndices[0])
	out := make([]geometry.Vec2, n)
	for i := 0; i < n; i++ {
		out[i] = geometry.VectorFrom(base, m.nodeLoc(elem.NodeIndices[i]))
	}
	return out
}

// VolumeOf returns the (always non-negative) polygon area of elem via the
// shoelace formula applied to shortest-vector edges from node 0.
func (m *Mesh) VolumeOf(elem *Element) float64 {
	pts := m.edgeVectorsFromNodeZero(elem)
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(0.5 * sum)
}

// SurfaceAreaOf returns the sum of torus distances between consecutive
// nodes of elem.
func (m *Mesh) SurfaceAreaOf(elem *Element) float64 {
	n := elem.NumNodes()
	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += geometry.Distance(m.nodeLoc(elem.NodeIndices[i]), m.nodeLoc(elem.NodeIndices[j]))
	}
	return total
}

// AverageNodeSpacingOf returns SurfaceAreaOf(elem) / NumNodes, cached on
// the element unless recompute is true.
func (m *Mesh) AverageNodeSpacingOf(elem *Element, recompute bool) float64 {
	if !recompute && elem.avgSpacingCached {
		return elem.avgSpacing
	}
	s := m.SurfaceAreaOf(elem) / float64(elem.NumNodes())
	elem.avgSpacing = s
	elem.avgSpacingCached = true
	return s
}

// CentroidOf returns the polygon centroid of elem, mapped back into
// [0,1)x[0,1). The membrane element has no well-defined centroid and
// returns the origin.
func (m *Mesh) CentroidOf(elemIndex int) geometry.Vec2 {
	elem := &m.Elements[elemIndex]
	if elemIndex == m.MembraneElementIndex {
		return geometry.Vec2{}
	}
	pts := m.edgeVectorsFromNodeZero(elem)
	n := len(pts)
	if n == 0 {
		return geometry.Vec2{}
	}
	var cx, cy, areaSum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
		areaSum += cross
		cx += (pts[i].X + pts[j].X) * cross
		cy += (pts[i].Y + pts[j].Y) * cross
	}
	if areaSum == 0 {
		return geometry.Canonicalize(m.nodeLoc(elem.NodeIndices[0]))
	}
	factor := 1.0 / (3.0 * areaSum)
	rel := geometry.Vec2{X: cx * factor, Y: cy * factor}
	base := m.nodeLoc(elem.NodeIndices[0])
	return geometry.Canonicalize(base.Add(rel))
}

// BoundingBox returns the (min, max) corners of elem's bounding box,
// expressed relative to node 0 using shortest-vector displacements.
func (m *Mesh) BoundingBox(elem *Element) (min, max geometry.Vec2) {
	pts := m.edgeVectorsFromNodeZero(elem)
	if len(pts) == 0 {
		return geometry.Vec2{}, geometry.Vec2{}
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Tortuosity returns the ratio of the total path length through the
// centroids of every non-membrane element (in element order) to the
// straight-line torus distance between the first and last centroid,
// clamped to respect the torus.
func (m *Mesh) Tortuosity() float64 {
	var centroids []geometry.Vec2
	for i := range m.Elements {
		if i == m.MembraneElementIndex {
			continue
		}
		centroids = append(centroids, m.CentroidOf(i))
	}
	if len(centroids) < 2 {
		return 1
	}
	path := 0.0
	for i := 1; i < len(centroids); i++ {
		path += geometry.Distance(centroids[i-1], centroids[i])
	}
	straight := geometry.Distance(centroids[0], centroids[len(centroids)-1])
	straight = geometry.StraightDistanceClamped(straight)
	if straight == 0 {
		return 1
	}
	return path / straight
}

// RecalculateCharacteristicSpacing recomputes CharacteristicNodeSpacing as
// the mean average-node-spacing over all non-membrane elements.
func (m *Mesh) RecalculateCharacteristicSpacing() {
	var sum float64
	count := 0
	for i := range m.Elements {
		if i == m.MembraneElementIndex {
			continue
		}
		sum += m.AverageNodeSpacingOf(&m.Elements[i], true)
		count++
	}
	if count == 0 {
		m.CharacteristicNodeSpacing = 0
		return
	}
	m.CharacteristicNodeSpacing = sum / float64(count)
}

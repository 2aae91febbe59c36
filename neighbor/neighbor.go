// Package neighbor implements a uniform box grid over the unit torus
// that yields candidate node pairs within an interaction radius. It is
// generalised from the reference codebase's SpatialGrid/ToroidalDelta
// bounded-world box grid to the [0,1)^2 periodic node-location
// convention used throughout this module.
package neighbor

import (
	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

// halfOffsets is the classic half-neighbour stencil: together with the
// within-cell pass, comparing each cell against these four directions
// visits every unordered cell pair exactly once.
var halfOffsets = [4][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}}

// Grid buckets node locations into cells of side >= radius tiling
// [0,1)^2, wrapping at the edges.
type Grid struct {
	radius     float64
	cols, rows int
	cellW, cellH float64
	cells      [][]int
}

// NewGrid constructs a box grid sized for the given interaction radius.
// The grid always has at least 3 cells per axis so the half-neighbour
// stencil never revisits a cell through wraparound.
func NewGrid(radius float64) *Grid {
	cols := int(1.0 / radius)
	if cols < 3 {
		cols = 3
	}
	rows := cols
	return &Grid{
		radius: radius,
		cols:   cols,
		rows:   rows,
		cellW:  1.0 / float64(cols),
		cellH:  1.0 / float64(rows),
		cells:  make([][]int, cols*rows),
	}
}

func wrap(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}

func (g *Grid) cellOf(loc geometry.Vec2) (col, row int) {
	c := geometry.Canonicalize(loc)
	col = int(c.X / g.cellW)
	if col >= g.cols {
		col = g.cols - 1
	}
	row = int(c.Y / g.cellH)
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// build buckets every node of m into its cell, reusing the grid's
// existing cell slices to avoid reallocating on every refresh.
func (g *Grid) build(m *mesh.Mesh) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for i := range m.Nodes {
		col, row := g.cellOf(m.Nodes[i].Location)
		idx := row*g.cols + col
		g.cells[idx] = append(g.cells[idx], i)
	}
}

func withinRadius(m *mesh.Mesh, a, b int, radius float64) bool {
	d := geometry.VectorFrom(m.NodeLocation(a), m.NodeLocation(b))
	return d.Norm() <= radius
}

// Refresh rebuilds the box grid from m's current node locations and
// returns the candidate (a,b) node pairs within the configured radius.
func (g *Grid) Refresh(m *mesh.Mesh) []mesh.NodePair {
	g.build(m)
	var pairs []mesh.NodePair
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			cellNodes := g.cells[row*g.cols+col]
			for i := 0; i < len(cellNodes); i++ {
				for j := i + 1; j < len(cellNodes); j++ {
					if withinRadius(m, cellNodes[i], cellNodes[j], g.radius) {
						pairs = append(pairs, mesh.NodePair{A: cellNodes[i], B: cellNodes[j]})
					}
				}
			}
			for _, off := range halfOffsets {
				ncol := wrap(col+off[0], g.cols)
				nrow := wrap(row+off[1], g.rows)
				neighbours := g.cells[nrow*g.cols+ncol]
				for _, a := range cellNodes {
					for _, b := range neighbours {
						if withinRadius(m, a, b, g.radius) {
							pairs = append(pairs, mesh.NodePair{A: a, B: b})
						}
					}
				}
			}
		}
	}
	return pairs
}

// ShouldRefresh reports whether the neighbour search should be rebuilt
// at stepIndex, given a refresh cadence of every frequency steps. A
// frequency of 0 or less means refresh on every step.
func ShouldRefresh(stepIndex, frequency int) bool {
	return frequency <= 0 || stepIndex%frequency == 0
}

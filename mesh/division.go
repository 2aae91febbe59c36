package mesh

import (
	"math/rand"

	"github.com/pthm-cable/ibmesh/errs"
	"github.com/pthm-cable/ibmesh/geometry"
)

// DivideAlongAxis implements the element division algorithm of the
// component design: it splits elem along axis into the original element
// (reshaped) plus a freshly allocated daughter element, each separated by
// at least divisionSpacing/2 on either side of the centroid along perp.
//
// placeOriginalBelow selects which side (positive or negative along
// axis.Perp()) keeps the original element's index; the other side becomes
// the new element.
func (m *Mesh) DivideAlongAxis(elemIndex int, axis geometry.Vec2, placeOriginalBelow bool, divisionSpacing float64) (int, error) {
	if divisionSpacing <= 0 {
		return 0, errs.NewConfigError("element_division_spacing", "must be set and positive before any division")
	}
	axisLen := axis.Norm()
	if axisLen == 0 {
		return 0, errs.NewGeometryError("divide_along_axis", "axis must be nonzero")
	}
	axis = axis.Scale(1 / axisLen)
	perp := axis.Perp()

	elem := &m.Elements[elemIndex]
	centroid := m.CentroidOf(elemIndex)
	n := elem.NumNodes()
	if n < 4 {
		return 0, errs.NewGeometryError("divide_along_axis", "element has too few nodes to divide")
	}

	signed := make([]float64, n)
	for i := 0; i < n; i++ {
		signed[i] = perp.Dot(geometry.VectorFrom(centroid, m.nodeLoc(elem.NodeIndices[i])))
	}

	crossings := findSignCrossings(signed)
	if len(crossings) != 2 {
		return 0, errs.NewGeometryError("divide_along_axis", "division axis must cross exactly two edges")
	}

	arcPos, arcNeg := splitIntoArcs(n, crossings, signed)

	half := divisionSpacing / 2
	posLocs, err := m.buildDaughterStencil(elem, arcPos, signed, perp, centroid, half)
	if err != nil {
		return 0, err
	}
	negLocs, err := m.buildDaughterStencil(elem, arcNeg, signed, perp, centroid, half)
	if err != nil {
		return 0, err
	}

	numNodes := n
	posSamples := resampleClosedPolygon(posLocs, numNodes)
	negSamples := resampleClosedPolygon(negLocs, numNodes)

	originalSamples, daughterSamples := posSamples, negSamples
	if placeOriginalBelow {
		originalSamples, daughterSamples = negSamples, posSamples
	}

	// Move the original element's nodes onto its resampled stencil,
	// reusing the existing node indices (preserving previously issued
	// indices as required by the lifecycle contract).
	oldIndices := elem.NodeIndices
	for i, idx := range oldIndices {
		if i >= len(originalSamples) {
			break
		}
		m.Nodes[idx].Location = geometry.Canonicalize(originalSamples[i])
	}
	elem.invalidateSpacingCache()

	// Allocate num_nodes fresh nodes for the daughter element.
	daughterIndices := make([]int, numNodes)
	for i := 0; i < numNodes; i++ {
		idx := len(m.Nodes)
		node := NewNode(idx, geometry.Canonicalize(daughterSamples[i%len(daughterSamples)]))
		node.Region = RegionLateral
		node.EnsureAttributes(len(m.Nodes[oldIndices[0]].Attributes))
		copy(node.Attributes, m.Nodes[oldIndices[0]].Attributes)
		m.Nodes = append(m.Nodes, node)
		daughterIndices[i] = idx
	}

	daughterIndex := len(m.Elements)
	daughter := NewElement(daughterIndex, daughterIndices)
	daughter.MembraneSpringConstant = elem.MembraneSpringConstant
	daughter.MembraneRestLength = elem.MembraneRestLength
	daughter.CellCellSpringConstant = elem.CellCellSpringConstant
	daughter.CellCellRestLength = elem.CellCellRestLength
	daughter.CornerNodes = elem.CornerNodes
	for k, v := range elem.Attributes {
		daughter.Attributes[k] = v
	}
	m.Elements = append(m.Elements, daughter)
	for _, idx := range daughterIndices {
		m.Nodes[idx].AddContainingElement(daughterIndex)
	}

	m.reestablishElementFluidSource(elemIndex)
	m.reestablishElementFluidSource(daughterIndex)

	return daughterIndex, nil
}

// DivideAlongShortAxis divides elem along its own short axis (the
// eigenvector of the larger inertia eigenvalue).
func (m *Mesh) DivideAlongShortAxis(elemIndex int, placeOriginalBelow bool, divisionSpacing float64, rng *rand.Rand) (int, error) {
	axis := m.ShortAxisOf(elemIndex, rng)
	return m.DivideAlongAxis(elemIndex, axis, placeOriginalBelow, divisionSpacing)
}

// findSignCrossings returns the indices i such that sign(signed[i]) !=
// sign(signed[i+1 mod n]), i.e. the edges the division line crosses.
func findSignCrossings(signed []float64) []int {
	n := len(signed)
	var crossings []int
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if (signed[i] >= 0) != (signed[j] >= 0) {
			crossings = append(crossings, i)
		}
	}
	return crossings
}

// splitIntoArcs partitions the ring [0,n) into the two arcs of node
// indices lying strictly between the two crossing edges, positive-side
// arc first.
func splitIntoArcs(n int, crossings []int, signed []float64) (arcPos, arcNeg []int) {
	a, b := crossings[0], crossings[1]
	arc1 := ringRange(n, a+1, b)
	arc2 := ringRange(n, b+1, a)
	if len(arc1) > 0 && signed[arc1[0]] >= 0 {
		return arc1, arc2
	}
	return arc2, arc1
}

// ringRange returns the node indices from start to end inclusive, walking
// forward around a ring of size n (wrapping if end < start).
func ringRange(n, start, end int) []int {
	var out []int
	i := ((start % n) + n) % n
	for {
		out = append(out, i)
		if i == end {
			break
		}
		i = (i + 1) % n
	}
	return out
}

// buildDaughterStencil walks both ends of arc outward until it finds a
// node at perpendicular distance >= half from the centroid, snaps those
// two frontier nodes exactly onto the +-half offset plane, and returns the
// retained node locations between them (inclusive).
func (m *Mesh) buildDaughterStencil(elem *Element, arc []int, signed []float64, perp, centroid geometry.Vec2, half float64) ([]geometry.Vec2, error) {
	if len(arc) == 0 {
		return nil, errs.NewGeometryError("divide_along_axis", "degenerate arc with no nodes")
	}

	startFrontier := -1
	for _, idx := range arc {
		if absF(signed[idx]) >= half {
			startFrontier = idx
			break
		}
	}
	endFrontier := -1
	for i := len(arc) - 1; i >= 0; i-- {
		idx := arc[i]
		if absF(signed[idx]) >= half {
			endFrontier = idx
			break
		}
	}
	if startFrontier == -1 || endFrontier == -1 {
		return nil, errs.NewDivisionSpacingError(elem.Index, half*2)
	}

	var retained []int
	collecting := false
	for _, idx := range arc {
		if idx == startFrontier {
			collecting = true
		}
		if collecting {
			retained = append(retained, idx)
		}
		if idx == endFrontier {
			break
		}
	}

	locs := make([]geometry.Vec2, len(retained))
	for i, idx := range retained {
		loc := geometry.VectorFrom(centroid, m.nodeLoc(idx))
		locs[i] = loc
	}
	// Snap the two frontier endpoints exactly onto the +-half offset plane
	// along perp, preserving their axis-aligned component.
	snap := func(v geometry.Vec2) geometry.Vec2 {
		sign := 1.0
		if v.Dot(perp) < 0 {
			sign = -1.0
		}
		axisComp := v.Sub(perp.Scale(v.Dot(perp)))
		return axisComp.Add(perp.Scale(sign * half))
	}
	locs[0] = snap(locs[0])
	locs[len(locs)-1] = snap(locs[len(locs)-1])

	// Translate back from centroid-relative to absolute coordinates.
	for i := range locs {
		locs[i] = centroid.Add(locs[i])
	}
	return locs, nil
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// resampleClosedPolygon resamples the closed polygon described by pts
// (the edge from the last point back to the first closes the ring) to
// exactly numNodes equally arc-length-spaced points.
func resampleClosedPolygon(pts []geometry.Vec2, numNodes int) []geometry.Vec2 {
	n := len(pts)
	if n == 0 || numNodes <= 0 {
		return nil
	}
	edgeLen := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		d := geometry.VectorFrom(pts[i], pts[j]).Norm()
		edgeLen[i] = d
		total += d
	}
	if total == 0 {
		out := make([]geometry.Vec2, numNodes)
		for i := range out {
			out[i] = pts[0]
		}
		return out
	}

	step := total / float64(numNodes)
	out := make([]geometry.Vec2, numNodes)
	edge := 0
	travelled := 0.0
	target := 0.0
	for k := 0; k < numNodes; k++ {
		target = float64(k) * step
		for travelled+edgeLen[edge] < target && edge < n-1 {
			travelled += edgeLen[edge]
			edge++
		}
		var t float64
		if edgeLen[edge] > 0 {
			t = (target - travelled) / edgeLen[edge]
		}
		j := (edge + 1) % n
		disp := geometry.VectorFrom(pts[edge], pts[j]).Scale(t)
		out[k] = pts[edge].Add(disp)
	}
	return out
}

// reestablishElementFluidSource re-creates or repositions elemIndex's
// fluid source at its current centroid, satisfying invariant 3.
func (m *Mesh) reestablishElementFluidSource(elemIndex int) {
	if elemIndex == m.MembraneElementIndex {
		return
	}
	elem := &m.Elements[elemIndex]
	centroid := m.CentroidOf(elemIndex)
	if elem.FluidSourceIndex == NoFluidSource {
		idx := len(m.ElementFluidSources)
		m.ElementFluidSources = append(m.ElementFluidSources, FluidSource{Index: idx, Location: centroid})
		elem.FluidSourceIndex = idx
		return
	}
	m.ElementFluidSources[elem.FluidSourceIndex].Location = centroid
}

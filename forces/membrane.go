package forces

import (
	"math"
	"sort"

	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

// MembraneElasticity is a Hooke spring force along every element's
// boundary edges, stiffened near the apical/basal poles. Region
// classification happens once, on the first AddForceContribution call.
type MembraneElasticity struct {
	classified bool
}

// NewMembraneElasticity constructs an unclassified membrane force.
func NewMembraneElasticity() *MembraneElasticity {
	return &MembraneElasticity{}
}

// AddForceContribution implements Force.
func (f *MembraneElasticity) AddForceContribution(m *mesh.Mesh, _ []mesh.NodePair) error {
	if !f.classified {
		f.classifyRegions(m)
		f.classified = true
	}

	for ei := range m.Elements {
		elem := &m.Elements[ei]
		n := elem.NumNodes()
		if n == 0 {
			continue
		}

		toNext := make([]geometry.Vec2, n)
		for i := 0; i < n; i++ {
			next := (i + 1) % n
			k := elem.MembraneSpringConstant
			rest := elem.MembraneRestLength
			if m.Nodes[elem.NodeIndices[i]].Region < mesh.RegionLateral ||
				m.Nodes[elem.NodeIndices[next]].Region < mesh.RegionLateral {
				k *= 10.0
				rest *= 4.0
			}

			d := geometry.VectorFrom(m.NodeLocation(elem.NodeIndices[next]), m.NodeLocation(elem.NodeIndices[i]))
			dist := d.Norm()
			if dist == 0 {
				continue
			}
			toNext[i] = d.Scale(k * (dist - rest) / dist)
		}

		for i := 0; i < n; i++ {
			prev := (i - 1 + n) % n
			net := toNext[prev].Sub(toNext[i])
			m.Nodes[elem.NodeIndices[i]].AddForceContribution(net)
		}
	}
	return nil
}

// classifyRegions sorts each non-membrane element's nodes by y and labels
// the bottom-most/top-most fraction basal/apical, the rest lateral; the
// membrane element's nodes are all lateral.
func (f *MembraneElasticity) classifyRegions(m *mesh.Mesh) {
	for ei := range m.Elements {
		elem := &m.Elements[ei]
		if ei == m.MembraneElementIndex {
			for _, ni := range elem.NodeIndices {
				m.Nodes[ni].Region = mesh.RegionLateral
			}
			continue
		}

		n := elem.NumNodes()
		aspect := m.ElongationShapeFactorOf(ei)
		numBasal := int(math.Floor(0.5 * float64(n) / (1 + aspect)))
		if numBasal < 1 {
			numBasal = 1
		}
		if numBasal >= n/2 {
			numBasal = n/2 - 1
		}
		if numBasal < 1 {
			for _, ni := range elem.NodeIndices {
				m.Nodes[ni].Region = mesh.RegionLateral
			}
			continue
		}

		ys := make([]float64, n)
		for i, ni := range elem.NodeIndices {
			ys[i] = m.Nodes[ni].Location.Y
		}
		sort.Float64s(ys)
		lowThreshold := 0.5 * (ys[numBasal-1] + ys[numBasal])
		highThreshold := 0.5 * (ys[n-numBasal] + ys[n-numBasal-1])

		for _, ni := range elem.NodeIndices {
			y := m.Nodes[ni].Location.Y
			switch {
			case y < lowThreshold:
				m.Nodes[ni].Region = mesh.RegionBasal
			case y > highThreshold:
				m.Nodes[ni].Region = mesh.RegionApical
			default:
				m.Nodes[ni].Region = mesh.RegionLateral
			}
		}
	}
}

// ParameterDump implements Force. It returns no entries: the membrane
// spring constant and rest length are per-element values
// (Element.MembraneSpringConstant/MembraneRestLength), not fields of the
// force.
func (f *MembraneElasticity) ParameterDump() []Param {
	return nil
}

// Archive implements Force. Membrane spring constant/rest length live on
// each element rather than on the force itself, so there is nothing
// force-global to snapshot; per-element values round-trip with the mesh.
func (f *MembraneElasticity) Archive() Archived {
	return Archived{}
}

// Restore implements Force.
func (f *MembraneElasticity) Restore(Archived) error {
	return nil
}

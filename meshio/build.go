package meshio

import (
	"github.com/pthm-cable/ibmesh/errs"
	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

// attributeKey is the Element.Attributes map key used for the single
// scalar attribute a reader row may carry.
const attributeKey = "value"

// Build consumes r and constructs a fully populated Mesh: nodes, elements
// (recording the membrane element if one is flagged), the velocity grids,
// the characteristic node spacing, and both fluid source lists, satisfying
// invariants 3 and 4 before returning.
func Build(r Reader) (*mesh.Mesh, error) {
	nx, ny := r.GridDims()
	m, err := mesh.NewMesh(nx, ny)
	if err != nil {
		return nil, err
	}

	for y := 0; y < ny; y++ {
		uRow := r.VelocityRow('u', y)
		vRow := r.VelocityRow('v', y)
		if len(uRow) != nx || len(vRow) != nx {
			return nil, errs.NewMalformedMeshError("velocity row length does not match grid width")
		}
		copy(m.VelocityU[y], uRow)
		copy(m.VelocityV[y], vRow)
	}

	numNodes := r.NumNodes()
	m.Nodes = make([]mesh.Node, numNodes)
	for i := 0; i < numNodes; i++ {
		row := r.Node(i)
		n := mesh.NewNode(i, geometry.Canonicalize(geometry.Vec2{X: row.X, Y: row.Y}))
		n.Boundary = row.IsBoundary
		m.Nodes[i] = n
	}

	numElements := r.NumElements()
	membraneSeen := false
	for i := 0; i < numElements; i++ {
		row := r.Element(i)
		for _, ni := range row.NodeIndices {
			if ni < 0 || ni >= numNodes {
				return nil, errs.NewMalformedMeshError("element references out-of-range node index")
			}
		}
		elem := mesh.NewElement(i, row.NodeIndices)
		if row.HasAttribute {
			elem.Attributes[attributeKey] = row.Attribute
		}
		m.Elements = append(m.Elements, elem)
		for _, ni := range row.NodeIndices {
			m.Nodes[ni].AddContainingElement(i)
		}
		if row.IsMembrane {
			if membraneSeen {
				return nil, errs.NewMalformedMeshError("more than one element flagged as the membrane element")
			}
			m.MembraneElementIndex = i
			membraneSeen = true
		}
	}

	m.RecalculateCharacteristicSpacing()
	m.EstablishElementFluidSources()
	m.EstablishBalancingSources()

	return m, nil
}

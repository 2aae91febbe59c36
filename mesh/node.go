package mesh

import "github.com/pthm-cable/ibmesh/geometry"

// Region tags classify a node within its element for the membrane
// elasticity force (basal/apical nodes get a stiffer, longer-rest spring).
const (
	RegionBasal = iota
	RegionApical
	RegionLateral
)

// Node is a Lagrangian vertex. Nodes are owned by a Mesh's Nodes slice and
// referenced everywhere else by integer index (the arena+index ownership
// graph from the design notes), never by pointer.
type Node struct {
	Index      int
	Location   geometry.Vec2
	Boundary   bool
	Region     int
	Force      geometry.Vec2
	Velocity   geometry.Vec2
	Attributes []float64

	// ContainingElements holds the indices of every element this node
	// belongs to. A node can belong to more than one element only
	// transiently during division.
	ContainingElements map[int]struct{}
}

// NewNode constructs a boundary node at the given location with no
// attributes and no containing elements.
func NewNode(index int, loc geometry.Vec2) Node {
	return Node{
		Index:              index,
		Location:           loc,
		Boundary:           true,
		Region:             RegionLateral,
		ContainingElements: make(map[int]struct{}),
	}
}

// AddContainingElement records that this node belongs to elemIndex.
func (n *Node) AddContainingElement(elemIndex int) {
	n.ContainingElements[elemIndex] = struct{}{}
}

// AddForceContribution accumulates f into the node's applied-force vector.
func (n *Node) AddForceContribution(f geometry.Vec2) {
	n.Force = n.Force.Add(f)
}

// ClearForce zeroes the node's accumulated applied force.
func (n *Node) ClearForce() {
	n.Force = geometry.Vec2{}
}

// EnsureAttributes grows the attribute vector to at least count entries,
// zero-filling any new slots; a vector that is already long enough is
// left unchanged.
func (n *Node) EnsureAttributes(count int) {
	if len(n.Attributes) >= count {
		return
	}
	grown := make([]float64, count)
	copy(grown, n.Attributes)
	n.Attributes = grown
}

// Package forces implements the pluggable Lagrangian force modules that
// add vectors into mesh node force accumulators: membrane elasticity and
// cell-cell interaction. Both satisfy the Force capability set described
// in the design notes: attach-once, add-contribution, parameter dump, and
// round-trip archive.
package forces

import "github.com/pthm-cable/ibmesh/mesh"

// Param is one ordered <Name>value</Name> entry of a force's parameter
// dump.
type Param struct {
	Name  string
	Value float64
}

// Archived is the persisted-state snapshot of a force module: spring
// constant, rest length (or rest-length multiplier), and any boolean
// mode flags (e.g. the cell-cell module's linear/Morse choice).
type Archived struct {
	Floats map[string]float64
	Bools  map[string]bool
}

// Force is the capability every force module implements.
type Force interface {
	// AddForceContribution adds vectors into every relevant node's
	// applied-force accumulator in m, given the current candidate pair
	// list from the neighbour search.
	AddForceContribution(m *mesh.Mesh, pairs []mesh.NodePair) error

	// ParameterDump returns this force's parameters in stable field
	// order, for the <Name>value</Name> dump format.
	ParameterDump() []Param

	// Archive returns a persisted-state snapshot suitable for round-trip
	// serialisation.
	Archive() Archived

	// Restore applies a previously archived snapshot.
	Restore(Archived) error
}

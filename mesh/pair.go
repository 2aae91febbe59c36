package mesh

// NodePair is an ordered candidate pair of node indices, as produced by
// the neighbour search and consumed by force modules.
type NodePair struct {
	A, B int
}

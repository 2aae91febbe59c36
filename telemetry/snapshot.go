package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/ibmesh/mesh"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for restart or replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Nx int `json:"nx"`
	Ny int `json:"ny"`

	StepIndex int `json:"step_index"`

	Nodes    []NodeState    `json:"nodes"`
	Elements []ElementState `json:"elements"`

	ElementFluidSources   []FluidSourceState `json:"element_fluid_sources"`
	BalancingFluidSources []FluidSourceState `json:"balancing_fluid_sources"`

	MembraneElementIndex int `json:"membrane_element_index"`

	VelocityU [][]float64 `json:"velocity_u"`
	VelocityV [][]float64 `json:"velocity_v"`

	CharacteristicNodeSpacing float64 `json:"characteristic_node_spacing"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// NodeState holds one node's complete state.
type NodeState struct {
	Index      int       `json:"index"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Boundary   bool      `json:"boundary"`
	Region     int       `json:"region"`
	Attributes []float64 `json:"attributes,omitempty"`
}

// ElementState holds one element's complete state.
type ElementState struct {
	Index                  int                `json:"index"`
	NodeIndices            []int              `json:"node_indices"`
	MembraneSpringConstant float64            `json:"membrane_spring_constant"`
	MembraneRestLength     float64            `json:"membrane_rest_length"`
	CellCellSpringConstant float64            `json:"cell_cell_spring_constant"`
	CellCellRestLength     float64            `json:"cell_cell_rest_length"`
	FluidSourceIndex       int                `json:"fluid_source_index"`
	Attributes             map[string]float64 `json:"attributes,omitempty"`
}

// FluidSourceState holds one fluid source's complete state.
type FluidSourceState struct {
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Strength float64 `json:"strength"`
}

// BuildSnapshot captures m's current state into a Snapshot.
func BuildSnapshot(m *mesh.Mesh, rngSeed int64, stepIndex int, bookmark *Bookmark) *Snapshot {
	nodes := make([]NodeState, len(m.Nodes))
	for i, n := range m.Nodes {
		nodes[i] = NodeState{
			Index:      n.Index,
			X:          n.Location.X,
			Y:          n.Location.Y,
			Boundary:   n.Boundary,
			Region:     n.Region,
			Attributes: append([]float64(nil), n.Attributes...),
		}
	}

	elements := make([]ElementState, len(m.Elements))
	for i, e := range m.Elements {
		elements[i] = ElementState{
			Index:                  e.Index,
			NodeIndices:            append([]int(nil), e.NodeIndices...),
			MembraneSpringConstant: e.MembraneSpringConstant,
			MembraneRestLength:     e.MembraneRestLength,
			CellCellSpringConstant: e.CellCellSpringConstant,
			CellCellRestLength:     e.CellCellRestLength,
			FluidSourceIndex:       e.FluidSourceIndex,
			Attributes:             e.Attributes,
		}
	}

	toStates := func(srcs []mesh.FluidSource) []FluidSourceState {
		out := make([]FluidSourceState, len(srcs))
		for i, s := range srcs {
			out[i] = FluidSourceState{Index: s.Index, X: s.Location.X, Y: s.Location.Y, Strength: s.Strength}
		}
		return out
	}

	return &Snapshot{
		Version:                   SnapshotVersion,
		RNGSeed:                   rngSeed,
		Nx:                        m.Nx,
		Ny:                        m.Ny,
		StepIndex:                 stepIndex,
		Nodes:                     nodes,
		Elements:                  elements,
		ElementFluidSources:       toStates(m.ElementFluidSources),
		BalancingFluidSources:     toStates(m.BalancingFluidSources),
		MembraneElementIndex:      m.MembraneElementIndex,
		VelocityU:                 m.VelocityU,
		VelocityV:                 m.VelocityV,
		CharacteristicNodeSpacing: m.CharacteristicNodeSpacing,
		Bookmark:                  bookmark,
	}
}

// SaveSnapshot writes a snapshot to disk and returns the filepath where it
// was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.StepIndex)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.StepIndex, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

package telemetry

import (
	"testing"

	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

func twoElementMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewMesh(4, 4)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	locs := []geometry.Vec2{
		{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.1}, {X: 0.15, Y: 0.2},
		{X: 0.3, Y: 0.1}, {X: 0.4, Y: 0.1}, {X: 0.35, Y: 0.2},
	}
	for i, l := range locs {
		m.Nodes = append(m.Nodes, mesh.NewNode(i, l))
	}
	e0 := mesh.NewElement(0, []int{0, 1, 2})
	e1 := mesh.NewElement(1, []int{3, 4, 5})
	m.Elements = append(m.Elements, e0, e1)
	for _, ni := range []int{0, 1, 2} {
		m.Nodes[ni].AddContainingElement(0)
	}
	for _, ni := range []int{3, 4, 5} {
		m.Nodes[ni].AddContainingElement(1)
	}
	m.RecalculateCharacteristicSpacing()
	m.EstablishElementFluidSources()
	m.EstablishBalancingSources()
	return m
}

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(10)
	if c.ShouldFlush(5) {
		t.Error("should not flush before the window elapses")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush once the window has elapsed")
	}
}

func TestCollectorFlushSamplesMeshAndResetsCounters(t *testing.T) {
	c := NewCollector(50)
	c.RecordDivision()
	c.RecordDivision()
	c.RecordDivisionRejected()

	m := twoElementMesh(t)
	stats := c.Flush(50, 0.0001, m)

	if stats.WindowStartStep != 0 || stats.WindowEndStep != 50 {
		t.Errorf("window bounds = [%d, %d], want [0, 50]", stats.WindowStartStep, stats.WindowEndStep)
	}
	if stats.Divisions != 2 {
		t.Errorf("Divisions = %d, want 2", stats.Divisions)
	}
	if stats.DivisionsRejected != 1 {
		t.Errorf("DivisionsRejected = %d, want 1", stats.DivisionsRejected)
	}
	if stats.NumElements != 2 {
		t.Errorf("NumElements = %d, want 2", stats.NumElements)
	}
	if stats.TotalVolume <= 0 {
		t.Error("expected a positive total volume")
	}

	again := c.Flush(100, 0.0001, m)
	if again.Divisions != 0 || again.DivisionsRejected != 0 {
		t.Error("expected counters to reset after flushing")
	}
	if again.WindowStartStep != 50 {
		t.Errorf("WindowStartStep = %d, want 50 after first flush", again.WindowStartStep)
	}
}

func TestNewCollectorClampsWindowSteps(t *testing.T) {
	c := NewCollector(0)
	if c.WindowSteps() != 1 {
		t.Errorf("WindowSteps() = %d, want 1 for a non-positive input", c.WindowSteps())
	}
}

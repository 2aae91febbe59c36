package sim

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

func regularPolygon(t *testing.T, m *mesh.Mesh, c geometry.Vec2, radius float64, n int) int {
	t.Helper()
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		loc := geometry.Canonicalize(geometry.Vec2{
			X: c.X + radius*math.Cos(theta),
			Y: c.Y + radius*math.Sin(theta),
		})
		idx := len(m.Nodes)
		m.Nodes = append(m.Nodes, mesh.NewNode(idx, loc))
		indices[i] = idx
	}
	elemIdx := len(m.Elements)
	elem := mesh.NewElement(elemIdx, indices)
	m.Elements = append(m.Elements, elem)
	for _, idx := range indices {
		m.Nodes[idx].AddContainingElement(elemIdx)
	}
	return elemIdx
}

// With no force modules registered, every node stays at rest: the force
// grids stay zero, the fluid solve leaves zero velocity at zero, and
// interpolation yields zero node velocity, so element volume must be
// exactly preserved step over step.
func TestStepWithNoForcesPreservesVolume(t *testing.T) {
	m, err := mesh.NewMesh(32, 32)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	elemIdx := regularPolygon(t, m, geometry.Vec2{X: 0.5, Y: 0.5}, 0.15, 32)
	m.RecalculateCharacteristicSpacing()
	v0 := m.VolumeOf(&m.Elements[elemIdx])

	s := New(m, nil, 0.1, 0.01, 1e4, 1, 1)
	for i := 0; i < 10; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	v1 := m.VolumeOf(&m.Elements[elemIdx])
	if math.Abs(v1-v0) > 1e-10 {
		t.Errorf("volume changed under zero force: %v -> %v", v0, v1)
	}
}

func TestStepIndexAdvances(t *testing.T) {
	m, err := mesh.NewMesh(16, 16)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	s := New(m, nil, 0.1, 0.01, 1e4, 1, 1)
	for i := 0; i < 3; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if s.StepIndex() != 3 {
		t.Errorf("StepIndex() = %d, want 3", s.StepIndex())
	}
}

func TestStepAfterRunPopulatesPerfForEveryPhase(t *testing.T) {
	m, err := mesh.NewMesh(16, 16)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	s := New(m, nil, 0.1, 0.01, 1e4, 1, 1)
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	for _, phase := range stepPhaseOrder {
		if len(s.Perf.samples[phase]) == 0 {
			t.Errorf("phase %q has no recorded duration after a step", phase)
		}
		if s.Perf.Avg(phase) < 0 {
			t.Errorf("phase %q has a negative average duration", phase)
		}
	}

	name, avg := s.Perf.DominantPhase()
	if name == "" {
		t.Fatal("expected a dominant phase after a completed step")
	}
	if avg < s.Perf.Avg(name) || avg > s.Perf.Avg(name) {
		t.Errorf("DominantPhase avg %v does not match Avg(%q) %v", avg, name, s.Perf.Avg(name))
	}
}

func TestTimedPanicsOnPhaseOutsideStepOrder(t *testing.T) {
	m, err := mesh.NewMesh(16, 16)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	s := New(m, nil, 0.1, 0.01, 1e4, 1, 1)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected a panic for a phase name outside stepPhaseOrder")
		}
	}()
	s.timed("not_a_real_phase", func() { time.Sleep(time.Microsecond) })
}

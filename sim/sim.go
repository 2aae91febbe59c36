// Package sim orchestrates the per-step simulation loop: neighbour
// refresh, force accumulation, force spreading, the fluid solve,
// velocity interpolation, and node advection, in that fixed order.
package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/pthm-cable/ibmesh/fluid"
	"github.com/pthm-cable/ibmesh/forces"
	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
	"github.com/pthm-cable/ibmesh/neighbor"
	"github.com/pthm-cable/ibmesh/spread"
)

// stepPhaseOrder is the fixed sequence of phases Step times, in the
// order Step actually runs them. timed rejects any other name, and
// DominantPhase breaks equal-average ties by this order so the result
// is deterministic.
var stepPhaseOrder = []string{
	"neighbour", "clear", "forces", "spread", "fluid", "interpolate", "advect",
}

func phaseRank(name string) int {
	for i, p := range stepPhaseOrder {
		if p == name {
			return i
		}
	}
	return len(stepPhaseOrder)
}

// Simulation owns the mesh, the registered force modules, and the
// neighbour search, and drives one time step at a time via Step.
type Simulation struct {
	Mesh   *mesh.Mesh
	Forces []forces.Force
	Grid   *neighbor.Grid

	Dt                 float64
	Reynolds           float64
	NeighbourFrequency int
	FFTThreads         int

	Perf *PerfStats

	stepIndex int
	pairs     []mesh.NodePair
}

// New constructs a Simulation. interactionRadius sizes the neighbour
// search's box grid; neighbourFrequency is the refresh cadence in steps
// (0 or less means refresh every step); fftThreads bounds the fluid
// solve's FFT worker pool (below 1 runs it on the calling goroutine).
func New(m *mesh.Mesh, fs []forces.Force, interactionRadius, dt, reynolds float64, neighbourFrequency, fftThreads int) *Simulation {
	return &Simulation{
		Mesh:               m,
		Forces:             fs,
		Grid:               neighbor.NewGrid(interactionRadius),
		Dt:                 dt,
		Reynolds:           reynolds,
		NeighbourFrequency: neighbourFrequency,
		FFTThreads:         fftThreads,
		Perf:               NewPerfStats(),
	}
}

// Step advances the simulation by one time step, in the fixed order:
// neighbour refresh (cadence-gated), clear, forces, spread, fluid solve,
// interpolate, advect.
func (s *Simulation) Step() error {
	if neighbor.ShouldRefresh(s.stepIndex, s.NeighbourFrequency) {
		s.timed("neighbour", func() { s.pairs = s.Grid.Refresh(s.Mesh) })
	}

	s.timed("clear", s.clearForces)

	var forceErr error
	s.timed("forces", func() {
		for _, f := range s.Forces {
			if err := f.AddForceContribution(s.Mesh, s.pairs); err != nil {
				forceErr = err
				return
			}
		}
	})
	if forceErr != nil {
		return forceErr
	}

	s.timed("spread", func() { spread.Spread(s.Mesh) })

	var fluidErr error
	s.timed("fluid", func() { fluidErr = fluid.Step(s.Mesh, s.Dt, s.Reynolds, s.FFTThreads) })
	if fluidErr != nil {
		return fluidErr
	}

	s.timed("interpolate", func() { spread.Interpolate(s.Mesh) })

	s.timed("advect", s.advect)

	s.stepIndex++
	return nil
}

func (s *Simulation) clearForces() {
	for i := range s.Mesh.Nodes {
		s.Mesh.Nodes[i].ClearForce()
	}
	for y := 0; y < s.Mesh.Ny; y++ {
		row := s.Mesh.ForceX[y]
		for x := range row {
			row[x] = 0
		}
		row = s.Mesh.ForceY[y]
		for x := range row {
			row[x] = 0
		}
	}
}

func (s *Simulation) advect() {
	for i := range s.Mesh.Nodes {
		n := &s.Mesh.Nodes[i]
		moved := n.Location.Add(n.Velocity.Scale(s.Dt))
		n.Location = geometry.Canonicalize(moved)
	}
}

func (s *Simulation) timed(name string, fn func()) {
	if phaseRank(name) == len(stepPhaseOrder) {
		panic(fmt.Sprintf("sim: %q is not one of Step's fixed phases", name))
	}
	start := time.Now()
	fn()
	s.Perf.Record(name, time.Since(start))
}

// StepIndex returns the number of completed steps.
func (s *Simulation) StepIndex() int { return s.stepIndex }

// PerfStats tracks a rolling window of execution time for each phase of
// Step, keyed by the phase names in stepPhaseOrder.
type PerfStats struct {
	samples    map[string][]time.Duration
	maxSamples int
}

// NewPerfStats creates a new performance stats tracker.
func NewPerfStats() *PerfStats {
	return &PerfStats{
		samples:    make(map[string][]time.Duration),
		maxSamples: 120,
	}
}

// Record adds a duration sample for the named phase.
func (p *PerfStats) Record(name string, d time.Duration) {
	p.samples[name] = append(p.samples[name], d)
	if len(p.samples[name]) > p.maxSamples {
		p.samples[name] = p.samples[name][1:]
	}
}

// Avg returns the average duration for the named phase.
func (p *PerfStats) Avg(name string) time.Duration {
	s := p.samples[name]
	if len(s) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total / time.Duration(len(s))
}

// Total returns the sum of all phases' average durations.
func (p *PerfStats) Total() time.Duration {
	var total time.Duration
	for name := range p.samples {
		total += p.Avg(name)
	}
	return total
}

// SortedNames returns the tracked phase names sorted by average
// duration, descending, breaking ties by stepPhaseOrder so that an
// all-zero or freshly reset PerfStats still reports Step's own phase
// ordering instead of Go's unspecified map iteration order.
func (p *PerfStats) SortedNames() []string {
	names := make([]string, 0, len(p.samples))
	for name := range p.samples {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := p.Avg(names[i]), p.Avg(names[j])
		if ai != aj {
			return ai > aj
		}
		return phaseRank(names[i]) < phaseRank(names[j])
	})
	return names
}

// DominantPhase returns the phase consuming the largest share of a
// typical step, and its average duration. It is the same choice
// SortedNames()[0] would make, exposed directly for callers (such as a
// headless run's periodic log line) that only care about the bottleneck
// phase rather than the full ranking.
func (p *PerfStats) DominantPhase() (name string, avg time.Duration) {
	sorted := p.SortedNames()
	if len(sorted) == 0 {
		return "", 0
	}
	return sorted[0], p.Avg(sorted[0])
}

// DivideElement attempts to split the element at elemIndex along its
// short axis, matching the state machine: on success both the original
// and new element remain Active; a GeometryError or DivisionSpacingError
// leaves the element unchanged and is returned to the caller rather than
// aborting the simulation.
func (s *Simulation) DivideElement(elemIndex int, divisionSpacing float64, rng *rand.Rand) (int, error) {
	return s.Mesh.DivideAlongShortAxis(elemIndex, true, divisionSpacing, rng)
}

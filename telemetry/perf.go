package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/ibmesh/sim"
)

// Phase names for the simulation step, matching sim.Simulation.Step's
// fixed ordering.
const (
	PhaseNeighbour   = "neighbour"
	PhaseClear       = "clear"
	PhaseForces      = "forces"
	PhaseSpread      = "spread"
	PhaseFluid       = "fluid"
	PhaseInterpolate = "interpolate"
	PhaseAdvect      = "advect"
)

var stepPhases = []string{
	PhaseNeighbour, PhaseClear, PhaseForces, PhaseSpread,
	PhaseFluid, PhaseInterpolate, PhaseAdvect,
}

// PerfSummary holds per-phase average microsecond costs and percentages
// of total step time, derived from a sim.PerfStats snapshot.
type PerfSummary struct {
	StepUS   int64
	PhaseUS  map[string]int64
	PhasePct map[string]float64
}

// Summarize converts a sim.PerfStats's current rolling averages into a
// PerfSummary.
func Summarize(p *sim.PerfStats) PerfSummary {
	total := p.Total()
	phaseUS := make(map[string]int64, len(stepPhases))
	phasePct := make(map[string]float64, len(stepPhases))
	for _, name := range stepPhases {
		avg := p.Avg(name)
		phaseUS[name] = avg.Microseconds()
		if total > 0 {
			phasePct[name] = float64(avg) / float64(total) * 100
		}
	}
	return PerfSummary{
		StepUS:   total.Microseconds(),
		PhaseUS:  phaseUS,
		PhasePct: phasePct,
	}
}

// LogSummary logs the per-phase timing breakdown.
func (s PerfSummary) LogSummary() {
	attrs := []any{"step_us", s.StepUS}
	for _, name := range stepPhases {
		if pct := s.PhasePct[name]; pct > 0.1 {
			attrs = append(attrs, name+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of a step's timing summary.
type PerfStatsCSV struct {
	WindowEnd      int     `csv:"window_end"`
	StepUS         int64   `csv:"step_us"`
	NeighbourPct   float64 `csv:"neighbour_pct"`
	ClearPct       float64 `csv:"clear_pct"`
	ForcesPct      float64 `csv:"forces_pct"`
	SpreadPct      float64 `csv:"spread_pct"`
	FluidPct       float64 `csv:"fluid_pct"`
	InterpolatePct float64 `csv:"interpolate_pct"`
	AdvectPct      float64 `csv:"advect_pct"`
}

// ToCSV converts a PerfSummary to a flat CSV-friendly struct.
func (s PerfSummary) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		StepUS:         s.StepUS,
		NeighbourPct:   s.PhasePct[PhaseNeighbour],
		ClearPct:       s.PhasePct[PhaseClear],
		ForcesPct:      s.PhasePct[PhaseForces],
		SpreadPct:      s.PhasePct[PhaseSpread],
		FluidPct:       s.PhasePct[PhaseFluid],
		InterpolatePct: s.PhasePct[PhaseInterpolate],
		AdvectPct:      s.PhasePct[PhaseAdvect],
	}
}

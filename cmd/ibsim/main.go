// Command ibsim drives the immersed-boundary mesh simulation headlessly:
// load a mesh and configuration, register force modules, and step the
// simulation loop, writing telemetry, performance, and bookmark CSVs and
// periodic snapshots along the way.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"

	"github.com/pthm-cable/ibmesh/config"
	"github.com/pthm-cable/ibmesh/errs"
	"github.com/pthm-cable/ibmesh/forces"
	"github.com/pthm-cable/ibmesh/mesh"
	"github.com/pthm-cable/ibmesh/meshio"
	"github.com/pthm-cable/ibmesh/sim"
	"github.com/pthm-cable/ibmesh/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use embedded defaults)")
	meshPath := flag.String("mesh-file", "", "Path to a mesh CSV file (required)")
	outputDir := flag.String("output-dir", "", "Directory for CSV logs, config snapshot, and checkpoints (empty = use config)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed for division decisions (0 = use config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *meshPath == "" {
		slog.Error("mesh file required", "flag", "-mesh-file")
		os.Exit(1)
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	f, err := os.Open(*meshPath)
	if err != nil {
		slog.Error("failed to open mesh file", "error", err, "path", *meshPath)
		os.Exit(1)
	}
	reader, err := meshio.ParseCSV(f)
	f.Close()
	if err != nil {
		slog.Error("failed to parse mesh file", "error", err, "path", *meshPath)
		os.Exit(1)
	}

	m, err := meshio.Build(reader)
	if err != nil {
		slog.Error("failed to build mesh", "error", err)
		os.Exit(1)
	}

	if cfg.Division.ElementDivisionSpacing <= 0 {
		slog.Error("config error", "error", errs.NewConfigError("division.element_division_spacing", "must be set before any division").Error())
		os.Exit(1)
	}

	membrane := forces.NewMembraneElasticity()
	cellCell := forces.NewCellCellInteraction(cfg.CellCell.IntrinsicSpacing, cfg.CellCell.InteractionDistance)
	cellCell.SpringConst = cfg.CellCell.SpringConstant
	cellCell.LinearSpring = cfg.CellCell.LinearSpring
	namedForces := map[string]forces.Force{
		"membrane":  membrane,
		"cell_cell": cellCell,
	}

	s := sim.New(m, []forces.Force{membrane, cellCell}, cfg.Neighbour.InteractionDistance, cfg.Fluid.Dt, cfg.Fluid.Reynolds, cfg.Neighbour.UpdateFrequency, cfg.Fluid.FFTThreads)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Run.Seed
	}
	rng := rand.New(rand.NewSource(rngSeed))

	dir := *outputDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}
	if out.Dir() != "" {
		if err := telemetry.SaveForceArchives(out.Dir()+"/forces.yaml", namedForces); err != nil {
			slog.Error("failed to write force archives", "error", err)
		}
	}

	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindowSteps)
	detector := telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize)

	steps := *maxSteps
	if steps == 0 {
		steps = cfg.Run.NumSteps
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_steps", steps,
		"nx", cfg.Grid.Nx,
		"ny", cfg.Grid.Ny,
	)

	for step := 0; step < steps; step++ {
		if err := s.Step(); err != nil {
			var divErr *errs.DivisionSpacingError
			var geomErr *errs.GeometryError
			if errors.As(err, &divErr) || errors.As(err, &geomErr) {
				slog.Warn("recoverable error during step", "error", err, "step", step)
				continue
			}
			slog.Error("fatal error during step", "error", err, "step", step)
			os.Exit(1)
		}

		divideOvergrownElements(s, m, cfg.Division.ElementDivisionSpacing, collector, rng)

		if collector.ShouldFlush(step) {
			stats := collector.Flush(step, cfg.Fluid.Dt, m)
			if err := out.WriteTelemetry(stats); err != nil {
				slog.Error("failed to write telemetry", "error", err)
			}
			if cfg.Output.LogEveryNSteps > 0 && step%cfg.Output.LogEveryNSteps == 0 {
				stats.LogStats()
			}

			summary := telemetry.Summarize(s.Perf)
			if err := out.WritePerf(summary, step); err != nil {
				slog.Error("failed to write perf", "error", err)
			}
			if dominant, avg := s.Perf.DominantPhase(); dominant != "" {
				slog.Debug("dominant step phase", "phase", dominant, "avg", avg, "step", step)
			}

			for _, bm := range detector.Check(stats) {
				bm.LogBookmark()
				if err := out.WriteBookmark(bm); err != nil {
					slog.Error("failed to write bookmark", "error", err)
				}
				if out.Dir() != "" {
					snapshot := telemetry.BuildSnapshot(m, rngSeed, step, &bm)
					if _, err := telemetry.SaveSnapshot(snapshot, out.Dir()); err != nil {
						slog.Error("failed to save snapshot", "error", err)
					}
				}
			}
		}
	}

	slog.Info("simulation complete", "steps", s.StepIndex())
}

// divideOvergrownElements implements the external division-triggering
// policy left open by the core module: any non-membrane element whose
// average node spacing has grown past twice the configured division
// spacing is split along its short axis. Elements created by a division
// in this same pass are left for the next step rather than divided again
// immediately.
func divideOvergrownElements(s *sim.Simulation, m *mesh.Mesh, divisionSpacing float64, collector *telemetry.Collector, rng *rand.Rand) {
	if divisionSpacing <= 0 {
		return
	}
	threshold := 2 * divisionSpacing
	n := len(m.Elements)
	for i := 0; i < n; i++ {
		if i == m.MembraneElementIndex {
			continue
		}
		if m.AverageNodeSpacingOf(&m.Elements[i], true) <= threshold {
			continue
		}

		if _, err := s.DivideElement(i, divisionSpacing, rng); err != nil {
			var divErr *errs.DivisionSpacingError
			var geomErr *errs.GeometryError
			if errors.As(err, &divErr) || errors.As(err, &geomErr) {
				collector.RecordDivisionRejected()
				continue
			}
			slog.Error("fatal error during division", "error", err, "element", i)
			os.Exit(1)
		}
		collector.RecordDivision()
	}
}

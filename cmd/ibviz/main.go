// Command ibviz is a debug visualizer for the immersed-boundary mesh
// simulation: it loads a mesh file, steps it every frame, and draws
// node positions and element outlines over a pannable, zoomable view of
// the periodic domain.
package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ibmesh/camera"
	"github.com/pthm-cable/ibmesh/config"
	"github.com/pthm-cable/ibmesh/forces"
	"github.com/pthm-cable/ibmesh/mesh"
	"github.com/pthm-cable/ibmesh/meshio"
	"github.com/pthm-cable/ibmesh/sim"
)

const (
	worldScale = 800
	// nodeGhostRadius is a node's approximate mesh-domain footprint,
	// used to decide when it needs a ghost copy drawn across the wrap.
	nodeGhostRadius = 0.01
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use embedded defaults)")
	meshPath := flag.String("mesh-file", "", "Path to a mesh CSV file (required)")
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
		slog.Error("failed to open mesh file", "error", err)
		os.Exit(1)
	}
	reader, err := meshio.ParseCSV(f)
	f.Close()
	if err != nil {
		slog.Error("failed to parse mesh file", "error", err)
		os.Exit(1)
	}
	m, err := meshio.Build(reader)
	if err != nil {
		slog.Error("failed to build mesh", "error", err)
		os.Exit(1)
	}

	membrane := forces.NewMembraneElasticity()
	cellCell := forces.NewCellCellInteraction(cfg.CellCell.IntrinsicSpacing, cfg.CellCell.InteractionDistance)
	cellCell.SpringConst = cfg.CellCell.SpringConstant
	cellCell.LinearSpring = cfg.CellCell.LinearSpring
	s := sim.New(m, []forces.Force{membrane, cellCell}, cfg.Neighbour.InteractionDistance, cfg.Fluid.Dt, cfg.Fluid.Reynolds, cfg.Neighbour.UpdateFrequency, cfg.Fluid.FFTThreads)

	rl.InitWindow(900, 900, "ibviz")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	cam := camera.NewForMeshDomain(900, 900, worldScale)
	paused := false

	for !rl.WindowShouldClose() {
		handleInput(cam, &paused)

		if !paused {
			if err := s.Step(); err != nil {
				slog.Warn("step error", "error", err)
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		drawMesh(cam, m)
		drawHUD(paused, s.StepIndex())
		rl.EndDrawing()
	}
}

func handleInput(cam *camera.Camera, paused *bool) {
	const panSpeed = 6
	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, -panSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		*paused = !*paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		cam.Reset()
	}
}

func drawMesh(cam *camera.Camera, m *mesh.Mesh) {
	for ei := range m.Elements {
		elem := &m.Elements[ei]
		color := rl.SkyBlue
		if ei == m.MembraneElementIndex {
			color = rl.Gray
		}

		n := elem.NumNodes()
		for i := 0; i < n; i++ {
			next := (i + 1) % n
			a := m.NodeLocation(elem.NodeIndices[i])
			b := m.NodeLocation(elem.NodeIndices[next])

			ax, ay := cam.WorldToScreen(a)
			bx, by := cam.WorldToScreen(b)
			rl.DrawLine(int32(ax), int32(ay), int32(bx), int32(by), color)
		}

		for _, ni := range elem.NodeIndices {
			loc := m.NodeLocation(ni)
			sx, sy := cam.WorldToScreen(loc)
			rl.DrawCircle(int32(sx), int32(sy), 2, rl.White)

			for _, ghost := range cam.GhostPositions(loc, nodeGhostRadius) {
				rl.DrawCircle(int32(ghost.X), int32(ghost.Y), 2, rl.White)
			}
		}
	}

	for _, src := range m.BalancingFluidSources {
		sx, sy := cam.WorldToScreen(src.Location)
		rl.DrawCircleLines(int32(sx), int32(sy), 3, rl.Color{R: 255, G: 150, B: 50, A: 200})
	}
}

func drawHUD(paused bool, step int) {
	state := "running"
	if paused {
		state = "paused"
	}
	rl.DrawText("ibviz  [space] pause/resume  [r] reset camera  [arrows] pan  [wheel] zoom", 10, 10, 16, rl.RayWhite)
	rl.DrawText("step "+strconv.Itoa(step)+"  ("+state+")", 10, 32, 16, rl.RayWhite)
}

// Package config provides configuration loading and access for the
// simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Neighbour NeighbourConfig `yaml:"neighbour"`
	Membrane  MembraneConfig  `yaml:"membrane"`
	CellCell  CellCellConfig  `yaml:"cell_cell"`
	Division  DivisionConfig  `yaml:"division"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Output    OutputConfig    `yaml:"output"`
	Run       RunConfig       `yaml:"run"`

	// Derived holds values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the fluid grid's dimensions.
type GridConfig struct {
	Nx int `yaml:"nx"`
	Ny int `yaml:"ny"`
}

// FluidConfig holds the spectral Navier-Stokes solver's parameters.
type FluidConfig struct {
	Dt         float64 `yaml:"dt"`
	Reynolds   float64 `yaml:"reynolds"`
	FFTThreads int     `yaml:"fft_threads"`
}

// NeighbourConfig holds the box-grid neighbour search's parameters.
type NeighbourConfig struct {
	UpdateFrequency     int     `yaml:"update_frequency"`
	InteractionDistance float64 `yaml:"interaction_distance"`
}

// MembraneConfig holds the membrane elasticity force's parameters. The
// force itself does not read them: it uses each element's own
// MembraneSpringConstant and MembraneRestLength.
type MembraneConfig struct {
	SpringConstant float64 `yaml:"spring_constant"`
	RestLength     float64 `yaml:"rest_length"`
}

// CellCellConfig holds the cell-cell interaction force's parameters.
type CellCellConfig struct {
	SpringConstant      float64 `yaml:"spring_constant"`
	IntrinsicSpacing    float64 `yaml:"intrinsic_spacing"`
	InteractionDistance float64 `yaml:"interaction_distance"`
	LinearSpring        bool    `yaml:"linear_spring"`
}

// DivisionConfig holds element division parameters.
type DivisionConfig struct {
	ElementDivisionSpacing float64 `yaml:"element_division_spacing"`
}

// TelemetryConfig holds telemetry window/history parameters.
type TelemetryConfig struct {
	StatsWindowSteps    int `yaml:"stats_window_steps"`
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
}

// BookmarksConfig holds bookmark detection thresholds.
// telemetry.BookmarkDetector does not read them; its thresholds are fixed
// in code: a division burst above 2x the rolling average with at least 3
// divisions, tortuosity above 1.5x the average, a total-volume drop of
// more than 30% from the peak, and a total-volume variance/mean² below
// 0.04 held for 5 consecutive windows.
type BookmarksConfig struct {
	DivisionBurst  DivisionBurstConfig  `yaml:"division_burst"`
	TortuosityJump TortuosityJumpConfig `yaml:"tortuosity_jump"`
	VolumeCrash    VolumeCrashConfig    `yaml:"volume_crash"`
	StableGrowth   StableGrowthConfig   `yaml:"stable_growth"`
}

// DivisionBurstConfig holds division-burst detection parameters.
type DivisionBurstConfig struct {
	Multiplier     float64 `yaml:"multiplier"`
	MinDivisions   int     `yaml:"min_divisions"`
}

// TortuosityJumpConfig holds tortuosity-jump detection parameters.
type TortuosityJumpConfig struct {
	Multiplier float64 `yaml:"multiplier"`
}

// VolumeCrashConfig holds volume-crash detection parameters.
type VolumeCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
}

// StableGrowthConfig holds stable-growth detection parameters.
type StableGrowthConfig struct {
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// OutputConfig holds output directory and logging cadence parameters.
type OutputConfig struct {
	Dir             string `yaml:"dir"`
	LogEveryNSteps  int    `yaml:"log_every_n_steps"`
}

// RunConfig holds top-level run parameters.
type RunConfig struct {
	Seed      int64 `yaml:"seed"`
	NumSteps  int   `yaml:"num_steps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DeltaX float64 // 1 / Grid.Nx
	DeltaY float64 // 1 / Grid.Ny
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	if c.Grid.Nx > 0 {
		c.Derived.DeltaX = 1.0 / float64(c.Grid.Nx)
	}
	if c.Grid.Ny > 0 {
		c.Derived.DeltaY = 1.0 / float64(c.Grid.Ny)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

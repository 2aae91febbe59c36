package telemetry

import (
	"log/slog"
	"math"
	"sort"
)

// WindowStats holds aggregated mesh statistics for a window of simulation
// steps, sampled at the window's end.
type WindowStats struct {
	WindowStartStep int     `csv:"-"`
	WindowEndStep   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	NumElements int `csv:"num_elements"`
	NumNodes    int `csv:"num_nodes"`

	Divisions         int `csv:"divisions"`
	DivisionsRejected int `csv:"divisions_rejected"`

	TotalVolume float64 `csv:"total_volume"`
	VolumeMean  float64 `csv:"volume_mean"`
	VolumeP10   float64 `csv:"volume_p10"`
	VolumeP50   float64 `csv:"volume_p50"`
	VolumeP90   float64 `csv:"volume_p90"`

	Tortuosity                float64 `csv:"tortuosity"`
	CharacteristicNodeSpacing float64 `csv:"characteristic_node_spacing"`
	SpacingRatio              float64 `csv:"spacing_ratio"`

	KineticEnergy float64 `csv:"kinetic_energy"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeValueStats calculates mean and p10/p50/p90 percentiles over an
// arbitrary sample of scalar values (element volumes, node speeds, etc.).
func ComputeValueStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// StandardDeviation returns the population standard deviation of values.
func StandardDeviation(values []float64, mean float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	var sqDiffSum float64
	for _, v := range values {
		d := v - mean
		sqDiffSum += d * d
	}
	return math.Sqrt(sqDiffSum / float64(n))
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartStep),
		slog.Int("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("num_elements", s.NumElements),
		slog.Int("num_nodes", s.NumNodes),
		slog.Int("divisions", s.Divisions),
		slog.Int("divisions_rejected", s.DivisionsRejected),
		slog.Float64("total_volume", s.TotalVolume),
		slog.Float64("volume_mean", s.VolumeMean),
		slog.Float64("volume_p10", s.VolumeP10),
		slog.Float64("volume_p50", s.VolumeP50),
		slog.Float64("volume_p90", s.VolumeP90),
		slog.Float64("tortuosity", s.Tortuosity),
		slog.Float64("characteristic_node_spacing", s.CharacteristicNodeSpacing),
		slog.Float64("spacing_ratio", s.SpacingRatio),
		slog.Float64("kinetic_energy", s.KineticEnergy),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"sim_time", s.SimTimeSec,
		"num_elements", s.NumElements,
		"num_nodes", s.NumNodes,
		"divisions", s.Divisions,
		"divisions_rejected", s.DivisionsRejected,
		"total_volume", s.TotalVolume,
		"volume_mean", s.VolumeMean,
		"tortuosity", s.Tortuosity,
		"spacing_ratio", s.SpacingRatio,
		"kinetic_energy", s.KineticEnergy,
	)
}

package telemetry

import "github.com/pthm-cable/ibmesh/mesh"

// Collector accumulates division events within a window of steps and
// produces WindowStats by sampling the mesh at flush time.
type Collector struct {
	windowSteps int

	windowStartStep int
	divisions       int
	divisionsRejected int
}

// NewCollector creates a new stats collector. windowSteps is how many
// simulation steps each window covers.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// RecordDivision records a successful element division.
func (c *Collector) RecordDivision() {
	c.divisions++
}

// RecordDivisionRejected records a division attempt that failed a
// geometry or spacing invariant.
func (c *Collector) RecordDivisionRejected() {
	c.divisionsRejected++
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int) bool {
	return currentStep-c.windowStartStep >= c.windowSteps
}

// Flush samples m and dt-scaled sim time to produce a WindowStats, and
// resets the event counters for the next window.
func (c *Collector) Flush(currentStep int, dt float64, m *mesh.Mesh) WindowStats {
	var volumes []float64
	var totalVolume float64
	for i := range m.Elements {
		if i == m.MembraneElementIndex {
			continue
		}
		v := m.VolumeOf(&m.Elements[i])
		volumes = append(volumes, v)
		totalVolume += v
	}
	volMean, volP10, volP50, volP90 := ComputeValueStats(volumes)

	var kinetic float64
	for i := range m.Nodes {
		v := m.Nodes[i].Velocity
		kinetic += 0.5 * (v.X*v.X + v.Y*v.Y)
	}

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   currentStep,
		SimTimeSec:      float64(currentStep) * dt,

		NumElements: len(m.Elements),
		NumNodes:    len(m.Nodes),

		Divisions:         c.divisions,
		DivisionsRejected: c.divisionsRejected,

		TotalVolume: totalVolume,
		VolumeMean:  volMean,
		VolumeP10:   volP10,
		VolumeP50:   volP50,
		VolumeP90:   volP90,

		Tortuosity:                m.Tortuosity(),
		CharacteristicNodeSpacing: m.CharacteristicNodeSpacing,
		SpacingRatio:              m.GetSpacingRatio(),

		KineticEnergy: kinetic,
	}

	c.windowStartStep = currentStep
	c.divisions = 0
	c.divisionsRejected = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}

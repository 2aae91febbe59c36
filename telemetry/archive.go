package telemetry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/ibmesh/forces"
)

// ForceArchive is the YAML-serialisable form of one force module's
// persisted state, keyed by a caller-chosen name (e.g. "membrane",
// "cell_cell").
type ForceArchive struct {
	Floats map[string]float64 `yaml:"floats,omitempty"`
	Bools  map[string]bool    `yaml:"bools,omitempty"`
}

// SaveForceArchives writes every named force's Archive() snapshot to path
// as YAML.
func SaveForceArchives(path string, named map[string]forces.Force) error {
	out := make(map[string]ForceArchive, len(named))
	for name, f := range named {
		a := f.Archive()
		out[name] = ForceArchive{Floats: a.Floats, Bools: a.Bools}
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal force archives: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write force archives: %w", err)
	}
	return nil
}

// LoadForceArchives reads a force-archive YAML file and calls Restore on
// every force present in named whose key matches an entry in the file.
// Names in the file with no matching force, or forces with no matching
// name in the file, are left untouched.
func LoadForceArchives(path string, named map[string]forces.Force) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read force archives: %w", err)
	}

	var in map[string]ForceArchive
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshal force archives: %w", err)
	}

	for name, a := range in {
		f, ok := named[name]
		if !ok {
			continue
		}
		if err := f.Restore(forces.Archived{Floats: a.Floats, Bools: a.Bools}); err != nil {
			return fmt.Errorf("restoring %q: %w", name, err)
		}
	}
	return nil
}

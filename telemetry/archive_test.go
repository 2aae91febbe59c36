package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/pthm-cable/ibmesh/forces"
)

func TestSaveAndLoadForceArchives(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "forces.yaml")

	cc := forces.NewCellCellInteraction(0.02, 0.05)
	cc.SpringConst = 42.0
	named := map[string]forces.Force{"cell_cell": cc}

	if err := SaveForceArchives(path, named); err != nil {
		t.Fatalf("SaveForceArchives: %v", err)
	}

	restored := forces.NewCellCellInteraction(0.02, 0.05)
	restoredNamed := map[string]forces.Force{"cell_cell": restored}
	if err := LoadForceArchives(path, restoredNamed); err != nil {
		t.Fatalf("LoadForceArchives: %v", err)
	}

	if restored.SpringConst != 42.0 {
		t.Errorf("SpringConst = %v, want 42.0", restored.SpringConst)
	}
	if !restored.LinearSpring {
		t.Error("expected LinearSpring to round-trip as true")
	}
}

func TestLoadForceArchivesIgnoresUnmatchedNames(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "forces.yaml")

	cc := forces.NewCellCellInteraction(0.02, 0.05)
	if err := SaveForceArchives(path, map[string]forces.Force{"cell_cell": cc}); err != nil {
		t.Fatalf("SaveForceArchives: %v", err)
	}

	membrane := forces.NewMembraneElasticity()
	named := map[string]forces.Force{"membrane": membrane}
	if err := LoadForceArchives(path, named); err != nil {
		t.Fatalf("LoadForceArchives: %v", err)
	}
}

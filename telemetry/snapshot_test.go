package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

func triangleMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewMesh(4, 4)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	locs := []geometry.Vec2{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.1}, {X: 0.15, Y: 0.2}}
	indices := make([]int, len(locs))
	for i, l := range locs {
		m.Nodes = append(m.Nodes, mesh.NewNode(i, l))
		indices[i] = i
	}
	elem := mesh.NewElement(0, indices)
	m.Elements = append(m.Elements, elem)
	for _, idx := range indices {
		m.Nodes[idx].AddContainingElement(0)
	}
	m.RecalculateCharacteristicSpacing()
	m.EstablishElementFluidSources()
	m.EstablishBalancingSources()
	return m
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	m := triangleMesh(t)

	bookmark := &Bookmark{Type: BookmarkDivisionBurst, Step: 1000, Description: "test bookmark"}
	snapshot := BuildSnapshot(m, 42, 1000, bookmark)

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != snapshot.Version {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, snapshot.Version)
	}
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.StepIndex != snapshot.StepIndex {
		t.Errorf("StepIndex mismatch: got %d, want %d", loaded.StepIndex, snapshot.StepIndex)
	}
	if len(loaded.Nodes) != len(snapshot.Nodes) {
		t.Errorf("Nodes count mismatch: got %d, want %d", len(loaded.Nodes), len(snapshot.Nodes))
	}
	if len(loaded.Elements) != len(snapshot.Elements) {
		t.Errorf("Elements count mismatch: got %d, want %d", len(loaded.Elements), len(snapshot.Elements))
	}
	if len(loaded.ElementFluidSources) != 1 {
		t.Errorf("ElementFluidSources count = %d, want 1", len(loaded.ElementFluidSources))
	}
	if loaded.Bookmark == nil {
		t.Error("bookmark not loaded")
	} else if loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, snapshot.Bookmark.Type)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	m := triangleMesh(t)
	snapshot := BuildSnapshot(m, 0, 5000, &Bookmark{Type: BookmarkVolumeCrash, Step: 5000})

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_volume_crash.json")
	if path != expected {
		t.Errorf("path mismatch: got %s, want %s", path, expected)
	}

	snapshotNoBookmark := BuildSnapshot(m, 0, 3000, nil)
	path, err = SaveSnapshot(snapshotNoBookmark, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("path mismatch: got %s, want %s", path, expected)
	}
}

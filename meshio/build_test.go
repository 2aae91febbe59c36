package meshio

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/ibmesh/errs"
)

func triangleBlob() string {
	return strings.Join([]string{
		"nodes,3",
		"0.1,0.1,0",
		"0.2,0.1,0",
		"0.15,0.2,0",
		"elements,1",
		"0,0,0.0,0,1,2",
		"grid,4,4",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"",
	}, "\n")
}

func TestParseCSVAndBuildRoundTrip(t *testing.T) {
	r, err := ParseCSV(strings.NewReader(triangleBlob()))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if r.NumNodes() != 3 {
		t.Fatalf("NumNodes() = %d, want 3", r.NumNodes())
	}
	if r.NumElements() != 1 {
		t.Fatalf("NumElements() = %d, want 1", r.NumElements())
	}

	m, err := Build(r)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Nodes) != 3 {
		t.Fatalf("len(m.Nodes) = %d, want 3", len(m.Nodes))
	}
	if len(m.Elements) != 1 {
		t.Fatalf("len(m.Elements) = %d, want 1", len(m.Elements))
	}
	if m.Nx != 4 || m.Ny != 4 {
		t.Fatalf("grid dims = %d,%d, want 4,4", m.Nx, m.Ny)
	}
	if len(m.ElementFluidSources) != 1 {
		t.Fatalf("len(m.ElementFluidSources) = %d, want 1 (one non-membrane element)", len(m.ElementFluidSources))
	}
	if len(m.BalancingFluidSources) == 0 {
		t.Fatalf("expected a nonempty balancing source sequence")
	}

	var total float64
	for _, s := range m.ElementFluidSources {
		total += s.Strength
	}
	var balTotal float64
	for _, s := range m.BalancingFluidSources {
		balTotal += s.Strength
	}
	if diff := total + balTotal; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("element + balancing source strengths = %v, want 0 (invariant 4)", diff)
	}
}

func TestParseCSVRejectsWrongHeader(t *testing.T) {
	bad := "elements,1\n" + strings.Join([]string{}, "\n")
	_, err := ParseCSV(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected an error for a missing nodes header")
	}
	var mm *errs.MalformedMeshError
	if !errors.As(err, &mm) {
		t.Errorf("error = %v, want *errs.MalformedMeshError", err)
	}
}

func TestParseCSVRejectsTruncatedNodeRows(t *testing.T) {
	bad := strings.Join([]string{
		"nodes,3",
		"0.1,0.1,0",
		"",
	}, "\n")
	_, err := ParseCSV(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected an error for missing node rows")
	}
	var mm *errs.MalformedMeshError
	if !errors.As(err, &mm) {
		t.Errorf("error = %v, want *errs.MalformedMeshError", err)
	}
}

func TestBuildRejectsOutOfRangeNodeIndex(t *testing.T) {
	blob := strings.Join([]string{
		"nodes,3",
		"0.1,0.1,0",
		"0.2,0.1,0",
		"0.15,0.2,0",
		"elements,1",
		"0,0,0.0,0,1,9",
		"grid,4,4",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"0,0,0,0",
		"",
	}, "\n")
	r, err := ParseCSV(strings.NewReader(blob))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	_, err = Build(r)
	if err == nil {
		t.Fatal("expected Build to reject an out-of-range node index")
	}
	var mm *errs.MalformedMeshError
	if !errors.As(err, &mm) {
		t.Errorf("error = %v, want *errs.MalformedMeshError", err)
	}
}

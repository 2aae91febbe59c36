package meshio

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pthm-cable/ibmesh/errs"
)

// CSVReader is a concrete Reader over a small line-oriented text format:
//
//	nodes,<N>
//	<x>,<y>,<isBoundary 0|1>          (N rows)
//	elements,<M>
//	<isMembrane 0|1>,<hasAttribute 0|1>,<attribute>,<n0>,<n1>,...  (M rows)
//	grid,<Nx>,<Ny>
//	<Nx comma-separated doubles>      (Ny rows, the u field)
//	<Nx comma-separated doubles>      (Ny rows, the v field)
//
// This mirrors the column layout of a classic node/element-file mesh
// reader (one entity per row, explicit counts up front) rather than
// inventing a new serialisation convention.
type CSVReader struct {
	nodes    []NodeRow
	elements []ElementRow
	nx, ny   int
	uRows    [][]float64
	vRows    [][]float64
}

// ParseCSV reads a mesh blob in the CSVReader format from r.
func ParseCSV(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errs.NewMalformedMeshError("csv parse error: " + err.Error())
	}

	out := &CSVReader{}
	pos := 0

	header, err := expectHeader(records, pos, "nodes", 1)
	if err != nil {
		return nil, err
	}
	numNodes, err := parseInt(header[1])
	if err != nil {
		return nil, err
	}
	pos++

	for i := 0; i < numNodes; i++ {
		row, err := requireRow(records, pos, 3)
		if err != nil {
			return nil, err
		}
		x, err := parseFloat(row[0])
		if err != nil {
			return nil, err
		}
		y, err := parseFloat(row[1])
		if err != nil {
			return nil, err
		}
		boundary, err := parseBool(row[2])
		if err != nil {
			return nil, err
		}
		out.nodes = append(out.nodes, NodeRow{X: x, Y: y, IsBoundary: boundary})
		pos++
	}

	header, err = expectHeader(records, pos, "elements", 1)
	if err != nil {
		return nil, err
	}
	numElements, err := parseInt(header[1])
	if err != nil {
		return nil, err
	}
	pos++

	for i := 0; i < numElements; i++ {
		row, err := requireMinRow(records, pos, 3)
		if err != nil {
			return nil, err
		}
		isMembrane, err := parseBool(row[0])
		if err != nil {
			return nil, err
		}
		hasAttr, err := parseBool(row[1])
		if err != nil {
			return nil, err
		}
		attr, err := parseFloat(row[2])
		if err != nil {
			return nil, err
		}
		nodeIdx := make([]int, 0, len(row)-3)
		for _, tok := range row[3:] {
			idx, err := parseInt(tok)
			if err != nil {
				return nil, err
			}
			nodeIdx = append(nodeIdx, idx)
		}
		if len(nodeIdx) < 3 {
			return nil, errs.NewMalformedMeshError("element row has fewer than 3 nodes")
		}
		out.elements = append(out.elements, ElementRow{
			NodeIndices:  nodeIdx,
			IsMembrane:   isMembrane,
			Attribute:    attr,
			HasAttribute: hasAttr,
		})
		pos++
	}

	header, err = expectHeader(records, pos, "grid", 2)
	if err != nil {
		return nil, err
	}
	nx, err := parseInt(header[1])
	if err != nil {
		return nil, err
	}
	ny, err := parseInt(header[2])
	if err != nil {
		return nil, err
	}
	out.nx, out.ny = nx, ny
	pos++

	out.uRows, pos, err = readGridRows(records, pos, nx, ny)
	if err != nil {
		return nil, err
	}
	out.vRows, pos, err = readGridRows(records, pos, nx, ny)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func readGridRows(records [][]string, pos, nx, ny int) ([][]float64, int, error) {
	rows := make([][]float64, ny)
	for y := 0; y < ny; y++ {
		row, err := requireRow(records, pos, nx)
		if err != nil {
			return nil, pos, err
		}
		vals := make([]float64, nx)
		for x := 0; x < nx; x++ {
			v, err := parseFloat(row[x])
			if err != nil {
				return nil, pos, err
			}
			vals[x] = v
		}
		rows[y] = vals
		pos++
	}
	return rows, pos, nil
}

func expectHeader(records [][]string, pos int, tag string, minArgs int) ([]string, error) {
	row, err := requireMinRow(records, pos, minArgs+1)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(row[0]) != tag {
		return nil, errs.NewMalformedMeshError("expected \"" + tag + "\" header, got \"" + row[0] + "\"")
	}
	return row, nil
}

func requireRow(records [][]string, pos, wantLen int) ([]string, error) {
	if pos >= len(records) {
		return nil, errs.NewMalformedMeshError("unexpected end of mesh data")
	}
	if len(records[pos]) != wantLen {
		return nil, errs.NewMalformedMeshError("malformed row: wrong field count")
	}
	return records[pos], nil
}

func requireMinRow(records [][]string, pos, minLen int) ([]string, error) {
	if pos >= len(records) {
		return nil, errs.NewMalformedMeshError("unexpected end of mesh data")
	}
	if len(records[pos]) < minLen {
		return nil, errs.NewMalformedMeshError("malformed row: too few fields")
	}
	return records[pos], nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errs.NewMalformedMeshError("invalid integer: " + s)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errs.NewMalformedMeshError("invalid number: " + s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, errs.NewMalformedMeshError("invalid boolean flag: " + s)
	}
}

// NumNodes implements Reader.
func (r *CSVReader) NumNodes() int { return len(r.nodes) }

// Node implements Reader.
func (r *CSVReader) Node(i int) NodeRow { return r.nodes[i] }

// NumElements implements Reader.
func (r *CSVReader) NumElements() int { return len(r.elements) }

// Element implements Reader.
func (r *CSVReader) Element(i int) ElementRow { return r.elements[i] }

// GridDims implements Reader.
func (r *CSVReader) GridDims() (nx, ny int) { return r.nx, r.ny }

// VelocityRow implements Reader. field is 'u' or 'v'.
func (r *CSVReader) VelocityRow(field rune, row int) []float64 {
	switch field {
	case 'u':
		return r.uRows[row]
	case 'v':
		return r.vRows[row]
	default:
		return nil
	}
}

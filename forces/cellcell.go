package forces

import (
	"math"

	"github.com/pthm-cable/ibmesh/errs"
	"github.com/pthm-cable/ibmesh/geometry"
	"github.com/pthm-cable/ibmesh/mesh"
)

const numProteins = 3

// InitialProteinPolicy computes the initial (E-cadherin, P-cadherin,
// Integrin) levels for a node belonging to an element, given whether that
// element is the membrane element. Resolves Open Question 9(b): the
// default policy below reproduces the reference implementation's literal
// behaviour (uniform E-cad=1 regardless of membrane status); an
// alternative policy is free to special-case the membrane element.
type InitialProteinPolicy func(isMembraneElement bool) (eCad, pCad, integrin float64)

// DefaultInitialProteinPolicy reproduces the reference behaviour: every
// element, membrane or not, starts with E-cadherin = 1.
func DefaultInitialProteinPolicy(_ bool) (eCad, pCad, integrin float64) {
	return 1.0, 0, 0
}

// UpdateProteinLevelsFunc resolves Open Question 9(a): the per-call
// protein-dynamics hook. The zero value is a no-op, matching the
// reference implementation's empty stub.
type UpdateProteinLevelsFunc func(m *mesh.Mesh, proteinAttrBase int)

// CellCellInteraction is the pairwise spring/Morse force between nodes of
// different elements whose torus distance is within InteractionDistance.
type CellCellInteraction struct {
	SpringConst         float64
	IntrinsicSpacing    float64
	InteractionDistance float64
	LinearSpring        bool

	InitialProtein  InitialProteinPolicy
	UpdateProteinFn UpdateProteinLevelsFunc

	attached        bool
	restLength      float64
	proteinAttrBase int
}

// NewCellCellInteraction constructs a linear-spring cell-cell force with
// the reference implementation's default spring constant.
func NewCellCellInteraction(intrinsicSpacing, interactionDistance float64) *CellCellInteraction {
	return &CellCellInteraction{
		SpringConst:         1e3,
		IntrinsicSpacing:    intrinsicSpacing,
		InteractionDistance: interactionDistance,
		LinearSpring:        true,
		InitialProtein:      DefaultInitialProteinPolicy,
	}
}

// AddForceContribution implements Force.
func (f *CellCellInteraction) AddForceContribution(m *mesh.Mesh, pairs []mesh.NodePair) error {
	if !f.attached {
		f.restLength = 0.25 * f.InteractionDistance
		if err := f.attach(m); err != nil {
			return err
		}
		f.attached = true
	}
	if f.UpdateProteinFn != nil {
		f.UpdateProteinFn(m, f.proteinAttrBase)
	}

	eIdx, pIdx, iIdx := f.proteinAttrBase, f.proteinAttrBase+1, f.proteinAttrBase+2
	wellWidth := 0.25 * f.InteractionDistance

	for _, pair := range pairs {
		aElem := m.FirstContainingElement(pair.A)
		bElem := m.FirstContainingElement(pair.B)
		if aElem == bElem {
			continue
		}

		d := geometry.VectorFrom(m.NodeLocation(pair.A), m.NodeLocation(pair.B))
		r := d.Norm()
		if r == 0 || r >= f.InteractionDistance {
			continue
		}

		aSpacing := m.AverageNodeSpacingOf(&m.Elements[aElem], false)
		bSpacing := m.AverageNodeSpacingOf(&m.Elements[bElem], false)
		elemSpacing := 0.5 * (aSpacing + bSpacing)
		effectiveSpring := f.SpringConst * elemSpacing / f.IntrinsicSpacing

		aAttrs := m.Nodes[pair.A].Attributes
		bAttrs := m.Nodes[pair.B].Attributes
		proteinMult := math.Min(aAttrs[eIdx], bAttrs[eIdx]) +
			math.Min(aAttrs[pIdx], bAttrs[pIdx]) +
			math.Max(aAttrs[iIdx], bAttrs[iIdx])

		var scale float64
		if f.LinearSpring {
			scale = effectiveSpring * proteinMult * (r - f.restLength) / r
		} else {
			morseExp := math.Exp((f.restLength - r) / wellWidth)
			scale = 2.0 * wellWidth * effectiveSpring * proteinMult * morseExp * (1.0 - morseExp) / r
		}

		vec := d.Scale(scale)
		m.Nodes[pair.A].AddForceContribution(vec.Scale(elemSpacing / aSpacing))
		m.Nodes[pair.B].AddForceContribution(vec.Scale(-elemSpacing / bSpacing))
	}
	return nil
}

// attach extends every node's attribute vector with the three protein
// slots and initialises them, failing with AttributeMismatch if nodes
// disagree on their existing attribute-vector length.
func (f *CellCellInteraction) attach(m *mesh.Mesh) error {
	if len(m.Nodes) == 0 {
		return nil
	}
	want := len(m.Nodes[0].Attributes)
	for i := range m.Nodes {
		if len(m.Nodes[i].Attributes) != want {
			return errs.NewAttributeMismatch(i, len(m.Nodes[i].Attributes), want)
		}
	}
	f.proteinAttrBase = want
	for i := range m.Nodes {
		m.Nodes[i].EnsureAttributes(want + numProteins)
	}
	f.initializeProteinLevels(m)
	return nil
}

func (f *CellCellInteraction) initializeProteinLevels(m *mesh.Mesh) {
	policy := f.InitialProtein
	if policy == nil {
		policy = DefaultInitialProteinPolicy
	}
	for ei := range m.Elements {
		isMembrane := ei == m.MembraneElementIndex
		eCad, pCad, integrin := policy(isMembrane)
		for _, ni := range m.Elements[ei].NodeIndices {
			m.Nodes[ni].Attributes[f.proteinAttrBase] += eCad
			m.Nodes[ni].Attributes[f.proteinAttrBase+1] += pCad
			m.Nodes[ni].Attributes[f.proteinAttrBase+2] += integrin
		}
	}
}

// ParameterDump implements Force, in the stable field order the spec
// guarantees: SpringConst, RestLength, NumProteins, LinearSpring, Morse.
func (f *CellCellInteraction) ParameterDump() []Param {
	linear, morse := 0.0, 0.0
	if f.LinearSpring {
		linear = 1
	} else {
		morse = 1
	}
	return []Param{
		{Name: "SpringConst", Value: f.SpringConst},
		{Name: "RestLength", Value: f.restLength},
		{Name: "NumProteins", Value: numProteins},
		{Name: "LinearSpring", Value: linear},
		{Name: "Morse", Value: morse},
	}
}

// Archive implements Force.
func (f *CellCellInteraction) Archive() Archived {
	return Archived{
		Floats: map[string]float64{
			"spring_const": f.SpringConst,
			"rest_length":  f.restLength,
		},
		Bools: map[string]bool{
			"is_linear": f.LinearSpring,
			"is_morse":  !f.LinearSpring,
		},
	}
}

// Restore implements Force. Exactly one of is_linear/is_morse must be
// true, matching the persisted-state contract.
func (f *CellCellInteraction) Restore(a Archived) error {
	linear, hasLinear := a.Bools["is_linear"]
	morse, hasMorse := a.Bools["is_morse"]
	if !hasLinear || !hasMorse || linear == morse {
		return errs.NewMalformedMeshError("cell-cell archive must set exactly one of is_linear/is_morse")
	}
	f.LinearSpring = linear
	if v, ok := a.Floats["spring_const"]; ok {
		f.SpringConst = v
	}
	if v, ok := a.Floats["rest_length"]; ok {
		f.restLength = v
	}
	return nil
}

package mesh

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/ibmesh/geometry"
	"gonum.org/v1/gonum/mat"
)

// discriminantFloor is the threshold below which the inertia matrix's
// eigenvalues are considered degenerate (near-isotropic), triggering the
// uniform-on-circle fallback for short_axis_of.
const discriminantFloor = 1e-10

// MomentsOf returns the second moments of elem about its own centroid,
// signed so that Ixx >= 0 (if the raw Ixx is negative, all three are
// negated together).
func (m *Mesh) MomentsOf(elemIndex int) (ixx, iyy, ixy float64) {
	elem := &m.Elements[elemIndex]
	centroid := m.CentroidOf(elemIndex)
	n := elem.NumNodes()
	rel := make([]geometry.Vec2, n)
	for i := 0; i < n; i++ {
		rel[i] = geometry.VectorFrom(centroid, m.nodeLoc(elem.NodeIndices[i]))
	}

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := rel[i].X*rel[j].Y - rel[j].X*rel[i].Y
		ixx += (rel[i].Y*rel[i].Y + rel[i].Y*rel[j].Y + rel[j].Y*rel[j].Y) * cross
		iyy += (rel[i].X*rel[i].X + rel[i].X*rel[j].X + rel[j].X*rel[j].X) * cross
		ixy += (rel[i].X*rel[j].Y + 2*rel[i].X*rel[i].Y + 2*rel[j].X*rel[j].Y + rel[j].X*rel[i].Y) * cross
	}
	ixx /= 12.0
	iyy /= 12.0
	ixy /= 24.0

	if ixx < 0 {
		ixx, iyy, ixy = -ixx, -iyy, -ixy
	}
	return ixx, iyy, ixy
}

// inertiaEigen returns the two eigenvalues (ascending) and the unit
// eigenvector associated with the larger eigenvalue of the symmetric
// inertia matrix [[ixx, ixy], [ixy, iyy]], using gonum's symmetric
// eigendecomposition.
func inertiaEigen(ixx, iyy, ixy float64) (lambdaMin, lambdaMax float64, vMax geometry.Vec2, discriminant float64) {
	sym := mat.NewSymDense(2, []float64{ixx, ixy, ixy, iyy})
	var eig mat.EigenSym
	ok := eig.Factorize(sym, true)
	discriminant = math.Pow(ixx-iyy, 2) + 4*ixy*ixy
	if !ok {
		return 0, 0, geometry.Vec2{}, discriminant
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	lo, hi := 0, 1
	if values[0] > values[1] {
		lo, hi = 1, 0
	}
	lambdaMin, lambdaMax = values[lo], values[hi]
	vMax = geometry.Vec2{X: vecs.At(0, hi), Y: vecs.At(1, hi)}
	return lambdaMin, lambdaMax, vMax, discriminant
}

// ShortAxisOf returns a unit vector along the eigenvector of the larger
// eigenvalue of elem's inertia matrix. If the discriminant falls below
// discriminantFloor (a near-isotropic element), an arbitrary unit vector
// drawn uniformly on the circle is returned instead, using rng (or, if rng
// is nil, a new source seeded with 1).
func (m *Mesh) ShortAxisOf(elemIndex int, rng *rand.Rand) geometry.Vec2 {
	ixx, iyy, ixy := m.MomentsOf(elemIndex)
	_, _, v, discriminant := inertiaEigen(ixx, iyy, ixy)
	if discriminant < discriminantFloor {
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}
		theta := rng.Float64() * 2 * math.Pi
		return geometry.Vec2{X: math.Cos(theta), Y: math.Sin(theta)}
	}
	n := v.Norm()
	if n == 0 {
		return geometry.Vec2{X: 1, Y: 0}
	}
	return v.Scale(1 / n)
}

// ElongationShapeFactorOf returns sqrt(lambda_max/lambda_min) of elem's
// inertia matrix; 1 for a perfect circle.
func (m *Mesh) ElongationShapeFactorOf(elemIndex int) float64 {
	ixx, iyy, ixy := m.MomentsOf(elemIndex)
	lambdaMin, lambdaMax, _, _ := inertiaEigen(ixx, iyy, ixy)
	if lambdaMin <= 0 {
		return 1
	}
	return math.Sqrt(lambdaMax / lambdaMin)
}

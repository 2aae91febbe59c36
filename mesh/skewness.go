package mesh

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/pthm-cable/ibmesh/geometry"
)

// rotatedPoint2 is a 2-D point in the rotated frame where axis maps to
// the y-axis: x' is the coordinate perpendicular to axis, y' the
// coordinate along axis.
type rotatedPoint2 struct{ x, y float64 }

// rotateToAxis expresses rel (a displacement relative to the element's
// centroid) in the frame where axis is vertical.
func rotateToAxis(rel, axis geometry.Vec2) rotatedPoint2 {
	perp := axis.Perp()
	return rotatedPoint2{x: rel.Dot(perp), y: rel.Dot(axis)}
}

// station is one knot of the piecewise-linear chord-length function w(x).
type station struct {
	x, w float64
}

// SkewnessOfMassDistribution rotates elem so axis is vertical, builds the
// piecewise-linear chord-length ("mass pdf") function of the perpendicular
// coordinate sampled at every node's x-station, normalises it by the
// element area, and returns the third standardised moment of that
// distribution.
func (m *Mesh) SkewnessOfMassDistribution(elemIndex int, axis geometry.Vec2) float64 {
	elem := &m.Elements[elemIndex]
	centroid := m.CentroidOf(elemIndex)
	n := elem.NumNodes()
	if n < 3 {
		return 0
	}

	axisLen := axis.Norm()
	if axisLen == 0 {
		return 0
	}
	axis = axis.Scale(1 / axisLen)

	rel := make([]rotatedPoint2, n)
	for i := 0; i < n; i++ {
		r := geometry.VectorFrom(centroid, m.nodeLoc(elem.NodeIndices[i]))
		rel[i] = rotateToAxis(r, axis)
	}

	xs := make([]float64, n)
	for i, p := range rel {
		xs[i] = p.x
	}
	sort.Float64s(xs)

	stations := make([]station, 0, n)
	warned := false
	for _, x := range xs {
		ys := intersectionsAtX(rel, x)
		// A vertex on the line is reached from both of its edges; count
		// each crossing once, in ascending order.
		sort.Float64s(ys)
		distinct := ys[:0]
		for _, y := range ys {
			if len(distinct) == 0 || y-distinct[len(distinct)-1] > 1e-12 {
				distinct = append(distinct, y)
			}
		}
		ys = distinct
		switch {
		case len(ys) < 2:
			stations = append(stations, station{x: x, w: 0})
		case len(ys) == 2:
			stations = append(stations, station{x: x, w: ys[1] - ys[0]})
		default:
			if !warned {
				slog.Warn("non-convex polygon in skewness computation, falling back to outermost intersections",
					"element", elemIndex, "num_intersections", len(ys))
				warned = true
			}
			sort.Float64s(ys)
			stations = append(stations, station{x: x, w: ys[len(ys)-1] - ys[0]})
		}
	}

	m0, m1, m2, m3 := pieceWiseMoments(stations)
	area := m.VolumeOf(elem)
	if area > 1e-12 {
		if math.Abs(m0/area-1) > 1e-6 {
			slog.Debug("skewness normalisation check exceeded tolerance",
				"element", elemIndex, "ratio", fmt.Sprintf("%.9f", m0/area))
		}
	}
	if m0 == 0 {
		return 0
	}

	mean := m1 / m0
	variance := m2/m0 - mean*mean
	if variance <= 0 {
		return 0
	}
	thirdCentral := m3/m0 - 3*mean*(m2/m0) + 2*mean*mean*mean
	return thirdCentral / math.Pow(variance, 1.5)
}

// intersectionsAtX returns the y-coordinates at which the closed polygon
// rel crosses the vertical line x = at.
func intersectionsAtX(rel []rotatedPoint2, at float64) []float64 {
	n := len(rel)
	var ys []float64
	for i := 0; i < n; i++ {
		a := rel[i]
		b := rel[(i+1)%n]
		if a.x == b.x {
			continue
		}
		lo, hi := a.x, b.x
		if lo > hi {
			lo, hi = hi, lo
		}
		if at < lo || at > hi {
			continue
		}
		t := (at - a.x) / (b.x - a.x)
		ys = append(ys, a.y+t*(b.y-a.y))
	}
	return ys
}

// gaussLegendre3 holds the abscissae/weights of the 3-point Gauss-Legendre
// rule on [-1,1], exact for polynomials up to degree 5 - more than enough
// for the degree-4 integrands (x^k * linear) this file needs.
var gaussLegendre3 = []struct{ x, w float64 }{
	{-math.Sqrt(3.0 / 5.0), 5.0 / 9.0},
	{0, 8.0 / 9.0},
	{math.Sqrt(3.0 / 5.0), 5.0 / 9.0},
}

// pieceWiseMoments integrates x^0..x^3 times the piecewise-linear function
// defined by stations (sorted by x) across its whole domain.
func pieceWiseMoments(stations []station) (m0, m1, m2, m3 float64) {
	for i := 1; i < len(stations); i++ {
		a, b := stations[i-1], stations[i]
		half := (b.x - a.x) / 2
		mid := (b.x + a.x) / 2
		if half == 0 {
			continue
		}
		for _, g := range gaussLegendre3 {
			x := mid + half*g.x
			t := (x - a.x) / (b.x - a.x)
			w := a.w + t*(b.w-a.w)
			jac := half * g.w
			m0 += w * jac
			m1 += x * w * jac
			m2 += x * x * w * jac
			m3 += x * x * x * w * jac
		}
	}
	return
}

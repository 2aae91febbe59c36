// Package geometry implements the periodic (toroidal) geometric primitives
// that every higher-level component in this module is built on: the unit
// square [0,1)x[0,1) wraps around in both directions, so "distance" and
// "displacement" always mean the shortest representative on the torus.
package geometry

import "math"

// Vec2 is a 2-D vector or point. Points live in [0,1)x[0,1); vectors are
// unconstrained displacements, typically the result of VectorFrom.
type Vec2 struct {
	X, Y float64
}

// Add returns the componentwise sum.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns the componentwise difference.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and w.
func (v Vec2) Dot(w Vec2) float64 { return v.X*w.X + v.Y*w.Y }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Perp returns v rotated +90 degrees.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Canonicalize reduces p into [0,1)x[0,1).
func Canonicalize(p Vec2) Vec2 {
	return Vec2{canonical1(p.X), canonical1(p.Y)}
}

func canonical1(x float64) float64 {
	return x - math.Floor(x)
}

// VectorFrom returns the shortest displacement v such that (a + v) mod 1
// equals b, componentwise, on the unit torus [0,1)x[0,1).
func VectorFrom(a, b Vec2) Vec2 {
	return Vec2{vectorFrom1(a.X, b.X), vectorFrom1(a.Y, b.Y)}
}

func vectorFrom1(a, b float64) float64 {
	d := b - a
	if math.Abs(d) > 0.5 {
		return math.Copysign(math.Abs(d)-1.0, -d)
	}
	return d
}

// Distance returns the torus shortest distance between a and b.
func Distance(a, b Vec2) float64 {
	return VectorFrom(a, b).Norm()
}

// StraightDistanceClamped clamps d to max(d, 1-d), matching the convention
// used by tortuosity() to respect the torus when measuring a "straight
// line" distance between two path endpoints.
func StraightDistanceClamped(d float64) float64 {
	return math.Max(d, 1-d)
}

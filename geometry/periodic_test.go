package geometry

import (
	"math"
	"testing"
)

func TestVectorFromShortest(t *testing.T) {
	cases := []struct {
		a, b Vec2
		want Vec2
	}{
		{Vec2{0.1, 0.1}, Vec2{0.2, 0.2}, Vec2{0.1, 0.1}},
		{Vec2{0.05, 0.5}, Vec2{0.95, 0.5}, Vec2{-0.1, 0}},
		{Vec2{0.95, 0.05}, Vec2{0.05, 0.95}, Vec2{0.1, -0.1}},
	}
	for _, c := range cases {
		got := VectorFrom(c.a, c.b)
		if math.Abs(got.X-c.want.X) > 1e-12 || math.Abs(got.Y-c.want.Y) > 1e-12 {
			t.Errorf("VectorFrom(%v,%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestVectorFromBoundAndRoundTrip(t *testing.T) {
	maxNorm := math.Sqrt(0.5*0.5 + 0.5*0.5)
	pts := []Vec2{{0, 0}, {0.3, 0.7}, {0.99, 0.01}, {0.5, 0.5}, {0.1, 0.9}}
	for _, a := range pts {
		for _, b := range pts {
			v := VectorFrom(a, b)
			if v.Norm() > maxNorm+1e-9 {
				t.Errorf("VectorFrom(%v,%v) norm %v exceeds bound %v", a, b, v.Norm(), maxNorm)
			}
			sum := Canonicalize(a.Add(v))
			if math.Abs(sum.X-b.X) > 1e-9 || math.Abs(sum.Y-b.Y) > 1e-9 {
				t.Errorf("VectorFrom(%v,%v) round trip gave %v, want %v", a, b, sum, b)
			}
		}
	}
}

func TestCanonicalize(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.1, 0.9},
		{1.2, 0.2},
		{0.5, 0.5},
		{-1.5, 0.5},
	}
	for _, c := range cases {
		got := canonical1(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("canonical1(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestStraightDistanceClamped(t *testing.T) {
	if got := StraightDistanceClamped(0.3); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("StraightDistanceClamped(0.3) = %v, want 0.7", got)
	}
	if got := StraightDistanceClamped(0.6); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("StraightDistanceClamped(0.6) = %v, want 0.6", got)
	}
}

// Package physics provides the geometric side of the engine: bounding
// volumes, hulls, the spatial hash grid, collision detection, kinematics and
// the rigid-body step.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// emptyAABB is inverted so that the first Extend sets both corners.
func emptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to contain a sphere of radius r at p.
func (b AABB) Extend(p mgl64.Vec3, r float64) AABB {
	for k := 0; k < 3; k++ {
		b.Min[k] = math.Min(b.Min[k], p[k]-r)
		b.Max[k] = math.Max(b.Max[k], p[k]+r)
	}
	return b
}

// Overlaps reports whether two boxes intersect. Touching faces count.
func (b AABB) Overlaps(o AABB) bool {
	for k := 0; k < 3; k++ {
		if b.Max[k] < o.Min[k] || o.Max[k] < b.Min[k] {
			return false
		}
	}
	return true
}

// Contains reports whether o lies entirely inside b.
func (b AABB) Contains(o AABB) bool {
	for k := 0; k < 3; k++ {
		if o.Min[k] < b.Min[k] || o.Max[k] > b.Max[k] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diagonal returns the length of the box diagonal.
func (b AABB) Diagonal() float64 {
	return b.Max.Sub(b.Min).Len()
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(a, b mgl64.Vec3) float64 {
	d := b.Sub(a)
	return d.Dot(d)
}

// SpheresOverlap checks if two spheres overlap.
func SpheresOverlap(c1 mgl64.Vec3, r1 float64, c2 mgl64.Vec3, r2 float64) bool {
	minDist := r1 + r2
	return DistanceSquared(c1, c2) < minDist*minDist
}

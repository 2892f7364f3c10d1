// Package geom provides the 2D/3D vector and axis-aligned bound primitives
// shared by the terrain, ecosystem, and territory systems.
package geom

import "math"

// Vec2 is a point in the horizontal plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a point in world space. Z is vertical (negative = underground).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY projects the point onto the horizontal plane.
func (v Vec3) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Dist returns the euclidean distance between two 2D points.
func Dist(a, b Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned 2D rectangle.
type Rect struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Contains reports whether p lies inside the rectangle (inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Box is an axis-aligned 3D bounding volume.
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Contains reports whether p lies inside the box (inclusive).
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether two boxes overlap on all three axes.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Clamp returns the box constrained to lie within bounds.
func (b Box) Clamp(bounds Box) Box {
	return Box{
		Min: Vec3{
			X: math.Max(b.Min.X, bounds.Min.X),
			Y: math.Max(b.Min.Y, bounds.Min.Y),
			Z: math.Max(b.Min.Z, bounds.Min.Z),
		},
		Max: Vec3{
			X: math.Min(b.Max.X, bounds.Max.X),
			Y: math.Min(b.Max.Y, bounds.Max.Y),
			Z: math.Min(b.Max.Z, bounds.Max.Z),
		},
	}
}

// Volume returns the enclosed volume, 0 for degenerate boxes.
func (b Box) Volume() float64 {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	dz := b.Max.Z - b.Min.Z
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return 0
	}
	return dx * dy * dz
}

// Expand grows the box by h on both horizontal axes and v on the vertical axis.
func (b Box) Expand(h, v float64) Box {
	return Box{
		Min: Vec3{X: b.Min.X - h, Y: b.Min.Y - h, Z: b.Min.Z - v},
		Max: Vec3{X: b.Max.X + h, Y: b.Max.Y + h, Z: b.Max.Z + v},
	}
}

// Clamp01 constrains x to [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Clamp constrains x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Package paths provides the geometry used to describe toolpaths:
// 2d and 3d vectors, contiguous polylines, and a top-down SVG
// rendering of a set of them.
package paths

import "math"

// Vec2 is a 2-dimensional vector.
type Vec2 [2]float64

// Vec3 is a 3-dimensional vector, in millimeters when it describes
// a machine position.
type Vec3 [3]float64

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Norm returns the euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// XY drops the z coordinate.
func (v Vec3) XY() Vec2 {
	return Vec2{v[0], v[1]}
}

// Dist returns the distance between a and b.
func Dist(a, b Vec3) float64 {
	return a.Sub(b).Norm()
}

// Polar returns the point at radius r and angle theta (radians)
// around the center c, keeping c's z coordinate.
func Polar(c Vec3, r, theta float64) Vec3 {
	return Vec3{c[0] + r*math.Cos(theta), c[1] + r*math.Sin(theta), c[2]}
}

func vec2dist(v0, v1 Vec2) float64 {
	return math.Hypot(v0[0]-v1[0], v0[1]-v1[1])
}

// A Path is a contiguous series of line segments, from the
// first point in the V slice to the last. Travel paths are
// moves made without depositing material.
type Path struct {
	V      []Vec2
	Travel bool
}

// Length returns the total length of the segments of p.
func (p Path) Length() float64 {
	d := 0.0
	for i := 1; i < len(p.V); i++ {
		d += vec2dist(p.V[i-1], p.V[i])
	}
	return d
}

// Bounds describes an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec2
}

// Pad grows b by m on every side.
func (b Bounds) Pad(m float64) Bounds {
	return Bounds{
		Min: Vec2{b.Min[0] - m, b.Min[1] - m},
		Max: Vec2{b.Max[0] + m, b.Max[1] + m},
	}
}

// Paths is a set of paths, along with a view bounds.
type Paths struct {
	Bounds Bounds
	P      []Path
}

// TightenBounds adjusts the bounds to exactly contain the paths.
// If there are no paths, the bounds are set to zero.
func (ps *Paths) TightenBounds() {
	inf := math.Inf(1)
	min := Vec2{inf, inf}
	max := Vec2{-inf, -inf}
	i := 0
	for _, p := range ps.P {
		for _, v := range p.V {
			i++
			min[0] = math.Min(min[0], v[0])
			min[1] = math.Min(min[1], v[1])
			max[0] = math.Max(max[0], v[0])
			max[1] = math.Max(max[1], v[1])
		}
	}
	if i == 0 {
		ps.Bounds = Bounds{}
		return
	}
	ps.Bounds = Bounds{Min: min, Max: max}
}

// FlipY mirrors every path vertically inside the current bounds.
// Machine coordinates grow upwards and SVG coordinates grow
// downwards, so previews are flipped before being written.
func (ps *Paths) FlipY() {
	b := ps.Bounds
	for _, p := range ps.P {
		for i, v := range p.V {
			p.V[i] = Vec2{v[0], b.Max[1] - (v[1] - b.Min[1])}
		}
	}
}

// Length returns the summed length of all paths of the given kind.
func (ps *Paths) Length(travel bool) float64 {
	d := 0.0
	for _, p := range ps.P {
		if p.Travel == travel {
			d += p.Length()
		}
	}
	return d
}

// MoveTo starts a new path at x, unless the last path is of the
// same kind and already ends at x.
func (ps *Paths) MoveTo(x Vec2, travel bool) {
	if n := len(ps.P); n > 0 {
		p := &ps.P[n-1]
		if p.Travel == travel && len(p.V) > 0 && p.V[len(p.V)-1] == x {
			return
		}
	}
	ps.P = append(ps.P, Path{V: []Vec2{x}, Travel: travel})
}

// LineTo extends the last path with an edge that goes to x.
// If there are no paths yet, or the last one is of a different
// kind, a new path is started from the end of the previous one.
func (ps *Paths) LineTo(x Vec2, travel bool) {
	n := len(ps.P)
	if n == 0 {
		ps.P = append(ps.P, Path{V: []Vec2{x}, Travel: travel})
		return
	}
	if ps.P[n-1].Travel != travel {
		prev := ps.P[n-1].V
		ps.P = append(ps.P, Path{V: []Vec2{prev[len(prev)-1]}, Travel: travel})
		n++
	}
	ps.P[n-1].V = append(ps.P[n-1].V, x)
}

package paths

import (
	"math"
)

// segdist returns the distance from v to the segment s-e.
func segdist(v, s, e Vec2) float64 {
	dx, dy := e[0]-s[0], e[1]-s[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return vec2dist(v, s)
	}
	t := ((v[0]-s[0])*dx + (v[1]-s[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return vec2dist(v, Vec2{s[0] + t*dx, s[1] + t*dy})
}

// simplifyPath is Ramer-Douglas-Peucker.
func simplifyPath(v []Vec2, tol float64) []Vec2 {
	if len(v) < 3 {
		return v
	}
	worst := 0
	worstD := 0.0
	for i := 1; i < len(v)-1; i++ {
		d := segdist(v[i], v[0], v[len(v)-1])
		if d > worstD {
			worst = i
			worstD = d
		}
	}
	if worstD <= tol {
		return []Vec2{v[0], v[len(v)-1]}
	}
	lefts := simplifyPath(v[:worst+1], tol)
	rights := simplifyPath(v[worst:], tol)
	return append(lefts[:len(lefts):len(lefts)], rights[1:]...)
}

// Simplify removes points from paths, with the guarantee that
// all removed points are within the given tolerance (distance)
// from the new path. It returns the number of points removed.
func (ps *Paths) Simplify(tol float64) int {
	removed := 0
	for i, p := range ps.P {
		nv := simplifyPath(p.V, tol)
		removed += len(p.V) - len(nv)
		ps.P[i].V = nv
	}
	return removed
}

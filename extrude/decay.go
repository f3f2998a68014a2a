package extrude

// DefaultDecayShape is the shape constant used when none is given.
const DefaultDecayShape = 1.0

// DecayFactor returns 1 - (k*radius/diameter)^2. It is 1 at the
// center and reaches zero at radius diameter/k; beyond that it is
// negative and must be clamped before being applied to a feed.
func DecayFactor(radius, diameter, k float64) float64 {
	x := k * radius / diameter
	return 1 - x*x
}

// ClampedDecay is DecayFactor limited to [0, 1].
func ClampedDecay(radius, diameter, k float64) float64 {
	f := DecayFactor(radius, diameter, k)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Package spiral plans cylinders printed as a stack of discs, each
// disc being an Archimedean spiral wound outwards from the center
// that blends into a circle at the rim.
package spiral

import (
	"math"

	"github.com/paulhankin/spiral/extrude"
	"github.com/paulhankin/spiral/paths"
)

// DefaultStepDegrees is the angular step used when none is set.
const DefaultStepDegrees = 5.0

// layerEpsilon absorbs binary rounding in height/layerHeight, so
// that 5mm at 0.2mm gives 25 layers.
const layerEpsilon = 1e-9

// Cylinder describes one printed cylinder.
type Cylinder struct {
	Diameter    float64    // mm
	Height      float64    // mm
	Spacing     float64    // distance between adjacent turns, mm
	LayerHeight float64    // mm
	Start       paths.Vec3 // center of the cylinder, at the base of layer 0
	Decay       bool       // taper the feed towards the rim

	DecayShape  float64 // k of extrude.DecayFactor; extrude.DefaultDecayShape if zero
	StepDegrees float64 // angular step; DefaultStepDegrees if zero
	BlendTurns  float64 // extra turns swept past LastFullTheta; none if zero or negative
	Retract     float64 // filament retracted around the lift to each layer, mm
}

// WithDefaults returns c with unset tuning fields filled in.
func (c Cylinder) WithDefaults() Cylinder {
	if c.DecayShape == 0 {
		c.DecayShape = extrude.DefaultDecayShape
	}
	if c.StepDegrees == 0 {
		c.StepDegrees = DefaultStepDegrees
	}
	return c
}

// Validate reports the first parameter that makes c impossible to
// plan, as an *extrude.ConfigError.
func (c Cylinder) Validate() error {
	c = c.WithDefaults()
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"diameter", c.Diameter},
		{"height", c.Height},
		{"spacing", c.Spacing},
		{"layer_height", c.LayerHeight},
		{"step_degrees", c.StepDegrees},
		{"decay_shape", c.DecayShape},
	} {
		if err := extrude.Positive(f.name, f.v); err != nil {
			return err
		}
	}
	if c.Retract < 0 {
		return &extrude.ConfigError{Field: "retract", Value: c.Retract, Reason: "must not be negative"}
	}
	if c.UsedRadius() <= 0 {
		return &extrude.ConfigError{Field: "diameter", Value: c.Diameter, Reason: "must be larger than half the spacing"}
	}
	if c.Layers() < 1 {
		return &extrude.ConfigError{Field: "height", Value: c.Height, Reason: "is less than one layer"}
	}
	return nil
}

// Layers returns the number of layers, floor(height/layer height).
func (c Cylinder) Layers() int {
	return int(math.Floor(c.Height/c.LayerHeight + layerEpsilon))
}

// LayerStart returns the center of the given layer (1-based).
func (c Cylinder) LayerStart(layer int) paths.Vec3 {
	return c.Start.Add(paths.Vec3{0, 0, float64(layer) * c.LayerHeight})
}

// UsedRadius is the radius the spiral winds out to. Half a line
// width is taken off the diameter for the width of the bead.
func (c Cylinder) UsedRadius() float64 {
	return (c.Diameter - c.Spacing/2) / 2
}

// LastFullTheta is the angle at which the pure spiral reaches
// UsedRadius.
func (c Cylinder) LastFullTheta() float64 {
	return c.UsedRadius() / c.Spacing * 2 * math.Pi
}

// EndTheta is the angle of the last point of a layer. Without
// BlendTurns it is LastFullTheta, where the path reaches UsedRadius.
func (c Cylinder) EndTheta() float64 {
	return c.LastFullTheta() + max(c.BlendTurns, 0)*2*math.Pi
}

// Radius returns the radius of the path at angle theta. Up to
// LastFullTheta it is the spiral r = spacing/2pi * theta; from
// there on it is the mean of that spiral and UsedRadius, so the
// path leaves the spiral at half its rate of growth instead of
// turning a corner onto the circle.
func (c Cylinder) Radius(theta float64) float64 {
	spiral := c.Spacing / (2 * math.Pi) * theta
	if theta < c.LastFullTheta() {
		return spiral
	}
	return (spiral + c.UsedRadius()) / 2
}

// WidthScale is the line width at theta relative to the nominal
// width. In the blend the gap to the previous turn closes linearly,
// by a quarter of the spacing per half turn, and the bead narrows
// with it.
func (c Cylinder) WidthScale(theta float64) float64 {
	t := c.LastFullTheta()
	if theta <= t {
		return 1
	}
	return 1 - (theta-t)/(4*math.Pi)
}

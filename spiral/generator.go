package spiral

import (
	"fmt"
	"iter"
	"math"

	"go.uber.org/zap"

	"github.com/paulhankin/spiral/extrude"
	"github.com/paulhankin/spiral/motion"
	"github.com/paulhankin/spiral/paths"
)

// thetaEpsilon stops the angular sweep from emitting a step that
// lands a rounding error short of the end angle.
const thetaEpsilon = 1e-9

// PathPoint is one planned extrusion move.
type PathPoint struct {
	Pos    paths.Vec3
	Feed   float64 // filament fed on the way to Pos, mm
	Theta  float64 // radians
	Radius float64
	Width  float64
}

// Generator prints a Cylinder through a motion.State.
type Generator struct {
	c   Cylinder
	log *zap.Logger
}

// NewGenerator validates c. A nil log discards log output.
func NewGenerator(c Cylinder, log *zap.Logger) (*Generator, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{c: c.WithDefaults(), log: log}, nil
}

// Cylinder returns the planned cylinder, with defaults filled in.
func (g *Generator) Cylinder() Cylinder {
	return g.c
}

// Plan returns the moves of one layer, from the layer's center
// (where the head is before the first move) outwards, with feeds
// computed for the bead and flow of m. The sequence is computed as
// it is consumed and can be ranged over any number of times.
func (g *Generator) Plan(layer int, m extrude.Model) iter.Seq[PathPoint] {
	c := g.c
	return func(yield func(PathPoint) bool) {
		center := c.LayerStart(layer)
		prev := center
		step := c.StepDegrees * math.Pi / 180
		end := c.EndTheta()
		for i := 1; ; i++ {
			theta := float64(i) * step
			last := theta >= end-thetaEpsilon
			if last {
				theta = end
			}
			pt := c.point(center, prev, theta, m)
			if !yield(pt) || last {
				return
			}
			prev = pt.Pos
		}
	}
}

func (c Cylinder) point(center, prev paths.Vec3, theta float64, m extrude.Model) PathPoint {
	r := c.Radius(theta)
	pos := paths.Polar(center, r, theta)
	if scale := c.WidthScale(theta); scale != 1 {
		m = m.WithLineWidth(m.LineWidth * scale)
	}
	feed := m.Feed(paths.Dist(prev, pos))
	if c.Decay {
		feed *= extrude.ClampedDecay(r, c.Diameter, c.DecayShape)
	}
	return PathPoint{Pos: pos, Feed: feed, Theta: theta, Radius: r, Width: m.LineWidth}
}

// Print prints every layer of the cylinder. The state's layer
// height is set to the cylinder's; its line width is used as the
// nominal width.
func (g *Generator) Print(s *motion.State) {
	s.SetLayerHeight(g.c.LayerHeight)
	n := g.c.Layers()
	feed0 := s.Feed()
	for layer := 1; layer <= n; layer++ {
		g.printLayer(s, layer, n)
	}
	g.log.Info("cylinder printed",
		zap.Float64("diameter", g.c.Diameter),
		zap.Float64("height", g.c.Height),
		zap.Int("layers", n),
		zap.Bool("decay", g.c.Decay),
		zap.Float64("feed", s.Feed()-feed0))
}

func (g *Generator) printLayer(s *motion.State, layer, n int) {
	c := g.c
	base := s.Model().LineWidth
	start := c.LayerStart(layer)
	s.Comment(fmt.Sprintf("cylinder d=%g layer %d/%d", c.Diameter, layer, n))

	// Retract before the lift, prime after it.
	s.Retract(c.Retract)
	s.TravelTo(start)
	s.Prime(c.Retract)

	feed0 := s.Feed()
	points := 0
	for pt := range g.Plan(layer, s.Model()) {
		if pt.Width != s.Model().LineWidth {
			s.SetLineWidth(pt.Width)
		}
		if c.Decay {
			s.ExtrudeWithExplicitFlow(pt.Pos, pt.Feed)
		} else {
			s.ExtrudeTo(pt.Pos)
		}
		points++
	}
	s.SetLineWidth(base)
	s.SetFlowMultiplier(1.0)

	g.log.Debug("layer printed",
		zap.Int("layer", layer),
		zap.Float64("z", start[2]),
		zap.Int("points", points),
		zap.Float64("feed", s.Feed()-feed0))
}

// Print validates c and prints it through s. Nothing is emitted if
// c is invalid.
func Print(s *motion.State, c Cylinder, log *zap.Logger) error {
	g, err := NewGenerator(c, log)
	if err != nil {
		return err
	}
	g.Print(s)
	return nil
}

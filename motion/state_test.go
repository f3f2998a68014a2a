package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulhankin/spiral/extrude"
	"github.com/paulhankin/spiral/gcode"
	"github.com/paulhankin/spiral/paths"
)

func newState(t *testing.T) (*State, *gcode.Buffer) {
	t.Helper()
	var buf gcode.Buffer
	s, err := New(&buf, DefaultParams())
	require.NoError(t, err)
	return s, &buf
}

func TestNewRejectsBadFilament(t *testing.T) {
	p := DefaultParams()
	p.FilamentDiameter = 0
	var buf gcode.Buffer
	_, err := New(&buf, p)
	assert.ErrorIs(t, err, extrude.ErrInvalidConfiguration)
	assert.Zero(t, buf.Len(), "nothing may be emitted for a bad configuration")
}

func TestTravelTo(t *testing.T) {
	s, buf := newState(t)
	assert.Equal(t, paths.Vec3{}, s.Position())
	s.TravelTo(paths.Vec3{10, 20, 5})

	assert.Equal(t, paths.Vec3{10, 20, 5}, s.Position())
	assert.Zero(t, s.Feed())
	assert.Equal(t, []gcode.Command{gcode.Travel{To: paths.Vec3{10, 20, 5}, Feedrate: 2000}}, buf.Commands())
}

func TestExtrudeTo(t *testing.T) {
	s, buf := newState(t)
	s.TravelTo(paths.Vec3{0, 0, 0.2})
	s.ExtrudeTo(paths.Vec3{10, 0, 0.2})
	s.ExtrudeTo(paths.Vec3{10, 10, 0.2})

	assert.InDelta(t, 0.6652, s.Feed(), 1e-4)
	require.Equal(t, 3, buf.Len())
	last, ok := buf.Commands()[2].(gcode.Extrude)
	require.True(t, ok)
	assert.Equal(t, paths.Vec3{10, 10, 0.2}, last.To)
	assert.Equal(t, 1000, last.Feedrate)
	assert.Equal(t, s.Feed(), last.E)
	assert.InDelta(t, 0.3326, last.Delta, 1e-4)
}

func TestFlowMultiplier(t *testing.T) {
	s, _ := newState(t)
	r := s.Ratio()
	base := s.FeedTo(paths.Vec3{10, 0, 0})
	s.SetFlowMultiplier(2)
	assert.Equal(t, r, s.Ratio(), "flow multiplier isn't part of the cached ratio")
	assert.InDelta(t, 2*base, s.FeedTo(paths.Vec3{10, 0, 0}), 1e-12)
	assert.Equal(t, 2.0, s.Params().FlowMultiplier)
}

func TestSettersRecomputeRatio(t *testing.T) {
	s, _ := newState(t)
	r := s.Ratio()

	s.SetLineWidth(0.8)
	assert.InDelta(t, 2*r, s.Ratio(), 1e-15)
	s.SetLayerHeight(0.1)
	assert.InDelta(t, r, s.Ratio(), 1e-15)

	want, err := extrude.RequiredFeed(10, 0.1, 0.8, 1.75, 1)
	require.NoError(t, err)
	assert.InDelta(t, want, s.FeedTo(paths.Vec3{0, 10, 0}), 1e-12)
}

func TestExplicitFlowAndReset(t *testing.T) {
	s, buf := newState(t)
	s.ExtrudeWithExplicitFlow(paths.Vec3{1, 0, 0}, 0.5)
	s.ExtrudeWithExplicitFlow(paths.Vec3{2, 0, 0}, 0.25)
	assert.Equal(t, 0.75, s.Feed())

	s.SetExtrusion(0)
	assert.Zero(t, s.Feed())
	assert.Equal(t, gcode.SetAbsoluteFeed{Value: 0}, buf.Commands()[2])

	s.ExtrudeWithExplicitFlow(paths.Vec3{3, 0, 0}, 0.1)
	assert.Equal(t, gcode.Extrude{To: paths.Vec3{3, 0, 0}, E: 0.1, Delta: 0.1, Feedrate: 1000}, buf.Commands()[3])
}

func TestRetractPrime(t *testing.T) {
	s, buf := newState(t)
	s.SetExtrusion(5)
	s.Retract(0.8)
	s.TravelTo(paths.Vec3{0, 0, 1})
	s.Prime(0.8)
	s.Retract(0)

	assert.InDelta(t, 5, s.Feed(), 1e-12)
	cmds := buf.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, gcode.ExtruderMove{E: 4.2, Delta: -0.8, Feedrate: RetractFeedrate}, cmds[1])
	assert.IsType(t, gcode.Travel{}, cmds[2])
	assert.Equal(t, gcode.ExtruderMove{E: 5, Delta: 0.8, Feedrate: RetractFeedrate}, cmds[3])
}

func TestMachineCommands(t *testing.T) {
	s, buf := newState(t)
	s.TravelTo(paths.Vec3{5, 5, 5})
	s.Home()
	assert.Equal(t, paths.Vec3{}, s.Position())

	s.SetFan(0.5)
	s.SetFan(2)
	s.SetBedTemp(55, true)
	s.SetHotendTemp(195, false)
	s.AbsoluteExtrusion()
	s.LevelBed()
	s.Comment("hi")

	assert.Equal(t, []gcode.Command{
		gcode.Travel{To: paths.Vec3{5, 5, 5}, Feedrate: 2000},
		gcode.Home{},
		gcode.SetFan{Speed: 128},
		gcode.SetFan{Speed: 255},
		gcode.SetBedTemp{Temp: 55, Wait: true},
		gcode.SetHotendTemp{Temp: 195},
		gcode.AbsoluteExtrusion{},
		gcode.LevelBed{},
		gcode.Comment{Text: "hi"},
	}, buf.Commands())
}

func TestFeedrates(t *testing.T) {
	s, buf := newState(t)
	s.SetTravelFeedrate(3000)
	s.SetPrintFeedrate(300)
	s.TravelTo(paths.Vec3{1, 0, 0})
	s.ExtrudeTo(paths.Vec3{2, 0, 0})
	assert.Equal(t, 3000, buf.Commands()[0].(gcode.Travel).Feedrate)
	assert.Equal(t, 300, buf.Commands()[1].(gcode.Extrude).Feedrate)
	assert.Equal(t, 300, s.Params().PrintFeedrate)
}

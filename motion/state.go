// Package motion tracks where the print head and the extruder are,
// and turns moves into G-code commands with the right amount of
// filament.
package motion

import (
	"math"

	"github.com/paulhankin/spiral/extrude"
	"github.com/paulhankin/spiral/gcode"
	"github.com/paulhankin/spiral/paths"
)

// RetractFeedrate is the feedrate of filament-only moves (mm/min).
const RetractFeedrate = 300

// Params are the process settings of a print.
type Params struct {
	TravelFeedrate   int     // mm/min
	PrintFeedrate    int     // mm/min
	LayerHeight      float64 // mm
	LineWidth        float64 // mm
	FilamentDiameter float64 // mm
	FlowMultiplier   float64
}

// DefaultParams are the settings of a 0.4mm nozzle printing PLA.
func DefaultParams() Params {
	return Params{
		TravelFeedrate:   2000,
		PrintFeedrate:    1000,
		LayerHeight:      0.2,
		LineWidth:        0.4,
		FilamentDiameter: 1.75,
		FlowMultiplier:   1.0,
	}
}

// State is the position of the head and the extruder during a
// print. Every move updates it and emits a command to the sink.
// A State is owned by a single goroutine.
type State struct {
	sink gcode.Sink

	pos  paths.Vec3
	feed float64

	travelFeedrate int
	printFeedrate  int
	model          extrude.Model
}

// New returns a State at the origin with zero feed. It fails with
// extrude.ErrInvalidConfiguration if the filament diameter isn't
// positive.
func New(sink gcode.Sink, p Params) (*State, error) {
	m, err := extrude.NewModel(p.LayerHeight, p.LineWidth, p.FilamentDiameter, p.FlowMultiplier)
	if err != nil {
		return nil, err
	}
	return &State{
		sink:           sink,
		travelFeedrate: p.TravelFeedrate,
		printFeedrate:  p.PrintFeedrate,
		model:          m,
	}, nil
}

// Position returns the current head position.
func (s *State) Position() paths.Vec3 { return s.pos }

// Feed returns the current absolute extruder position.
func (s *State) Feed() float64 { return s.feed }

// Model returns the current bead geometry and flow.
func (s *State) Model() extrude.Model { return s.model }

// Ratio returns the cached feed per mm of travel, excluding the
// flow multiplier.
func (s *State) Ratio() float64 { return s.model.Ratio() }

// Params returns the current process settings.
func (s *State) Params() Params {
	return Params{
		TravelFeedrate:   s.travelFeedrate,
		PrintFeedrate:    s.printFeedrate,
		LayerHeight:      s.model.LayerHeight,
		LineWidth:        s.model.LineWidth,
		FilamentDiameter: s.model.FilamentDiameter,
		FlowMultiplier:   s.model.FlowMultiplier,
	}
}

// FeedTo returns the feed ExtrudeTo(p) would add, without moving.
func (s *State) FeedTo(p paths.Vec3) float64 {
	return s.model.Feed(paths.Dist(s.pos, p))
}

// TravelTo moves to p without extruding.
func (s *State) TravelTo(p paths.Vec3) {
	s.sink.Emit(gcode.Travel{To: p, Feedrate: s.travelFeedrate})
	s.pos = p
}

// ExtrudeTo moves to p, feeding the filament needed for a bead of
// the current geometry along the way.
func (s *State) ExtrudeTo(p paths.Vec3) {
	s.ExtrudeWithExplicitFlow(p, s.FeedTo(p))
}

// ExtrudeWithExplicitFlow moves to p feeding exactly delta.
func (s *State) ExtrudeWithExplicitFlow(p paths.Vec3, delta float64) {
	s.feed += delta
	s.sink.Emit(gcode.Extrude{To: p, E: s.feed, Delta: delta, Feedrate: s.printFeedrate})
	s.pos = p
}

// MoveExtruder feeds delta without moving the head. Negative
// values retract. A zero delta emits nothing.
func (s *State) MoveExtruder(delta float64) {
	if delta == 0 {
		return
	}
	s.feed += delta
	s.sink.Emit(gcode.ExtruderMove{E: s.feed, Delta: delta, Feedrate: RetractFeedrate})
}

// Retract pulls d mm of filament back.
func (s *State) Retract(d float64) { s.MoveExtruder(-d) }

// Prime pushes d mm of filament forward, undoing Retract(d).
func (s *State) Prime(d float64) { s.MoveExtruder(d) }

// SetExtrusion redefines the current extruder position as v.
func (s *State) SetExtrusion(v float64) {
	s.sink.Emit(gcode.SetAbsoluteFeed{Value: v})
	s.feed = v
}

// SetLayerHeight changes the bead height and the cached ratio.
func (s *State) SetLayerHeight(h float64) {
	s.model = s.model.WithLayerHeight(h)
}

// SetLineWidth changes the bead width and the cached ratio.
func (s *State) SetLineWidth(w float64) {
	s.model = s.model.WithLineWidth(w)
}

// SetFlowMultiplier scales the feed of subsequent ExtrudeTo moves.
func (s *State) SetFlowMultiplier(f float64) {
	s.model.FlowMultiplier = f
}

// SetTravelFeedrate sets the feedrate of travel moves (mm/min).
func (s *State) SetTravelFeedrate(f int) { s.travelFeedrate = f }

// SetPrintFeedrate sets the feedrate of extruding moves (mm/min).
func (s *State) SetPrintFeedrate(f int) { s.printFeedrate = f }

// Home homes the machine, which puts the head at the origin.
func (s *State) Home() {
	s.sink.Emit(gcode.Home{})
	s.pos = paths.Vec3{}
}

// AbsoluteExtrusion puts the firmware in absolute E mode, which
// every extruding command emitted by State relies on.
func (s *State) AbsoluteExtrusion() { s.sink.Emit(gcode.AbsoluteExtrusion{}) }

// LevelBed asks the firmware to probe the bed.
func (s *State) LevelBed() { s.sink.Emit(gcode.LevelBed{}) }

// SetBedTemp sets the bed temperature (°C).
func (s *State) SetBedTemp(t float64, wait bool) {
	s.sink.Emit(gcode.SetBedTemp{Temp: t, Wait: wait})
}

// SetHotendTemp sets the hotend temperature (°C).
func (s *State) SetHotendTemp(t float64, wait bool) {
	s.sink.Emit(gcode.SetHotendTemp{Temp: t, Wait: wait})
}

// SetFan sets the part cooling fan, speed in [0, 1].
func (s *State) SetFan(speed float64) {
	v := math.Round(math.Max(0, math.Min(255, speed*255)))
	s.sink.Emit(gcode.SetFan{Speed: int(v)})
}

// Comment emits a comment line.
func (s *State) Comment(text string) { s.sink.Emit(gcode.Comment{Text: text}) }

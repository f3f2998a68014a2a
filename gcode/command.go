// Package gcode defines the commands emitted while generating a
// print, and renders them as G-code text for Marlin-style firmware.
package gcode

import "github.com/paulhankin/spiral/paths"

// A Command is a single machine instruction.
type Command interface {
	command()
}

// Travel is a rapid move that deposits no material (G0).
type Travel struct {
	To       paths.Vec3
	Feedrate int // mm/min
}

// Extrude is a coordinated move while feeding filament (G1).
// E is the absolute extruder position at the end of the move and
// Delta the feed added by this move.
type Extrude struct {
	To       paths.Vec3
	E        float64
	Delta    float64
	Feedrate int
}

// ExtruderMove feeds or retracts filament without moving the head.
type ExtruderMove struct {
	E        float64
	Delta    float64
	Feedrate int
}

// SetAbsoluteFeed redefines the current extruder position (G92 E).
type SetAbsoluteFeed struct {
	Value float64
}

// Comment is a line of text ignored by the firmware.
type Comment struct {
	Text string
}

// Home homes all axes (G28).
type Home struct{}

// AbsoluteExtrusion selects absolute E coordinates (M82).
type AbsoluteExtrusion struct{}

// LevelBed runs the firmware's bed probing routine (G29).
type LevelBed struct{}

// SetBedTemp sets the bed target, waiting for it if Wait is set.
type SetBedTemp struct {
	Temp float64
	Wait bool
}

// SetHotendTemp sets the hotend target, waiting for it if Wait is set.
type SetHotendTemp struct {
	Temp float64
	Wait bool
}

// SetFan sets the part cooling fan PWM value, 0-255.
type SetFan struct {
	Speed int
}

func (Travel) command()            {}
func (Extrude) command()           {}
func (ExtruderMove) command()      {}
func (SetAbsoluteFeed) command()   {}
func (Comment) command()           {}
func (Home) command()              {}
func (AbsoluteExtrusion) command() {}
func (LevelBed) command()          {}
func (SetBedTemp) command()        {}
func (SetHotendTemp) command()     {}
func (SetFan) command()            {}

// A Sink consumes commands in the order they are emitted.
type Sink interface {
	Emit(Command)
}

// Buffer is a Sink that keeps every command in memory.
type Buffer struct {
	cmds []Command
}

// Emit appends c.
func (b *Buffer) Emit(c Command) {
	b.cmds = append(b.cmds, c)
}

// Commands returns the emitted commands. The slice is shared.
func (b *Buffer) Commands() []Command {
	return b.cmds
}

// Len returns the number of emitted commands.
func (b *Buffer) Len() int {
	return len(b.cmds)
}

// Tee returns a Sink that emits every command to all of sinks.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Emit(c Command) {
	for _, s := range t {
		s.Emit(c)
	}
}

// Package job describes a print as a YAML document: the printer
// settings, a purge line, and the cylinders to print in order.
package job

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/paulhankin/spiral/extrude"
	"github.com/paulhankin/spiral/motion"
	"github.com/paulhankin/spiral/paths"
	"github.com/paulhankin/spiral/spiral"
)

// Job is a complete print.
type Job struct {
	Name      string     `json:"name" yaml:"name"`
	Output    string     `json:"output,omitempty" yaml:"output,omitempty"`
	Printer   Printer    `json:"printer" yaml:"printer"`
	Purge     *Purge     `json:"purge,omitempty" yaml:"purge,omitempty"`
	Cylinders []Cylinder `json:"cylinders" yaml:"cylinders"`
	Park      Park       `json:"park" yaml:"park"`
}

// Printer holds the machine and process settings.
type Printer struct {
	TravelFeedrate   int     `json:"travel_feedrate" yaml:"travel_feedrate"`
	PrintFeedrate    int     `json:"print_feedrate" yaml:"print_feedrate"`
	LayerHeight      float64 `json:"layer_height" yaml:"layer_height"`
	LineWidth        float64 `json:"line_width" yaml:"line_width"`
	FilamentDiameter float64 `json:"filament_diameter" yaml:"filament_diameter"`
	BedTemp          float64 `json:"bed_temp" yaml:"bed_temp"`
	HotendTemp       float64 `json:"hotend_temp" yaml:"hotend_temp"`
	Fan              float64 `json:"fan" yaml:"fan"`
	LevelBed         bool    `json:"level_bed" yaml:"level_bed"`
}

// Purge is a line printed with extra flow to prime the nozzle.
type Purge struct {
	From paths.Vec3 `json:"from" yaml:"from"`
	To   paths.Vec3 `json:"to" yaml:"to"`
	Flow float64    `json:"flow" yaml:"flow"`
}

// Cylinder is one cylinder of the job. If Stack is set the cylinder
// starts at the height the previous one finished, and Start's z is
// ignored.
type Cylinder struct {
	Diameter      float64     `json:"diameter" yaml:"diameter"`
	Height        float64     `json:"height" yaml:"height"`
	Spacing       float64     `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	Start         *paths.Vec3 `json:"start,omitempty" yaml:"start,omitempty"`
	Stack         bool        `json:"stack,omitempty" yaml:"stack,omitempty"`
	PrintFeedrate int         `json:"print_feedrate,omitempty" yaml:"print_feedrate,omitempty"`
	Flow          float64     `json:"flow,omitempty" yaml:"flow,omitempty"`
	Decay         bool        `json:"decay,omitempty" yaml:"decay,omitempty"`
	DecayShape    float64     `json:"decay_shape,omitempty" yaml:"decay_shape,omitempty"`
	BlendTurns    float64     `json:"blend_turns,omitempty" yaml:"blend_turns,omitempty"`
	Retract       float64     `json:"retract,omitempty" yaml:"retract,omitempty"`
}

// Park is where the head goes once the print is done: up by Lift,
// then along y to Y.
type Park struct {
	Lift float64 `json:"lift" yaml:"lift"`
	Y    float64 `json:"y" yaml:"y"`
}

// Center is where cylinders without a start are printed.
var Center = paths.Vec3{150, 150, 0.1}

// Default returns the job the tool prints when given no job file:
// a disc, an axle on top of it, and a second disc printed slowly
// with extra flow over the overhang.
func Default() *Job {
	j := &Job{
		Name: "disc-axle-disc",
		Purge: &Purge{
			From: paths.Vec3{30, 35, 0.3},
			To:   paths.Vec3{190, 35, 0.25},
			Flow: 2.0,
		},
		Cylinders: []Cylinder{
			{Diameter: 30, Height: 5},
			{Diameter: 10, Height: 5, Stack: true},
			{Diameter: 30, Height: 5, Stack: true, PrintFeedrate: 300, Flow: 1.2},
		},
	}
	j.ApplyDefaults()
	return j
}

// ApplyDefaults fills in every unset setting.
func (j *Job) ApplyDefaults() {
	if j.Name == "" {
		j.Name = "spiral"
	}
	p := &j.Printer
	d := motion.DefaultParams()
	if p.TravelFeedrate == 0 {
		p.TravelFeedrate = d.TravelFeedrate
	}
	if p.PrintFeedrate == 0 {
		p.PrintFeedrate = d.PrintFeedrate
	}
	if p.LayerHeight == 0 {
		p.LayerHeight = d.LayerHeight
	}
	if p.LineWidth == 0 {
		p.LineWidth = d.LineWidth
	}
	if p.FilamentDiameter == 0 {
		p.FilamentDiameter = d.FilamentDiameter
	}
	if p.BedTemp == 0 {
		p.BedTemp = 55
	}
	if p.HotendTemp == 0 {
		p.HotendTemp = 195
	}
	if j.Purge != nil && j.Purge.Flow == 0 {
		j.Purge.Flow = 1
	}
	for i := range j.Cylinders {
		c := &j.Cylinders[i]
		if c.Spacing == 0 {
			c.Spacing = p.LineWidth
		}
		if c.Flow == 0 {
			c.Flow = 1
		}
	}
	if j.Park.Lift == 0 {
		j.Park.Lift = 20
	}
	if j.Park.Y == 0 {
		j.Park.Y = 10
	}
}

// Params returns the motion settings of the job.
func (j *Job) Params() motion.Params {
	return motion.Params{
		TravelFeedrate:   j.Printer.TravelFeedrate,
		PrintFeedrate:    j.Printer.PrintFeedrate,
		LayerHeight:      j.Printer.LayerHeight,
		LineWidth:        j.Printer.LineWidth,
		FilamentDiameter: j.Printer.FilamentDiameter,
		FlowMultiplier:   1,
	}
}

// Spiral returns the cylinder to plan, starting at start.
func (c Cylinder) Spiral(start paths.Vec3, layerHeight float64) spiral.Cylinder {
	return spiral.Cylinder{
		Diameter:    c.Diameter,
		Height:      c.Height,
		Spacing:     c.Spacing,
		LayerHeight: layerHeight,
		Start:       start,
		Decay:       c.Decay,
		DecayShape:  c.DecayShape,
		BlendTurns:  c.BlendTurns,
		Retract:     c.Retract,
	}
}

// Validate checks the whole job before anything is printed.
func (j *Job) Validate() error {
	if _, err := extrude.Ratio(j.Printer.LayerHeight, j.Printer.LineWidth, j.Printer.FilamentDiameter); err != nil {
		return fmt.Errorf("job %q: printer: %w", j.Name, err)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"layer_height", j.Printer.LayerHeight},
		{"line_width", j.Printer.LineWidth},
		{"travel_feedrate", float64(j.Printer.TravelFeedrate)},
		{"print_feedrate", float64(j.Printer.PrintFeedrate)},
	} {
		if err := extrude.Positive(f.name, f.v); err != nil {
			return fmt.Errorf("job %q: printer: %w", j.Name, err)
		}
	}
	if j.Printer.Fan < 0 || j.Printer.Fan > 1 {
		return fmt.Errorf("job %q: printer: %w", j.Name,
			&extrude.ConfigError{Field: "fan", Value: j.Printer.Fan, Reason: "must be between 0 and 1"})
	}
	if len(j.Cylinders) == 0 {
		return fmt.Errorf("job %q: %w: no cylinders", j.Name, extrude.ErrInvalidConfiguration)
	}
	for i, c := range j.Cylinders {
		if i == 0 && c.Stack {
			return fmt.Errorf("job %q: cylinder 0: %w: nothing to stack on", j.Name, extrude.ErrInvalidConfiguration)
		}
		if err := c.Spiral(Center, j.Printer.LayerHeight).Validate(); err != nil {
			return fmt.Errorf("job %q: cylinder %d: %w", j.Name, i, err)
		}
	}
	return nil
}

// Load reads a YAML job, applies defaults and validates it.
func Load(r io.Reader) (*Job, error) {
	var j Job
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	j.ApplyDefaults()
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// LoadFile is Load on the named file.
func LoadFile(name string) (*Job, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	j, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return j, nil
}

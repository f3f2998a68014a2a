// Package spiralcyl provides the functionality for the
// spiralcyl binary as a library.
package spiralcyl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/paulhankin/spiral/gcode"
	"github.com/paulhankin/spiral/job"
	"github.com/paulhankin/spiral/ledger"
	"github.com/paulhankin/spiral/motion"
	"github.com/paulhankin/spiral/paths"
	"github.com/paulhankin/spiral/sender"
	"github.com/paulhankin/spiral/spiral"
)

type Config struct {
	Jobs []string // job files; the default job if empty
	Out  string   // overrides the job's output, single job only

	Preview  string  // svg preview file, single job only
	Simplify float64 // preview simplification tolerance (mm)

	Ledger string // sqlite file to record runs in

	Port string // serial device to stream to, single job only
	Baud int

	Precision int
	Log       *zap.Logger
}

// Result describes the G-code generated for one job.
type Result struct {
	Job      *job.Job
	Output   string
	Commands []gcode.Command
	Lines    int
	Layers   int
	Feed     float64 // total filament fed, mm
	Checksum uint64
}

// NewLogger builds the JSON logger used by the binary at the named
// level ("debug", "info", "warn", "error").
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}

// Emit drives s through the whole job: heating, homing, the purge
// line, every cylinder in order, and parking the head. The job is
// validated first; nothing is emitted for an invalid job.
func Emit(s *motion.State, j *job.Job, log *zap.Logger) (layers int, err error) {
	if err := j.Validate(); err != nil {
		return 0, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := j.Printer
	s.Comment(fmt.Sprintf("job %s", j.Name))
	s.SetBedTemp(p.BedTemp, false)
	s.SetHotendTemp(p.HotendTemp, false)
	s.SetBedTemp(p.BedTemp, true)
	s.SetHotendTemp(p.HotendTemp, true)
	s.Home()
	if p.LevelBed {
		s.LevelBed()
	}
	s.AbsoluteExtrusion()
	s.SetExtrusion(0)
	if p.Fan > 0 {
		s.SetFan(p.Fan)
	}

	if pg := j.Purge; pg != nil {
		s.Comment("purge")
		s.SetFlowMultiplier(pg.Flow)
		s.TravelTo(pg.From)
		s.ExtrudeTo(pg.To)
		s.SetFlowMultiplier(1)
		s.SetExtrusion(0)
		s.TravelTo(s.Position().Add(paths.Vec3{0, 0, 5}))
	}

	for i, c := range j.Cylinders {
		start := job.Center
		if c.Start != nil {
			start = *c.Start
		}
		if c.Stack {
			start[2] = s.Position()[2]
		} else {
			s.TravelTo(paths.Vec3{start[0], start[1], max(s.Position()[2], start[2])})
		}
		feedrate := c.PrintFeedrate
		if feedrate == 0 {
			feedrate = p.PrintFeedrate
		}
		s.SetPrintFeedrate(feedrate)
		s.SetFlowMultiplier(c.Flow)
		sc := c.Spiral(start, p.LayerHeight)
		if err := spiral.Print(s, sc, log.With(zap.Int("cylinder", i))); err != nil {
			return layers, fmt.Errorf("cylinder %d: %w", i, err)
		}
		layers += sc.Layers()
	}
	s.SetPrintFeedrate(p.PrintFeedrate)

	s.Comment("park")
	s.TravelTo(s.Position().Add(paths.Vec3{0, 0, j.Park.Lift}))
	pos := s.Position()
	s.TravelTo(paths.Vec3{pos[0], j.Park.Y, pos[2]})
	return layers, nil
}

// Generate renders j as G-code to w.
func Generate(j *job.Job, w io.Writer, cfg *Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	gw := gcode.NewWriter(w, &gcode.Config{Precision: cfg.Precision})
	var buf gcode.Buffer
	s, err := motion.New(gcode.Tee(gw, &buf), j.Params())
	if err != nil {
		return nil, err
	}
	layers, err := Emit(s, j, log.With(zap.String("job", j.Name)))
	if err != nil {
		return nil, err
	}
	if err := gw.Flush(); err != nil {
		return nil, err
	}
	r := &Result{
		Job:      j,
		Commands: buf.Commands(),
		Lines:    gw.Lines(),
		Layers:   layers,
		Checksum: gw.Sum64(),
	}
	for _, c := range r.Commands {
		switch c := c.(type) {
		case gcode.Extrude:
			r.Feed += c.Delta
		case gcode.ExtruderMove:
			r.Feed += c.Delta
		}
	}
	return r, nil
}

func outputName(j *job.Job) string {
	if j.Output != "" {
		return j.Output
	}
	return j.Name + ".gcode"
}

func generateFile(j *job.Job, name string, cfg *Config) (*Result, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	r, err := Generate(j, f, cfg)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %w", gcode.ErrIO, cerr)
	}
	if err != nil {
		os.Remove(name)
		return nil, fmt.Errorf("failed to write gcode: %w", err)
	}
	r.Output = name
	return r, nil
}

// Preview builds the top-down view of a command stream: one path
// per run of extrusion or travel moves.
func Preview(cmds []gcode.Command) *paths.Paths {
	ps := &paths.Paths{}
	var pos paths.Vec3
	started := false
	move := func(to paths.Vec3, travel bool) {
		if !started {
			ps.MoveTo(pos.XY(), travel)
			started = true
		}
		if to.XY() != pos.XY() {
			ps.LineTo(to.XY(), travel)
		}
		pos = to
	}
	for _, c := range cmds {
		switch c := c.(type) {
		case gcode.Travel:
			move(c.To, true)
		case gcode.Extrude:
			move(c.To, false)
		case gcode.Home:
			pos = paths.Vec3{}
			started = false
		}
	}
	ps.TightenBounds()
	return ps
}

func writePreview(name string, r *Result, tol float64, log *zap.Logger) error {
	ps := Preview(r.Commands)
	ps.FlipY()
	ps.Bounds = ps.Bounds.Pad(5)
	if tol > 0 {
		n := ps.Simplify(tol)
		log.Debug("preview simplified", zap.Int("removed", n))
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to open preview file: %w", err)
	}
	err = ps.SVG(f, r.Job.Printer.LineWidth)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write svg file: %w", err)
	}
	return nil
}

func loadJobs(names []string) ([]*job.Job, error) {
	if len(names) == 0 {
		return []*job.Job{job.Default()}, nil
	}
	var jobs []*job.Job
	for _, name := range names {
		j, err := job.LoadFile(name)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Run generates every job of cfg, each to its own file, and then
// writes the preview, records the runs and streams to the printer
// as configured.
func Run(ctx context.Context, cfg *Config) ([]*Result, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	jobs, err := loadJobs(cfg.Jobs)
	if err != nil {
		return nil, err
	}
	single := len(jobs) == 1
	if !single && (cfg.Out != "" || cfg.Preview != "" || cfg.Port != "") {
		return nil, errors.New("-out, -preview and -port need a single job")
	}

	outs := make([]string, len(jobs))
	seen := map[string]bool{}
	for i, j := range jobs {
		outs[i] = outputName(j)
		if cfg.Out != "" {
			outs[i] = cfg.Out
		}
		if seen[outs[i]] {
			return nil, fmt.Errorf("jobs write the same output file %q", outs[i])
		}
		seen[outs[i]] = true
	}

	results := make([]*Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := generateFile(j, outs[i], cfg)
			if err != nil {
				return fmt.Errorf("job %q: %w", j.Name, err)
			}
			log.Info("gcode written",
				zap.String("job", j.Name),
				zap.String("output", r.Output),
				zap.Int("lines", r.Lines),
				zap.Int("layers", r.Layers),
				zap.Float64("feed", r.Feed))
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cfg.Preview != "" {
		if err := writePreview(cfg.Preview, results[0], cfg.Simplify, log); err != nil {
			return nil, err
		}
	}
	if cfg.Ledger != "" {
		if err := record(ctx, cfg.Ledger, results, log); err != nil {
			return nil, err
		}
	}
	if cfg.Port != "" {
		if err := send(ctx, cfg, results[0], log); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func record(ctx context.Context, name string, results []*Result, log *zap.Logger) error {
	l, db, err := ledger.Open(name)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, r := range results {
		run, err := l.Record(ctx, ledger.Run{
			Job:      r.Job.Name,
			Output:   r.Output,
			Layers:   r.Layers,
			Commands: len(r.Commands),
			Feed:     r.Feed,
			Checksum: r.Checksum,
		})
		if err != nil {
			return err
		}
		log.Info("run recorded", zap.String("id", run.ID), zap.String("job", run.Job))
	}
	return nil
}

// Lines renders cmds the way a Writer would, one string per command.
func Lines(cmds []gcode.Command, precision int) []string {
	if precision <= 0 {
		precision = gcode.DefaultPrecision
	}
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = gcode.Format(c, precision)
	}
	return lines
}

func send(ctx context.Context, cfg *Config, r *Result, log *zap.Logger) error {
	baud := cfg.Baud
	if baud == 0 {
		baud = sender.DefaultBaud
	}
	port, err := sender.Open(cfg.Port, baud)
	if err != nil {
		return err
	}
	defer port.Close()
	n, err := sender.New(port, log).Send(ctx, Lines(r.Commands, cfg.Precision))
	log.Info("sent to printer", zap.String("port", cfg.Port), zap.Int("lines", n))
	return err
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/paulhankin/spiral/cmd/spiralcyl/spiralcyl"
	"github.com/paulhankin/spiral/gcode"
	"github.com/paulhankin/spiral/sender"
)

// flagListValue is a flag that may be given more than once.
type flagListValue []string

func (fl *flagListValue) String() string {
	return strings.Join(*fl, ",")
}

func (fl *flagListValue) Set(s string) error {
	if s == "" {
		return fmt.Errorf("empty value")
	}
	*fl = append(*fl, s)
	return nil
}

// flags
var (
	flagJobs flagListValue
	flagOut  string

	flagPreview  string
	flagSimplify float64
	flagLedger   string
	flagPort     string
	flagBaud     int
	flagLog      string
	flagPrec     int
)

func init() {
	flag.Var(&flagJobs, "job", "yaml job file (may be repeated; the built-in disc/axle/disc job if none)")
	flag.StringVar(&flagOut, "out", "", "gcode output file (default: the job's output, or <name>.gcode)")
	flag.StringVar(&flagPreview, "preview", "", "if set, write a top-down svg preview to this file")
	flag.Float64Var(&flagSimplify, "simplify", 0, "simplify the preview to this tolerance (mm)")
	flag.StringVar(&flagLedger, "ledger", "", "if set, record runs in this sqlite file")
	flag.StringVar(&flagPort, "port", "", "if set, stream the gcode to the printer on this serial device")
	flag.IntVar(&flagBaud, "baud", sender.DefaultBaud, "serial baud rate")
	flag.StringVar(&flagLog, "log", "info", "log level")
	flag.IntVar(&flagPrec, "precision", gcode.DefaultPrecision, "decimals written for coordinates")
}

func main() {
	fail := func(s string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, s+"\n", args...)
		os.Exit(2)
	}

	flag.Parse()
	if flag.NArg() > 0 {
		fail("unexpected arguments: %v", flag.Args())
	}

	log, err := spiralcyl.NewLogger(flagLog)
	if err != nil {
		fail("bad -log level: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = spiralcyl.Run(ctx, &spiralcyl.Config{
		Jobs:      flagJobs,
		Out:       flagOut,
		Preview:   flagPreview,
		Simplify:  flagSimplify,
		Ledger:    flagLedger,
		Port:      flagPort,
		Baud:      flagBaud,
		Precision: flagPrec,
		Log:       log,
	})
	if err != nil {
		log.Sync()
		fail("%v", err)
	}
}

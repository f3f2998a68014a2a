// Package sender streams G-code to a printer over a serial line,
// one line at a time, waiting for the firmware to acknowledge each.
package sender

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"
)

// ErrPrinter is wrapped by errors reported by the firmware.
var ErrPrinter = errors.New("sender: printer error")

// DefaultBaud is the usual baud rate of Marlin over USB.
const DefaultBaud = 115200

// Open opens a serial port to a printer.
func Open(device string, baud int) (io.ReadWriteCloser, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	return port, nil
}

// Sender writes lines to a printer.
type Sender struct {
	w   io.Writer
	r   *bufio.Reader
	log *zap.Logger
}

// New returns a Sender talking over rw. A nil log discards output.
func New(rw io.ReadWriter, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{w: rw, r: bufio.NewReader(rw), log: log}
}

// Send writes each line and waits for "ok". Comments and blank
// lines are skipped. A reply starting with "Error" or "!!" aborts
// the transfer. ctx is checked between lines.
func (s *Sender) Send(ctx context.Context, lines []string) (int, error) {
	sent := 0
	for i, line := range lines {
		if j := strings.IndexByte(line, ';'); j >= 0 {
			line = line[:j]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if _, err := io.WriteString(s.w, line+"\n"); err != nil {
			return sent, fmt.Errorf("sender: line %d: %w", i+1, err)
		}
		if err := s.awaitOK(ctx, i+1, line); err != nil {
			return sent, err
		}
		sent++
	}
	s.log.Info("sent gcode", zap.Int("lines", sent))
	return sent, nil
}

// maxIdle is how many empty reads in a row are taken as a dead line.
const maxIdle = 20

// awaitOK reads replies until "ok". A serial read that times out
// returns what has arrived so far, so a reply is only classified
// once its newline has been read.
func (s *Sender) awaitOK(ctx context.Context, n int, line string) error {
	idle := 0
	var partial strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := s.r.ReadString('\n')
		partial.WriteString(chunk)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrNoProgress) {
				return fmt.Errorf("sender: line %d: no ok: %w", n, err)
			}
			if chunk == "" {
				idle++
			} else {
				idle = 0
			}
			if idle >= maxIdle {
				return fmt.Errorf("sender: line %d: no ok: %w", n, err)
			}
			continue
		}
		idle = 0
		reply := strings.TrimSpace(partial.String())
		partial.Reset()
		switch {
		case strings.HasPrefix(reply, "ok"):
			return nil
		case strings.HasPrefix(strings.ToLower(reply), "error"), strings.HasPrefix(reply, "!!"):
			return fmt.Errorf("%w: line %d %q: %s", ErrPrinter, n, line, reply)
		case reply != "":
			// Temperature reports, echo: and busy: lines.
			s.log.Debug("printer", zap.String("reply", reply))
		}
	}
}

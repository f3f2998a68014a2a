package paths

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JoshVarga/svgparser"
	"golang.org/x/net/html/charset"
)

// Class names of the two groups written by SVG.
const (
	classExtrude = "extrude"
	classTravel  = "travel"
)

func parseBounds(e *svgparser.Element) (Bounds, error) {
	if vb := strings.Fields(strings.ReplaceAll(e.Attributes["viewBox"], ",", " ")); len(vb) == 4 {
		f, err := parseFloats(vb)
		if err != nil {
			return Bounds{}, fmt.Errorf("bad viewBox: %w", err)
		}
		return Bounds{
			Min: Vec2{f[0], f[1]},
			Max: Vec2{f[0] + f[2], f[1] + f[3]},
		}, nil
	}
	width, err := strconv.ParseFloat(strings.TrimSuffix(e.Attributes["width"], "mm"), 64)
	if err != nil {
		return Bounds{}, err
	}
	height, err := strconv.ParseFloat(strings.TrimSuffix(e.Attributes["height"], "mm"), 64)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Max: Vec2{width, height}}, nil
}

func parseFloats(a []string) ([]float64, error) {
	var r []float64
	for _, x := range a {
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, err
		}
		r = append(r, f)
	}
	return r, nil
}

// parsePath reads the "M x,y x,y ..." form written by SVG.
func parsePath(ps *Paths, e *svgparser.Element, travel bool) error {
	parts := strings.Fields(strings.ReplaceAll(e.Attributes["d"], ",", " "))
	var xy Vec2
	var xyp int
	for _, p := range parts {
		switch p {
		case "M":
			if xyp != 0 {
				return fmt.Errorf("got odd number of components before M")
			}
			ps.P = append(ps.P, Path{Travel: travel})
			continue
		case "L":
			if xyp != 0 {
				return fmt.Errorf("got odd number of components before L")
			}
			continue
		}
		if len(ps.P) == 0 {
			return fmt.Errorf("path data %q doesn't start with M", e.Attributes["d"])
		}
		x, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return err
		}
		xy[xyp] = x
		xyp++
		if xyp == 2 {
			last := &ps.P[len(ps.P)-1]
			last.V = append(last.V, xy)
			xyp = 0
		}
	}
	if xyp != 0 {
		return fmt.Errorf("got stray component in path")
	}
	return nil
}

func parsePaths(ps *Paths, e *svgparser.Element, travel bool) error {
	for _, c := range e.Children {
		switch c.Name {
		case "g":
			t := travel
			if class, ok := c.Attributes["class"]; ok {
				t = class == classTravel
			}
			if err := parsePaths(ps, c, t); err != nil {
				return err
			}
		case "path":
			if err := parsePath(ps, c, travel); err != nil {
				return err
			}
		case "defs", "title", "desc":
			continue
		default:
			return fmt.Errorf("unsupported svg element %q", c.Name)
		}
	}
	return nil
}

// FromSVG parses a preview written by SVG back into paths.
// Paths inside a group with class "travel" are travel moves.
// Only the subset of SVG that SVG writes is understood.
func FromSVG(r io.Reader) (*Paths, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel
	elt, err := svgparser.DecodeFirst(decoder)
	if err != nil {
		return nil, err
	}
	if err := elt.Decode(decoder); err != nil && err != io.EOF {
		return nil, err
	}
	bs, err := parseBounds(elt)
	if err != nil {
		return nil, err
	}
	ps := &Paths{Bounds: bs}
	return ps, parsePaths(ps, elt, false)
}

const svgh = `<svg width="%smm" height="%smm" viewBox="%s %s %s %s" version="1.1" xmlns="http://www.w3.org/2000/svg">`

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SVG writes an SVG file with extrusion paths stroked in black
// and travel paths in red. Widths are in the paths' units.
func (ps *Paths) SVG(w io.Writer, strokeWidth float64) error {
	var werr error
	bi := bufio.NewWriter(w)
	wr := func(f string, args ...interface{}) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bi, f, args...)
	}
	b := ps.Bounds
	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	wr(svgh, ftoa(dx), ftoa(dy), ftoa(b.Min[0]), ftoa(b.Min[1]), ftoa(dx), ftoa(dy))
	wr("\n")
	group := func(class, stroke string, travel bool) {
		wr("<g class=%q fill=\"none\" stroke=%q stroke-width=\"%s\">\n", class, stroke, ftoa(strokeWidth))
		for _, p := range ps.P {
			if p.Travel != travel || len(p.V) == 0 {
				continue
			}
			wr(`<path d="`)
			for i, v := range p.V {
				if i == 0 {
					wr("M %.3f,%.3f", v[0], v[1])
				} else {
					wr(" %.3f,%.3f", v[0], v[1])
				}
			}
			wr("\"/>\n")
		}
		wr("</g>\n")
	}
	group(classExtrude, "black", false)
	group(classTravel, "red", true)
	wr("</svg>\n")
	if werr == nil {
		werr = bi.Flush()
	}
	return werr
}

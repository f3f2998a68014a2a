package gcode

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimals written for
// coordinates and extruder positions.
const DefaultPrecision = 5

func num(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// Format renders c as one line of G-code, without the newline.
// Numbers are written with at most prec decimals.
func Format(c Command, prec int) string {
	n := func(f float64) string { return num(f, prec) }
	switch c := c.(type) {
	case Travel:
		return fmt.Sprintf("G0 X%s Y%s Z%s F%d", n(c.To[0]), n(c.To[1]), n(c.To[2]), c.Feedrate)
	case Extrude:
		return fmt.Sprintf("G1 X%s Y%s Z%s E%s F%d", n(c.To[0]), n(c.To[1]), n(c.To[2]), n(c.E), c.Feedrate)
	case ExtruderMove:
		return fmt.Sprintf("G1 E%s F%d", n(c.E), c.Feedrate)
	case SetAbsoluteFeed:
		return "G92 E" + n(c.Value)
	case Comment:
		return "; " + strings.ReplaceAll(c.Text, "\n", " ")
	case Home:
		return "G28"
	case AbsoluteExtrusion:
		return "M82"
	case LevelBed:
		return "G29"
	case SetBedTemp:
		if c.Wait {
			return "M190 S" + n(c.Temp)
		}
		return "M140 S" + n(c.Temp)
	case SetHotendTemp:
		if c.Wait {
			return "M109 S" + n(c.Temp)
		}
		return "M104 S" + n(c.Temp)
	case SetFan:
		return fmt.Sprintf("M106 S%d", c.Speed)
	}
	panic(fmt.Sprintf("gcode: unknown command %T", c))
}

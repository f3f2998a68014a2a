package job

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulhankin/spiral/extrude"
	"github.com/paulhankin/spiral/paths"
)

func TestLoadFile(t *testing.T) {
	j, err := LoadFile("testdata/decay.yaml")
	require.NoError(t, err)

	assert.Equal(t, "decay-test", j.Name)
	assert.Equal(t, "decay.gcode", j.Output)
	assert.Equal(t, 800, j.Printer.PrintFeedrate)
	assert.Equal(t, 2000, j.Printer.TravelFeedrate, "default")
	assert.Equal(t, 205.0, j.Printer.HotendTemp)
	assert.Equal(t, 55.0, j.Printer.BedTemp, "default")
	assert.Equal(t, 1.75, j.Printer.FilamentDiameter, "default")

	require.NotNil(t, j.Purge)
	assert.Equal(t, paths.Vec3{190, 35, 0.25}, j.Purge.To)

	require.Len(t, j.Cylinders, 2)
	c0, c1 := j.Cylinders[0], j.Cylinders[1]
	require.NotNil(t, c0.Start)
	assert.Equal(t, paths.Vec3{100, 100, 0.1}, *c0.Start)
	assert.Equal(t, 1.0, c0.Flow, "default")
	assert.Equal(t, 0.4, c1.Spacing, "defaults to the line width")
	assert.True(t, c1.Stack)
	assert.True(t, c1.Decay)
	assert.Equal(t, 1.05, c1.DecayShape)
	assert.Equal(t, 0.8, c1.Retract)

	assert.Equal(t, Park{Lift: 10, Y: 10}, j.Park)
}

func TestSpiral(t *testing.T) {
	c := Cylinder{Diameter: 20, Height: 2, Spacing: 0.4, Decay: true, DecayShape: 1.05, Retract: 0.5}
	s := c.Spiral(paths.Vec3{1, 2, 3}, 0.2)
	assert.Equal(t, 20.0, s.Diameter)
	assert.Equal(t, 0.2, s.LayerHeight)
	assert.Equal(t, paths.Vec3{1, 2, 3}, s.Start)
	assert.True(t, s.Decay)
	assert.Equal(t, 1.05, s.DecayShape)
	assert.Equal(t, 0.5, s.Retract)
	assert.Equal(t, 10, s.Layers())
}

func TestDefault(t *testing.T) {
	j := Default()
	require.NoError(t, j.Validate())
	require.Len(t, j.Cylinders, 3)
	assert.Equal(t, 300, j.Cylinders[2].PrintFeedrate)
	assert.Equal(t, 1.2, j.Cylinders[2].Flow)
	assert.Equal(t, 0.4, j.Cylinders[0].Spacing)
	p := j.Params()
	assert.Equal(t, 0.2, p.LayerHeight)
	assert.Equal(t, 1.0, p.FlowMultiplier)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, yaml string
		invalid    bool
	}{
		{"not yaml", "cylinders: [", false},
		{"unknown field", "cylinders: [{diameter: 10, height: 1}]\ncolour: red\n", false},
		{"short start", "cylinders: [{diameter: 10, height: 1, start: [1, 2]}]\n", false},
		{"no cylinders", "name: empty\n", true},
		{"zero filament", "printer: {filament_diameter: -1}\ncylinders: [{diameter: 10, height: 1}]\n", true},
		{"fan out of range", "printer: {fan: 2}\ncylinders: [{diameter: 10, height: 1}]\n", true},
		{"zero height", "cylinders: [{diameter: 10}]\n", true},
		{"stack first", "cylinders: [{diameter: 10, height: 1, stack: true}]\n", true},
		{"tiny diameter", "cylinders: [{diameter: 0.1, height: 1}]\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, extrude.ErrInvalidConfiguration)
			} else {
				assert.NotErrorIs(t, err, extrude.ErrInvalidConfiguration)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("testdata/missing.yaml")
	assert.Error(t, err)
}

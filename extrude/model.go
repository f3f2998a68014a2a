// Package extrude computes how much filament has to be fed to lay
// down a bead of a given cross-section, and how to taper that
// amount towards the rim of a disc.
package extrude

import "math"

// FilamentArea returns the cross-sectional area of filament of
// the given diameter, that is the volume supplied per mm of feed.
func FilamentArea(filamentDiameter float64) float64 {
	r := filamentDiameter / 2
	return math.Pi * r * r
}

// Ratio returns the feed length needed per mm of travel to deposit
// a bead of layerHeight x lineWidth. The bead is approximated as a
// rectangle.
func Ratio(layerHeight, lineWidth, filamentDiameter float64) (float64, error) {
	if err := Positive("filament_diameter", filamentDiameter); err != nil {
		return 0, err
	}
	return layerHeight * lineWidth / FilamentArea(filamentDiameter), nil
}

// RequiredFeed returns the feed length for a move of travelDistance.
func RequiredFeed(travelDistance, layerHeight, lineWidth, filamentDiameter, flowMultiplier float64) (float64, error) {
	r, err := Ratio(layerHeight, lineWidth, filamentDiameter)
	if err != nil {
		return 0, err
	}
	return travelDistance * r * flowMultiplier, nil
}

// Model is a bead geometry together with the filament feeding it.
// The zero Model is unusable; build one with NewModel.
type Model struct {
	LayerHeight      float64
	LineWidth        float64
	FilamentDiameter float64
	FlowMultiplier   float64

	ratio float64
}

// NewModel validates the filament diameter and caches the ratio.
func NewModel(layerHeight, lineWidth, filamentDiameter, flowMultiplier float64) (Model, error) {
	r, err := Ratio(layerHeight, lineWidth, filamentDiameter)
	if err != nil {
		return Model{}, err
	}
	return Model{
		LayerHeight:      layerHeight,
		LineWidth:        lineWidth,
		FilamentDiameter: filamentDiameter,
		FlowMultiplier:   flowMultiplier,
		ratio:            r,
	}, nil
}

// Ratio returns the cached feed per travel mm, without the flow
// multiplier.
func (m Model) Ratio() float64 {
	return m.ratio
}

// Feed returns the feed for a move of dist with the model's bead.
func (m Model) Feed(dist float64) float64 {
	return dist * m.ratio * m.FlowMultiplier
}

// WithLineWidth returns a copy of m depositing a bead of width w.
func (m Model) WithLineWidth(w float64) Model {
	m.LineWidth = w
	m.ratio = m.LayerHeight * w / FilamentArea(m.FilamentDiameter)
	return m
}

// WithLayerHeight returns a copy of m depositing a bead of height h.
func (m Model) WithLayerHeight(h float64) Model {
	m.LayerHeight = h
	m.ratio = h * m.LineWidth / FilamentArea(m.FilamentDiameter)
	return m
}

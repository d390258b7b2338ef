// Package chart builds in-process charts from the reconciled table and
// renders them as inline SVG.
package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/afi-report/backend/internal/dataset"
)

var ErrNoPlottableRows = errors.New("no rows can be placed on the chart")

const (
	defaultWidth  = 900
	defaultHeight = 650
	sizeMax       = 20.0
	uniformRadius = 4.0
	minRadius     = 1.5

	marginLeft   = 70.0
	marginRight  = 120.0
	marginTop    = 50.0
	marginBottom = 60.0
)

// ScatterSpec binds table columns to the scatter's visual channels. Size is
// optional: it is bound only when the column exists in the table.
type ScatterSpec struct {
	ID            string
	Title         string
	X             string
	Y             string
	Color         string
	Size          string
	Label         string
	Hover         []string
	AxisLabels    map[string]string
	CriticalZoneY float64
	CriticalText  string
	Width         int
	Height        int
}

type HoverValue struct {
	Column string
	Value  string
}

type Point struct {
	Label  string
	X      float64
	Y      float64
	Color  float64
	PX     float64
	PY     float64
	Radius float64
	Fill   string
	Hover  []HoverValue
}

type Annotation struct {
	X    float64
	Y    float64
	Text string
}

// Scatter is a fully laid out scatter plot.
type Scatter struct {
	Spec       ScatterSpec
	Points     []Point
	Skipped    int
	SizeBound  bool
	MedianX    float64
	MeanY      float64
	VLineX     float64
	HLineY     float64
	Annotation Annotation
	XTicks     []Tick
	YTicks     []Tick
	ColorMin   float64
	ColorMax   float64
	Gradient   []GradientStop
	PlotLeft   float64
	PlotRight  float64
	PlotTop    float64
	PlotBottom float64
}

// BuildScatter lays out a log-x scatter with reference lines at the median of
// x and the mean of y, plus a fixed callout at ten times the median.
// Rows with non-positive or missing x, or missing y, cannot be placed and are
// skipped.
func BuildScatter(t *dataset.Table, spec ScatterSpec) (*Scatter, error) {
	if spec.Width <= 0 {
		spec.Width = defaultWidth
	}
	if spec.Height <= 0 {
		spec.Height = defaultHeight
	}
	if spec.CriticalText == "" {
		spec.CriticalText = "CRITICAL ZONE"
	}

	xs, err := t.Floats(spec.X)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	ys, err := t.Floats(spec.Y)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	colors, err := t.Floats(spec.Color)
	if err != nil {
		return nil, fmt.Errorf("color: %w", err)
	}

	var sizes []float64
	sizeBound := spec.Size != "" && t.Has(spec.Size)
	if sizeBound {
		if sizes, err = t.Floats(spec.Size); err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
	}

	var labels []string
	if spec.Label != "" && t.Has(spec.Label) {
		labels, _ = t.Column(spec.Label)
	}

	medianX, ok := median(xs)
	if !ok || medianX <= 0 {
		return nil, fmt.Errorf("median of %s is not positive: %w", spec.X, ErrNoPlottableRows)
	}
	meanY, ok := mean(ys)
	if !ok {
		return nil, fmt.Errorf("%s has no values: %w", spec.Y, ErrNoPlottableRows)
	}

	s := &Scatter{
		Spec:       spec,
		SizeBound:  sizeBound,
		MedianX:    medianX,
		MeanY:      meanY,
		PlotLeft:   marginLeft,
		PlotRight:  float64(spec.Width) - marginRight,
		PlotTop:    marginTop,
		PlotBottom: float64(spec.Height) - marginBottom,
		Annotation: Annotation{Text: spec.CriticalText},
	}

	var placed []int
	for i := range xs {
		if math.IsNaN(xs[i]) || xs[i] <= 0 || math.IsNaN(ys[i]) {
			s.Skipped++
			continue
		}
		placed = append(placed, i)
	}
	if len(placed) == 0 {
		return nil, ErrNoPlottableRows
	}

	// Ranges cover the data, both reference lines and the callout.
	calloutX := math.Log10(medianX * 10)
	xlo, xhi := math.Log10(medianX), calloutX
	ylo, yhi := math.Min(meanY, spec.CriticalZoneY), math.Max(meanY, spec.CriticalZoneY)
	for _, i := range placed {
		lx := math.Log10(xs[i])
		xlo, xhi = math.Min(xlo, lx), math.Max(xhi, lx)
		ylo, yhi = math.Min(ylo, ys[i]), math.Max(yhi, ys[i])
	}
	xpad := math.Max((xhi-xlo)*0.05, 0.1)
	ypad := math.Max((yhi-ylo)*0.05, 1)

	xa := axis{log: true, lo: xlo - xpad, hi: xhi + xpad, pxLo: s.PlotLeft, pxHi: s.PlotRight}
	ya := axis{lo: ylo - ypad, hi: yhi + ypad, pxLo: s.PlotBottom, pxHi: s.PlotTop}

	cmin, cmax := math.Inf(1), math.Inf(-1)
	for _, v := range finite(colors) {
		cmin, cmax = math.Min(cmin, v), math.Max(cmax, v)
	}
	if math.IsInf(cmin, 1) {
		cmin, cmax = 0, 0
	}
	scale, err := NewTurboScale(cmin, cmax)
	if err != nil {
		return nil, err
	}
	s.ColorMin, s.ColorMax = cmin, cmax
	s.Gradient = scale.Gradient()

	maxSize := 0.0
	if sizeBound {
		for _, v := range finite(sizes) {
			maxSize = math.Max(maxSize, v)
		}
	}

	hover := hoverColumns(t, spec.Hover)
	for _, i := range placed {
		p := Point{
			X:      xs[i],
			Y:      ys[i],
			Color:  colors[i],
			PX:     xa.px(xs[i]),
			PY:     ya.px(ys[i]),
			Radius: uniformRadius,
			Fill:   scale.Hex(colors[i]),
		}
		if labels != nil {
			p.Label = labels[i]
		}
		if sizeBound {
			p.Radius = markerRadius(sizes[i], maxSize)
		}
		for _, h := range hover {
			p.Hover = append(p.Hover, HoverValue{Column: h.name, Value: h.values[i]})
		}
		s.Points = append(s.Points, p)
	}

	s.VLineX = xa.px(medianX)
	s.HLineY = ya.px(meanY)
	s.Annotation.X = xa.pxTransformed(calloutX)
	s.Annotation.Y = ya.px(spec.CriticalZoneY)
	s.XTicks = xa.ticks()
	s.YTicks = ya.ticks()

	return s, nil
}

// markerRadius scales marker area with the value, like an area-sized bubble.
func markerRadius(v, max float64) float64 {
	if math.IsNaN(v) || v <= 0 || max <= 0 {
		return minRadius
	}
	return math.Max(minRadius, sizeMax/2*math.Sqrt(v/max))
}

type hoverColumn struct {
	name   string
	values []string
}

// hoverColumns keeps only the requested columns the table actually has.
func hoverColumns(t *dataset.Table, names []string) []hoverColumn {
	var out []hoverColumn
	for _, name := range names {
		if !t.Has(name) {
			continue
		}
		values, _ := t.Column(name)
		out = append(out, hoverColumn{name: name, values: values})
	}
	return out
}

func (s *Scatter) axisLabel(col string) string {
	if l, ok := s.Spec.AxisLabels[col]; ok {
		return l
	}
	return col
}

package chart

import (
	"math"
	"sort"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// turboStops is the Turbo continuous color scale, low to high.
var turboStops = []string{
	"#30123b", "#4145ab", "#4675ed", "#39a2fc", "#1bcfd4",
	"#24eca6", "#61fc6c", "#a4fc3b", "#d1e834", "#f3c63a",
	"#fe9b2d", "#f36315", "#d93806", "#b11901", "#7a0402",
}

const missingColor = "#9e9e9e"

// ColorScale maps a numeric domain onto interpolated color stops.
type ColorScale struct {
	min, max float64
	stops    []colorful.Color
}

func NewTurboScale(min, max float64) (*ColorScale, error) {
	stops := make([]colorful.Color, len(turboStops))
	for i, hex := range turboStops {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, err
		}
		stops[i] = c
	}
	return &ColorScale{min: min, max: max, stops: stops}, nil
}

// Hex returns the color for v. NaN maps to a neutral grey.
func (s *ColorScale) Hex(v float64) string {
	if math.IsNaN(v) {
		return missingColor
	}
	t := 0.0
	if s.max > s.min {
		t = (v - s.min) / (s.max - s.min)
	}
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(s.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(s.stops)-1 {
		return s.stops[len(s.stops)-1].Hex()
	}
	return s.stops[i].BlendRgb(s.stops[i+1], pos-float64(i)).Clamped().Hex()
}

// Gradient returns evenly spaced stops for a color bar.
func (s *ColorScale) Gradient() []GradientStop {
	out := make([]GradientStop, len(s.stops))
	for i, c := range s.stops {
		out[i] = GradientStop{
			Offset: float64(i) / float64(len(s.stops)-1) * 100,
			Color:  c.Hex(),
		}
	}
	return out
}

type GradientStop struct {
	Offset float64
	Color  string
}

// axis maps data values to pixel positions, optionally in log10 space.
type axis struct {
	log    bool
	lo, hi float64 // in transformed space
	pxLo   float64
	pxHi   float64
}

func (a axis) transform(v float64) float64 {
	if a.log {
		return math.Log10(v)
	}
	return v
}

// px converts a raw data value.
func (a axis) px(v float64) float64 {
	return a.pxTransformed(a.transform(v))
}

// pxTransformed converts a value already in axis space (log10 for log axes).
func (a axis) pxTransformed(t float64) float64 {
	if a.hi == a.lo {
		return (a.pxLo + a.pxHi) / 2
	}
	return a.pxLo + (t-a.lo)/(a.hi-a.lo)*(a.pxHi-a.pxLo)
}

type Tick struct {
	Pos   float64
	Label string
}

func (a axis) ticks() []Tick {
	if a.log {
		return a.logTicks()
	}
	return a.linearTicks()
}

func (a axis) logTicks() []Tick {
	var out []Tick
	decades := a.hi - a.lo
	mults := []float64{1}
	if decades < 3 {
		mults = []float64{1, 2, 5}
	}
	for e := math.Floor(a.lo); e <= math.Ceil(a.hi); e++ {
		for _, m := range mults {
			v := m * math.Pow(10, e)
			t := math.Log10(v)
			if t < a.lo || t > a.hi {
				continue
			}
			out = append(out, Tick{Pos: a.pxTransformed(t), Label: formatNumber(v)})
		}
	}
	return out
}

func (a axis) linearTicks() []Tick {
	step := niceStep((a.hi - a.lo) / 6)
	if step <= 0 {
		return []Tick{{Pos: a.pxTransformed(a.lo), Label: formatNumber(a.lo)}}
	}
	var out []Tick
	for v := math.Ceil(a.lo/step) * step; v <= a.hi+step*1e-9; v += step {
		out = append(out, Tick{Pos: a.pxTransformed(v), Label: formatNumber(v)})
	}
	return out
}

func niceStep(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func formatNumber(v float64) string {
	switch {
	case math.Abs(v) >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', -1, 64) + "M"
	case math.Abs(v) >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', -1, 64) + "k"
	default:
		return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	}
}

// median ignores NaN values; ok is false when nothing remains.
func median(values []float64) (float64, bool) {
	clean := finite(values)
	if len(clean) == 0 {
		return 0, false
	}
	sort.Float64s(clean)
	mid := len(clean) / 2
	if len(clean)%2 == 1 {
		return clean[mid], true
	}
	return (clean[mid-1] + clean[mid]) / 2, true
}

// mean ignores NaN values; ok is false when nothing remains.
func mean(values []float64) (float64, bool) {
	clean := finite(values)
	if len(clean) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range clean {
		sum += v
	}
	return sum / float64(len(clean)), true
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

package chart

import (
	"bytes"
	"fmt"
	"html/template"
)

var svgTemplate = template.Must(template.New("scatter").Funcs(template.FuncMap{
	"f1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<svg class="chart" id="{{.ID}}" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 {{.Width}} {{.Height}}" width="100%" role="img" aria-label="{{.Title}}">
<defs><linearGradient id="{{.ID}}-scale" x1="0" y1="1" x2="0" y2="0">{{range .Gradient}}<stop offset="{{f1 .Offset}}%" stop-color="{{.Color}}"/>{{end}}</linearGradient></defs>
<text x="{{f1 .PlotLeft}}" y="28" class="chart-title">{{.Title}}</text>
<rect x="{{f1 .PlotLeft}}" y="{{f1 .PlotTop}}" width="{{f1 .PlotWidth}}" height="{{f1 .PlotHeight}}" class="plot-area"/>
{{range .XTicks}}<line x1="{{f1 .Pos}}" x2="{{f1 .Pos}}" y1="{{f1 $.PlotTop}}" y2="{{f1 $.PlotBottom}}" class="grid"/><text x="{{f1 .Pos}}" y="{{f1 $.TickLabelY}}" class="tick" text-anchor="middle">{{.Label}}</text>
{{end}}{{range .YTicks}}<line x1="{{f1 $.PlotLeft}}" x2="{{f1 $.PlotRight}}" y1="{{f1 .Pos}}" y2="{{f1 .Pos}}" class="grid"/><text x="{{f1 $.TickLabelX}}" y="{{f1 .Pos}}" class="tick" text-anchor="end" dominant-baseline="middle">{{.Label}}</text>
{{end}}<line x1="{{f1 .VLineX}}" x2="{{f1 .VLineX}}" y1="{{f1 .PlotTop}}" y2="{{f1 .PlotBottom}}" class="ref-line" stroke="grey" stroke-width="1" stroke-dasharray="6 4"/>
<line x1="{{f1 .PlotLeft}}" x2="{{f1 .PlotRight}}" y1="{{f1 .HLineY}}" y2="{{f1 .HLineY}}" class="ref-line" stroke="grey" stroke-width="1" stroke-dasharray="6 4"/>
{{range .Points}}<circle cx="{{f1 .PX}}" cy="{{f1 .PY}}" r="{{f1 .Radius}}" fill="{{.Fill}}" fill-opacity="0.8" stroke="#222" stroke-width="0.5"><title>{{.Label}}{{range .Hover}}
{{.Column}}: {{.Value}}{{end}}</title></circle>
{{end}}<text x="{{f1 .Annotation.X}}" y="{{f1 .Annotation.Y}}" class="annotation" fill="red" text-anchor="middle">{{.Annotation.Text}}</text>
<text x="{{f1 .PlotCenterX}}" y="{{f1 .XLabelY}}" class="axis-label" text-anchor="middle">{{.XLabel}}</text>
<text x="18" y="{{f1 .PlotCenterY}}" class="axis-label" text-anchor="middle" transform="rotate(-90 18 {{f1 .PlotCenterY}})">{{.YLabel}}</text>
<rect x="{{f1 .BarX}}" y="{{f1 .PlotTop}}" width="14" height="{{f1 .PlotHeight}}" fill="url(#{{.ID}}-scale)"/>
<text x="{{f1 .BarX}}" y="{{f1 .BarLabelY}}" class="tick">{{.ColorLabel}}</text>
<text x="{{f1 .BarTickX}}" y="{{f1 .PlotTop}}" class="tick" dominant-baseline="hanging">{{f2 .ColorMax}}</text>
<text x="{{f1 .BarTickX}}" y="{{f1 .PlotBottom}}" class="tick">{{f2 .ColorMin}}</text>
</svg>`))

type svgView struct {
	*Scatter
	ID          string
	Title       string
	Width       int
	Height      int
	XLabel      string
	YLabel      string
	ColorLabel  string
	PlotWidth   float64
	PlotHeight  float64
	PlotCenterX float64
	PlotCenterY float64
	TickLabelX  float64
	TickLabelY  float64
	XLabelY     float64
	BarX        float64
	BarTickX    float64
	BarLabelY   float64
}

// SVG renders the scatter as an inline SVG document fragment.
func (s *Scatter) SVG() (template.HTML, error) {
	id := s.Spec.ID
	if id == "" {
		id = "scatter"
	}
	view := svgView{
		Scatter:     s,
		ID:          id,
		Title:       s.Spec.Title,
		Width:       s.Spec.Width,
		Height:      s.Spec.Height,
		XLabel:      s.axisLabel(s.Spec.X),
		YLabel:      s.axisLabel(s.Spec.Y),
		ColorLabel:  s.axisLabel(s.Spec.Color),
		PlotWidth:   s.PlotRight - s.PlotLeft,
		PlotHeight:  s.PlotBottom - s.PlotTop,
		PlotCenterX: (s.PlotLeft + s.PlotRight) / 2,
		PlotCenterY: (s.PlotTop + s.PlotBottom) / 2,
		TickLabelX:  s.PlotLeft - 6,
		TickLabelY:  s.PlotBottom + 16,
		XLabelY:     s.PlotBottom + 40,
		BarX:        s.PlotRight + 30,
		BarTickX:    s.PlotRight + 48,
		BarLabelY:   s.PlotTop - 10,
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render scatter svg: %w", err)
	}
	return template.HTML(buf.String()), nil
}

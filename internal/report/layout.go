package report

import (
	"html/template"
	"io"
	"strconv"
	"strings"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.AppTitle}} · {{.Page.Label}}</title>
<style>
:root { --bg: #0e1117; --panel: #161a23; --ink: #e0e0e0; --muted: #9aa3b2; --line: #333; --accent: #4caf50; --warn: #ffd166; --err: #ff6b6b; --info: #74b9ff; }
* { box-sizing: border-box; }
body { margin: 0; display: flex; min-height: 100vh; font-family: Inter, "Segoe UI", sans-serif; background: var(--bg); color: var(--ink); }
nav.sidebar { width: 260px; flex-shrink: 0; background: #111; border-right: 1px solid var(--line); padding: 1.5rem 1rem; }
nav.sidebar h2 { margin-top: 0; font-size: 1.2rem; }
nav.sidebar a { display: block; padding: .5rem .75rem; margin-bottom: .25rem; border-radius: 4px; color: var(--ink); text-decoration: none; }
nav.sidebar a.active { background: var(--accent); color: #fff; }
main { flex: 1; padding: 2rem; min-width: 0; }
.section-header { font-size: 1.5rem; font-weight: 600; margin: 2rem 0 1rem; border-bottom: 1px solid var(--line); padding-bottom: 10px; }
.columns { display: grid; gap: 1.5rem; align-items: start; }
.tabs { display: flex; flex-wrap: wrap; gap: 10px; margin-bottom: 1rem; }
.tabs a { padding: 10px 14px; background: #2d2d2d; border-radius: 4px 4px 0 0; color: var(--ink); text-decoration: none; }
.tabs a.active { background: var(--accent); color: #fff; }
.panel { margin-bottom: 1.5rem; min-width: 0; }
.panel h3 { margin: 0 0 .75rem; }
.caption { color: var(--muted); font-size: .85rem; margin-top: .25rem; }
.artifact-frame { width: 100%; border: 0; background: #fff; }
.alert { padding: .75rem 1rem; border-radius: 4px; border-left: 4px solid; }
.alert-warning { border-color: var(--warn); background: rgba(255, 209, 102, .1); }
.alert-error { border-color: var(--err); background: rgba(255, 107, 107, .1); }
.alert-info { border-color: var(--info); background: rgba(116, 185, 255, .1); margin-bottom: 1rem; }
.data-table { overflow: auto; }
.data-table table { width: 100%; border-collapse: collapse; font-size: .85rem; }
.data-table th, .data-table td { padding: .4rem .6rem; border-bottom: 1px solid var(--line); text-align: left; }
.data-table td.rank { color: var(--muted); }
svg.chart { background: var(--panel); border-radius: 6px; }
svg.chart .chart-title { fill: var(--ink); font-size: 16px; font-weight: 600; }
svg.chart .plot-area { fill: #1b2030; }
svg.chart .grid { stroke: #2b3245; stroke-width: 1; }
svg.chart .tick, svg.chart .axis-label { fill: var(--muted); font-size: 11px; }
svg.chart .annotation { font-size: 13px; font-weight: 700; }
</style>
</head>
<body>
<nav class="sidebar">
<h2>Strategic Analysis</h2>
{{range .Page.Nav}}<a href="/report/{{.Slug}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>
{{end}}</nav>
<main data-render-id="{{.Page.RenderID}}">
<h1>{{.Page.Title}}</h1>
{{range .Page.Sections}}<div class="section-header">{{.Title}}</div>
{{if eq .Layout "columns"}}<div class="columns" style="grid-template-columns: {{columns .Weights (len .Panels)}}">{{end}}
{{range .Panels}}{{template "panel" .}}{{end}}
{{if eq .Layout "columns"}}</div>{{end}}
{{if .Tabs}}<div class="tabs">{{range .Tabs}}<a href="/report/{{$.Page.Slug}}?tab={{.Slug}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>{{end}}</div>
{{range .TabPanels}}{{template "panel" .}}{{end}}{{end}}
{{end}}</main>
</body>
</html>
{{define "panel"}}<div class="panel panel-{{.Kind}}" data-panel="{{.ID}}" data-status="{{.Status}}">
{{if .Subheader}}<h3>{{.Subheader}}</h3>{{end}}
{{if .Failure}}<div class="alert alert-{{.Failure.Severity}}">{{.Failure.Message}}</div>{{else}}{{.HTML}}{{if .Caption}}<div class="caption">{{.Caption}}</div>{{end}}{{end}}
</div>
{{end}}`

var layout = template.Must(template.New("page").Funcs(template.FuncMap{
	"columns": gridColumns,
}).Parse(pageTemplate))

// gridColumns turns column weights into a CSS grid template, e.g. "2fr 1fr".
func gridColumns(weights []int, n int) string {
	parts := make([]string, n)
	for i := range parts {
		w := 1
		if i < len(weights) && weights[i] > 0 {
			w = weights[i]
		}
		parts[i] = strconv.Itoa(w) + "fr"
	}
	return strings.Join(parts, " ")
}

// RenderHTML writes the full report page.
func RenderHTML(w io.Writer, appTitle string, page *RenderedPage) error {
	return layout.Execute(w, struct {
		AppTitle string
		Page     *RenderedPage
	}{appTitle, page})
}

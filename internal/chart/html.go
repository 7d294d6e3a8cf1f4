package chart

import (
	"encoding/json"
	"html/template"
	"io"
)

// PlotlyCDN is the script the standalone page and the dashboard load.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
</head>
<body>
<div id="chart" style="width:100%;height:{{.Height}}px"></div>
<script>
Plotly.newPlot("chart", {{.Figure}}.data, {{.Figure}}.layout, {responsive: true});
</script>
</body>
</html>
`))

// WriteHTML writes a self-contained page that draws fig with Plotly.
func WriteHTML(w io.Writer, fig Figure) error {
	raw, err := json.Marshal(fig)
	if err != nil {
		return err
	}
	height := fig.Layout.Height
	if height == 0 {
		height = 600
	}
	return pageTemplate.Execute(w, struct {
		Title  string
		Script string
		Height int
		Figure template.JS
	}{
		Title:  fig.Layout.Title.Text,
		Script: PlotlyCDN,
		Height: height,
		Figure: template.JS(raw),
	})
}

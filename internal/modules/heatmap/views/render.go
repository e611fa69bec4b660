package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

var errNotLoaded = errors.New("heatmap templates not loaded: call views.LoadTemplates during startup")

var heatmapTmpl *template.Template

var funcs = template.FuncMap{
	"num":   chart.FormatCoord,
	"value": chart.FormatNumber,
	"neg":   func(v float64) float64 { return -v },
	"dec":   func(i int) int { return i - 1 },
	"ms":    func(d time.Duration) int64 { return d.Milliseconds() },
	// tickText is the distance of a tick label from the axis line.
	"tickText": func(size float64) float64 { return size + 3 },
}

// loadTemplatesFromFS parses the page and chart templates found in dir.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	t, err := template.New("heatmap").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	heatmapTmpl = t
	return nil
}

// LoadTemplates parses the embedded templates. Call during startup; the
// server must not start if it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// PageData is the view model of the full page.
type PageData struct {
	Heatmap *chart.Heatmap
}

// RenderPage writes the complete HTML document: title, description, chart
// and tooltip.
func RenderPage(w io.Writer, hm *chart.Heatmap) error {
	if heatmapTmpl == nil {
		return errNotLoaded
	}
	return heatmapTmpl.ExecuteTemplate(w, "index.html", PageData{Heatmap: hm})
}

// RenderChartSVG writes the chart as a standalone SVG document.
func RenderChartSVG(w io.Writer, hm *chart.Heatmap) error {
	if heatmapTmpl == nil {
		return errNotLoaded
	}
	if _, err := io.WriteString(w, xmlHeader); err != nil {
		return err
	}
	return heatmapTmpl.ExecuteTemplate(w, "chart", hm)
}

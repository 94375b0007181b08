package chart

import (
	"bytes"
	"fmt"
	"html"

	"homedash/internal/models"
)

// Default chart box, matching the graphs view.
const (
	DefaultWidth  = 800
	DefaultHeight = 160
)

const placeholderText = "Pas assez de données"

// Line is one styled series in a chart.
type Line struct {
	Label  string
	Color  string
	Series Series
}

// Chart is everything needed to render one SVG chart.
type Chart struct {
	Title  string
	Unit   string
	Width  float64
	Height float64
	Lines  []Line
}

// Empty reports whether no line has anything to draw.
func (c Chart) Empty() bool {
	for _, l := range c.Lines {
		if !l.Series.Empty() {
			return false
		}
	}
	return true
}

// TemperatureChart overlays inside and outside temperature.
func TemperatureChart(pts []models.GraphPoint, width, height float64) Chart {
	return Chart{
		Title:  "Température",
		Unit:   "°C",
		Width:  width,
		Height: height,
		Lines: []Line{
			{Label: "Intérieur", Color: "#ef4444", Series: NormalizeSeries(pts, InsideTemp, width, height)},
			{Label: "Extérieur", Color: "#3b82f6", Series: NormalizeSeries(pts, OutsideTemp, width, height)},
		},
	}
}

// HumidityChart overlays inside and outside relative humidity.
func HumidityChart(pts []models.GraphPoint, width, height float64) Chart {
	return Chart{
		Title:  "Humidité",
		Unit:   "%",
		Width:  width,
		Height: height,
		Lines: []Line{
			{Label: "Intérieur", Color: "#10b981", Series: NormalizeSeries(pts, InsideHumidity, width, height)},
			{Label: "Extérieur", Color: "#8b5cf6", Series: NormalizeSeries(pts, OutsideHumidity, width, height)},
		},
	}
}

// RenderSVG writes the chart as a standalone SVG document. A chart without
// any drawable line gets a centred placeholder instead of empty axes.
func RenderSVG(c Chart) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %g %g\" preserveAspectRatio=\"none\">\n", c.Width, c.Height)
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(c.Title))

	if c.Empty() {
		fmt.Fprintf(&buf, "<text x=\"%g\" y=\"%g\" text-anchor=\"middle\" fill=\"#888\" font-size=\"14\">%s</text>\n",
			c.Width/2, c.Height/2, placeholderText)
		buf.WriteString("</svg>")
		return buf.Bytes()
	}

	// Light horizontal guides at quarters
	buf.WriteString("<g stroke=\"#ddd\" stroke-width=\"1\">\n")
	for i := 1; i < 4; i++ {
		y := c.Height * float64(i) / 4
		fmt.Fprintf(&buf, "<line x1=\"0\" y1=\"%.2f\" x2=\"%g\" y2=\"%.2f\"/>\n", y, c.Width, y)
	}
	buf.WriteString("</g>\n")

	for _, l := range c.Lines {
		if l.Series.Empty() {
			continue
		}
		fmt.Fprintf(&buf, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\"><title>%s</title></path>\n",
			l.Series.Path, l.Color, html.EscapeString(l.Label))
		if pos := l.Series.LastPosition; pos != nil {
			fmt.Fprintf(&buf, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%.1f%s</title></circle>\n",
				pos.X, pos.Y, l.Color, *l.Series.LastValue, html.EscapeString(c.Unit))
		}
	}

	buf.WriteString("</svg>")
	return buf.Bytes()
}

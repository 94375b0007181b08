// Package chart turns measurement series into SVG line charts.
package chart

import (
	"fmt"
	"strings"

	"homedash/internal/models"
)

// Accessor extracts one nullable field from a point.
type Accessor func(models.GraphPoint) *float64

// Field accessors for the four plotted series.
var (
	InsideTemp      Accessor = func(p models.GraphPoint) *float64 { return p.InsideTemp }
	OutsideTemp     Accessor = func(p models.GraphPoint) *float64 { return p.OutsideTemp }
	InsideHumidity  Accessor = func(p models.GraphPoint) *float64 { return p.InsideHumidity }
	OutsideHumidity Accessor = func(p models.GraphPoint) *float64 { return p.OutsideHumidity }
)

// Point is a projected position in chart coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the normalized form of one accessor over a point sequence.
// An empty Path means there was not enough data to draw; every stat is nil then.
type Series struct {
	Path         string   `json:"path"`
	Min          *float64 `json:"min"`
	Max          *float64 `json:"max"`
	LastValue    *float64 `json:"last_value"`
	LastPosition *Point   `json:"last_position"`
}

// Empty reports whether the series has nothing to draw.
func (s Series) Empty() bool { return s.Path == "" }

// NormalizeSeries scales the non-null values of get over pts into a
// width x height box. Points are spaced by index, not by time. Null values
// are skipped and their neighbours joined directly.
func NormalizeSeries(pts []models.GraphPoint, get Accessor, width, height float64) Series {
	if len(pts) < 2 {
		return Series{}
	}

	var (
		valid  int
		lo, hi float64
	)
	for _, p := range pts {
		v := get(p)
		if v == nil {
			continue
		}
		if valid == 0 || *v < lo {
			lo = *v
		}
		if valid == 0 || *v > hi {
			hi = *v
		}
		valid++
	}
	if valid < 2 {
		return Series{}
	}
	if lo == hi {
		lo--
		hi++
	}

	xStep := width / float64(len(pts)-1)
	var (
		b        strings.Builder
		last     Point
		lastVal  float64
		segments int
	)
	for i, p := range pts {
		v := get(p)
		if v == nil {
			continue
		}
		pos := Point{
			X: float64(i) * xStep,
			Y: clamp(height-(*v-lo)/(hi-lo)*height, 0, height),
		}
		cmd := "L"
		if segments == 0 {
			cmd = "M"
		} else {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%.2f,%.2f", cmd, pos.X, pos.Y)
		segments++
		last, lastVal = pos, *v
	}

	return Series{
		Path:         b.String(),
		Min:          &lo,
		Max:          &hi,
		LastValue:    &lastVal,
		LastPosition: &last,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// KeyLayout is the layout of measurement keys and command timestamps:
// UTC, second precision, no fractional part.
const KeyLayout = "2006-01-02T15:04:05Z"

// FormatKey renders t as a measurement key.
func FormatKey(t time.Time) string {
	return t.UTC().Format(KeyLayout)
}

// SensorNode is one sensor block as stored. Values are kept untyped because
// writers are not trusted to send numbers.
type SensorNode struct {
	Temperature any `json:"temperature,omitempty"`
	Humidity    any `json:"humidity,omitempty"`
}

// MeasurementNode is the stored value of homes/{homeId}/measurements/{ts}.
type MeasurementNode struct {
	Inside  *SensorNode `json:"inside,omitempty"`
	Outside *SensorNode `json:"outside,omitempty"`
}

// GraphPoint is a measurement projected to nullable numbers.
type GraphPoint struct {
	Timestamp       string   `json:"timestamp"`
	InsideTemp      *float64 `json:"inside_temp"`
	InsideHumidity  *float64 `json:"inside_humidity"`
	OutsideTemp     *float64 `json:"outside_temp"`
	OutsideHumidity *float64 `json:"outside_humidity"`
}

// Point projects the node stored under key ts.
func (m MeasurementNode) Point(ts string) GraphPoint {
	p := GraphPoint{Timestamp: ts}
	if m.Inside != nil {
		p.InsideTemp = AsNumber(m.Inside.Temperature)
		p.InsideHumidity = AsNumber(m.Inside.Humidity)
	}
	if m.Outside != nil {
		p.OutsideTemp = AsNumber(m.Outside.Temperature)
		p.OutsideHumidity = AsNumber(m.Outside.Humidity)
	}
	return p
}

// DecodePoint builds a GraphPoint from a raw stored value. Malformed JSON
// yields a point with every field null.
func DecodePoint(ts string, raw json.RawMessage) GraphPoint {
	var node MeasurementNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return GraphPoint{Timestamp: ts}
	}
	return node.Point(ts)
}

// AsNumber coerces a decoded JSON value to a finite float.
// Anything that is not a finite number or a numeric string becomes nil.
func AsNumber(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Float returns a pointer to v. Handy for tests and fixtures.
func Float(v float64) *float64 { return &v }

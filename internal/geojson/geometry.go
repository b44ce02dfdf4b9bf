package geojson

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Kind is the closed set of geometry shapes the importers distinguish.
type Kind int

const (
	KindNone Kind = iota
	KindPoint
	KindLineString
	KindMultiLineString
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindMultiLineString:
		return "MultiLineString"
	case KindOther:
		return "Other"
	default:
		return "None"
	}
}

// Geometry is a geometry object tagged by Kind. Coordinates is left in its
// decoded form; PointFrom and LineFrom coerce it on demand. Raw keeps the whole
// object so that unsupported shapes can be stored unchanged.
type Geometry struct {
	Kind        Kind
	Type        string
	Coordinates any
	Raw         map[string]any
}

// ParseGeometry classifies a decoded geometry object. Anything that is not an
// object with a string "type" member is KindNone.
func ParseGeometry(v any) Geometry {
	m, ok := asMap(v)
	if !ok || len(m) == 0 {
		return Geometry{Kind: KindNone}
	}
	t, ok := m["type"].(string)
	if !ok {
		return Geometry{Kind: KindNone}
	}

	g := Geometry{Type: t, Coordinates: m["coordinates"], Raw: m}
	switch t {
	case "Point":
		g.Kind = KindPoint
	case "LineString":
		g.Kind = KindLineString
	case "MultiLineString":
		g.Kind = KindMultiLineString
	default:
		g.Kind = KindOther
	}
	return g
}

// PointFrom coerces a Point's coordinates. It requires exactly two members,
// both convertible to float.
func PointFrom(coords any) (orb.Point, bool) {
	pair, ok := asSlice(coords)
	if !ok || len(pair) != 2 {
		return orb.Point{}, false
	}
	lon, ok := ToFloat(pair[0])
	if !ok {
		return orb.Point{}, false
	}
	lat, ok := ToFloat(pair[1])
	if !ok {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

// LineFrom coerces a LineString's coordinates. Positions with fewer than two
// members or non-numeric members are dropped; extra members (altitude) are ignored.
func LineFrom(coords any) orb.LineString {
	positions, ok := asSlice(coords)
	if !ok {
		return nil
	}
	line := make(orb.LineString, 0, len(positions))
	for _, p := range positions {
		pos, ok := asSlice(p)
		if !ok || len(pos) < 2 {
			continue
		}
		lon, okLon := ToFloat(pos[0])
		lat, okLat := ToFloat(pos[1])
		if !okLon || !okLat {
			continue
		}
		line = append(line, orb.Point{lon, lat})
	}
	return line
}

// LinesFrom splits MultiLineString coordinates into their member lines without
// coercing them.
func LinesFrom(coords any) []any {
	lines, _ := asSlice(coords)
	return lines
}

// InBounds reports whether p is a valid WGS84 longitude/latitude pair.
func InBounds(p orb.Point) bool {
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}

// ToFloat converts numeric scalars and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asSlice accepts []any and any other slice or array type, such as the named
// slice types produced by database drivers when documents are read back.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

package models

import (
	"haydigo.org/geoingest/docstore"
)

// FeatureCollection is a GeoJSON document returned as-is, without the
// response envelope, so map clients can consume it directly.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Properties map[string]any `json:"properties"`
	Geometry   any            `json:"geometry"`
}

func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// NewStopFeature exposes the normalized stop fields as properties.
func NewStopFeature(stop docstore.StopDocument) Feature {
	props := map[string]any{
		"name":      stop.Name,
		"code":      stop.Code,
		"status":    stop.Status,
		"stop_type": stop.StopType,
		"direction": stop.Direction,
	}
	if stop.Geohash != "" {
		props["geohash"] = stop.Geohash
	}
	return Feature{
		Type:       "Feature",
		ID:         stop.ID,
		Properties: props,
		Geometry:   stop.Geometry,
	}
}

func NewSegmentFeature(segment docstore.RouteSegmentDocument) Feature {
	props := segment.Properties
	if props == nil {
		props = map[string]any{}
	}
	return Feature{Type: "Feature", Properties: props, Geometry: segment.Geometry}
}

// SegmentPolyline is one route segment in encoded polyline form.
type SegmentPolyline struct {
	Points     string         `json:"points"`
	Length     int            `json:"length"`
	PointCount int            `json:"pointCount"`
	Properties map[string]any `json:"properties"`
}

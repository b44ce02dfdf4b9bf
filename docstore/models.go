package docstore

import (
	"time"

	"github.com/paulmach/orb"
)

// PointGeometry is a validated GeoJSON Point.
type PointGeometry struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates orb.Point `bson:"coordinates" json:"coordinates"`
}

func NewPointGeometry(p orb.Point) PointGeometry {
	return PointGeometry{Type: "Point", Coordinates: p}
}

// LineGeometry is a GeoJSON LineString with at least two positions.
type LineGeometry struct {
	Type        string         `bson:"type" json:"type"`
	Coordinates orb.LineString `bson:"coordinates" json:"coordinates"`
}

func NewLineGeometry(line orb.LineString) LineGeometry {
	return LineGeometry{Type: "LineString", Coordinates: line}
}

// StopDocument is one transit stop, keyed by a derived identifier that stays
// the same across imports of the same source record.
type StopDocument struct {
	ID             string         `bson:"_id" json:"id"`
	Name           *string        `bson:"name" json:"name"`
	Code           *string        `bson:"code" json:"code"`
	Status         *int64         `bson:"status" json:"status"`
	StopType       *string        `bson:"stop_type" json:"stop_type"`
	Direction      *string        `bson:"direction" json:"direction"`
	LastUpdated    *time.Time     `bson:"last_updated" json:"last_updated"`
	BuiltAt        *time.Time     `bson:"built_at" json:"built_at"`
	DistrictID     any            `bson:"district_id" json:"district_id"`
	NeighborhoodID any            `bson:"neighborhood_id" json:"neighborhood_id"`
	Version        *string        `bson:"version" json:"version"`
	VersionNum     *float64       `bson:"version_num" json:"version_num"`
	HasShelterFlag any            `bson:"has_shelter_flag" json:"has_shelter_flag"`
	Geohash        string         `bson:"geohash,omitempty" json:"geohash,omitempty"`
	Geometry       any            `bson:"geometry" json:"geometry"`
	RawProperties  map[string]any `bson:"raw_properties" json:"raw_properties"`
}

// RouteSegmentDocument is one bounded piece of a route geometry. Segments cut
// from the same input line share Properties.
type RouteSegmentDocument struct {
	Type       string         `bson:"type" json:"type"`
	Properties map[string]any `bson:"properties" json:"properties"`
	Geometry   any            `bson:"geometry" json:"geometry"`
}

// GeometryType returns the "type" tag of the segment geometry.
func (d RouteSegmentDocument) GeometryType() string {
	switch g := d.Geometry.(type) {
	case LineGeometry:
		return g.Type
	case map[string]any:
		s, _ := g["type"].(string)
		return s
	default:
		return ""
	}
}

// PointCount is the number of positions of a LineString segment, 0 otherwise.
func (d RouteSegmentDocument) PointCount() int {
	if g, ok := d.Geometry.(LineGeometry); ok {
		return len(g.Coordinates)
	}
	return 0
}

package normalize

import (
	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/geojson"
)

// DefaultMaxPointsPerSegment bounds the size of a stored LineString.
const DefaultMaxPointsPerSegment = 5000

// RouteNormalizer turns route features into bounded segments. It is stateless
// and safe for concurrent use.
type RouteNormalizer struct {
	maxPoints int
}

func NewRouteNormalizer(maxPoints int) *RouteNormalizer {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPointsPerSegment
	}
	return &RouteNormalizer{maxPoints: maxPoints}
}

// Normalize returns one document per chunk of every line in the feature.
// Geometries other than LineString and MultiLineString are passed through as
// a single document.
func (n *RouteNormalizer) Normalize(raw geojson.RawFeature) ([]docstore.RouteSegmentDocument, SkipReason) {
	if raw == nil {
		return nil, SkipUnparsable
	}
	if !raw.IsFeature() {
		return nil, SkipNotFeature
	}

	props, _ := geojson.Dedecimalize(raw.Properties()).(map[string]any)
	geom := geojson.ParseGeometry(geojson.Dedecimalize(raw["geometry"]))

	var chunks [][]docstore.LineGeometry
	switch geom.Kind {
	case geojson.KindNone:
		return nil, SkipMissingGeometry
	case geojson.KindLineString:
		chunks = append(chunks, n.lineChunks(geom.Coordinates))
	case geojson.KindMultiLineString:
		for _, line := range geojson.LinesFrom(geom.Coordinates) {
			chunks = append(chunks, n.lineChunks(line))
		}
	case geojson.KindPoint, geojson.KindOther:
		return []docstore.RouteSegmentDocument{{Type: "Feature", Properties: props, Geometry: geom.Raw}}, Accepted
	}

	var docs []docstore.RouteSegmentDocument
	for _, lines := range chunks {
		for _, line := range lines {
			docs = append(docs, docstore.RouteSegmentDocument{Type: "Feature", Properties: props, Geometry: line})
		}
	}
	if len(docs) == 0 {
		return nil, SkipNoValidPoints
	}
	return docs, Accepted
}

func (n *RouteNormalizer) lineChunks(coords any) []docstore.LineGeometry {
	parts := ChunkLine(geojson.LineFrom(coords), n.maxPoints)
	out := make([]docstore.LineGeometry, len(parts))
	for i, part := range parts {
		out[i] = docstore.NewLineGeometry(part)
	}
	return out
}

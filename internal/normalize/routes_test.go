package normalize

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/geojson"
)

func coordList(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = []any{29.0 + float64(i)/100, 41.0}
	}
	return out
}

func routeFeature(geometry any) geojson.RawFeature {
	return geojson.RawFeature{
		"type":       "Feature",
		"properties": map[string]any{"HAT_KODU": "500T"},
		"geometry":   geometry,
	}
}

func TestChunkLine(t *testing.T) {
	line := make(orb.LineString, 12)
	for i := range line {
		line[i] = orb.Point{float64(i), 0}
	}

	tests := []struct {
		name      string
		line      orb.LineString
		maxPoints int
		sizes     []int
	}{
		{"fits", line[:5], 5, []int{5}},
		{"exact multiple", line[:10], 5, []int{5, 5}},
		{"short tail kept", line, 5, []int{5, 5, 2}},
		{"single point tail dropped", line[:11], 5, []int{5, 5}},
		{"no split below two", line, 1, []int{12}},
		{"one point", line[:1], 5, nil},
		{"empty", nil, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkLine(tt.line, tt.maxPoints)
			require.Len(t, chunks, len(tt.sizes))

			var joined orb.LineString
			for i, c := range chunks {
				assert.Len(t, c, tt.sizes[i])
				joined = append(joined, c...)
			}
			// Pieces are contiguous and do not overlap.
			if len(chunks) > 0 {
				assert.Equal(t, tt.line[:len(joined)], joined)
			}
		})
	}
}

func TestChunkLineDoesNotAlias(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	chunks := ChunkLine(line, 2)
	require.Len(t, chunks, 2)

	chunks[0] = append(chunks[0], orb.Point{9, 9})
	assert.Equal(t, orb.Point{2, 2}, line[2])
}

func TestRouteNormalizeLineString(t *testing.T) {
	n := NewRouteNormalizer(5)

	docs, reason := n.Normalize(routeFeature(map[string]any{"type": "LineString", "coordinates": coordList(12)}))
	require.Equal(t, Accepted, reason)
	require.Len(t, docs, 3)

	for _, d := range docs {
		assert.Equal(t, "Feature", d.Type)
		assert.Equal(t, "LineString", d.GeometryType())
		assert.Equal(t, "500T", d.Properties["HAT_KODU"])
	}
	assert.Equal(t, []int{5, 5, 2}, []int{docs[0].PointCount(), docs[1].PointCount(), docs[2].PointCount()})
	assert.InDelta(t, 29.05, docs[1].Geometry.(docstore.LineGeometry).Coordinates[0].Lon(), 1e-9)
}

func TestRouteNormalizeMultiLineString(t *testing.T) {
	n := NewRouteNormalizer(0)

	docs, reason := n.Normalize(routeFeature(map[string]any{
		"type": "MultiLineString",
		"coordinates": []any{
			coordList(3),
			coordList(1),
			[]any{[]any{29.0, 41.0}, []any{"bad"}, []any{29.1, 41.1}},
		},
	}))
	require.Equal(t, Accepted, reason)
	require.Len(t, docs, 2)
	assert.Equal(t, 3, docs[0].PointCount())
	assert.Equal(t, 2, docs[1].PointCount())
}

func TestRouteNormalizePassesOtherGeometries(t *testing.T) {
	n := NewRouteNormalizer(5)
	point := map[string]any{"type": "Point", "coordinates": []any{29.0, 41.0}}

	docs, reason := n.Normalize(routeFeature(point))
	require.Equal(t, Accepted, reason)
	require.Len(t, docs, 1)
	assert.Equal(t, point, docs[0].Geometry)
	assert.Equal(t, "Point", docs[0].GeometryType())
	assert.Zero(t, docs[0].PointCount())
}

func TestRouteNormalizeSkips(t *testing.T) {
	n := NewRouteNormalizer(5)

	tests := []struct {
		name string
		raw  geojson.RawFeature
		want SkipReason
	}{
		{"nil element", nil, SkipUnparsable},
		{"not a feature", geojson.RawFeature{"type": "FeatureCollection"}, SkipNotFeature},
		{"no geometry", routeFeature(nil), SkipMissingGeometry},
		{"untyped geometry", routeFeature(map[string]any{"coordinates": coordList(3)}), SkipMissingGeometry},
		{"single point line", routeFeature(map[string]any{"type": "LineString", "coordinates": coordList(1)}), SkipNoValidPoints},
		{"unusable multi line", routeFeature(map[string]any{"type": "MultiLineString", "coordinates": []any{coordList(1), []any{}}}), SkipNoValidPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, reason := n.Normalize(tt.raw)
			assert.Equal(t, tt.want, reason)
			assert.Empty(t, docs)
		})
	}
}

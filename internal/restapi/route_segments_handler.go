package restapi

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/geojson"
	"haydigo.org/geoingest/internal/models"
	"haydigo.org/geoingest/internal/utils"
)

func (api *RestAPI) routeSegmentsHandler(w http.ResponseWriter, r *http.Request) {
	code := utils.ExtractIDFromParams(r, "code")
	fieldErrors := make(map[string][]string)
	if err := utils.ValidateID(code); err != nil {
		fieldErrors["code"] = append(fieldErrors["code"], err.Error())
	}

	query := r.URL.Query()
	format := query.Get("format")
	if format == "" {
		format = "geojson"
	}
	if format != "geojson" && format != "polyline" {
		fieldErrors["format"] = append(fieldErrors["format"], `format must be "geojson" or "polyline"`)
	}
	limit := utils.ParseLimitParam(query, api.Config.API.DefaultLimit, MaxQueryLimit, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	segments, err := api.reader().SegmentsForRoute(r.Context(), code, limit)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if len(segments) == 0 {
		api.sendNotFound(w, r)
		return
	}

	if format == "polyline" {
		api.sendResponse(w, r, models.NewListResponse(encodeSegments(segments), len(segments) == limit))
		return
	}

	features := make([]models.Feature, 0, len(segments))
	for _, segment := range segments {
		features = append(features, models.NewSegmentFeature(segment))
	}
	api.sendGeoJSON(w, r, models.NewFeatureCollection(features))
}

// encodeSegments renders LineString segments as encoded polylines of
// [lat, lon] pairs. Other geometries have no polyline form and are left out.
func encodeSegments(segments []docstore.RouteSegmentDocument) []models.SegmentPolyline {
	out := make([]models.SegmentPolyline, 0, len(segments))
	for _, segment := range segments {
		line := segmentLine(segment.Geometry)
		if len(line) < 2 {
			continue
		}

		coords := make([][]float64, len(line))
		for i, p := range line {
			coords[i] = []float64{p.Lat(), p.Lon()}
		}
		points := string(polyline.EncodeCoords(coords))
		out = append(out, models.SegmentPolyline{
			Points:     points,
			Length:     len(points),
			PointCount: len(line),
			Properties: segment.Properties,
		})
	}
	return out
}

// segmentLine returns the positions of a LineString geometry, whether it was
// built by the importer or decoded from the store.
func segmentLine(geometry any) orb.LineString {
	if g, ok := geometry.(docstore.LineGeometry); ok {
		return g.Coordinates
	}
	geom := geojson.ParseGeometry(geometry)
	if geom.Kind != geojson.KindLineString {
		return nil
	}
	return geojson.LineFrom(geom.Coordinates)
}

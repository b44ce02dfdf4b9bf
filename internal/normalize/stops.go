package normalize

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/geojson"
)

const geohashPrecision = 9

// StopFields names the source properties mapped onto a StopDocument.
type StopFields struct {
	Name           string `yaml:"name" validate:"required"`
	Code           string `yaml:"code" validate:"required"`
	Status         string `yaml:"status"`
	StopType       string `yaml:"stop_type"`
	Direction      string `yaml:"direction"`
	LastUpdated    string `yaml:"last_updated"`
	BuiltAt        string `yaml:"built_at"`
	DistrictID     string `yaml:"district_id"`
	NeighborhoodID string `yaml:"neighborhood_id"`
	Version        string `yaml:"version"`
	HasShelter     string `yaml:"has_shelter"`
}

// DefaultStopFields matches the municipal stop export.
func DefaultStopFields() StopFields {
	return StopFields{
		Name:           "ADI",
		Code:           "DURAK_KODU",
		Status:         "DURUMU",
		StopType:       "DURAK_TIPI",
		Direction:      "YON_BILGIS",
		LastUpdated:    "SON_GUNCEL",
		BuiltAt:        "YAPILIS_TA",
		DistrictID:     "ILCEID",
		NeighborhoodID: "MAHALLEID",
		Version:        "VERSIYON",
		HasShelter:     "CEP_VAR",
	}
}

// identifierKeys are checked in order before any derived identifier is used.
var identifierKeys = []string{"ID", "Id", "id"}

// StopNormalizer maps raw point features to stop documents. It is stateless
// and safe for concurrent use.
type StopNormalizer struct {
	fields StopFields
}

func NewStopNormalizer(fields StopFields) *StopNormalizer {
	return &StopNormalizer{fields: fields}
}

// Normalize validates one feature and builds its document. A non-empty
// SkipReason means the feature must be dropped.
func (n *StopNormalizer) Normalize(raw geojson.RawFeature) (docstore.StopDocument, SkipReason) {
	if raw == nil {
		return docstore.StopDocument{}, SkipUnparsable
	}
	if !raw.IsFeature() {
		return docstore.StopDocument{}, SkipNotFeature
	}

	feature := geojson.RawFeature(geojson.Dedecimalize(map[string]any(raw)).(map[string]any))
	props := feature.Properties()
	geom := feature.Geometry()

	var (
		point    orb.Point
		hasPoint bool
	)
	if geom.Kind == geojson.KindPoint {
		point, hasPoint = geojson.PointFrom(geom.Coordinates)
		if !hasPoint || !geojson.InBounds(point) {
			return docstore.StopDocument{}, SkipInvalidGeometry
		}
	}

	id, ok := n.identifier(props, point, hasPoint)
	if !ok {
		return docstore.StopDocument{}, SkipNoIdentifier
	}

	f := n.fields
	doc := docstore.StopDocument{
		ID:             id,
		Name:           optionalString(props[f.Name]),
		Code:           optionalString(props[f.Code]),
		Status:         parseInt(props[f.Status]),
		StopType:       optionalString(props[f.StopType]),
		Direction:      optionalString(props[f.Direction]),
		LastUpdated:    parseDate(props[f.LastUpdated]),
		BuiltAt:        parseDate(props[f.BuiltAt]),
		DistrictID:     props[f.DistrictID],
		NeighborhoodID: props[f.NeighborhoodID],
		Version:        optionalString(props[f.Version]),
		VersionNum:     parseCommaFloat(props[f.Version]),
		HasShelterFlag: props[f.HasShelter],
		RawProperties:  props,
	}

	switch {
	case hasPoint:
		doc.Geometry = docstore.NewPointGeometry(point)
		doc.Geohash = geohash.EncodeWithPrecision(point.Lat(), point.Lon(), geohashPrecision)
	case geom.Kind != geojson.KindNone:
		doc.Geometry = geom.Raw
	}
	return doc, Accepted
}

// identifier derives the document key: an explicit id property, then
// "code:<code>", then "pt:<lon>:<lat>" rounded to six decimals.
func (n *StopNormalizer) identifier(props map[string]any, point orb.Point, hasPoint bool) (string, bool) {
	if v, ok := firstPresent(props, identifierKeys...); ok {
		return scalarString(v), true
	}
	if v, ok := firstPresent(props, n.fields.Code, "code"); ok {
		return "code:" + scalarString(v), true
	}
	if hasPoint {
		return "pt:" + floatString(round6(point.Lon())) + ":" + floatString(round6(point.Lat())), true
	}
	return "", false
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

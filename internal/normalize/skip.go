package normalize

// SkipReason says why a feature produced no document. The zero value means
// the feature was accepted.
type SkipReason string

const (
	Accepted SkipReason = ""

	// SkipUnparsable: the stream element was not a JSON object.
	SkipUnparsable SkipReason = "unparsable"
	// SkipNotFeature: the element's type is not "Feature".
	SkipNotFeature SkipReason = "not_feature"
	// SkipInvalidGeometry: a Point with malformed or out-of-range coordinates.
	SkipInvalidGeometry SkipReason = "invalid_geometry"
	// SkipNoIdentifier: no identifier property, code, or point to derive one from.
	SkipNoIdentifier SkipReason = "no_identifier"
	// SkipMissingGeometry: a route feature without a typed geometry.
	SkipMissingGeometry SkipReason = "missing_geometry"
	// SkipNoValidPoints: every line of a route feature had fewer than two valid points.
	SkipNoValidPoints SkipReason = "no_valid_points"
)

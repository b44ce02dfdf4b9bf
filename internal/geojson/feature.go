package geojson

// RawFeature is one undecoded element of an input file. Values are whatever
// encoding/json produced with UseNumber enabled, so numbers are json.Number
// until Dedecimalize runs.
type RawFeature map[string]any

// Type returns the "type" member, or "" when it is missing or not a string.
func (f RawFeature) Type() string {
	s, _ := f["type"].(string)
	return s
}

// IsFeature reports whether the element is tagged as a GeoJSON Feature.
func (f RawFeature) IsFeature() bool {
	return f.Type() == "Feature"
}

// Properties returns the property bag. A missing or null bag yields an empty map.
func (f RawFeature) Properties() map[string]any {
	if m, ok := asMap(f["properties"]); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// Geometry parses the "geometry" member into its tagged form.
func (f RawFeature) Geometry() Geometry {
	return ParseGeometry(f["geometry"])
}

func asFeature(v any) RawFeature {
	if m, ok := v.(map[string]any); ok {
		return RawFeature(m)
	}
	return nil
}

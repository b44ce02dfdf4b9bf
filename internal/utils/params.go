package utils

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
)

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// A missing key yields 0 and ok=false; an invalid value is recorded in fieldErrors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, bool) {
	val := params.Get(key)
	if val == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return 0, false
	}
	return f, true
}

// ParseLimitParam reads an optional positive result limit, falling back to def.
func ParseLimitParam(params url.Values, def, maxLimit int, fieldErrors map[string][]string) int {
	val := params.Get("limit")
	if val == "" {
		return def
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors["limit"] = append(fieldErrors["limit"], `Invalid field value for field "limit".`)
		return def
	}
	if err := ValidateLimit(n, maxLimit); err != nil {
		fieldErrors["limit"] = append(fieldErrors["limit"], err.Error())
		return def
	}
	return n
}

// ParseBoundParams reads minLon, minLat, maxLon and maxLat. All four are required.
func ParseBoundParams(params url.Values) (orb.Bound, map[string][]string) {
	fieldErrors := make(map[string][]string)
	values := make(map[string]float64, 4)

	for _, key := range []string{"minLon", "minLat", "maxLon", "maxLat"} {
		f, ok := ParseFloatParam(params, key, fieldErrors)
		if !ok {
			if _, invalid := fieldErrors[key]; !invalid {
				fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Missing field %q.", key))
			}
			continue
		}
		values[key] = f
	}
	if len(fieldErrors) > 0 {
		return orb.Bound{}, fieldErrors
	}

	bound := orb.Bound{
		Min: orb.Point{values["minLon"], values["minLat"]},
		Max: orb.Point{values["maxLon"], values["maxLat"]},
	}
	return bound, ValidateBound(bound)
}

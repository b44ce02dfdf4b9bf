package geojson

import (
	"encoding/json"
	"math/big"
	"strconv"
)

// Dedecimalize walks a decoded JSON value and replaces every arbitrary-precision
// number with a native one. Maps and slices are rebuilt, other values pass through.
//
// Integral json.Number literals that fit in an int64 become int64 so that
// identifiers such as 1234567890123 keep their exact value. Every other number
// becomes a float64.
func Dedecimalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Dedecimalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Dedecimalize(val)
		}
		return out
	case json.Number:
		return numberValue(t)
	case *big.Float:
		if t == nil {
			return nil
		}
		f, _ := t.Float64()
		return f
	case *big.Rat:
		if t == nil {
			return nil
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

func numberValue(n json.Number) any {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i
	}
	// ParseFloat returns ±Inf alongside ErrRange; keep it rather than the string.
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}

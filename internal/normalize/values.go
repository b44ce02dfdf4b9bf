package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the day.month.year forms found in the exports. Single digit
// days and months are accepted.
var dateLayouts = []string{
	"2.1.2006 15:04:05",
	"2.1.2006",
}

// firstPresent returns the first value under keys that is not empty, zero, or false.
func firstPresent(props map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if v, ok := props[k]; ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// scalarString renders a property value as text. Whole floats keep a ".0"
// suffix so keys built from them match keys written by earlier imports.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return floatString(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func floatString(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func optionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := scalarString(v)
	return &s
}

// parseDate reads day.month.year[ hour:minute:second]. Anything else is nil.
func parseDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseInt accepts integers, whole floats, and integer strings.
func parseInt(v any) *int64 {
	var i int64
	switch t := v.(type) {
	case int64:
		i = t
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return nil
		}
		i = int64(t)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		i = n
	default:
		return nil
	}
	return &i
}

// parseCommaFloat reads numbers written with a decimal comma ("1,5").
func parseCommaFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int64:
		f = float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", "."), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	return &f
}

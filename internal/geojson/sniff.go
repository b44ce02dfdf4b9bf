package geojson

import (
	"encoding/json"
	"io"
)

// Mode is the top-level shape of an input document.
type Mode int

const (
	ModeUnknown Mode = iota
	// ModeCollection is {"type":"FeatureCollection","features":[...]}.
	ModeCollection
	// ModeArray is a bare [feature, ...].
	ModeArray
	// ModeSingle is one {"type":"Feature",...} object.
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeCollection:
		return "collection"
	case ModeArray:
		return "array"
	case ModeSingle:
		return "single"
	default:
		return "unknown"
	}
}

// SniffTokenBudget is the number of JSON tokens Sniff reads before giving up.
const SniffTokenBudget = 80

// Sniff classifies a document by reading at most SniffTokenBudget tokens from r.
// It returns ModeUnknown when the budget runs out or the prefix is not valid
// JSON; the caller then falls back to decoding the whole document.
func Sniff(r io.Reader) Mode {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return ModeUnknown
	}
	switch tok {
	case json.Delim('['):
		return ModeArray
	case json.Delim('{'):
	default:
		return ModeUnknown
	}

	depth := 1
	expectKey := true
	lastKey := ""
	for i := 1; i < SniffTokenBudget; i++ {
		tok, err := dec.Token()
		if err != nil {
			return ModeUnknown
		}

		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return ModeUnknown
				}
				if depth == 1 {
					expectKey = true
				}
			}
			continue
		}

		if depth != 1 {
			continue
		}
		if expectKey {
			lastKey, _ = tok.(string)
			expectKey = false
			continue
		}
		if lastKey == "type" {
			switch tok {
			case "FeatureCollection":
				return ModeCollection
			case "Feature":
				return ModeSingle
			}
		}
		expectKey = true
	}
	return ModeUnknown
}

// classify decides the mode of a fully decoded document.
func classify(doc any) Mode {
	switch t := doc.(type) {
	case []any:
		return ModeArray
	case map[string]any:
		switch t["type"] {
		case "FeatureCollection":
			return ModeCollection
		case "Feature":
			return ModeSingle
		}
	}
	return ModeUnknown
}

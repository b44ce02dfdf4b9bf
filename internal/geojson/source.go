package geojson

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

const readBufferSize = 64 << 10

// ErrInvalidFormat is returned when a document is none of the supported shapes.
var ErrInvalidFormat = errors.New("invalid GeoJSON format")

// InvalidFormatError reports the file whose shape could not be classified.
type InvalidFormatError struct {
	Path string
	Err  error
}

func (e *InvalidFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidFormat, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFormat, e.Path)
}

func (e *InvalidFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidFormat}
	}
	return []error{ErrInvalidFormat, e.Err}
}

// StreamError is a decode failure after classification. A streaming decoder
// cannot resynchronise after a syntax error, so the run stops at Offset.
type StreamError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("decoding %s at byte %d: %v", e.Path, e.Offset, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Source is a classified input file.
type Source struct {
	path string
	mode Mode
	// whole is set when the mode was only found by decoding the full document;
	// Features then decodes it in one piece again instead of streaming.
	whole bool
}

// Open classifies the file at path. The prefix is sniffed first; if that is
// inconclusive the whole document is decoded once. Errors from os.Open are
// returned unwrapped so callers can test for fs.ErrNotExist.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck

	if mode := Sniff(bufio.NewReaderSize(f, readBufferSize)); mode != ModeUnknown {
		return &Source{path: path, mode: mode, whole: mode == ModeSingle}, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding %s: %w", path, err)
	}
	doc, err := decodeWhole(f)
	if err != nil {
		if isDecodeError(err) {
			return nil, &InvalidFormatError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	mode := classify(doc)
	if mode == ModeUnknown {
		return nil, &InvalidFormatError{Path: path}
	}
	return &Source{path: path, mode: mode, whole: true}, nil
}

func (s *Source) Path() string { return s.path }
func (s *Source) Mode() Mode   { return s.mode }

// Features yields the file's elements in order. Every call re-opens the file,
// so the sequence can be restarted. Collection and array documents are decoded
// one element at a time. Elements that are not JSON objects are yielded as a
// nil RawFeature; a decode error is yielded once and ends the sequence.
func (s *Source) Features() iter.Seq2[RawFeature, error] {
	return func(yield func(RawFeature, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close() // nolint:errcheck

		r := bufio.NewReaderSize(f, readBufferSize)
		if s.whole {
			s.yieldWhole(r, yield)
			return
		}

		dec := json.NewDecoder(r)
		dec.UseNumber()
		switch s.mode {
		case ModeCollection:
			s.streamCollection(dec, yield)
		case ModeArray:
			s.streamArray(dec, yield)
		}
	}
}

func (s *Source) yieldWhole(r io.Reader, yield func(RawFeature, error) bool) {
	doc, err := decodeWhole(r)
	if err != nil {
		yield(nil, &StreamError{Path: s.path, Err: err})
		return
	}

	var items []any
	switch t := doc.(type) {
	case []any:
		items = t
	case map[string]any:
		if t["type"] == "FeatureCollection" {
			items, _ = t["features"].([]any)
		} else {
			items = []any{t}
		}
	}
	for _, item := range items {
		if !yield(asFeature(item), nil) {
			return
		}
	}
}

func (s *Source) streamCollection(dec *json.Decoder, yield func(RawFeature, error) bool) {
	if err := expectDelim(dec, '{'); err != nil {
		yield(nil, s.streamErr(dec, err))
		return
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			yield(nil, s.streamErr(dec, err))
			return
		}
		if key, _ := tok.(string); key != "features" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				yield(nil, s.streamErr(dec, err))
				return
			}
			continue
		}

		tok, err = dec.Token()
		if err != nil {
			yield(nil, s.streamErr(dec, err))
			return
		}
		if tok != json.Delim('[') {
			// "features": null or some other scalar holds no features.
			return
		}
		s.streamItems(dec, yield)
		return
	}
}

func (s *Source) streamArray(dec *json.Decoder, yield func(RawFeature, error) bool) {
	if err := expectDelim(dec, '['); err != nil {
		yield(nil, s.streamErr(dec, err))
		return
	}
	s.streamItems(dec, yield)
}

// streamItems decodes array elements until the closing bracket.
func (s *Source) streamItems(dec *json.Decoder, yield func(RawFeature, error) bool) {
	for dec.More() {
		var item any
		if err := dec.Decode(&item); err != nil {
			yield(nil, s.streamErr(dec, err))
			return
		}
		if !yield(asFeature(item), nil) {
			return
		}
	}
	if _, err := dec.Token(); err != nil {
		yield(nil, s.streamErr(dec, err))
	}
}

func (s *Source) streamErr(dec *json.Decoder, err error) error {
	return &StreamError{Path: s.path, Offset: dec.InputOffset(), Err: err}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != want {
		return fmt.Errorf("expected %q, found %v", want, tok)
	}
	return nil
}

func decodeWhole(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

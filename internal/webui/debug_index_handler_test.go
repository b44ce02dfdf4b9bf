package webui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"haydigo.org/geoingest/docstore"
)

type stubReader struct {
	countsErr error
	bound     orb.Bound
	code      string
}

func (s *stubReader) Ping(context.Context) error { return nil }

func (s *stubReader) StopsWithinBounds(_ context.Context, bound orb.Bound, limit int) ([]docstore.StopDocument, error) {
	s.bound = bound
	name := "Sultanahmet"
	return []docstore.StopDocument{{ID: "code:1001", Name: &name}}, nil
}

func (s *stubReader) SegmentsForRoute(_ context.Context, code string, limit int) ([]docstore.RouteSegmentDocument, error) {
	s.code = code
	return []docstore.RouteSegmentDocument{{Type: "Feature", Properties: map[string]any{"HAT_KODU": code}}}, nil
}

func (s *stubReader) Counts(context.Context) (map[string]int64, error) {
	if s.countsErr != nil {
		return nil, s.countsErr
	}
	return map[string]int64{"stops": 12, "route_segments": 3}, nil
}

func serveDebug(t *testing.T, reader docstore.Reader, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := httprouter.New()
	webUI := &WebUI{Store: reader}
	webUI.SetWebUIRoutes(router, func(h http.HandlerFunc) http.Handler { return h })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestDebugIndexHandler(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantTitle string
		wantBody  string
	}{
		{"counts", "/debug/?dataType=counts", "Store - Counts", "route_segments"},
		{"stops", "/debug/?dataType=stops", "Store - Stops (sample)", "Sultanahmet"},
		{"segments", "/debug/?dataType=segments&code=500T", "Store - Segments for route 500T", "HAT_KODU"},
		{"no data type", "/debug/", "Choose a data type", "Please use one of the following"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveDebug(t, &stubReader{}, tt.target)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), "<title>"+tt.wantTitle+"</title>")
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}
}

func TestDebugIndexHandlerQueriesWholeWorld(t *testing.T) {
	reader := &stubReader{}
	serveDebug(t, reader, "/debug/?dataType=stops")
	assert.Equal(t, world, reader.bound)

	serveDebug(t, reader, "/debug/?dataType=segments&code=KM12")
	assert.Equal(t, "KM12", reader.code)
}

func TestDebugIndexHandlerStoreError(t *testing.T) {
	rr := serveDebug(t, &stubReader{countsErr: errors.New("store offline")}, "/debug/?dataType=counts")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "store offline")
}

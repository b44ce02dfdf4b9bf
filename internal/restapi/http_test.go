package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/app"
	"haydigo.org/geoingest/internal/appconf"
	"haydigo.org/geoingest/internal/logging"
)

// createTestApi creates a RestAPI backed by a seeded in-memory SQLite store.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithLogger(t, logging.NewStructuredLogger(io.Discard, slog.LevelError))
}

func createTestApiWithLogger(t *testing.T, logger *slog.Logger) *RestAPI {
	t.Helper()

	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Store.Driver = docstore.DriverSQLite
	cfg.Store.SQLitePath = ":memory:"
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	store, err := docstore.OpenSQLite(ctx, cfg.DocStore(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	seedStore(t, store)

	return &RestAPI{Application: &app.Application{Config: cfg, Logger: logger, Store: store}}
}

func stringPtr(s string) *string { return &s }

func seedStore(t *testing.T, store docstore.Store) {
	t.Helper()
	ctx := context.Background()

	stops := []docstore.StopDocument{
		{
			ID:            "pt:28.979012:41.010988",
			Name:          stringPtr("Sultanahmet"),
			Geometry:      docstore.NewPointGeometry(orb.Point{28.979012, 41.010988}),
			RawProperties: map[string]any{"ADI": "Sultanahmet"},
		},
		{
			ID:            "B1",
			Name:          stringPtr("Kadıköy"),
			Geometry:      docstore.NewPointGeometry(orb.Point{29.026, 40.99}),
			RawProperties: map[string]any{"ADI": "Kadıköy"},
		},
		{
			ID:            "C1",
			Name:          stringPtr("Kızılay"),
			Geometry:      docstore.NewPointGeometry(orb.Point{32.854, 39.920}),
			RawProperties: map[string]any{"ADI": "Kızılay"},
		},
	}
	res, err := store.UpsertStops(ctx, stops)
	require.NoError(t, err)
	require.Equal(t, len(stops), res.Written)

	props := map[string]any{"HAT_KODU": "500T", "HAT_ADI": "Tuzla - Cevizlibağ"}
	segments := []docstore.RouteSegmentDocument{
		{
			Type:       "Feature",
			Properties: props,
			Geometry: docstore.NewLineGeometry(orb.LineString{
				{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252},
			}),
		},
		{
			Type:       "Feature",
			Properties: props,
			Geometry:   docstore.NewLineGeometry(orb.LineString{{29.0, 41.0}, {29.1, 41.1}}),
		},
		{
			Type:       "Feature",
			Properties: map[string]any{"HAT_KODU": "KM12"},
			Geometry:   map[string]any{"type": "Point", "coordinates": []any{29.0, 41.0}},
		},
	}
	res, err = store.InsertSegments(ctx, segments)
	require.NoError(t, err)
	require.Equal(t, len(segments), res.Written)
}

func serveAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, endpoint, nil)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}

package app

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/appconf"
	"haydigo.org/geoingest/internal/ingest"
	"haydigo.org/geoingest/internal/logging"
)

func testConfig() appconf.Config {
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Store.Driver = docstore.DriverSQLite
	cfg.Store.SQLitePath = ":memory:"
	return cfg
}

func TestImportFlags(t *testing.T) {
	var f ImportFlags
	flags := flag.NewFlagSet("import-stops", flag.ContinueOnError)
	f.Register(flags)
	require.NoError(t, flags.Parse([]string{"-driver", "sqlite", "-batch-size", "25", "-max-features", "0", "stops.geojson"}))

	cfg := appconf.Default()
	cfg.Stops.MaxFeatures = 100
	f.Apply(&cfg, &cfg.Stops.ImportConfig)

	assert.Equal(t, docstore.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 25, cfg.Stops.BatchSize)
	assert.Equal(t, 0, cfg.Stops.MaxFeatures)
	assert.Equal(t, 100, cfg.Routes.BatchSize)
	assert.Equal(t, "stops.geojson", flags.Arg(0))
}

func TestImportFlagsKeepConfigByDefault(t *testing.T) {
	var f ImportFlags
	flags := flag.NewFlagSet("import-routes", flag.ContinueOnError)
	f.Register(flags)
	require.NoError(t, flags.Parse(nil))

	cfg := appconf.Default()
	cfg.Routes.MaxFeatures = 50
	f.Apply(&cfg, &cfg.Routes.ImportConfig)

	assert.Equal(t, docstore.DriverMongo, cfg.Store.Driver)
	assert.Equal(t, 100, cfg.Routes.BatchSize)
	assert.Equal(t, 50, cfg.Routes.MaxFeatures)
}

func TestRunImport(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "stops.geojson")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"ID":"1"},"geometry":{"type":"Point","coordinates":[28.97,41.01]}}
	]}`), 0o644))
	invalid := filepath.Join(dir, "invalid.geojson")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"type":"Topology"}`), 0o644))

	tests := []struct {
		name    string
		path    string
		want    int
		wantLog string
	}{
		{"valid file", valid, ExitOK, `"msg":"import_complete"`},
		{"missing file", filepath.Join(dir, "absent.geojson"), ExitOK, `"msg":"input file not found"`},
		{"invalid file", invalid, ExitError, `"msg":"cannot read input"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

			code := RunImport(context.Background(), testConfig(), logger, tt.path, (*Application).ImportStops)
			assert.Equal(t, tt.want, code)
			assert.Contains(t, buf.String(), tt.wantLog)
		})
	}
}

func TestRunImportStoreUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	cfg := testConfig()
	cfg.Store.Driver = "postgres"

	var buf bytes.Buffer
	code := RunImport(context.Background(), cfg, logging.NewStructuredLogger(&buf, slog.LevelInfo), path, (*Application).ImportRoutes)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, buf.String(), `"msg":"store unavailable"`)
}

func TestRunImportFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	failing := func(*Application, context.Context, ingest.FeatureSource) (ingest.Summary, error) {
		return ingest.Summary{}, assert.AnError
	}
	var buf bytes.Buffer
	code := RunImport(context.Background(), testConfig(), logging.NewStructuredLogger(&buf, slog.LevelInfo), path, failing)
	assert.Equal(t, ExitError, code)
}

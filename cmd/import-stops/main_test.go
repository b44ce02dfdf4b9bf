package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
}

func TestRun(t *testing.T) {
	setTestEnv(t)

	dir := t.TempDir()
	valid := filepath.Join(dir, "input.geojson")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"ADI":"Sultanahmet"},"geometry":{"type":"Point","coordinates":[28.979012,41.010988]}},
		{"type":"Feature","properties":{"ADI":"Bad"},"geometry":{"type":"Point","coordinates":[200,41]}}
	]}`), 0o644))
	invalid := filepath.Join(dir, "invalid.geojson")
	require.NoError(t, os.WriteFile(invalid, []byte("not json"), 0o644))

	tests := []struct {
		name    string
		args    []string
		want    int
		wantOut string
	}{
		{"valid file", []string{"-batch-size", "1", valid}, 0, `"written":1`},
		{"missing file", []string{filepath.Join(dir, "absent.geojson")}, 0, `"msg":"input file not found"`},
		{"invalid file", []string{invalid}, 1, `"msg":"cannot read input"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.want, code, stderr.String())
			assert.Contains(t, stdout.String(), tt.wantOut)
		})
	}
}

func TestRunUsage(t *testing.T) {
	setTestEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-no-such-flag"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "usage: import-stops")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	setTestEnv(t)
	t.Setenv("SQLITE_PATH", "geoingest.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(t.TempDir(), "absent.geojson")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "test database must use in-memory storage")
}

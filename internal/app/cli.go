package app

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/appconf"
	"haydigo.org/geoingest/internal/geojson"
	"haydigo.org/geoingest/internal/ingest"
	"haydigo.org/geoingest/internal/logging"
)

// Exit codes of the import commands.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ImportFlags are the command-line overrides shared by the import commands.
// Zero or negative values leave the configured value in place.
type ImportFlags struct {
	ConfigPath  string
	Driver      string
	BatchSize   int
	MaxFeatures int
}

func (f *ImportFlags) Register(flags *flag.FlagSet) {
	flags.StringVar(&f.ConfigPath, "config", "", "YAML configuration file")
	flags.StringVar(&f.Driver, "driver", "", "Store driver (mongo|sqlite)")
	flags.IntVar(&f.BatchSize, "batch-size", 0, "Documents per batch write")
	flags.IntVar(&f.MaxFeatures, "max-features", -1, "Stop after reading this many features (0 = no limit)")
}

// Apply overlays the flags onto cfg and imp, which must point into cfg.
func (f ImportFlags) Apply(cfg *appconf.Config, imp *appconf.ImportConfig) {
	if f.Driver != "" {
		cfg.Store.Driver = f.Driver
	}
	if f.BatchSize > 0 {
		imp.BatchSize = f.BatchSize
	}
	if f.MaxFeatures >= 0 {
		imp.MaxFeatures = f.MaxFeatures
	}
}

// ImportFunc runs one import against an opened application.
type ImportFunc func(app *Application, ctx context.Context, src ingest.FeatureSource) (ingest.Summary, error)

// RunImport opens path and the store and runs fn. A missing input file is
// reported and treated as success; a malformed document or an unreachable
// store is an error.
func RunImport(ctx context.Context, cfg appconf.Config, logger *slog.Logger, path string, fn ImportFunc) int {
	src, err := geojson.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("input file not found", slog.String("path", path))
			return ExitOK
		}
		logging.LogError(logger, "cannot read input", err, slog.String("path", path))
		return ExitError
	}
	logger.Info("input detected", slog.String("path", path), slog.String("mode", src.Mode().String()))

	application, err := New(ctx, cfg, logger)
	if err != nil {
		logging.LogError(logger, "store unavailable", err,
			slog.String("driver", cfg.Store.Driver),
			slog.Bool("connectivity", errors.Is(err, docstore.ErrConnectivity)))
		return ExitError
	}
	defer func() {
		if err := application.Close(context.WithoutCancel(ctx)); err != nil {
			logging.LogError(logger, "failed to close store", err)
		}
	}()

	if _, err := fn(application, ctx, src); err != nil {
		return ExitError
	}
	return ExitOK
}

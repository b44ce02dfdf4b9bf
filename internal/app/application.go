package app

import (
	"context"
	"log/slog"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/appconf"
	"haydigo.org/geoingest/internal/ingest"
	"haydigo.org/geoingest/internal/normalize"
)

// Application holds the dependencies shared by the import commands and the
// HTTP handlers. The store handle is injected so tests can use an in-memory
// backend.
type Application struct {
	Config appconf.Config
	Logger *slog.Logger
	Store  docstore.Store
}

// New connects to the configured store.
func New(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	store, err := docstore.Open(ctx, cfg.DocStore(), logger)
	if err != nil {
		return nil, err
	}
	return &Application{Config: cfg, Logger: logger, Store: store}, nil
}

// ImportStops upserts every stop feature in src.
func (app *Application) ImportStops(ctx context.Context, src ingest.FeatureSource) (ingest.Summary, error) {
	importer := ingest.NewStopImporter(
		app.Store,
		normalize.NewStopNormalizer(app.Config.Stops.Fields),
		app.Config.ImportOptions(app.Config.Stops.ImportConfig),
		app.Logger)
	return importer.Run(ctx, src)
}

// ImportRoutes replaces the route segments with those built from src.
func (app *Application) ImportRoutes(ctx context.Context, src ingest.FeatureSource) (ingest.Summary, error) {
	importer := ingest.NewRouteImporter(
		app.Store,
		normalize.NewRouteNormalizer(app.Config.Routes.MaxPointsPerSegment),
		app.Config.Routes.CodeProperty,
		app.Config.ImportOptions(app.Config.Routes.ImportConfig),
		app.Logger)
	return importer.Run(ctx, src)
}

func (app *Application) Close(ctx context.Context) error {
	if app.Store == nil {
		return nil
	}
	return app.Store.Close(ctx)
}

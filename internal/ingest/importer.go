package ingest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/geojson"
	"haydigo.org/geoingest/internal/logging"
	"haydigo.org/geoingest/internal/normalize"
)

// FeatureSource yields raw features in file order.
type FeatureSource interface {
	Path() string
	Features() iter.Seq2[geojson.RawFeature, error]
}

// StopSink is the part of a store used by a stop import.
type StopSink interface {
	Ping(ctx context.Context) error
	EnsureStopIndexes(ctx context.Context) error
	UpsertStops(ctx context.Context, docs []docstore.StopDocument) (docstore.WriteResult, error)
}

// SegmentSink is the part of a store used by a route import.
type SegmentSink interface {
	Ping(ctx context.Context) error
	ResetSegments(ctx context.Context) error
	InsertSegments(ctx context.Context, docs []docstore.RouteSegmentDocument) (docstore.WriteResult, error)
	EnsureSegmentIndexes(ctx context.Context) error
}

// Options bound one import run.
type Options struct {
	BatchSize int
	// MaxFeatures stops intake after that many features are read; 0 means no limit.
	MaxFeatures    int
	LogEvery       int
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}

// StopImporter upserts normalized stops. Re-running it over the same file
// leaves the store unchanged.
type StopImporter struct {
	sink       StopSink
	normalizer *normalize.StopNormalizer
	opts       Options
	logger     *slog.Logger
}

func NewStopImporter(sink StopSink, normalizer *normalize.StopNormalizer, opts Options, logger *slog.Logger) *StopImporter {
	return &StopImporter{sink: sink, normalizer: normalizer, opts: opts, logger: logger}
}

// Run imports every stop in src.
func (im *StopImporter) Run(ctx context.Context, src FeatureSource) (Summary, error) {
	runID := uuid.NewString()
	logger := im.logger.With(
		slog.String("component", "stop_import"),
		slog.String("run_id", runID),
		slog.String("source", src.Path()))

	if err := ping(ctx, im.sink.Ping, im.opts.ConnectTimeout); err != nil {
		return Summary{}, err
	}
	if err := im.sink.EnsureStopIndexes(ctx); err != nil {
		logging.LogError(logger, "stop index creation failed", err)
	}

	progress := NewProgress(logger, im.opts.LogEvery)
	writer := NewBatchWriter(im.sink.UpsertStops, describeStop, im.opts.BatchSize, im.opts.WriteTimeout, progress, logger)

	err := consume(ctx, src, im.opts, progress, func(raw geojson.RawFeature) error {
		doc, reason := im.normalizer.Normalize(raw)
		if reason != normalize.Accepted {
			progress.Skip(reason)
			return nil
		}
		return writer.Add(ctx, doc)
	})
	if err == nil {
		err = writer.Flush(ctx)
	}
	return finish(logger, runID, src.Path(), progress, err)
}

// RouteImporter replaces the segment destination with the chunked routes of a
// file.
type RouteImporter struct {
	sink       SegmentSink
	normalizer *normalize.RouteNormalizer
	// codeProperty identifies a segment's route in failure logs.
	codeProperty string
	opts         Options
	logger       *slog.Logger
}

func NewRouteImporter(sink SegmentSink, normalizer *normalize.RouteNormalizer, codeProperty string, opts Options, logger *slog.Logger) *RouteImporter {
	return &RouteImporter{sink: sink, normalizer: normalizer, codeProperty: codeProperty, opts: opts, logger: logger}
}

// Run clears the destination and imports every route in src. Index creation
// happens after the load.
func (im *RouteImporter) Run(ctx context.Context, src FeatureSource) (Summary, error) {
	runID := uuid.NewString()
	logger := im.logger.With(
		slog.String("component", "route_import"),
		slog.String("run_id", runID),
		slog.String("source", src.Path()))

	if err := ping(ctx, im.sink.Ping, im.opts.ConnectTimeout); err != nil {
		return Summary{}, err
	}
	if err := im.sink.ResetSegments(ctx); err != nil {
		return Summary{}, fmt.Errorf("reset route segments: %w", err)
	}

	progress := NewProgress(logger, im.opts.LogEvery)
	writer := NewBatchWriter(im.sink.InsertSegments, im.describeSegment, im.opts.BatchSize, im.opts.WriteTimeout, progress, logger)

	err := consume(ctx, src, im.opts, progress, func(raw geojson.RawFeature) error {
		docs, reason := im.normalizer.Normalize(raw)
		if reason != normalize.Accepted {
			progress.Skip(reason)
			return nil
		}
		for _, doc := range docs {
			if err := writer.Add(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		err = writer.Flush(ctx)
	}
	if err == nil {
		if idxErr := im.sink.EnsureSegmentIndexes(ctx); idxErr != nil {
			logging.LogError(logger, "segment index creation failed", idxErr)
		}
	}
	return finish(logger, runID, src.Path(), progress, err)
}

func ping(ctx context.Context, fn func(context.Context) error, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		var connErr *docstore.ConnectivityError
		if errors.As(err, &connErr) {
			return err
		}
		return &docstore.ConnectivityError{Op: "ping", Err: err}
	}
	return nil
}

// consume drives handle over src in file order until the source ends, the
// feature limit is reached, or handle fails.
func consume(ctx context.Context, src FeatureSource, opts Options, progress *Progress, handle func(geojson.RawFeature) error) error {
	for raw, err := range src.Features() {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		progress.Read()
		if err := handle(raw); err != nil {
			return err
		}
		progress.Checkpoint()

		if opts.MaxFeatures > 0 && progress.ReadCount() >= opts.MaxFeatures {
			return nil
		}
	}
	return nil
}

func finish(logger *slog.Logger, runID, source string, progress *Progress, err error) (Summary, error) {
	summary := progress.Summary()
	summary.RunID = runID
	summary.Source = source
	if err != nil {
		logging.LogError(logger, "import aborted", err,
			slog.Int("read", summary.Read),
			slog.Int("written", summary.Written))
		return summary, err
	}
	LogSummary(logger, summary)
	return summary, nil
}

func describeStop(doc docstore.StopDocument) []slog.Attr {
	return []slog.Attr{slog.String("stop_id", doc.ID)}
}

func (im *RouteImporter) describeSegment(doc docstore.RouteSegmentDocument) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("geometry_type", doc.GeometryType()),
		slog.Int("points", doc.PointCount()),
	}
	if v, ok := doc.Properties[im.codeProperty]; ok {
		attrs = append(attrs, slog.Any("route_code", v))
	}
	return attrs
}

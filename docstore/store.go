package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// WriteFailure is one document the store rejected. Index refers to the batch
// passed to the write call.
type WriteFailure struct {
	Index  int
	Code   int
	Reason string
}

// WriteResult is the outcome of an unordered batch write that reached the store.
// Written counts the documents that were committed even when others failed.
type WriteResult struct {
	Attempted int
	Written   int
	Failures  []WriteFailure
}

// Reader is the read surface used by the query API.
type Reader interface {
	Ping(ctx context.Context) error
	StopsWithinBounds(ctx context.Context, bound orb.Bound, limit int) ([]StopDocument, error)
	SegmentsForRoute(ctx context.Context, code string, limit int) ([]RouteSegmentDocument, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// Store is implemented by every backend.
type Store interface {
	Reader
	EnsureStopIndexes(ctx context.Context) error
	UpsertStops(ctx context.Context, docs []StopDocument) (WriteResult, error)
	EnsureSegmentIndexes(ctx context.Context) error
	ResetSegments(ctx context.Context) error
	InsertSegments(ctx context.Context, docs []RouteSegmentDocument) (WriteResult, error)
	Close(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Driver             string
	URI                string
	Database           string
	SQLitePath         string
	StopsCollection    string
	SegmentsCollection string
	// RouteCodeProperty is the segment property that downstream lookups match on.
	RouteCodeProperty string
	ConnectTimeout    time.Duration
	SocketTimeout     time.Duration
}

// Open connects to the configured backend and verifies it answers within
// ConnectTimeout.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverMongo, "":
		return OpenMongo(ctx, cfg, logger)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

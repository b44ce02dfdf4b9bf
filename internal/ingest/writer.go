package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"haydigo.org/geoingest/docstore"
)

// maxLoggedFailures caps per-document failure lines for one batch.
const maxLoggedFailures = 20

// FlushFunc performs one unordered batch write.
type FlushFunc[T any] func(ctx context.Context, docs []T) (docstore.WriteResult, error)

// DescribeFunc returns log attributes that identify a document whose write failed.
type DescribeFunc[T any] func(doc T) []slog.Attr

// BatchWriter buffers documents and flushes them in batches of size. Flushes
// are synchronous, so a slow store slows intake instead of growing the buffer.
type BatchWriter[T any] struct {
	flush    FlushFunc[T]
	describe DescribeFunc[T]
	size     int
	timeout  time.Duration
	buf      []T
	progress *Progress
	logger   *slog.Logger
}

// NewBatchWriter creates a writer. A zero timeout leaves the write call bounded
// only by ctx.
func NewBatchWriter[T any](flush FlushFunc[T], describe DescribeFunc[T], size int, timeout time.Duration, progress *Progress, logger *slog.Logger) *BatchWriter[T] {
	if size <= 0 {
		size = 1
	}
	return &BatchWriter[T]{
		flush:    flush,
		describe: describe,
		size:     size,
		timeout:  timeout,
		buf:      make([]T, 0, size),
		progress: progress,
		logger:   logger,
	}
}

// Add buffers doc and flushes when the buffer is full.
func (w *BatchWriter[T]) Add(ctx context.Context, doc T) error {
	w.buf = append(w.buf, doc)
	if len(w.buf) >= w.size {
		return w.Flush(ctx)
	}
	return nil
}

// Pending is the number of buffered documents.
func (w *BatchWriter[T]) Pending() int { return len(w.buf) }

// Flush writes the buffered documents. Rejected documents are counted and
// logged and the run goes on; only a connectivity failure is returned.
func (w *BatchWriter[T]) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	batch := w.buf
	w.buf = make([]T, 0, w.size)

	writeCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	result, err := w.flush(writeCtx, batch)
	if err != nil {
		var connErr *docstore.ConnectivityError
		if errors.As(err, &connErr) {
			return err
		}
		return &docstore.ConnectivityError{Op: "batch write", Err: err}
	}

	w.progress.AddWritten(result.Written)
	if len(result.Failures) == 0 {
		return nil
	}

	w.progress.AddFailed(len(result.Failures))
	for i, failure := range result.Failures {
		if i == maxLoggedFailures {
			w.logger.Warn("further document failures not logged",
				slog.Int("remaining", len(result.Failures)-maxLoggedFailures))
			break
		}
		args := []any{
			slog.Int("index", failure.Index),
			slog.Int("code", failure.Code),
			slog.String("reason", failure.Reason),
		}
		if w.describe != nil && failure.Index >= 0 && failure.Index < len(batch) {
			for _, attr := range w.describe(batch[failure.Index]) {
				args = append(args, attr)
			}
		}
		w.logger.Warn("document rejected by store", args...)
	}
	w.logger.Warn("partial batch failure",
		slog.Int("attempted", result.Attempted),
		slog.Int("written", result.Written),
		slog.Int("failed", len(result.Failures)))
	return nil
}

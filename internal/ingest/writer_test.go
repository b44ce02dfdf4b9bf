package ingest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/logging"
)

// rejectingFlush records every batch and rejects documents whose value is "bad".
type rejectingFlush struct {
	batches [][]string
	err     error
}

func (f *rejectingFlush) flush(_ context.Context, docs []string) (docstore.WriteResult, error) {
	f.batches = append(f.batches, append([]string(nil), docs...))
	if f.err != nil {
		return docstore.WriteResult{Attempted: len(docs)}, f.err
	}
	result := docstore.WriteResult{Attempted: len(docs)}
	for i, d := range docs {
		if d == "bad" {
			result.Failures = append(result.Failures, docstore.WriteFailure{Index: i, Code: 121, Reason: "validation failed"})
			continue
		}
		result.Written++
	}
	return result, nil
}

func describeString(doc string) []slog.Attr {
	return []slog.Attr{slog.String("doc", doc)}
}

func newTestWriter(f *rejectingFlush, size int) (*BatchWriter[string], *Progress, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelDebug)
	progress := NewProgress(logger, 0)
	return NewBatchWriter(f.flush, describeString, size, time.Minute, progress, logger), progress, &buf
}

func TestBatchWriterPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := &rejectingFlush{}
	w, progress, logs := newTestWriter(f, 4)

	docs := []string{"a", "bad", "c", "d", "bad", "f", "g", "h", "bad", "j"}
	for _, d := range docs {
		require.NoError(t, w.Add(ctx, d))
	}
	assert.Equal(t, 2, w.Pending())
	require.NoError(t, w.Flush(ctx))
	assert.Zero(t, w.Pending())

	require.Len(t, f.batches, 3)
	assert.Equal(t, []int{4, 4, 2}, []int{len(f.batches[0]), len(f.batches[1]), len(f.batches[2])})

	summary := progress.Summary()
	assert.Equal(t, 7, summary.Written)
	assert.Equal(t, 3, summary.Failed)

	out := logs.String()
	assert.Equal(t, 3, strings.Count(out, `"msg":"document rejected by store"`))
	assert.Equal(t, 3, strings.Count(out, `"msg":"partial batch failure"`))
	assert.Contains(t, out, `"doc":"bad"`)
	assert.Contains(t, out, `"reason":"validation failed"`)
}

func TestBatchWriterFlushEmptyIsNoop(t *testing.T) {
	f := &rejectingFlush{}
	w, _, _ := newTestWriter(f, 4)
	require.NoError(t, w.Flush(context.Background()))
	assert.Empty(t, f.batches)
}

func TestBatchWriterCapsFailureLogging(t *testing.T) {
	ctx := context.Background()
	f := &rejectingFlush{}
	w, progress, logs := newTestWriter(f, 100)

	for range maxLoggedFailures + 5 {
		require.NoError(t, w.Add(ctx, "bad"))
	}
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, maxLoggedFailures+5, progress.Summary().Failed)
	out := logs.String()
	assert.Equal(t, maxLoggedFailures, strings.Count(out, `"msg":"document rejected by store"`))
	assert.Contains(t, out, `"msg":"further document failures not logged"`)
	assert.Contains(t, out, `"remaining":5`)
}

func TestBatchWriterConnectivityFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("plain errors are wrapped", func(t *testing.T) {
		f := &rejectingFlush{err: errors.New("connection reset by peer")}
		w, progress, _ := newTestWriter(f, 2)

		require.NoError(t, w.Add(ctx, "a"))
		err := w.Add(ctx, "b")
		require.Error(t, err)
		assert.ErrorIs(t, err, docstore.ErrConnectivity)

		var connErr *docstore.ConnectivityError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, "batch write", connErr.Op)
		assert.Zero(t, progress.Summary().Written)
	})

	t.Run("connectivity errors pass through", func(t *testing.T) {
		inner := &docstore.ConnectivityError{Op: "upsert stops", Err: context.DeadlineExceeded}
		f := &rejectingFlush{err: inner}
		w, _, _ := newTestWriter(f, 1)

		err := w.Add(ctx, "a")
		assert.Same(t, inner, err)
	})
}

func TestBatchWriterAppliesTimeout(t *testing.T) {
	progress := NewProgress(nil, 0)
	var deadline time.Time
	flush := func(ctx context.Context, docs []int) (docstore.WriteResult, error) {
		deadline, _ = ctx.Deadline()
		return docstore.WriteResult{Attempted: len(docs), Written: len(docs)}, nil
	}

	w := NewBatchWriter(flush, nil, 0, time.Minute, progress, nil)
	require.NoError(t, w.Add(context.Background(), 1))
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	assert.Equal(t, 1, progress.Summary().Written)
}

package ingest

import (
	"log/slog"
	"sort"
	"time"

	"haydigo.org/geoingest/internal/logging"
	"haydigo.org/geoingest/internal/normalize"
)

// Summary is the outcome of one import run.
type Summary struct {
	RunID       string
	Source      string
	Read        int
	Written     int
	Skipped     int
	Failed      int
	SkipReasons map[normalize.SkipReason]int
	Elapsed     time.Duration
}

// Progress counts records through a run and logs a line every `every` records
// read. It never affects control flow. It is not safe for concurrent use.
type Progress struct {
	logger  *slog.Logger
	every   int
	started time.Time
	now     func() time.Time

	read    int
	written int
	failed  int
	skipped map[normalize.SkipReason]int
}

func NewProgress(logger *slog.Logger, every int) *Progress {
	return &Progress{
		logger:  logger,
		every:   every,
		started: time.Now(),
		now:     time.Now,
		skipped: make(map[normalize.SkipReason]int),
	}
}

func (p *Progress) Read() { p.read++ }

func (p *Progress) Skip(reason normalize.SkipReason) { p.skipped[reason]++ }

func (p *Progress) AddWritten(n int) { p.written += n }

func (p *Progress) AddFailed(n int) { p.failed += n }

func (p *Progress) ReadCount() int { return p.read }

func (p *Progress) SkippedCount() int {
	total := 0
	for _, n := range p.skipped {
		total += n
	}
	return total
}

// Checkpoint logs the counters when the read count reaches the next interval.
func (p *Progress) Checkpoint() {
	if p.every <= 0 || p.read == 0 || p.read%p.every != 0 {
		return
	}
	logging.LogOperation(p.logger, "progress",
		slog.Int("read", p.read),
		slog.Int("written", p.written),
		slog.Int("skipped", p.SkippedCount()),
		slog.Int("failed", p.failed),
		slog.Duration("elapsed", p.now().Sub(p.started)))
}

// Summary snapshots the counters.
func (p *Progress) Summary() Summary {
	reasons := make(map[normalize.SkipReason]int, len(p.skipped))
	for k, v := range p.skipped {
		reasons[k] = v
	}
	return Summary{
		Read:        p.read,
		Written:     p.written,
		Skipped:     p.SkippedCount(),
		Failed:      p.failed,
		SkipReasons: reasons,
		Elapsed:     p.now().Sub(p.started),
	}
}

// LogSummary writes the end-of-run line.
func LogSummary(logger *slog.Logger, s Summary) {
	reasons := make([]string, 0, len(s.SkipReasons))
	for reason := range s.SkipReasons {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	attrs := make([]any, 0, len(reasons))
	for _, reason := range reasons {
		attrs = append(attrs, slog.Int(reason, s.SkipReasons[normalize.SkipReason(reason)]))
	}

	logging.LogOperation(logger, "import_complete",
		slog.String("source", s.Source),
		slog.Int("read", s.Read),
		slog.Int("written", s.Written),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.Group("skip_reasons", attrs...),
		slog.Duration("elapsed", s.Elapsed))
}

package sheet

import (
	"context"
	"log/slog"
	"time"

	"ays/internal/adapters/http/perf"
	domain "ays/internal/domain/sheet"
)

// DefaultSlowStoreMs is the default threshold for slow store warnings.
const DefaultSlowStoreMs = 300

// TimedStore wraps a Store to log slow calls and optionally record to a collector.
type TimedStore struct {
	next      Store
	collector *perf.Collector
	threshold float64
}

// Compile-time check that *TimedStore satisfies Store.
var _ Store = (*TimedStore)(nil)

// NewTimedStore wraps next with timing instrumentation.
// PRE: next is non-nil; slowMs <= 0 selects DefaultSlowStoreMs
// POST: Returns a TimedStore that logs slow calls and records to collector
func NewTimedStore(next Store, collector *perf.Collector, slowMs int) *TimedStore {
	if slowMs <= 0 {
		slowMs = DefaultSlowStoreMs
	}
	return &TimedStore{next: next, collector: collector, threshold: float64(slowMs)}
}

func (t *TimedStore) observe(op string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	// Failures are reported once, by the caller that handles them.
	switch {
	case err != nil:
		slog.Debug("store_call_failed", "op", op, "duration_ms", durationMs, "error", err)
	case durationMs >= t.threshold:
		slog.Warn("slow_store_call", "op", op, "duration_ms", durationMs)
	default:
		slog.Debug("store_call", "op", op, "duration_ms", durationMs)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindStore,
			Name:       "sheet." + op,
			Failed:     err != nil,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// ColumnValues wraps Store.ColumnValues with timing.
func (t *TimedStore) ColumnValues(ctx context.Context, col int) ([]string, error) {
	start := time.Now()
	values, err := t.next.ColumnValues(ctx, col)
	t.observe("ColumnValues", start, err)
	return values, err
}

// AllValues wraps Store.AllValues with timing.
func (t *TimedStore) AllValues(ctx context.Context) ([][]string, error) {
	start := time.Now()
	values, err := t.next.AllValues(ctx)
	t.observe("AllValues", start, err)
	return values, err
}

// AllRecords wraps Store.AllRecords with timing.
func (t *TimedStore) AllRecords(ctx context.Context) (domain.Table, error) {
	start := time.Now()
	tbl, err := t.next.AllRecords(ctx)
	t.observe("AllRecords", start, err)
	return tbl, err
}

// AppendRow wraps Store.AppendRow with timing.
func (t *TimedStore) AppendRow(ctx context.Context, row []string) error {
	start := time.Now()
	err := t.next.AppendRow(ctx, row)
	t.observe("AppendRow", start, err)
	return err
}

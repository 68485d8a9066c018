package perf

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// Kind tells an HTTP request apart from a spreadsheet store call.
type Kind uint8

const (
	KindRequest Kind = iota
	KindStore
)

// Entry is one timed operation.
type Entry struct {
	Kind       Kind
	Name       string // "GET /reports" or "sheet.AllRecords"
	StatusCode int    // HTTP status; 0 for store calls
	Failed     bool   // store call returned an error, or request status >= 500
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent entries in a fixed ring.
// Recording never blocks on aggregation; Snapshot does the work on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   int64
}

// NewCollector creates a collector holding up to size entries.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: Returns an empty collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry once the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.total++
	c.mu.Unlock()
}

// TotalRecorded returns how many entries were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Stat aggregates the entries sharing one name.
type Stat struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	totalMs  float64
}

// Snapshot is the aggregated view served to the operator.
type Snapshot struct {
	Since          time.Time `json:"since"`
	TotalRecorded  int64     `json:"total_recorded"`
	RequestP50Ms   float64   `json:"request_p50_ms"`
	RequestP95Ms   float64   `json:"request_p95_ms"`
	RequestP99Ms   float64   `json:"request_p99_ms"`
	StoreFailures  int       `json:"store_failures"`
	SlowestRoutes  []Stat    `json:"slowest_routes"`
	SlowestStoreOp []Stat    `json:"slowest_store_ops"`
}

// Snapshot aggregates entries newer than since, keeping the topN slowest per kind.
// PRE: topN > 0
// POST: Percentiles cover requests only; store stats are grouped by operation name
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	total := c.total
	c.mu.Unlock()

	var durations []float64
	routes := map[string]*Stat{}
	ops := map[string]*Stat{}
	snap := Snapshot{Since: since, TotalRecorded: total}

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		group := routes
		if e.Kind == KindStore {
			group = ops
			if e.Failed {
				snap.StoreFailures++
			}
		} else {
			durations = append(durations, e.DurationMs)
		}
		s, ok := group[e.Name]
		if !ok {
			s = &Stat{Name: e.Name}
			group[e.Name] = s
		}
		s.Count++
		s.totalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.Failed {
			s.Failures++
		}
	}

	snap.SlowestRoutes = slowest(routes, topN)
	snap.SlowestStoreOp = slowest(ops, topN)

	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func slowest(stats map[string]*Stat, n int) []Stat {
	out := make([]Stat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.totalMs / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMs == out[j].AvgMs {
			return out[i].Name < out[j].Name
		}
		return out[i].AvgMs > out[j].AvgMs
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

package observability

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram tracks the distribution of duration measurements.
// Safe for concurrent observations.
type Histogram struct {
	mu     sync.RWMutex
	values []float64 // microseconds
}

// NewHistogram creates a new histogram.
func NewHistogram() *Histogram {
	return &Histogram{values: make([]float64, 0, 256)}
}

// Observe records a duration measurement.
func (h *Histogram) Observe(d time.Duration) {
	micros := float64(d.Microseconds())
	h.mu.Lock()
	h.values = append(h.values, micros)
	h.mu.Unlock()
}

// Snapshot returns a point-in-time summary with percentiles calculated.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.RLock()
	sorted := make([]float64, len(h.values))
	copy(sorted, h.values)
	h.mu.RUnlock()

	if len(sorted) == 0 {
		return HistogramSnapshot{}
	}
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	micros := func(v float64) time.Duration { return time.Duration(v) * time.Microsecond }

	return HistogramSnapshot{
		Count: len(sorted),
		Total: micros(sum),
		Mean:  micros(sum / float64(len(sorted))),
		P50:   micros(percentile(sorted, 0.50)),
		P95:   micros(percentile(sorted, 0.95)),
		Max:   micros(sorted[len(sorted)-1]),
	}
}

// HistogramSnapshot holds calculated statistics for a histogram.
type HistogramSnapshot struct {
	Count int           `json:"count"`
	Total time.Duration `json:"total"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	Max   time.Duration `json:"max"`
}

// percentile interpolates the p-th percentile of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds delta to the counter.
func (c *Counter) Add(delta int64) { c.value.Add(delta) }

// Get returns the current value.
func (c *Counter) Get() int64 { return c.value.Load() }

// Gauge holds the latest value set.
type Gauge struct {
	bits atomic.Uint64
}

// Set stores v.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// SetMax stores v when it exceeds the current value.
func (g *Gauge) SetMax(v float64) {
	for {
		old := g.bits.Load()
		if v <= math.Float64frombits(old) {
			return
		}
		if g.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}

// Get returns the stored value.
func (g *Gauge) Get() float64 { return math.Float64frombits(g.bits.Load()) }

// Vec is a set of metrics keyed by a label value, created on first use.
type Vec[M any] struct {
	mu      sync.RWMutex
	metrics map[string]*M
	create  func() *M
}

func newVec[M any](create func() *M) *Vec[M] {
	return &Vec[M]{metrics: make(map[string]*M), create: create}
}

// NewHistogramVec creates a histogram vector.
func NewHistogramVec() *Vec[Histogram] { return newVec(NewHistogram) }

// NewCounterVec creates a counter vector.
func NewCounterVec() *Vec[Counter] { return newVec(func() *Counter { return &Counter{} }) }

// WithLabel returns the metric for label, creating it if needed.
func (v *Vec[M]) WithLabel(label string) *M {
	v.mu.RLock()
	m, ok := v.metrics[label]
	v.mu.RUnlock()
	if ok {
		return m
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if m, ok := v.metrics[label]; ok {
		return m
	}
	m = v.create()
	v.metrics[label] = m
	return m
}

// Labels returns the known labels in sorted order.
func (v *Vec[M]) Labels() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	labels := make([]string, 0, len(v.metrics))
	for l := range v.metrics {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func histograms(v *Vec[Histogram]) map[string]HistogramSnapshot {
	out := make(map[string]HistogramSnapshot)
	for _, l := range v.Labels() {
		out[l] = v.WithLabel(l).Snapshot()
	}
	return out
}

func counters(v *Vec[Counter]) map[string]int64 {
	out := make(map[string]int64)
	for _, l := range v.Labels() {
		out[l] = v.WithLabel(l).Get()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

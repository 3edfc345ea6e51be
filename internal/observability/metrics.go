// Package observability collects in-process solver metrics and exposes them
// over HTTP.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/pricing"
)

// Metrics holds the metrics of every solve run by the process. It
// implements search.Recorder.
type Metrics struct {
	// Search metrics
	nodeDuration  *Vec[Histogram] // by outcome
	maxDepth      *Gauge
	frontierSize  *Gauge
	incumbent     *Gauge
	incumbentHits *Counter

	// Master and pricing metrics
	masterDuration  *Vec[Histogram] // by mode
	pricingDuration *Vec[Histogram] // by source, "none" when nothing improved
	columns         *Vec[Counter]   // by source

	// Service layer metrics
	solveDuration *Histogram
	solves        *Vec[Counter] // by status
	persistTime   *Histogram
}

// NewMetrics creates a Metrics instance with all metrics initialized.
func NewMetrics() *Metrics {
	m := &Metrics{
		nodeDuration:    NewHistogramVec(),
		maxDepth:        &Gauge{},
		frontierSize:    &Gauge{},
		incumbent:       &Gauge{},
		incumbentHits:   &Counter{},
		masterDuration:  NewHistogramVec(),
		pricingDuration: NewHistogramVec(),
		columns:         NewCounterVec(),
		solveDuration:   NewHistogram(),
		solves:          NewCounterVec(),
		persistTime:     NewHistogram(),
	}
	m.incumbent.Set(math.Inf(1))
	return m
}

// NodeProcessed records a node's outcome and processing time.
func (m *Metrics) NodeProcessed(outcome domain.NodeOutcome, depth int, elapsed time.Duration) {
	m.nodeDuration.WithLabel(outcome.String()).Observe(elapsed)
	m.maxDepth.SetMax(float64(depth))
}

// MasterSolved records a master LP or IP solve.
func (m *Metrics) MasterSolved(mode string, elapsed time.Duration) {
	m.masterDuration.WithLabel(mode).Observe(elapsed)
}

// Priced records a pricing round.
func (m *Metrics) Priced(source pricing.Source, elapsed time.Duration) {
	label := string(source)
	if label == "" {
		label = "none"
	} else {
		m.columns.WithLabel(label).Inc()
	}
	m.pricingDuration.WithLabel(label).Observe(elapsed)
}

// FrontierSize records the number of pending nodes.
func (m *Metrics) FrontierSize(n int) {
	m.frontierSize.Set(float64(n))
}

// IncumbentImproved records a new incumbent value.
func (m *Metrics) IncumbentImproved(value float64) {
	m.incumbent.Set(value)
	m.incumbentHits.Inc()
}

// SolveFinished records a completed solve request.
func (m *Metrics) SolveFinished(status string, elapsed time.Duration) {
	m.solves.WithLabel(status).Inc()
	m.solveDuration.Observe(elapsed)
}

// RunPersisted records the time spent writing run history.
func (m *Metrics) RunPersisted(elapsed time.Duration) {
	m.persistTime.Observe(elapsed)
}

// Snapshot returns a snapshot of all metrics for reporting.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	s := &MetricsSnapshot{
		NodeDuration:     histograms(m.nodeDuration),
		MaxNodeDepth:     int(m.maxDepth.Get()),
		FrontierSize:     int(m.frontierSize.Get()),
		IncumbentUpdates: m.incumbentHits.Get(),
		MasterDuration:   histograms(m.masterDuration),
		PricingDuration:  histograms(m.pricingDuration),
		Columns:          counters(m.columns),
		SolveDuration:    m.solveDuration.Snapshot(),
		Solves:           counters(m.solves),
		PersistDuration:  m.persistTime.Snapshot(),
	}
	if v := m.incumbent.Get(); !math.IsInf(v, 1) {
		s.Incumbent = &v
	}
	return s
}

// MetricsSnapshot holds a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	// Search metrics
	NodeDuration     map[string]HistogramSnapshot `json:"node_duration"`
	MaxNodeDepth     int                          `json:"max_node_depth"`
	FrontierSize     int                          `json:"frontier_size"`
	Incumbent        *float64                     `json:"incumbent,omitempty"`
	IncumbentUpdates int64                        `json:"incumbent_updates"`

	// Master and pricing metrics
	MasterDuration  map[string]HistogramSnapshot `json:"master_duration"`
	PricingDuration map[string]HistogramSnapshot `json:"pricing_duration"`
	Columns         map[string]int64             `json:"columns"`

	// Service layer metrics
	SolveDuration   HistogramSnapshot `json:"solve_duration"`
	Solves          map[string]int64  `json:"solves"`
	PersistDuration HistogramSnapshot `json:"persist_duration"`
}

// ServeHTTP implements http.Handler for metrics exposition.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := m.Snapshot()

	if r.URL.Query().Get("format") == "json" || r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(snapshot)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "# tp3s solver metrics\n\n")

	fmt.Fprintf(w, "## Search\n\n")
	writeHistogramVec(w, "Node duration by outcome", snapshot.NodeDuration)
	fmt.Fprintf(w, "Max node depth: %d\n", snapshot.MaxNodeDepth)
	fmt.Fprintf(w, "Frontier size: %d\n", snapshot.FrontierSize)
	if snapshot.Incumbent != nil {
		fmt.Fprintf(w, "Incumbent: %g (%d updates)\n\n", *snapshot.Incumbent, snapshot.IncumbentUpdates)
	} else {
		fmt.Fprintf(w, "Incumbent: none\n\n")
	}

	fmt.Fprintf(w, "## Master and pricing\n\n")
	writeHistogramVec(w, "Master solve duration by mode", snapshot.MasterDuration)
	writeHistogramVec(w, "Pricing duration by source", snapshot.PricingDuration)
	writeCounterVec(w, "Columns by source", snapshot.Columns)

	fmt.Fprintf(w, "## Service\n\n")
	writeHistogramSummary(w, "Solve duration", snapshot.SolveDuration)
	writeCounterVec(w, "Solves by status", snapshot.Solves)
	writeHistogramSummary(w, "Run persistence", snapshot.PersistDuration)
}

func writeHistogramVec(w io.Writer, title string, hv map[string]HistogramSnapshot) {
	if len(hv) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, label := range sortedKeys(hv) {
		h := hv[label]
		fmt.Fprintf(w, "  %s: count %d, mean %v, p50 %v, p95 %v, max %v\n",
			label, h.Count, h.Mean, h.P50, h.P95, h.Max)
	}
	fmt.Fprintln(w)
}

func writeCounterVec(w io.Writer, title string, cv map[string]int64) {
	if len(cv) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, label := range sortedKeys(cv) {
		fmt.Fprintf(w, "  %s: %d\n", label, cv[label])
	}
	fmt.Fprintln(w)
}

func writeHistogramSummary(w io.Writer, name string, h HistogramSnapshot) {
	if h.Count == 0 {
		fmt.Fprintf(w, "%s: no data\n", name)
		return
	}
	fmt.Fprintf(w, "%s (n=%d): mean %v, p50 %v, p95 %v, max %v\n",
		name, h.Count, h.Mean, h.P50, h.P95, h.Max)
}

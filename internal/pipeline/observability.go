package pipeline

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// now is swapped in tests.
var now = time.Now

// MetricsRecorder observes per-stage outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer produces spans around pipeline stages.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan ends a traced stage.
type TraceSpan interface {
	End(err error)
}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing and result counters via
// expvar, for deployments that prefer process-local metrics without external
// dependencies. Totals are milliseconds per operation plus success/error
// counters.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
}

// ExpvarMetricsSnapshot is a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs a recorder published under name. An
// empty name gets a unique generated one.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("pipeline_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}
	results := make(map[string]map[string]int64, len(r.results))
	for op, counts := range r.results {
		cpy := make(map[string]int64, len(counts))
		for status, n := range counts {
			cpy[status] = n
		}
		results[op] = cpy
	}
	return ExpvarMetricsSnapshot{DurationsMS: durations, Results: results, RecordedAt: time.Now().UTC()}
}

// Observe records one stage outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.mu.Lock()
	r.durations[operation] += float64(duration) / float64(time.Millisecond)
	if _, ok := r.results[operation]; !ok {
		r.results[operation] = make(map[string]int64, 2)
	}
	r.results[operation][status]++
	r.mu.Unlock()
}

// PrometheusMetricsRecorder exports stage durations and outcome counters to a
// Prometheus registry.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the pipeline collectors with reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dwcarchive",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
	}, []string{"operation"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dwcarchive",
		Name:      "stage_results_total",
		Help:      "Pipeline stage outcomes by status.",
	}, []string{"operation", "status"})
	for _, c := range []prometheus.Collector{durations, results} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return &PrometheusMetricsRecorder{durations: durations, results: results}, nil
}

// Observe records one stage outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// JSONTraceEntry is a serialized span emitted by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer serializes spans to a writer and retains them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer writes spans as JSON lines to w; a nil writer only retains.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &JSONTraceTracer{enc: enc}
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	status := "success"
	var errMsg string
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     status,
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		Error:      errMsg,
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}

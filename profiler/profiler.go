// Package profiler keeps rolling per-stage timings and custom metrics for a
// running pipeline and periodically reports them through slog.
package profiler

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Stage names recorded by the pipeline.
const (
	StageGate      = "gate"
	StageSegment   = "segment"
	StageComposite = "composite"
	StageTick      = "tick"
)

// MetricsCollector defines the interface for collecting custom metrics.
type MetricsCollector interface {
	CollectMetrics() map[string]float64
}

// RuntimeProfiler tracks stage timings and custom metrics over a bounded
// window of samples.
//
// All methods are safe for concurrent use. Start launches a background report
// loop; without it the profiler is a passive collector queried via Stage,
// Metric and Snapshot.
type RuntimeProfiler struct {
	reportInterval time.Duration
	maxSamples     int
	logger         *slog.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	start   time.Time
	running bool

	lastGCCount uint32

	metrics    map[string]*MetricTracker
	collectors []MetricsCollector
	stages     map[string]*TimeTracker
}

// MetricTracker tracks a rolling window of values for a custom metric.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks a rolling window of durations for a stage.
type TimeTracker struct {
	durations []time.Duration
	total     time.Duration
	min       time.Duration
	max       time.Duration
	count     int64
}

// StageStats is a point-in-time summary of a stage.
type StageStats struct {
	Name  string
	Count int64 // Lifetime observations
	Avg   time.Duration
	Min   time.Duration
	Max   time.Duration
}

// MetricStats is a point-in-time summary of a custom metric.
type MetricStats struct {
	Name  string
	Count int64
	Avg   float64
	Min   float64
	Max   float64
}

// Snapshot is a point-in-time summary of everything the profiler holds.
type Snapshot struct {
	Uptime     time.Duration
	Goroutines int
	HeapAlloc  uint64
	Stages     []StageStats
	Metrics    []MetricStats
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to emit status reports (default: 5s)
	ReportInterval time.Duration
	// MaxSamples specifies the rolling window size per stage and metric (default: 600)
	MaxSamples int
	// Logger receives the periodic reports (default: slog.Default())
	Logger *slog.Logger
}

// NewRuntimeProfiler creates a new runtime profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured RuntimeProfiler instance
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		logger:         opts.Logger,
		start:          time.Now(),
		metrics:        make(map[string]*MetricTracker),
		stages:         make(map[string]*TimeTracker),
	}
}

// Start begins periodic reporting. It is a no-op while already running and
// may be called again after Stop.
func (rp *RuntimeProfiler) Start() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}
	rp.running = true
	ctx, cancel := context.WithCancel(context.Background())
	rp.cancel = cancel

	rp.wg.Add(1)
	go func() {
		defer rp.wg.Done()

		ticker := time.NewTicker(rp.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rp.collect()
				rp.Report()
			}
		}
	}()
}

// Stop halts periodic reporting and waits for the report loop to exit.
func (rp *RuntimeProfiler) Stop() {
	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	cancel := rp.cancel
	rp.mu.Unlock()

	cancel()
	rp.wg.Wait()
}

// AddMetricsCollector registers a collector polled before every report.
func (rp *RuntimeProfiler) AddMetricsCollector(collector MetricsCollector) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.collectors = append(rp.collectors, collector)
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.recordMetricLocked(name, value)
}

func (rp *RuntimeProfiler) recordMetricLocked(name string, value float64) {
	tracker, exists := rp.metrics[name]
	if !exists {
		tracker = &MetricTracker{min: value, max: value}
		rp.metrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	tracker.sum += value
	if len(tracker.values) > rp.maxSamples {
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.count++
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

// StartOperation begins timing a stage.
//
// Returns:
// - A function to call when the stage completes
//
// @example
// done := rp.StartOperation(profiler.StageGate)
// avg, _, err := det.Update(frame)
// done()
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		rp.ObserveStage(name, time.Since(start))
	}
}

// ObserveStage records one completed run of a stage.
func (rp *RuntimeProfiler) ObserveStage(name string, d time.Duration) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker, exists := rp.stages[name]
	if !exists {
		tracker = &TimeTracker{min: d, max: d}
		rp.stages[name] = tracker
	}

	tracker.durations = append(tracker.durations, d)
	tracker.total += d
	if len(tracker.durations) > rp.maxSamples {
		tracker.total -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++
	tracker.min = min(tracker.min, d)
	tracker.max = max(tracker.max, d)
}

// Stage returns the summary for a stage and whether it has been observed.
func (rp *RuntimeProfiler) Stage(name string) (StageStats, bool) {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	tracker, ok := rp.stages[name]
	if !ok {
		return StageStats{}, false
	}
	return tracker.stats(name), true
}

// Metric returns the summary for a custom metric and whether it exists.
func (rp *RuntimeProfiler) Metric(name string) (MetricStats, bool) {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	tracker, ok := rp.metrics[name]
	if !ok {
		return MetricStats{}, false
	}
	return tracker.stats(name), true
}

func (t *TimeTracker) stats(name string) StageStats {
	s := StageStats{Name: name, Count: t.count, Min: t.min, Max: t.max}
	if n := len(t.durations); n > 0 {
		s.Avg = t.total / time.Duration(n)
	}
	return s
}

func (t *MetricTracker) stats(name string) MetricStats {
	s := MetricStats{Name: name, Count: t.count, Min: t.min, Max: t.max}
	if n := len(t.values); n > 0 {
		s.Avg = t.sum / float64(n)
	}
	return s
}

// collect polls the registered collectors.
func (rp *RuntimeProfiler) collect() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	for _, collector := range rp.collectors {
		for name, value := range collector.CollectMetrics() {
			rp.recordMetricLocked(name, value)
		}
	}
}

// Snapshot returns the current statistics sorted by name.
func (rp *RuntimeProfiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	rp.mu.RLock()
	defer rp.mu.RUnlock()

	snap := Snapshot{
		Uptime:     time.Since(rp.start),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Stages:     make([]StageStats, 0, len(rp.stages)),
		Metrics:    make([]MetricStats, 0, len(rp.metrics)),
	}
	for name, tracker := range rp.stages {
		snap.Stages = append(snap.Stages, tracker.stats(name))
	}
	for name, tracker := range rp.metrics {
		snap.Metrics = append(snap.Metrics, tracker.stats(name))
	}
	sort.Slice(snap.Stages, func(i, j int) bool { return snap.Stages[i].Name < snap.Stages[j].Name })
	sort.Slice(snap.Metrics, func(i, j int) bool { return snap.Metrics[i].Name < snap.Metrics[j].Name })
	return snap
}

// Report logs the current snapshot: one record for the process and one per
// stage and metric.
func (rp *RuntimeProfiler) Report() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snap := rp.Snapshot()

	attrs := []any{
		"uptime", snap.Uptime.Truncate(time.Millisecond),
		"goroutines", snap.Goroutines,
		"heap_alloc", mem.HeapAlloc,
		"heap_objects", mem.HeapObjects,
	}

	rp.mu.Lock()
	if mem.NumGC > rp.lastGCCount {
		attrs = append(attrs, "gc_cycles", mem.NumGC, "gc_new", mem.NumGC-rp.lastGCCount)
		rp.lastGCCount = mem.NumGC
	}
	rp.mu.Unlock()

	rp.logger.Info("profiler report", attrs...)

	for _, s := range snap.Stages {
		rp.logger.Info("stage timing",
			"stage", s.Name,
			"avg", s.Avg.Truncate(time.Microsecond),
			"min", s.Min.Truncate(time.Microsecond),
			"max", s.Max.Truncate(time.Microsecond),
			"count", s.Count,
		)
	}
	for _, m := range snap.Metrics {
		rp.logger.Info("metric",
			"metric", m.Name,
			"avg", m.Avg,
			"min", m.Min,
			"max", m.Max,
			"count", m.Count,
		)
	}
}

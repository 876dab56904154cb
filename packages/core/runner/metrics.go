package runner

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latency values are recorded in microseconds between 1us and 60s.
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics aggregates request latencies across a run.
type Metrics struct {
	mu        sync.Mutex
	all       *stepMetrics
	steps     map[string]*stepMetrics
	order     []string
	startTime time.Time
	endTime   time.Time
}

type stepMetrics struct {
	total     int64
	failed    int64
	histogram *hdrhistogram.Histogram
}

func newStepMetrics() *stepMetrics {
	return &stepMetrics{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)}
}

func (s *stepMetrics) record(d time.Duration, failed bool) {
	s.total++
	if failed {
		s.failed++
	}
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = s.histogram.RecordValue(us)
}

func (s *stepMetrics) summary(name string) *LatencySummary {
	h := s.histogram
	return &LatencySummary{
		Name:   name,
		Total:  s.total,
		Failed: s.failed,
		Min:    time.Duration(h.Min()) * time.Microsecond,
		Max:    time.Duration(h.Max()) * time.Microsecond,
		Mean:   time.Duration(h.Mean()) * time.Microsecond,
		P50:    time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P95:    time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}

func NewMetrics() *Metrics {
	return &Metrics{
		all:   newStepMetrics(),
		steps: make(map[string]*stepMetrics),
	}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

// Record adds one request's latency under the step name.
func (m *Metrics) Record(name string, d time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.all.record(d, failed)
	if name == "" {
		return
	}
	s, ok := m.steps[name]
	if !ok {
		s = newStepMetrics()
		m.steps[name] = s
		m.order = append(m.order, name)
	}
	s.record(d, failed)
}

// LatencySummary holds counts and latency percentiles.
type LatencySummary struct {
	Name   string        `json:"name,omitempty"`
	Total  int64         `json:"total"`
	Failed int64         `json:"failed"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	P50    time.Duration `json:"p50"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
}

// Summary is the aggregate view of a run.
type Summary struct {
	Duration time.Duration     `json:"duration"`
	RPS      float64           `json:"rps"`
	Overall  *LatencySummary   `json:"overall"`
	Steps    []*LatencySummary `json:"steps,omitempty"`
}

// Summary returns the collected metrics. Steps are listed in the order they
// were first recorded, or by name when sorted is true.
func (m *Metrics) Summary(sorted bool) *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.endTime
	if end.IsZero() {
		end = time.Now()
	}
	duration := end.Sub(m.startTime)
	if m.startTime.IsZero() {
		duration = 0
	}

	out := &Summary{Duration: duration, Overall: m.all.summary("")}
	if duration > 0 {
		out.RPS = float64(m.all.total) / duration.Seconds()
	}

	names := append([]string(nil), m.order...)
	if sorted {
		sort.Strings(names)
	}
	for _, name := range names {
		out.Steps = append(out.Steps, m.steps[name].summary(name))
	}
	return out
}

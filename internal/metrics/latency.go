package metrics

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	d  time.Duration
}

// LatencySnapshot aggregates the samples inside the window, in milliseconds.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Latency keeps recent range extraction durations within a rolling window
// for the stats endpoint; histograms cover the long-term view.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewLatency(window time.Duration) *Latency {
	if window <= 0 {
		window = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		window:  window,
	}
}

func (l *Latency) Record(d time.Duration) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	l.samples = append(l.samples, sample{at: now, d: d})
}

func (l *Latency) Snapshot() LatencySnapshot {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	if len(l.samples) == 0 {
		return LatencySnapshot{}
	}

	ms := make([]float64, 0, len(l.samples))
	var sum float64
	for _, s := range l.samples {
		v := float64(s.d) / float64(time.Millisecond)
		ms = append(ms, v)
		sum += v
	}
	slices.Sort(ms)

	return LatencySnapshot{
		Count: len(ms),
		MinMs: ms[0],
		MaxMs: ms[len(ms)-1],
		AvgMs: sum / float64(len(ms)),
		P50Ms: percentile(ms, 50),
		P95Ms: percentile(ms, 95),
		P99Ms: percentile(ms, 99),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := l.samples[:0]
	for _, s := range l.samples {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	l.samples = keep
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []float64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return sorted[0]
	case pct >= 100:
		return sorted[len(sorted)-1]
	}
	idx := float64(len(sorted)-1) * pct / 100
	lo := int(idx)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	w := idx - float64(lo)
	return sorted[lo] + float64((sorted[lo+1]-sorted[lo])*w)
}

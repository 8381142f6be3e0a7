package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLatencySnapshotPercentiles(t *testing.T) {
	l := NewLatency(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		l.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := l.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestLatencyPrunesExpiredSamples(t *testing.T) {
	l := NewLatency(10 * time.Millisecond)
	l.Record(time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := l.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	l.Record(2 * time.Millisecond)
	if snap := l.Snapshot(); snap.Count != 1 || snap.MinMs != 2 {
		t.Fatalf("expected one 2ms sample, got %+v", snap)
	}
}

func TestLatencyClampsNegativeDuration(t *testing.T) {
	l := NewLatency(time.Hour)
	l.Record(-time.Second)
	if snap := l.Snapshot(); snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped sample, got %+v", snap)
	}
}

func TestRecordRangeAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordRange("ok", 3*time.Millisecond)
	m.RecordRange("failed", time.Millisecond)
	m.RecordMedia(2, 1024)

	if got := testutil.ToFloat64(m.RangesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok range, got %v", got)
	}
	if got := testutil.ToFloat64(m.MediaBytesRelocated); got != 1024 {
		t.Errorf("expected 1024 bytes, got %v", got)
	}
	if snap := m.RangeLatency.Snapshot(); snap.Count != 2 {
		t.Errorf("expected 2 latency samples, got %d", snap.Count)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `docrange_ranges_total{status="failed"} 1`) {
		t.Errorf("expected failed counter in exposition, got:\n%s", body)
	}
}

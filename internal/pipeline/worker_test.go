package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docrange/internal/comments"
	"github.com/dgallion1/docrange/internal/config"
	"github.com/dgallion1/docrange/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const templateHTML = `<body>
<!-- range:start A -->
<p>alpha</p>
<!-- range:start inner --><p>nested</p><!-- range:end inner -->
<!-- range:end A -->
<!-- range:start broken -->
<p>no end</p>
</body>`

func testWorker(t *testing.T, cfg WorkerConfig) (*Worker, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(log, m, cfg), m
}

func TestWorker_PartialOnFailingRange(t *testing.T) {
	w, m := testWorker(t, WorkerConfig{MaxConcurrentRanges: 2, RangeTimeout: time.Second})
	job := NewJob("tpl.html", []byte(templateHTML), []string{"A", "broken", "A"})
	job.Comments = []comments.Record{
		{ID: "A", Author: "ann", Text: "outer"},
		{ID: "inner", Author: "bob", Text: "nested", ParentID: "A"},
	}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusPartial, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalRanges != 2 {
		t.Errorf("expected duplicate range ids to collapse to 2, got %d", snap.Progress.TotalRanges)
	}
	if snap.Progress.RangesFailed != 1 {
		t.Errorf("expected 1 failed range, got %d", snap.Progress.RangesFailed)
	}
	if snap.ContentHash != ContentHashHex([]byte(templateHTML)) {
		t.Errorf("expected content hash of upload, got %q", snap.ContentHash)
	}

	r, ok := job.Result("A")
	if !ok || r.Err != nil {
		t.Fatalf("expected A to succeed, got %v", r)
	}
	if n := len(r.Sub.Blocks()); n != 4 {
		t.Errorf("expected 4 blocks in A, got %d", n)
	}
	if len(r.Sub.Comments) != 1 || r.Sub.Comments[0].ID != "inner" {
		t.Errorf("expected nested comment inner, got %+v", r.Sub.Comments)
	}
	if job.FileData() != nil {
		t.Error("expected upload to be released after parsing")
	}

	if got := testutil.ToFloat64(m.RangesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok range metric, got %v", got)
	}
	if got := testutil.ToFloat64(m.JobsTotal.WithLabelValues(string(StatusPartial))); got != 1 {
		t.Errorf("expected 1 partial job metric, got %v", got)
	}
}

func TestWorker_AllRangesWhenNoneRequested(t *testing.T) {
	w, _ := testWorker(t, WorkerConfig{MaxConcurrentRanges: 1})
	input := "<body><!-- range:start X --><p>x</p><!-- range:end X --><!-- range:start Y --><p>y</p><!-- range:end Y --></body>"
	job := NewJob("t.htm", []byte(input), nil)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if len(snap.Ranges) != 2 {
		t.Errorf("expected 2 ranges, got %d", len(snap.Ranges))
	}
}

func TestWorker_Placements(t *testing.T) {
	w, _ := testWorker(t, WorkerConfig{})
	job := NewJob("notes.txt", []byte("one\n\ntwo\n\nthree"), []string{"mid"})
	job.Placements = []Placement{{RangeID: "mid", StartPath: "1", EndPath: "2"}}

	w.Process(context.Background(), job)

	r, ok := job.Result("mid")
	if !ok || r.Err != nil {
		t.Fatalf("expected mid to succeed, got %v", r)
	}
	blocks := r.Sub.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if got := r.Sub.Tree.PlainText(blocks[0]); got != "two" {
		t.Errorf("expected %q, got %q", "two", got)
	}
	if r.StartPath != "1/0" || r.EndPath != "2/1" {
		t.Errorf("expected marker paths 1/0 and 2/1, got %q and %q", r.StartPath, r.EndPath)
	}
}

func TestWorker_PlacementsShareContainer(t *testing.T) {
	w, _ := testWorker(t, WorkerConfig{})
	job := NewJob("notes.txt", []byte("one\n\ntwo"), []string{"a", "b"})
	// "0/0" is the run of the first paragraph in the uploaded document, even
	// though range a's Start lands in front of it.
	job.Placements = []Placement{
		{RangeID: "a", StartPath: "0", EndPath: "0"},
		{RangeID: "b", StartPath: "0/0", EndPath: "0/0"},
	}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	r, ok := job.Result("b")
	if !ok || r.Err != nil {
		t.Fatalf("expected b to succeed, got %v", r)
	}
	if r.StartPath != "0/1/0" || r.EndPath != "0/1/2" {
		t.Errorf("expected b inside the first run, got %q and %q", r.StartPath, r.EndPath)
	}
	if got := r.Sub.Tree.PlainText(r.Sub.Tree.Root()); got != "one" {
		t.Errorf("expected %q, got %q", "one", got)
	}
}

func TestWorker_TreeTooLarge(t *testing.T) {
	w, _ := testWorker(t, WorkerConfig{MaxTreeNodes: 3})
	job := NewJob("big.txt", []byte("a\n\nb\n\nc"), []string{"A"})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "limit") {
		t.Errorf("expected node limit error, got %v", snap.Progress.Errors)
	}
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w, _ := testWorker(t, WorkerConfig{})
	job := NewJob("image.png", []byte{0x89}, []string{"A"})

	w.Process(context.Background(), job)

	if s := job.Snapshot().Status; s != StatusFailed {
		t.Errorf("expected failed, got %q", s)
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := config.Config{
		WorkerCount:         1,
		MaxQueueSize:        4,
		MaxConcurrentRanges: 2,
		RangeTimeout:        time.Second,
		JobTTL:              time.Hour,
	}
	o := NewOrchestrator(cfg, metrics.New(prometheus.NewRegistry()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("tpl.html", []byte(templateHTML), []string{"A"})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected submitted job to be retrievable")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := job.Snapshot().Status; s == StatusCompleted || s == StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s := job.Snapshot().Status; s != StatusCompleted {
		t.Fatalf("expected completed, got %q", s)
	}
}

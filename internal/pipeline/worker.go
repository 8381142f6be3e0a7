package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docrange/internal/comments"
	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/dgallion1/docrange/internal/metrics"
	"github.com/dgallion1/docrange/internal/parser"
)

// WorkerConfig bounds a worker's resource use.
type WorkerConfig struct {
	MaxConcurrentRanges int
	RangeTimeout        time.Duration
	MaxTreeNodes        int
	Parser              parser.Options
}

// Worker processes a single extraction job.
type Worker struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	cfg     WorkerConfig
}

func NewWorker(log *slog.Logger, m *metrics.Metrics, cfg WorkerConfig) *Worker {
	if cfg.MaxConcurrentRanges <= 0 {
		cfg.MaxConcurrentRanges = 1
	}
	if cfg.RangeTimeout <= 0 {
		cfg.RangeTimeout = 30 * time.Second
	}
	return &Worker{log: log, metrics: m, cfg: cfg}
}

// Process parses the job's template once, then extracts every requested range
// with bounded concurrency. A failing range is recorded and does not stop the
// others.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	w.metrics.JobsInFlight.Inc()
	defer w.metrics.JobsInFlight.Dec()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.load(job)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(err.Error())
		w.finish(job, StatusFailed, "parsing")
		return
	}
	job.releaseFileData()

	ids := job.RangeIDs
	if len(ids) == 0 {
		ids = fragment.RangeIDs(doc.Tree, doc.Tree.Root())
	}
	ids = dedupe(ids)
	job.SetTotalRanges(len(ids))
	log.Info("template loaded", "nodes", doc.Tree.Len(), "media", doc.Media.Len(), "comments", doc.Comments.Len(), "ranges", len(ids))

	if len(ids) == 0 {
		job.AddError("no ranges to extract")
		w.finish(job, StatusFailed, "parsing")
		return
	}

	// Phase 2: Extract ranges with bounded concurrency.
	job.SetStatus(StatusExtracting, "extracting")
	results := make(chan *RangeResult, len(ids))
	sem := make(chan struct{}, w.cfg.MaxConcurrentRanges)

	for _, id := range ids {
		sem <- struct{}{}
		go func(id string) {
			defer func() { <-sem }()
			results <- w.extract(ctx, doc, id)
		}(id)
	}

	failed := 0
	for range ids {
		r := <-results
		job.RecordRange(r)
		if r.Err != nil {
			failed++
			log.Error("range failed", "range_id", r.RangeID, "error", r.Err)
			job.AddError(fmt.Sprintf("range %s: %s", r.RangeID, r.Err))
			w.metrics.RecordRange("failed", r.Duration)
			continue
		}
		var size int64
		for _, p := range r.Sub.Media.Parts() {
			size += int64(len(p.Data))
		}
		w.metrics.RecordRange("ok", r.Duration)
		w.metrics.RecordMedia(r.Sub.Media.Len(), size)
		w.metrics.CommentsFlattened.Add(float64(len(r.Sub.Comments)))
		log.Debug("range extracted", "range_id", r.RangeID, "blocks", len(r.Sub.Blocks()), "media", r.Sub.Media.Len())
	}

	log.Info("extraction complete", "ranges", len(ids), "failed", failed)
	switch {
	case failed == 0:
		w.finish(job, StatusCompleted, "done")
	case failed < len(ids):
		w.finish(job, StatusPartial, "done")
	default:
		w.finish(job, StatusFailed, "extracting")
	}
}

// load parses the upload and applies the job's placements and comments.
func (w *Worker) load(job *Job) (*fragment.Document, error) {
	p, err := parser.ForFile(job.Filename, w.cfg.Parser)
	if err != nil {
		return nil, err
	}
	data := job.FileData()
	job.SetContentHash(ContentHashHex(data))

	start := time.Now()
	doc, err := p.Parse(bytes.NewReader(data), job.Filename)
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(job.Filename)), ".")
	w.metrics.ParseSeconds.WithLabelValues(format).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if w.cfg.MaxTreeNodes > 0 && doc.Tree.Len() > w.cfg.MaxTreeNodes {
		return nil, fmt.Errorf("template has %d nodes, limit is %d", doc.Tree.Len(), w.cfg.MaxTreeNodes)
	}

	if err := doc.Tree.PlaceRanges(job.Placements); err != nil {
		return nil, err
	}

	if doc.Comments == nil {
		doc.Comments = comments.NewStore()
	}
	for _, c := range job.Comments {
		if err := doc.Comments.Add(c); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// extract runs one range under the range timeout. The document is only read,
// so an abandoned extraction cannot affect the others.
func (w *Worker) extract(ctx context.Context, doc *fragment.Document, rangeID string) *RangeResult {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.RangeTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan *RangeResult, 1)
	go func() {
		sub, err := fragment.ExtractRange(doc, rangeID)
		r := &RangeResult{RangeID: rangeID, Sub: sub, Err: err}
		if err == nil {
			r.StartPath, r.EndPath = markerPaths(doc, rangeID)
		}
		done <- r
	}()

	select {
	case r := <-done:
		r.Duration = time.Since(start)
		return r
	case <-ctx.Done():
		return &RangeResult{
			RangeID:  rangeID,
			Err:      fmt.Errorf("range %s: %w", rangeID, ctx.Err()),
			Duration: time.Since(start),
		}
	}
}

// markerPaths returns the source paths of the range's Start and End markers.
func markerPaths(doc *fragment.Document, rangeID string) (string, string) {
	m, err := fragment.FindMarkers(doc.Tree, doc.Tree.Root(), rangeID)
	if err != nil {
		return "", ""
	}
	start, _ := doc.Tree.PathOf(m.Start)
	end, _ := doc.Tree.PathOf(m.End)
	return start, end
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	w.metrics.JobsTotal.WithLabelValues(string(status)).Inc()
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

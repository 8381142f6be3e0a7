package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docrange/internal/config"
	"github.com/dgallion1/docrange/internal/metrics"
	"github.com/dgallion1/docrange/internal/parser"
)

// Orchestrator manages the extraction pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	log     *slog.Logger
	metrics *metrics.Metrics
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		log:     log,
		metrics: m,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	wcfg := WorkerConfig{
		MaxConcurrentRanges: o.cfg.MaxConcurrentRanges,
		RangeTimeout:        o.cfg.RangeTimeout,
		MaxTreeNodes:        o.cfg.MaxTreeNodes,
		Parser:              parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext},
	}

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.log, o.metrics, wcfg)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.metrics.QueueDepth.Set(float64(len(o.queue)))
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.metrics.QueueDepth.Set(float64(len(o.queue)))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		o.metrics.JobsTotal.WithLabelValues(string(StatusFailed)).Inc()
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of jobs still tracked.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

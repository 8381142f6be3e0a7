package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docrange/internal/comments"
	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Placement anchors a range by path in formats that cannot carry markers.
// All paths of a job address the document as uploaded.
type Placement = doctree.Placement

// Job tracks the extraction of a set of ranges from one uploaded template.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	// RangeIDs lists the ranges to extract. Empty means every range with a
	// start marker.
	RangeIDs   []string
	Placements []Placement
	Comments   []comments.Record

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	results  map[string]*RangeResult
	order    []string
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalRanges  int      `json:"total_ranges"`
	RangesDone   int      `json:"ranges_done"`
	RangesFailed int      `json:"ranges_failed"`
	Errors       []string `json:"errors"`
}

// RangeResult is the outcome of one range extraction. StartPath and EndPath
// locate the range's markers in the source document.
type RangeResult struct {
	RangeID   string
	Sub       *fragment.SubDocument
	Err       error
	Duration  time.Duration
	StartPath string
	EndPath   string
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename string, data []byte, rangeIDs []string) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		RangeIDs:  rangeIDs,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the uploaded bytes.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// SetTotalRanges records how many ranges will be extracted.
func (j *Job) SetTotalRanges(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalRanges = n
	j.UpdatedAt = time.Now()
}

// RecordRange stores the outcome of one range and updates progress.
func (j *Job) RecordRange(r *RangeResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.results == nil {
		j.results = make(map[string]*RangeResult)
	}
	if _, seen := j.results[r.RangeID]; !seen {
		j.order = append(j.order, r.RangeID)
	}
	j.results[r.RangeID] = r
	j.Progress.RangesDone++
	if r.Err != nil {
		j.Progress.RangesFailed++
	}
	j.UpdatedAt = time.Now()
}

// Result returns the outcome recorded for rangeID.
func (j *Job) Result(rangeID string) (*RangeResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.results[rangeID]
	return r, ok
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once the template has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// RangeSummary describes one range outcome in a job snapshot.
type RangeSummary struct {
	RangeID    string `json:"range_id"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	StartPath  string `json:"start_path,omitempty"`
	EndPath    string `json:"end_path,omitempty"`
	Blocks     int    `json:"blocks"`
	Nodes      int    `json:"nodes"`
	MediaParts int    `json:"media_parts"`
	Comments   int    `json:"comments"`
	DurationMS int64  `json:"duration_ms"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string         `json:"job_id"`
	Status      JobStatus      `json:"status"`
	Phase       string         `json:"phase"`
	Filename    string         `json:"filename"`
	ContentHash string         `json:"content_hash,omitempty"`
	Progress    Progress       `json:"progress"`
	Ranges      []RangeSummary `json:"ranges"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	ranges := make([]RangeSummary, 0, len(j.order))
	for _, id := range j.order {
		r := j.results[id]
		s := RangeSummary{RangeID: id, OK: r.Err == nil, DurationMS: r.Duration.Milliseconds()}
		if r.Err != nil {
			s.Error = r.Err.Error()
		} else {
			s.StartPath, s.EndPath = r.StartPath, r.EndPath
			s.Blocks = len(r.Sub.Blocks())
			s.Nodes = r.Sub.Tree.Count(r.Sub.Tree.Root(), nil)
			s.MediaParts = r.Sub.Media.Len()
			s.Comments = len(r.Sub.Comments)
		}
		ranges = append(ranges, s)
	}
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Progress: Progress{
			TotalRanges:  j.Progress.TotalRanges,
			RangesDone:   j.Progress.RangesDone,
			RangesFailed: j.Progress.RangesFailed,
			Errors:       errs,
		},
		Ranges: ranges,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrange/internal/comments"
	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/dgallion1/docrange/internal/media"
	"github.com/dgallion1/docrange/internal/parser"
	"github.com/dgallion1/docrange/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job, err := newJobFromForm(r, filename, data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/extract/%s/status", job.ID),
	})
}

// newJobFromForm builds a job from the ranges, placements and comments form
// fields shared by single and batch submissions.
func newJobFromForm(r *http.Request, filename string, data []byte) (*pipeline.Job, error) {
	job := pipeline.NewJob(filename, data, splitList(r.FormValue("ranges"), ","))

	placements, err := parsePlacements(r.FormValue("placements"))
	if err != nil {
		return nil, err
	}
	job.Placements = placements

	if v := strings.TrimSpace(r.FormValue("comments")); v != "" {
		var recs []comments.Record
		if err := json.Unmarshal([]byte(v), &recs); err != nil {
			return nil, fmt.Errorf("invalid comments: %w", err)
		}
		job.Comments = recs
	}
	return job, nil
}

func (s *Server) handleBatchExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job, err := newJobFromForm(r, filename, data)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/extract/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleExtractStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// mediaInfo describes one relocated part without its payload.
type mediaInfo struct {
	RelID  string `json:"rel_id"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
	SHA256 string `json:"sha256"`
}

// fragmentResponse is the JSON view of an extracted range.
type fragmentResponse struct {
	RangeID  string             `json:"range_id"`
	Blocks   []doctree.Snapshot `json:"blocks"`
	Text     string             `json:"text"`
	Media    []mediaInfo        `json:"media"`
	Comments []comments.Record  `json:"comments"`
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	rangeID := chi.URLParam(r, "rangeID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	res, ok := job.Result(rangeID)
	if !ok {
		switch job.Snapshot().Status {
		case pipeline.StatusQueued, pipeline.StatusParsing, pipeline.StatusExtracting:
			jsonError(w, "range not ready", http.StatusConflict)
		default:
			jsonError(w, "range not found in job", http.StatusNotFound)
		}
		return
	}
	if res.Err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error": res.Err.Error(),
			"kind":  errorKind(res.Err),
		})
		return
	}

	sub := res.Sub
	if r.URL.Query().Get("format") == "docx" {
		var buf bytes.Buffer
		if err := parser.WriteDOCX(sub, &buf); err != nil {
			s.log.Error("docx render failed", "job_id", jobID, "range_id", rangeID, "error", err)
			jsonError(w, "failed to render docx", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.docx"`, sanitizeFilename(rangeID)))
		w.Write(buf.Bytes())
		return
	}

	resp := fragmentResponse{
		RangeID:  sub.RangeID,
		Blocks:   []doctree.Snapshot{},
		Text:     sub.Tree.PlainText(sub.Tree.Root()),
		Media:    []mediaInfo{},
		Comments: sub.Comments,
	}
	for _, b := range sub.Blocks() {
		resp.Blocks = append(resp.Blocks, sub.Tree.Snapshot(b))
	}
	for _, p := range sub.Media.Parts() {
		sum := sha256.Sum256(p.Data)
		resp.Media = append(resp.Media, mediaInfo{
			RelID:  p.RelID,
			Name:   p.Name,
			Size:   len(p.Data),
			SHA256: hex.EncodeToString(sum[:]),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// errorKind maps an extraction error onto a stable machine-readable name.
func errorKind(err error) string {
	switch {
	case errors.Is(err, fragment.ErrMarkerNotFound):
		return "marker_not_found"
	case errors.Is(err, fragment.ErrTemplateMalformed):
		return "template_malformed"
	case errors.Is(err, media.ErrNotFound):
		return "media_not_found"
	case errors.Is(err, media.ErrTooLarge):
		return "media_too_large"
	case errors.Is(err, doctree.ErrCopyFailure):
		return "copy_failure"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "internal"
}

// parsePlacements parses "id:startPath:endPath;id2:startPath:endPath".
func parsePlacements(v string) ([]pipeline.Placement, error) {
	var out []pipeline.Placement
	for _, item := range splitList(v, ";") {
		parts := strings.Split(item, ":")
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid placement %q: want id:startPath:endPath", item)
		}
		out = append(out, pipeline.Placement{
			RangeID:   strings.TrimSpace(parts[0]),
			StartPath: strings.TrimSpace(parts[1]),
			EndPath:   strings.TrimSpace(parts[2]),
		})
	}
	return out, nil
}

func splitList(v, sep string) []string {
	var out []string
	for _, s := range strings.Split(v, sep) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

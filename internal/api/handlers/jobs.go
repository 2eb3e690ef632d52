package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/api/middleware"
	"github.com/dvloznov/saldo-certo/internal/export"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/logger"
)

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store   jobs.JobStore
	archive export.Storage
	log     zerolog.Logger
}

// NewJobsHandler creates a new jobs handler. archive may be nil, in which
// case downloads are unavailable.
func NewJobsHandler(store jobs.JobStore, archive export.Storage, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store:   store,
		archive: archive,
		log:     log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Download handles GET /api/jobs/{id}/download
// It streams the archived CSV of a completed export job.
func (h *JobsHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Export archiving is disabled")
		return
	}

	jobID := r.PathValue("id")
	log := logger.FromContextOr(r.Context(), h.log)

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	if job.Status != jobs.JobStatusCompleted || job.ObjectURI == "" {
		middleware.WriteError(w, http.StatusConflict, "Export is not ready")
		return
	}

	data, err := h.archive.Fetch(r.Context(), job.ObjectURI)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Str("object_uri", job.ObjectURI).Msg("Failed to fetch export")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to fetch export")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.FilenameFromURI(job.ObjectURI),
	}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to write export")
	}
}

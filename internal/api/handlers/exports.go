package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/api/middleware"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// ExportsHandler enqueues CSV archive jobs.
type ExportsHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewExportsHandler creates a new exports handler. A nil publisher means
// archiving is disabled.
func NewExportsHandler(publisher jobs.Publisher, log zerolog.Logger) *ExportsHandler {
	return &ExportsHandler{publisher: publisher, log: log, now: time.Now}
}

// CreateExport handles POST /api/users/{id}/exports
func (h *ExportsHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Export archive is not configured")
		return
	}

	var req struct {
		Monthly bool `json:"monthly"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := r.PathValue("id")
	job := &jobs.ExportJob{UserID: userID, Monthly: req.Monthly}
	if req.Monthly {
		job.Since = store.StartOfMonth(h.now())
	}

	log := logger.FromContextOr(r.Context(), h.log)
	if err := h.publisher.PublishExport(r.Context(), job); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export job")
		return
	}

	log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Export job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"user_id": userID,
		"status":  string(job.Status),
	})
}

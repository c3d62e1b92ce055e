package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hirescope/hirescope/internal/api/response"
	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/models"
)

// IngestJobsHandler reports the state of queued uploads.
type IngestJobsHandler struct {
	reader jobs.JobReader
}

// NewIngestJobsHandler creates a new ingest jobs handler
func NewIngestJobsHandler(reader jobs.JobReader) *IngestJobsHandler {
	return &IngestJobsHandler{reader: reader}
}

// Get handles GET /v1/ingest-jobs/{id}
// @Summary Get an ingestion job
// @Tags Resumes
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} IngestJob
// @Failure 400 {object} ProblemDetails "Invalid job id"
// @Failure 404 {object} ProblemDetails "Job not found"
// @Security BearerAuth
// @Router /v1/ingest-jobs/{id} [get]
func (h *IngestJobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondBadRequest(w, "Invalid job id")
		return
	}

	status, err := h.reader.GetIngestJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			response.RespondNotFound(w, "Ingest job not found")
			return
		}

		respondServiceError(w, r, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, models.IngestJob{
		ID:          status.ID,
		State:       status.State,
		Filename:    status.Filename,
		Attempt:     status.Attempt,
		MaxAttempts: status.MaxAttempts,
		Errors:      status.Errors,
		CreatedAt:   status.CreatedAt,
		FinalizedAt: status.FinalizedAt,
	})
}

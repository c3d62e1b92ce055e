package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hirescope/hirescope/internal/api/response"
	"github.com/hirescope/hirescope/internal/api/validation"
	"github.com/hirescope/hirescope/internal/export"
	"github.com/hirescope/hirescope/internal/models"
)

// exportFilename is the attachment name of the XLSX export.
const exportFilename = "candidates.xlsx"

// CandidatesService defines the interface for browsing stored résumés.
type CandidatesService interface {
	ListCandidates(ctx context.Context, filters *models.ListCandidatesFilters) (*models.ListCandidatesResponse, error)
	GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error)
	DeleteCandidate(ctx context.Context, candidateID string) error
	CountCandidates(ctx context.Context) (int, error)
	ExportCandidates(ctx context.Context, w io.Writer, filters *models.ListCandidatesFilters) error
}

// CandidatesHandler handles HTTP requests for candidates
type CandidatesHandler struct {
	service CandidatesService
}

// NewCandidatesHandler creates a new candidates handler
func NewCandidatesHandler(service CandidatesService) *CandidatesHandler {
	return &CandidatesHandler{service: service}
}

// List handles GET /v1/candidates
// @Summary List candidates
// @Description Lists stored résumé summaries, ordered by upload time
// @Tags Candidates
// @Produce json
// @Param q query string false "Substring of name, summary or candidate id"
// @Param name query string false "Substring of the candidate name"
// @Param uploaded_by query string false "Substring of the uploader"
// @Param limit query int false "Number of results to return (max 1000)"
// @Param offset query int false "Number of results to skip"
// @Success 200 {object} ListCandidatesResponse
// @Failure 400 {object} ProblemDetails
// @Security BearerAuth
// @Router /v1/candidates [get]
func (h *CandidatesHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListCandidatesFilters{}
	if err := validation.ValidateAndDecodeQueryParams(r, filters); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.ListCandidates(r.Context(), filters)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /v1/candidates/{id}
// @Summary Get a candidate by candidate id
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} Candidate
// @Failure 404 {object} ProblemDetails "Candidate not found"
// @Security BearerAuth
// @Router /v1/candidates/{id} [get]
func (h *CandidatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Candidate ID is required")
		return
	}

	candidate, err := h.service.GetCandidate(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, candidate)
}

// Delete handles DELETE /v1/candidates/{id}
// @Summary Delete a candidate
// @Tags Candidates
// @Param id path string true "Candidate ID"
// @Success 204 "No Content"
// @Failure 404 {object} ProblemDetails "Candidate not found"
// @Security BearerAuth
// @Router /v1/candidates/{id} [delete]
func (h *CandidatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Candidate ID is required")
		return
	}

	if err := h.service.DeleteCandidate(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Count handles GET /v1/candidates/count
// @Summary Count stored résumés
// @Tags Candidates
// @Produce json
// @Success 200 {object} CountCandidatesResponse
// @Security BearerAuth
// @Router /v1/candidates/count [get]
func (h *CandidatesHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountCandidates(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, models.CountCandidatesResponse{Count: n})
}

// Export handles GET /v1/candidates/export
// @Summary Export candidates as XLSX
// @Description Accepts the list filters; paging is ignored
// @Tags Candidates
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Security BearerAuth
// @Router /v1/candidates/export [get]
func (h *CandidatesHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListCandidatesFilters{}
	if err := validation.ValidateAndDecodeQueryParams(r, filters); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	// Buffer so a failure can still be reported as a problem response.
	var buf bytes.Buffer
	if err := h.service.ExportCandidates(r.Context(), &buf, filters); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write export", "error", err)
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/hirescope/hirescope/internal/api/response"
	"github.com/hirescope/hirescope/internal/api/validation"
	"github.com/hirescope/hirescope/internal/models"
)

// QueryService answers stateless questions.
type QueryService interface {
	Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
}

// QueryHandler handles POST /v1/query.
type QueryHandler struct {
	service QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service QueryService) *QueryHandler {
	return &QueryHandler{service: service}
}

// Query handles POST /v1/query
// @Summary Ask a question about stored candidates
// @Description Answers from the most similar résumé summaries. History is supplied by the caller.
// @Tags Query
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Question and prior turns"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails "The chat model failed"
// @Security BearerAuth
// @Router /v1/query [post]
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	resp, err := h.service.Query(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

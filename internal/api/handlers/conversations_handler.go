package handlers

import (
	"context"
	"net/http"

	"github.com/hirescope/hirescope/internal/api/response"
	"github.com/hirescope/hirescope/internal/api/validation"
	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/models"
)

// ConversationsService defines the interface for chat sessions.
type ConversationsService interface {
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	SendMessage(ctx context.Context, id string, req *models.SendMessageRequest) (*models.SendMessageResponse, error)
}

// ConversationsHandler handles HTTP requests for conversations
type ConversationsHandler struct {
	service ConversationsService
}

// NewConversationsHandler creates a new conversations handler
func NewConversationsHandler(service ConversationsService) *ConversationsHandler {
	return &ConversationsHandler{service: service}
}

// Get handles GET /v1/conversations/{id}
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} Conversation
// @Failure 404 {object} ProblemDetails "Conversation not found or expired"
// @Security BearerAuth
// @Router /v1/conversations/{id} [get]
func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.service.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, conv)
}

// SendMessage handles POST /v1/conversations/{id}/messages
// @Summary Send a message
// @Description Appends the message and the assistant's reply. The conversation is created on first use.
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body SendMessageRequest true "User message"
// @Success 200 {object} SendMessageResponse
// @Failure 400 {object} ProblemDetails
// @Failure 502 {object} SendMessageResponse "The chat model failed; the error turn is returned"
// @Security BearerAuth
// @Router /v1/conversations/{id}/messages [post]
func (h *ConversationsHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	resp, err := h.service.SendMessage(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		// The error turn was stored; return it so the client can render it.
		if resp != nil && apperrors.KindOf(err) != "" {
			response.RespondJSON(w, http.StatusBadGateway, resp)
			return
		}

		respondServiceError(w, r, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/llm"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/rag"
	"github.com/hirescope/hirescope/internal/sessions"
)

// Conversation defaults.
const (
	ConversationSystemMessage = "You are a recruiter assistant."
	conversationTitleLayout   = "2006-01-02 15:04"
	maxConversationIDLength   = 128
)

// Answerer answers a question with retrieval-augmented generation.
type Answerer interface {
	Answer(ctx context.Context, q rag.Question) (rag.Answer, error)
}

// ConversationService keeps chat sessions and routes their messages through the engine.
type ConversationService struct {
	store  sessions.Store
	locks  *sessions.KeyedMutex
	engine Answerer
	now    func() time.Time
}

// NewConversationService creates a ConversationService.
func NewConversationService(store sessions.Store, engine Answerer) *ConversationService {
	return &ConversationService{
		store:  store,
		locks:  sessions.NewKeyedMutex(),
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ConversationTitle is the title of a conversation created at t.
func ConversationTitle(t time.Time) string {
	return "New Chat - " + t.Format(conversationTitleLayout)
}

func validateConversationID(id string) error {
	if id == "" || len(id) > maxConversationIDLength {
		return apperrors.NewValidationError("id", fmt.Sprintf("conversation id must be 1-%d characters", maxConversationIDLength))
	}

	return nil
}

// GetConversation returns a live conversation.
func (s *ConversationService) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if err := validateConversationID(id); err != nil {
		return nil, err
	}

	conv, err := s.store.Get(ctx, id)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("conversation", "conversation not found")
	}

	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	return conv, nil
}

// SendMessage appends the user message and the engine's reply, creating the conversation on
// first use. When the engine fails, an error turn is stored and returned together with the error.
// Invalid input leaves the conversation untouched.
func (s *ConversationService) SendMessage(
	ctx context.Context, id string, req *models.SendMessageRequest,
) (*models.SendMessageResponse, error) {
	if err := validateConversationID(id); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content is required")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	now := s.now()

	conv, err := s.store.Get(ctx, id)
	if errors.Is(err, sessions.ErrNotFound) {
		conv = &models.Conversation{
			ID:        id,
			Title:     ConversationTitle(now),
			Messages:  []models.ChatMessage{{Role: models.RoleSystem, Content: ConversationSystemMessage, CreatedAt: now}},
			CreatedAt: now,
		}
	} else if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	history := historyOf(conv.Messages)

	ans, answerErr := s.engine.Answer(ctx, rag.Question{Query: content, History: history, TopK: req.TopK})
	if errors.Is(answerErr, apperrors.ErrValidation) {
		return nil, answerErr
	}

	conv.Messages = append(conv.Messages, models.ChatMessage{Role: models.RoleUser, Content: content, CreatedAt: now})

	var reply models.ChatMessage
	if answerErr != nil {
		kind := apperrors.KindOf(answerErr)
		if kind == "" {
			kind = apperrors.KindGeneration
		}

		reply = models.ChatMessage{Role: models.RoleAssistant, Content: "Error: " + string(kind), Error: answerErr.Error(), CreatedAt: s.now()}
	} else {
		reply = models.ChatMessage{Role: models.RoleAssistant, Content: ans.Text, Sources: SourcesToModel(ans.Sources), CreatedAt: s.now()}
	}

	conv.Messages = append(conv.Messages, reply)
	conv.UpdatedAt = reply.CreatedAt

	if err := s.store.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	resp := &models.SendMessageResponse{ConversationID: conv.ID, Title: conv.Title, Message: reply}

	return resp, answerErr
}

// historyOf converts stored messages to engine history. Error turns are skipped.
func historyOf(msgs []models.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))

	for _, m := range msgs {
		if m.Error != "" {
			continue
		}

		out = append(out, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	return out
}

// TurnsToHistory converts request history turns to engine messages.
func TurnsToHistory(turns []models.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Message{Role: llm.Role(t.Role), Content: t.Content})
	}

	return out
}

package service

import (
	"context"

	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/rag"
)

// QueryService answers stateless questions with caller-supplied history.
type QueryService struct {
	engine Answerer
}

// NewQueryService creates a QueryService.
func NewQueryService(engine Answerer) *QueryService {
	return &QueryService{engine: engine}
}

// Query runs the engine and converts the answer to the API shape.
func (s *QueryService) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	ans, err := s.engine.Answer(ctx, rag.Question{
		Query:   req.Query,
		History: TurnsToHistory(req.History),
		TopK:    req.TopK,
	})
	if err != nil {
		return nil, err
	}

	return &models.QueryResponse{
		Answer:    ans.Text,
		Sources:   SourcesToModel(ans.Sources),
		Outcome:   string(ans.Outcome),
		Relevance: string(ans.Relevance),
		Degraded:  ans.Degraded,
	}, nil
}

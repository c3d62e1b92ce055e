// Package rag answers recruiter questions from stored résumé summaries
// (retrieval-augmented generation over the vector collection).
package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/llm"
	"github.com/hirescope/hirescope/internal/observability"
	"github.com/hirescope/hirescope/internal/vectorstore"
)

// Outcome says which branch produced an answer.
type Outcome string

// Answer outcomes.
const (
	OutcomeGreeting   Outcome = "greeting"
	OutcomeEmptyStore Outcome = "empty_store"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeAnswered   Outcome = "answered"
)

// Relevance is the recruiting-relevance verdict attached to an answer.
type Relevance string

// Relevance verdicts. Skipped means the classifier did not run.
const (
	RelevanceYes     Relevance = "yes"
	RelevanceNo      Relevance = "no"
	RelevanceSkipped Relevance = "skipped"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultTopK       = 5
	DefaultMaxTokens  = 1000
	DefaultChatModel  = "gpt-4o"
	DefaultMaxHistory = 20
)

// Config tunes the engine.
type Config struct {
	ChatModel         string
	TopK              int
	Temperature       float64
	MaxTokens         int
	MaxHistory        int
	ClassifierEnabled bool
}

// Question is one query plus the prior turns of its conversation.
type Question struct {
	Query   string
	History []llm.Message
	// TopK overrides Config.TopK when positive.
	TopK int
}

// Answer is the reply and the metadata of the résumés it was grounded on.
type Answer struct {
	Text      string
	Sources   []vectorstore.Metadata
	Outcome   Outcome
	Relevance Relevance
	// Degraded is set when the vector store failed and the answer assumed no results.
	Degraded bool
}

// Engine runs the query pipeline against a collection and a chat model.
type Engine struct {
	collection vectorstore.Collection
	model      llm.ChatModel
	cfg        Config
	metrics    observability.RAGMetrics
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics records query outcomes and LLM calls. nil disables.
func WithMetrics(m observability.RAGMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger for degraded retrievals.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine. Zero Config fields take the package defaults.
func NewEngine(collection vectorstore.Collection, model llm.ChatModel, cfg Config, opts ...EngineOption) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}

	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}

	e := &Engine{
		collection: collection,
		model:      model,
		cfg:        cfg,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Answer runs the pipeline for q:
// greeting shortcut, empty-store check, optional classifier, top-k retrieval, grounded completion.
// Documents found by retrieval always win over a negative classifier verdict.
// The only error returned is a generation error (errors.Is(err, apperrors.ErrGeneration)) or
// a validation error for a blank query.
func (e *Engine) Answer(ctx context.Context, q Question) (Answer, error) {
	ans, err := e.answer(ctx, q)

	if e.metrics != nil {
		outcome := string(ans.Outcome)
		if err != nil {
			outcome = "error"
		}

		e.metrics.RecordQuery(ctx, outcome, string(ans.Relevance), ans.Degraded)
	}

	return ans, err
}

func (e *Engine) answer(ctx context.Context, q Question) (Answer, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return Answer{}, apperrors.NewValidationError("query", "query is required")
	}

	if IsGreeting(query) {
		return Answer{Text: GreetingReply, Sources: []vectorstore.Metadata{}, Outcome: OutcomeGreeting, Relevance: RelevanceSkipped}, nil
	}

	total, err := e.collection.Count(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "vector store count failed, treating as no results",
			"error_kind", apperrors.KindRetrieval, "error", err)

		return Answer{Text: NotFoundReply, Sources: []vectorstore.Metadata{}, Outcome: OutcomeNotFound,
			Relevance: RelevanceSkipped, Degraded: true}, nil
	}

	if total == 0 {
		return Answer{Text: EmptyStoreReply, Sources: []vectorstore.Metadata{}, Outcome: OutcomeEmptyStore, Relevance: RelevanceSkipped}, nil
	}

	relevance := RelevanceSkipped
	if e.cfg.ClassifierEnabled {
		relevance = e.classify(ctx, query)
	}

	topK := e.cfg.TopK
	if q.TopK > 0 {
		topK = q.TopK
	}

	degraded := false

	hits, err := e.collection.Query(ctx, query, min(topK, total))
	if err != nil {
		e.logger.WarnContext(ctx, "vector store query failed, treating as no results",
			"error_kind", apperrors.KindRetrieval, "error", err)

		hits = nil
		degraded = true
	}

	docs := make([]string, 0, len(hits))
	sources := make([]vectorstore.Metadata, 0, len(hits))

	for _, h := range hits {
		if strings.TrimSpace(h.Document) == "" {
			continue
		}

		docs = append(docs, h.Document)
		sources = append(sources, h.Metadata)
	}

	if len(docs) == 0 {
		return Answer{Text: NotFoundReply, Sources: []vectorstore.Metadata{}, Outcome: OutcomeNotFound,
			Relevance: relevance, Degraded: degraded}, nil
	}

	// Retrieval overrides the classifier.
	if relevance == RelevanceNo {
		e.logger.DebugContext(ctx, "classifier verdict overridden by retrieval", "documents", len(docs))
	}

	relevance = RelevanceYes

	text, err := e.generate(ctx, BuildMessages(strings.Join(docs, ContextSeparator), q.History, query, e.cfg.MaxHistory))
	if err != nil {
		return Answer{Outcome: OutcomeAnswered, Relevance: relevance, Degraded: degraded}, err
	}

	return Answer{Text: text, Sources: sources, Outcome: OutcomeAnswered, Relevance: relevance, Degraded: degraded}, nil
}

// classify asks the model whether query is recruiting-related. Any failure counts as No.
func (e *Engine) classify(ctx context.Context, query string) Relevance {
	start := time.Now()

	out, err := e.model.Complete(ctx, llm.ChatRequest{
		Model:       e.cfg.ChatModel,
		Messages:    []llm.Message{llm.User(ClassifierPrompt(query))},
		Temperature: 0,
	})

	if e.metrics != nil {
		e.metrics.RecordLLMCall(ctx, "classify", err, time.Since(start))
	}

	if err != nil {
		e.logger.WarnContext(ctx, "relevance classifier failed, assuming not relevant",
			"error_kind", apperrors.KindClassification, "error", err)

		return RelevanceNo
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "yes") {
		return RelevanceYes
	}

	return RelevanceNo
}

func (e *Engine) generate(ctx context.Context, msgs []llm.Message) (string, error) {
	start := time.Now()

	out, err := e.model.Complete(ctx, llm.ChatRequest{
		Model:       e.cfg.ChatModel,
		Messages:    msgs,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})

	if e.metrics != nil {
		e.metrics.RecordLLMCall(ctx, "answer", err, time.Since(start))
	}

	if err != nil {
		return "", apperrors.NewExternalError(apperrors.KindGeneration, "answer query", err)
	}

	return strings.TrimSpace(out), nil
}

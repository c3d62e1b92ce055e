package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/llm"
	"github.com/hirescope/hirescope/internal/observability"
)

// Summarizer defaults.
const (
	DefaultSummaryModel       = "gpt-4o"
	DefaultSummaryTemperature = 0.2
	// MaxSummaryInputChars is how much of the extracted text is sent to the model.
	MaxSummaryInputChars = 3000
)

// ErrEmptySummary is returned when the model answers with blank content.
var ErrEmptySummary = errors.New("model returned an empty summary")

const summaryPromptTemplate = `
Return the résumé as structured **plain text** (NOT JSON) like:

Name: ...
Email: ...
Phone: ...
Location: ...
Skills: python, sql, ...
Languages: english, ...
Certifications: ...
Education:
  • Degree at University
Work Experience:
  • Role at Company (dates) – short summary
Latest Role: ...

Résumé:
"""%s"""`

// SummaryPrompt builds the single user message sent for raw résumé text.
func SummaryPrompt(raw string) string {
	return fmt.Sprintf(summaryPromptTemplate, Preview(raw, MaxSummaryInputChars))
}

// Summarizer produces candidate summaries with one chat completion per résumé. It never retries.
type Summarizer struct {
	model       llm.ChatModel
	modelName   string
	temperature float64
	metrics     observability.RAGMetrics
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithSummaryModel overrides the model name (default gpt-4o).
func WithSummaryModel(name string) SummarizerOption {
	return func(s *Summarizer) {
		if name != "" {
			s.modelName = name
		}
	}
}

// WithSummaryMetrics records each call as the "summarize" LLM operation. nil disables.
func WithSummaryMetrics(m observability.RAGMetrics) SummarizerOption {
	return func(s *Summarizer) {
		s.metrics = m
	}
}

// NewSummarizer creates a Summarizer backed by model.
func NewSummarizer(model llm.ChatModel, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		model:       model,
		modelName:   DefaultSummaryModel,
		temperature: DefaultSummaryTemperature,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Summarize returns the parsed summary of raw. Failures are summarization errors
// (errors.Is(err, apperrors.ErrSummarization)).
func (s *Summarizer) Summarize(ctx context.Context, raw string) (Summary, error) {
	start := time.Now()

	out, err := s.model.Complete(ctx, llm.ChatRequest{
		Model:       s.modelName,
		Messages:    []llm.Message{llm.User(SummaryPrompt(raw))},
		Temperature: s.temperature,
	})

	if s.metrics != nil {
		s.metrics.RecordLLMCall(ctx, "summarize", err, time.Since(start))
	}

	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.KindSummarization, "summarize résumé", err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return nil, apperrors.NewExternalError(apperrors.KindSummarization, "summarize résumé", ErrEmptySummary)
	}

	return ParseSummary(out), nil
}

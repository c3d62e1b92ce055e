package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hirescope/hirescope/internal/datatypes"
	"github.com/hirescope/hirescope/internal/embeddings"
	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/rag"
	"github.com/hirescope/hirescope/internal/resume"
	"github.com/hirescope/hirescope/internal/vectorstore"
)

type mockExtractor struct {
	extractFunc func(ctx context.Context, filename string, data []byte) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if m.extractFunc != nil {
		return m.extractFunc(ctx, filename, data)
	}

	return string(data), nil
}

type mockSummarizer struct {
	summarizeFunc func(ctx context.Context, raw string) (resume.Summary, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, raw string) (resume.Summary, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, raw)
	}

	return resume.ParseSummary(raw), nil
}

type mockInserter struct {
	insertFunc func(ctx context.Context, args jobs.IngestJobArgs) (int64, error)
	inserted   []jobs.IngestJobArgs
}

func (m *mockInserter) InsertIngestJob(ctx context.Context, args jobs.IngestJobArgs) (int64, error) {
	m.inserted = append(m.inserted, args)
	if m.insertFunc != nil {
		return m.insertFunc(ctx, args)
	}

	return int64(len(m.inserted)), nil
}

type publishedEvent struct {
	eventType datatypes.EventType
	data      any
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturingPublisher) PublishEvent(_ context.Context, eventType datatypes.EventType, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, publishedEvent{eventType: eventType, data: data})
}

// faultyCollection wraps a collection and lets tests fail individual operations.
type faultyCollection struct {
	vectorstore.Collection

	getFunc    func(ctx context.Context, where vectorstore.Where) ([]vectorstore.Record, error)
	addFunc    func(ctx context.Context, records []vectorstore.Record) error
	deleteFunc func(ctx context.Context, filter vectorstore.DeleteFilter) error
	countFunc  func(ctx context.Context) (int, error)
}

func (f *faultyCollection) Get(ctx context.Context, where vectorstore.Where) ([]vectorstore.Record, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, where)
	}

	return f.Collection.Get(ctx, where)
}

func (f *faultyCollection) Add(ctx context.Context, records []vectorstore.Record) error {
	if f.addFunc != nil {
		return f.addFunc(ctx, records)
	}

	return f.Collection.Add(ctx, records)
}

func (f *faultyCollection) Delete(ctx context.Context, filter vectorstore.DeleteFilter) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, filter)
	}

	return f.Collection.Delete(ctx, filter)
}

func (f *faultyCollection) Count(ctx context.Context) (int, error) {
	if f.countFunc != nil {
		return f.countFunc(ctx)
	}

	return f.Collection.Count(ctx)
}

type mockAnswerer struct {
	answerFunc func(ctx context.Context, q rag.Question) (rag.Answer, error)
	questions  []rag.Question
}

func (m *mockAnswerer) Answer(ctx context.Context, q rag.Question) (rag.Answer, error) {
	m.questions = append(m.questions, q)

	return m.answerFunc(ctx, q)
}

func newMemoryCollection(t *testing.T) *vectorstore.MemoryCollection {
	t.Helper()

	coll, err := vectorstore.NewMemoryCollection("resumes", embeddings.NewMockClient(32))
	require.NoError(t, err)

	return coll
}

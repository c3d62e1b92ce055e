// Package vectorstore defines the named résumé collection and its in-process and Qdrant backends.
// The Postgres backend lives in internal/repository.
package vectorstore

import (
	"context"
	"errors"
	"sort"
)

// Metadata keys written by the ingestion pipeline.
const (
	MetaCandidateID = "candidate_id"
	MetaName        = "name"
	MetaUploadedBy  = "uploaded_by"
	MetaUploadedAt  = "uploaded_at"
)

var (
	// ErrEmptyDeleteFilter is returned by Delete when neither ids nor a where clause is given.
	ErrEmptyDeleteFilter = errors.New("vectorstore: delete requires ids or a where filter")
	// ErrEmptyDocument is returned by Add for a record without text.
	ErrEmptyDocument = errors.New("vectorstore: document is empty")
	// ErrMissingID is returned by Add for a record without an id.
	ErrMissingID = errors.New("vectorstore: record id is empty")
)

// Metadata is the flat string map stored next to each document.
type Metadata map[string]string

// Where is a metadata equality filter. All pairs must match.
type Where map[string]string

// Matches reports whether md satisfies every pair in w. An empty filter matches everything.
func (w Where) Matches(md Metadata) bool {
	for k, v := range w {
		if md[k] != v {
			return false
		}
	}

	return true
}

// Record is a stored document.
type Record struct {
	ID       string   `json:"id"`
	Document string   `json:"document"`
	Metadata Metadata `json:"metadata"`
}

// QueryResult is one nearest-neighbour hit. Distance is cosine distance (0 = identical).
type QueryResult struct {
	ID       string
	Document string
	Metadata Metadata
	Distance float64
}

// DeleteFilter selects records to delete. When both are set a record must match both.
type DeleteFilter struct {
	IDs   []string
	Where Where
}

// IsEmpty reports whether the filter selects nothing explicitly.
func (f DeleteFilter) IsEmpty() bool {
	return len(f.IDs) == 0 && len(f.Where) == 0
}

// Collection is a named set of embedded documents.
type Collection interface {
	// Add upserts records by id, embedding each document.
	Add(ctx context.Context, records []Record) error
	// Query returns up to n records nearest to text, closest first.
	Query(ctx context.Context, text string, n int) ([]QueryResult, error)
	// Get returns every record matching where (all records for an empty filter).
	Get(ctx context.Context, where Where) ([]Record, error)
	// Delete removes the selected records.
	Delete(ctx context.Context, filter DeleteFilter) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// validateRecords checks ids and documents before any embedding call is made.
func validateRecords(records []Record) error {
	for _, r := range records {
		if r.ID == "" {
			return ErrMissingID
		}

		if r.Document == "" {
			return ErrEmptyDocument
		}
	}

	return nil
}

// SortRecords orders records by upload time, then id, so listings are stable across backends.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ai, aj := records[i].Metadata[MetaUploadedAt], records[j].Metadata[MetaUploadedAt]
		if ai != aj {
			return ai < aj
		}

		return records[i].ID < records[j].ID
	})
}

func copyMetadata(md Metadata) Metadata {
	out := make(Metadata, len(md))
	for k, v := range md {
		out[k] = v
	}

	return out
}

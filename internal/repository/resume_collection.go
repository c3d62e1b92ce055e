package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/hirescope/hirescope/internal/vectorstore"
)

// schemaSQL creates the résumé document table. %d is the embedding dimension.
// halfvec keeps 2 bytes per dimension so 3072-dim embeddings stay within the HNSW limit.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS resume_documents (
	collection  text        NOT NULL,
	id          text        NOT NULL,
	document    text        NOT NULL,
	metadata    jsonb       NOT NULL DEFAULT '{}'::jsonb,
	embedding   halfvec(%d) NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS resume_documents_embedding_idx
	ON resume_documents USING hnsw (embedding halfvec_cosine_ops);
CREATE INDEX IF NOT EXISTS resume_documents_metadata_idx
	ON resume_documents USING gin (metadata jsonb_path_ops);
`

// ResumeCollection is a vectorstore.Collection stored in Postgres with pgvector.
// Rows of several named collections share one table, keyed by (collection, id).
type ResumeCollection struct {
	db       *pgxpool.Pool
	name     string
	embedder vectorstore.Embedder
}

// NewResumeCollection creates a collection named name over db.
// The pool must register pgvector types (pgxvec.RegisterTypes) in AfterConnect.
func NewResumeCollection(db *pgxpool.Pool, name string, embedder vectorstore.Embedder) *ResumeCollection {
	return &ResumeCollection{db: db, name: name, embedder: embedder}
}

// EnsureSchema creates the table and indexes for dims-dimensional embeddings.
func (r *ResumeCollection) EnsureSchema(ctx context.Context, dims int) error {
	if _, err := r.db.Exec(ctx, fmt.Sprintf(schemaSQL, dims)); err != nil {
		return fmt.Errorf("create resume_documents schema: %w", err)
	}

	return nil
}

// whereJSON encodes a metadata filter for the jsonb containment operator.
func whereJSON(where vectorstore.Where) (string, error) {
	if len(where) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(where)
	if err != nil {
		return "", fmt.Errorf("encode where filter: %w", err)
	}

	return string(b), nil
}

// Add embeds and upserts records in one transaction.
func (r *ResumeCollection) Add(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		if rec.ID == "" {
			return vectorstore.ErrMissingID
		}

		if strings.TrimSpace(rec.Document) == "" {
			return vectorstore.ErrEmptyDocument
		}
	}

	batch := &pgx.Batch{}

	for _, rec := range records {
		vec, err := r.embedder.CreateEmbedding(ctx, rec.Document)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", rec.ID, err)
		}

		md := rec.Metadata
		if md == nil {
			md = vectorstore.Metadata{}
		}

		mdJSON, err := json.Marshal(md)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", rec.ID, err)
		}

		batch.Queue(`
			INSERT INTO resume_documents (collection, id, document, metadata, embedding)
			VALUES ($1, $2, $3, $4::jsonb, $5)
			ON CONFLICT (collection, id) DO UPDATE
			SET document = EXCLUDED.document, metadata = EXCLUDED.metadata,
			    embedding = EXCLUDED.embedding, updated_at = now()`,
			r.name, rec.ID, rec.Document, string(mdJSON), pgvector.NewHalfVector(vec),
		)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert resume documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add: %w", err)
	}

	return nil
}

// Query returns the n nearest documents by cosine distance.
func (r *ResumeCollection) Query(ctx context.Context, text string, n int) ([]vectorstore.QueryResult, error) {
	if n <= 0 || strings.TrimSpace(text) == "" {
		return []vectorstore.QueryResult{}, nil
	}

	vec, err := r.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document, metadata, embedding <=> $2 AS distance
		FROM resume_documents
		WHERE collection = $1
		ORDER BY distance, id
		LIMIT $3`,
		r.name, pgvector.NewHalfVector(vec), n,
	)
	if err != nil {
		return nil, fmt.Errorf("query resume documents: %w", err)
	}
	defer rows.Close()

	results := []vectorstore.QueryResult{}

	for rows.Next() {
		var res vectorstore.QueryResult
		if err := rows.Scan(&res.ID, &res.Document, &res.Metadata, &res.Distance); err != nil {
			return nil, fmt.Errorf("scan query result: %w", err)
		}

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query results: %w", err)
	}

	return results, nil
}

// Get returns documents whose metadata contains every pair of where.
func (r *ResumeCollection) Get(ctx context.Context, where vectorstore.Where) ([]vectorstore.Record, error) {
	filter, err := whereJSON(where)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document, metadata
		FROM resume_documents
		WHERE collection = $1 AND metadata @> $2::jsonb`,
		r.name, filter,
	)
	if err != nil {
		return nil, fmt.Errorf("get resume documents: %w", err)
	}
	defer rows.Close()

	records := []vectorstore.Record{}

	for rows.Next() {
		var rec vectorstore.Record
		if err := rows.Scan(&rec.ID, &rec.Document, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("scan resume document: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resume documents: %w", err)
	}

	vectorstore.SortRecords(records)

	return records, nil
}

// Delete removes documents selected by ids, metadata, or both.
func (r *ResumeCollection) Delete(ctx context.Context, filter vectorstore.DeleteFilter) error {
	if filter.IsEmpty() {
		return vectorstore.ErrEmptyDeleteFilter
	}

	where, err := whereJSON(filter.Where)
	if err != nil {
		return err
	}

	var ids []string
	if len(filter.IDs) > 0 {
		ids = filter.IDs
	}

	_, err = r.db.Exec(ctx, `
		DELETE FROM resume_documents
		WHERE collection = $1
		  AND ($2::text[] IS NULL OR id = ANY($2::text[]))
		  AND metadata @> $3::jsonb`,
		r.name, ids, where,
	)
	if err != nil {
		return fmt.Errorf("delete resume documents: %w", err)
	}

	return nil
}

// Count returns the number of documents in the collection.
func (r *ResumeCollection) Count(ctx context.Context) (int, error) {
	var n int

	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM resume_documents WHERE collection = $1`, r.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count resume documents: %w", err)
	}

	return n, nil
}

var _ vectorstore.Collection = (*ResumeCollection)(nil)

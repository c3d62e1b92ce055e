package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	vecmath "github.com/hirescope/hirescope/pkg/embeddings"
)

const snapshotVersion = 1

type memoryEntry struct {
	Record
	Embedding []float32 `json:"embedding"`
}

type snapshot struct {
	Version    int           `json:"version"`
	Collection string        `json:"collection"`
	Entries    []memoryEntry `json:"entries"`
}

// MemoryCollection keeps the collection in process memory and optionally mirrors it
// to a JSON snapshot in a directory, rewritten after every mutation.
type MemoryCollection struct {
	mu       sync.RWMutex
	name     string
	embedder Embedder
	entries  map[string]memoryEntry
	path     string
	logger   *slog.Logger
}

// MemoryOption configures a MemoryCollection.
type MemoryOption func(*MemoryCollection)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(c *MemoryCollection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPersistDir mirrors the collection to <dir>/<name>.json. When the directory cannot be
// created or written, the collection falls back to memory only and logs a warning.
func WithPersistDir(dir string) MemoryOption {
	return func(c *MemoryCollection) {
		c.path = dir
	}
}

// NewMemoryCollection creates a collection and loads an existing snapshot when persistence is on.
func NewMemoryCollection(name string, embedder Embedder, opts ...MemoryOption) (*MemoryCollection, error) {
	c := &MemoryCollection{
		name:     name,
		embedder: embedder,
		entries:  make(map[string]memoryEntry),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.path == "" {
		return c, nil
	}

	dir := c.path
	c.path = ""

	if err := ensureWritableDir(dir); err != nil {
		c.logger.Warn("persist directory not writable, collection will reset on restart",
			"dir", dir, "error", err)

		return c, nil
	}

	c.path = filepath.Join(dir, name+".json")
	if err := c.load(); err != nil {
		return nil, err
	}

	c.logger.Info("using persistent collection", "path", c.path, "records", len(c.entries))

	return c, nil
}

// Persistent reports whether mutations are written to disk.
func (c *MemoryCollection) Persistent() bool {
	return c.path != ""
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("write probe: %w", err)
	}

	name := probe.Name()
	_ = probe.Close()

	return os.Remove(name)
}

func (c *MemoryCollection) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", c.path, err)
	}

	if snap.Version != snapshotVersion {
		return fmt.Errorf("snapshot %s: unsupported version %d", c.path, snap.Version)
	}

	for _, e := range snap.Entries {
		c.entries[e.ID] = e
	}

	return nil
}

// persistLocked writes the snapshot atomically. Caller holds the write lock.
func (c *MemoryCollection) persistLocked() error {
	if c.path == "" {
		return nil
	}

	snap := snapshot{Version: snapshotVersion, Collection: c.name, Entries: make([]memoryEntry, 0, len(c.entries))}
	for _, e := range c.entries {
		snap.Entries = append(snap.Entries, e)
	}

	sort.Slice(snap.Entries, func(i, j int) bool { return snap.Entries[i].ID < snap.Entries[j].ID })

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+c.name+"-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Add upserts records. Embeddings are computed before the lock is taken.
func (c *MemoryCollection) Add(ctx context.Context, records []Record) error {
	if err := validateRecords(records); err != nil {
		return err
	}

	embedded := make([]memoryEntry, 0, len(records))
	for _, r := range records {
		vec, err := c.embedder.CreateEmbedding(ctx, r.Document)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", r.ID, err)
		}

		embedded = append(embedded, memoryEntry{
			Record:    Record{ID: r.ID, Document: r.Document, Metadata: copyMetadata(r.Metadata)},
			Embedding: vec,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prior := make(map[string]*memoryEntry, len(embedded))
	for _, e := range embedded {
		if _, seen := prior[e.ID]; !seen {
			if old, ok := c.entries[e.ID]; ok {
				prior[e.ID] = &old
			} else {
				prior[e.ID] = nil
			}
		}

		c.entries[e.ID] = e
	}

	if err := c.persistLocked(); err != nil {
		c.restoreLocked(prior)

		return err
	}

	return nil
}

// restoreLocked puts back the entries captured before a failed mutation.
// A nil value marks an id that did not exist.
func (c *MemoryCollection) restoreLocked(prior map[string]*memoryEntry) {
	for id, e := range prior {
		if e == nil {
			delete(c.entries, id)

			continue
		}

		c.entries[id] = *e
	}
}

// Query returns the n nearest records by cosine distance.
func (c *MemoryCollection) Query(ctx context.Context, text string, n int) ([]QueryResult, error) {
	if n <= 0 || strings.TrimSpace(text) == "" {
		return []QueryResult{}, nil
	}

	vec, err := c.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	c.mu.RLock()
	results := make([]QueryResult, 0, len(c.entries))
	for _, e := range c.entries {
		results = append(results, QueryResult{
			ID:       e.ID,
			Document: e.Document,
			Metadata: copyMetadata(e.Metadata),
			Distance: vecmath.CosineDistance(vec, e.Embedding),
		})
	}
	c.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}

		return results[i].ID < results[j].ID
	})

	if len(results) > n {
		results = results[:n]
	}

	return results, nil
}

// Get returns records matching where.
func (c *MemoryCollection) Get(_ context.Context, where Where) ([]Record, error) {
	c.mu.RLock()
	records := []Record{}
	for _, e := range c.entries {
		if where.Matches(e.Metadata) {
			records = append(records, Record{ID: e.ID, Document: e.Document, Metadata: copyMetadata(e.Metadata)})
		}
	}
	c.mu.RUnlock()

	SortRecords(records)

	return records, nil
}

// Delete removes records selected by filter.
func (c *MemoryCollection) Delete(_ context.Context, filter DeleteFilter) error {
	if filter.IsEmpty() {
		return ErrEmptyDeleteFilter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prior := make(map[string]*memoryEntry)

	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			if e, ok := c.entries[id]; ok && filter.Where.Matches(e.Metadata) {
				prior[id] = &e

				delete(c.entries, id)
			}
		}
	} else {
		for id, e := range c.entries {
			if filter.Where.Matches(e.Metadata) {
				prior[id] = &e

				delete(c.entries, id)
			}
		}
	}

	if len(prior) == 0 {
		return nil
	}

	if err := c.persistLocked(); err != nil {
		c.restoreLocked(prior)

		return err
	}

	return nil
}

// Count returns the number of records.
func (c *MemoryCollection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries), nil
}

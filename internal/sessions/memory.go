package sessions

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hirescope/hirescope/internal/models"
)

// MemoryStore is an in-process expirable LRU of conversations.
type MemoryStore struct {
	lru *expirable.LRU[string, *models.Conversation]
}

// NewMemoryStore creates a store holding at most maxEntries conversations for ttl each.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	return &MemoryStore{lru: expirable.NewLRU[string, *models.Conversation](maxEntries, nil, ttl)}
}

// Get returns a copy of the conversation.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Conversation, error) {
	conv, ok := s.lru.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	return cloneConversation(conv), nil
}

// Save stores a copy of conv and restarts its TTL.
func (s *MemoryStore) Save(_ context.Context, conv *models.Conversation) error {
	s.lru.Add(conv.ID, cloneConversation(conv))

	return nil
}

var _ Store = (*MemoryStore)(nil)

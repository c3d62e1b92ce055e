// Package sessions stores chat conversations for a bounded time.
package sessions

import (
	"context"
	"errors"
	"sync"

	"github.com/hirescope/hirescope/internal/models"
)

// ErrNotFound is returned when a conversation does not exist or has expired.
var ErrNotFound = errors.New("sessions: conversation not found")

// Store keeps conversations keyed by id. Entries expire after the store's TTL; Save refreshes it.
type Store interface {
	Get(ctx context.Context, id string) (*models.Conversation, error)
	Save(ctx context.Context, conv *models.Conversation) error
}

// KeyedMutex serializes work per key. Locks for idle keys are released.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()

	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}

	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--

		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// cloneConversation deep-copies messages so callers cannot mutate stored state.
func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Messages = make([]models.ChatMessage, len(c.Messages))

	for i, m := range c.Messages {
		if m.Sources != nil {
			m.Sources = append([]models.CandidateMetadata(nil), m.Sources...)
		}

		out.Messages[i] = m
	}

	return &out
}

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nexusmind/nexusmind/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Store persists completed reasoning sessions so results can be fetched
// after the query response was delivered.
type Store interface {
	Save(ctx context.Context, data *model.SessionData) error
	Get(ctx context.Context, sessionID string) (*model.SessionData, error)
	Close() error
}

type memoryEntry struct {
	data      *model.SessionData
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used when Redis is not
// configured; contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (s *MemoryStore) Save(ctx context.Context, data *model.SessionData) error {
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[data.SessionID] = memoryEntry{data: data, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*model.SessionData, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.data, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

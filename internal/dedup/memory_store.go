package dedup

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// MemoryStore is a process-local Store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}

	// Fail makes every Admit return this error, simulating an unreachable
	// store.
	Fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Admit(_ context.Context, tenantID snowflake.ID, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return false, s.Fail
	}
	key := tenantID.String() + ":" + messageID
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Forget(_ context.Context, tenantID snowflake.ID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	delete(s.seen, tenantID.String()+":"+messageID)
	return nil
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/identity/domain"
)

type memoryEntry struct {
	principal domain.Principal
	expiresAt time.Time
}

// MemoryStore keeps principals in process memory. Sessions do not survive a
// restart and are not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryStore(clk clock.Clock, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		clock:   clk,
		ttl:     ttl,
		entries: map[string]memoryEntry{},
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.ttl > 0 && !s.clock.Now().Before(entry.expiresAt) {
		delete(s.entries, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	p := entry.principal
	p.GrantedRoles = append([]string(nil), entry.principal.GrantedRoles...)
	return &p, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, p *domain.Principal) error {
	if p == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	stored.GrantedRoles = append([]string(nil), p.GrantedRoles...)
	s.entries[sessionID] = memoryEntry{principal: stored, expiresAt: s.clock.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

var _ domain.Store = (*MemoryStore)(nil)

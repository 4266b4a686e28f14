// internal/pkg/session/memory_store.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"carbon-portal/internal/domain/identity"
)

// MemoryStore is a process-local Store. Nothing survives a restart.
type MemoryStore struct {
	mu  sync.RWMutex
	rec record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveToken(_ context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.AccessToken = accessToken
	s.rec.RefreshToken = refreshToken
	return nil
}

func (s *MemoryStore) SaveIdentity(_ context.Context, id *identity.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.User = raw
	return nil
}

func (s *MemoryStore) LoadIdentity(_ context.Context) (*identity.Identity, error) {
	s.mu.RLock()
	raw := s.rec.User
	s.mu.RUnlock()

	id, err := decodeIdentity(raw)
	if err != nil {
		return nil, nil
	}
	return id, nil
}

func (s *MemoryStore) HasToken(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.AccessToken != "", nil
}

func (s *MemoryStore) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.AccessToken, nil
}

// RefreshToken exposes the stored refresh token for tests and diagnostics.
func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.RefreshToken
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = record{}
	return nil
}

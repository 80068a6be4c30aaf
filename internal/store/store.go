// Package store owns the persisted credential record. All reads and writes
// of authentication state go through a Store; nothing else touches the
// underlying storage.
package store

import (
	"context"
	"sync"

	"github.com/ghnav/cli/internal/schema"
)

// Store persists the credential record. Get returns (nil, nil) when no
// record exists. Implementations must never hand a structurally invalid
// record to callers: a record that fails its contract is cleared and
// reported as absent.
type Store interface {
	Get(ctx context.Context) (*schema.AuthState, error)
	Set(ctx context.Context, state *schema.AuthState) error
	Remove(ctx context.Context) error
}

// AccessToken reads the bearer token for API requests, or "" when the user
// is not authenticated.
func AccessToken(ctx context.Context, s Store) (string, error) {
	state, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if state == nil || state.Token == nil {
		return "", nil
	}
	return state.Token.AccessToken, nil
}

// Memory is an in-memory Store. It backs tests and any context where
// durable storage is unavailable.
type Memory struct {
	mu    sync.Mutex
	state *schema.AuthState
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context) (*schema.AuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, nil
	}
	if res := schema.SafeValidate(*m.state); !res.Valid {
		m.state = nil
		return nil, nil
	}
	cp := *m.state
	return &cp, nil
}

func (m *Memory) Set(_ context.Context, state *schema.AuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.state = &cp
	return nil
}

func (m *Memory) Remove(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

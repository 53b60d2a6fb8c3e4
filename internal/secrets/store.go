package secrets

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCredentialMissing signals that no credential is configured for a platform.
var ErrCredentialMissing = errors.New("credential missing")

// Credential is an opaque platform login secret. The value must never be
// logged or persisted by the caller.
type Credential struct {
	Token string
}

// Store resolves per-platform credentials. Implementations must be safe for
// concurrent reads.
type Store interface {
	// Get returns the credential for the given platform id or
	// ErrCredentialMissing when none is configured.
	Get(platformID string) (Credential, error)
}

// SourceStore is a Store backed by configured secret sources, one per
// platform id.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewSourceStore() *SourceStore {
	return &SourceStore{sources: make(map[string]Source)}
}

// Register associates a secret source with a platform id.
func (s *SourceStore) Register(platformID string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[platformID] = src
}

func (s *SourceStore) Get(platformID string) (Credential, error) {
	s.mu.RLock()
	src, ok := s.sources[platformID]
	s.mu.RUnlock()

	if !ok {
		return Credential{}, fmt.Errorf("platform %q: %w", platformID, ErrCredentialMissing)
	}

	value, err := Load(src)
	if err != nil {
		return Credential{}, fmt.Errorf("platform %q: %w: %w", platformID, ErrCredentialMissing, err)
	}

	return Credential{Token: value}, nil
}

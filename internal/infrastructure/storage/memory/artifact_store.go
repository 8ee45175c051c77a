// Package memory holds a process-local artifact store for deployments
// without object storage: local development and tests.  Artifacts do not
// survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// ArtifactStore implements credibility.ArtifactStore in memory.
type ArtifactStore struct {
	mu       sync.RWMutex
	versions map[int]credibility.Model
	current  int
}

func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{versions: make(map[int]credibility.Model)}
}

// Save stores a copy of the model and marks it current.
func (s *ArtifactStore) Save(_ context.Context, m *credibility.Model) error {
	if m == nil {
		return errors.New(errors.ErrCodeModelInputInvalid, "nil model artifact")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[m.Version] = *m
	s.current = m.Version
	return nil
}

// LoadCurrent returns a copy of the deployed model.
func (s *ArtifactStore) LoadCurrent(_ context.Context) (*credibility.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.versions[s.current]
	if !ok {
		return nil, errors.New(errors.ErrCodeModelNotDeployed, "no model artifact deployed")
	}
	out := m
	return &out, nil
}

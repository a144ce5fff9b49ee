package core

import (
	"context"
	"sync"
	"time"
)

// MemoryJobStore keeps job status in process memory. It is the default
// when no Redis address is configured.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]JobStatus
}

// NewMemoryJobStore creates an empty store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]JobStatus)}
}

// Save implements JobStore.
func (s *MemoryJobStore) Save(_ context.Context, status JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[status.ID] = status
	return nil
}

// Get implements JobStore.
func (s *MemoryJobStore) Get(_ context.Context, id string) (JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.jobs[id]
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return status, nil
}

// Purge implements JobStore. Unfinished jobs are never purged.
func (s *MemoryJobStore) Purge(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, status := range s.jobs {
		if status.State.Terminal() && status.FinishedAt != nil && status.FinishedAt.Before(before) {
			delete(s.jobs, id)
			purged++
		}
	}
	return purged, nil
}

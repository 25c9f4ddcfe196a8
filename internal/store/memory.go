package store

import (
	"context"
	"sync"
	"time"

	"mirage/internal/domain"
)

// Memory is the process-local job store. Records live for the server's
// lifetime and are reclaimed by the sweeper once older than the retention
// threshold.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// NewMemory creates an empty in-memory job store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]domain.Job)}
}

// Put inserts or overwrites the record for job.ID. The original creation
// time is preserved across overwrites so the sweep always measures age from
// first insert. A terminal record is never replaced with a different
// terminal payload; redelivered identical writes are accepted as no-ops.
func (s *Memory) Put(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[job.ID]; ok {
		job.CreatedAt = prev.CreatedAt
		if prev.Terminal() {
			if job.Status != prev.Status || job.Image != prev.Image || job.Error != prev.Error {
				return nil
			}
		}
	} else if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	s.jobs[job.ID] = job
	return nil
}

// Get returns the record for id, or domain.ErrNotFound.
func (s *Memory) Get(_ context.Context, id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return job, nil
}

// Sweep removes records older than maxAge, terminal or not.
func (s *Memory) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live records.
func (s *Memory) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

var _ domain.JobStore = (*Memory)(nil)

// MemoryRelay holds decoded relay callback payloads in-process.
type MemoryRelay struct {
	mu       sync.RWMutex
	payloads map[string]string
}

// NewMemoryRelay creates an empty in-memory relay store.
func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{payloads: make(map[string]string)}
}

func (s *MemoryRelay) Save(_ context.Context, id, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[id] = payload
	return nil
}

func (s *MemoryRelay) Load(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.payloads[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return payload, nil
}

var _ domain.RelayStore = (*MemoryRelay)(nil)

package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem JobStore")

type storedJob struct {
	job       jobModel.Job
	expiresAt time.Time
}

// InMemoryJobStore is the fallback when redis is offline. Jobs expire like their redis keys do.
type InMemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]storedJob
	ttl  time.Duration
	now  func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return NewInMemoryJobStore(config.RedisJobStoreTTL)
}

func NewInMemoryJobStore(ttl time.Duration) *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs: make(map[string]storedJob),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pruned := 0
	for id, stored := range s.jobs {
		if now.After(stored.expiresAt) {
			delete(s.jobs, id)
			pruned++
		}
	}
	s.jobs[job.Id] = storedJob{job: job, expiresAt: now.Add(s.ttl)}
	inMemLogger.WithTrace(ctx).Debug("Saved job", "jobId", job.Id, "status", job.Status, "expired", pruned)
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, found := s.jobs[jobId]
	if found && s.now().After(stored.expiresAt) {
		found = false
	}
	inMemLogger.WithTrace(ctx).Debug("Looked up job", "jobId", jobId, "found", found)
	if !found {
		return jobModel.Job{}, false
	}
	return stored.job, true
}

func (s *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

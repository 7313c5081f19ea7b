package store

import (
	"context"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/redisStore"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

func jobKey(id string) string { return "job:" + id }

// RedisJobStore keeps jobs as JSON values that expire after config.RedisJobStoreTTL.
type RedisJobStore struct {
	redis  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisJobStore returns nil when redis is offline.
func GetRedisJobStore(ctx context.Context, cfg config.RedisConfig) *RedisJobStore {
	s := redisStore.GetRedisStore(ctx, cfg, config.RedisJobStore)
	if s == nil {
		return nil
	}
	return newRedisJobStore(s, "JobStore")
}

func TestJobStore(s *redisStore.Store) *RedisJobStore {
	return newRedisJobStore(s, "test redis")
}

func newRedisJobStore(s *redisStore.Store, component string) *RedisJobStore {
	return &RedisJobStore{redis: s, logger: logger_i.NewLogger(component)}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	if err := s.redis.PutJSON(ctx, jobKey(job.Id), job, config.RedisJobStoreTTL); err != nil {
		s.logger.WithTrace(ctx).Error("Saving job failed", "jobId", job.Id, "error", err)
		return err
	}
	s.logger.WithTrace(ctx).Debug("Saved job", "jobId", job.Id, "status", job.Status)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	found, err := s.redis.GetJSON(ctx, jobKey(jobId), &job)
	if err != nil {
		s.logger.WithTrace(ctx).Error("Reading job failed", "jobId", jobId, "error", err)
		return jobModel.Job{}, false
	}
	return job, found
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobId string) {
	if err := s.redis.Remove(ctx, jobKey(jobId)); err != nil {
		s.logger.Error("Deleting job failed", "jobId", jobId, "error", err)
	}
}

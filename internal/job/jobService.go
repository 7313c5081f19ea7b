// Package job is the queue between the HTTP handlers, which produce jobs, and the worker
// pool, which consumes them.
package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore

	enqueued atomic.Int64
}

// ServiceConfig leaves the channels optional; missing ones are made with the default buffer.
type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore
}

var logger = logger_i.NewLogger("JobService")

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		cfg.JobChannel = make(chan jobModel.Job, config.BufferLimit)
	}
	if cfg.DispatcherChannel == nil {
		cfg.DispatcherChannel = make(chan bool, 1)
	}
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		MessageStore:      cfg.MessageStore,
	}
}

// Enqueue saves j as queued and hands it to the workers. The send blocks while the buffer is
// full. Every RequestsPerNewWorkerCount jobs, and on every ingestion, the dispatcher is asked
// for one more worker; it reports whether that signal went out.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) bool {
	log := logger.WithTrace(ctx).With("jobId", j.Id)
	j.Status = jobModel.JobStatusQueued

	// saved first so a status poll right after 202 finds the job
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Saving queued job failed", "error", err)
	}
	metrics.IncrementJobsInQueue()
	s.JobChannel <- j
	log.Info("Queued job", "type", j.JobType)

	n := s.enqueued.Add(1)
	if n%config.RequestsPerNewWorkerCount != 0 && j.JobType != jobModel.JobTypeIngest {
		return false
	}
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
		return true
	default:
		log.Debug("Dispatcher busy, skipping worker signal", "enqueued", n)
		return false
	}
}

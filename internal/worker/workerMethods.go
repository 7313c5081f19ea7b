package worker

import (
	"context"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.JobType), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()
	log := logger.WithTrace(ctx).With("jobId", job.Id)
	log.Debug("Processing job", "type", job.JobType)

	job.Status = jobModel.JobStatusRunning
	saveJobState(ctx, job, log)

	if job.JobType == jobModel.JobTypeIngest {
		job.CurrentStep = jobModel.IngestProcessing
		job = _ragService.IngestDocument(ctx, job)
	} else {
		job.CurrentStep = jobModel.RedisCall
		job = processQuery(ctx, job, log)
	}

	job.EndTime = time.Now()
	if job.Status != jobModel.JobStatusError {
		job.Status = jobModel.JobStatusComplete
	}
	saveJobState(ctx, job, log)
	log.Info("Job finished", "status", job.Status, "elapsed", time.Since(start))
}

func removeWorker(reason string) {
	running.Done()
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason)
}

func processQuery(ctx context.Context, job jobModel.Job, log *logger_i.Logger) jobModel.Job {
	history, err := _jobService.MessageStore.GetMessageHistory(ctx, job.ChatId, config.ChatHistoryContext)
	if err != nil {
		log.Warn("Failed to get message history", "error", err)
	}

	asked := time.Now().UTC()
	job = _ragService.ProcessRequest(ctx, job, history)
	if job.Status == jobModel.JobStatusError {
		return job
	}

	err = _jobService.MessageStore.TrySaveChat(ctx, job.ChatId,
		jobModel.ChatMessage{Role: jobModel.RoleUser, Content: job.JobPayload.Question, Timestamp: asked},
		jobModel.ChatMessage{Role: jobModel.RoleAI, Content: job.JobPayload.Answer, Timestamp: time.Now().UTC()},
	)
	if err != nil {
		log.Error("Failed to save chat history", "error", err)
	}
	return job
}

func saveJobState(ctx context.Context, job jobModel.Job, log *logger_i.Logger) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to update job state", "status", job.Status, "error", err)
	}
}

package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("Processing job", "step", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string, code int, canRetry bool) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "step", job.CurrentStep, "error", err)

	job.Error = jobModel.JobError{
		Code:    code,
		Message: message + ": " + err.Error(),
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func toLLMHistory(history []jobModel.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == jobModel.RoleAI {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

// executeWebpageStep scrapes the job's page, or falls back to the page last scraped in this chat.
func (s *service) executeWebpageStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) (string, error) {
	url := job.JobPayload.WebpageURL
	if url == "" {
		return s.pageFor(job.ChatId), nil
	}
	*job = logOutput(*job, jobModel.WebpageCall, log)
	if s.scraper == nil {
		return "", errors.New("no scraper configured")
	}
	page, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return "", err
	}
	s.rememberPage(job.ChatId, page.Content)
	return page.Content, nil
}

func (s *service) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) (string, []string, error) {
	*job = logOutput(*job, jobModel.RAGCall, log)
	return s.retrieve(ctx, job.JobPayload.Question)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, prompt string, history []llm.Message) (string, string, error) {
	*job = logOutput(*job, jobModel.LLMCall, log)
	if s.models == nil {
		return "", "", errors.New("no model registry configured")
	}

	provider, err := s.models.Provider(ctx, job.JobPayload.Model)
	if err != nil {
		return "", "", err
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	answer, err := provider.Generate(ctx, prompt, history, nil)
	return answer, provider.Model(), err
}

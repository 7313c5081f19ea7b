package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
	logRH           = logger_i.NewLogger("RequestHandler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}
		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(ctx context.Context, newJob newJobData) {
	log := logJH.WithTrace(ctx).With("jobId", newJob.id)
	if newJob.isNewChat {
		log.Debug("Creating new chat", "chatId", newJob.chatId)
		handlerInstance.initNewChat(ctx, newJob.chatId)
	}
	handlerInstance.pushToJobChannel(ctx, newJob)
}

// QueueIngestJob enqueues an ingestion run outside a request, e.g. from the directory watcher.
// It returns the job id, or "" when the job handler is not initialised.
func QueueIngestJob(ctx context.Context, documentName string) string {
	if handlerInstance == nil {
		return ""
	}
	newJob := newJobData{
		id:               utils.GetNewUUID(),
		isDocumentIngest: true,
		documentName:     documentName,
	}
	newJob.traceId, _ = ctx.Value(config.TRACE_ID_KEY).(string)
	CreateNewJob(ctx, newJob)
	return newJob.id
}

func GetJobStatus(ctx context.Context, id string) (result jobModel.Job, isFound bool) {
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctx, id)
	}
	return result, false
}

func ValidateChatRequest(ctx context.Context, chatReq api.ChatRequest) bool {
	if handlerInstance == nil {
		return false
	}
	if chatReq.Message == "" {
		return false
	}
	if chatReq.ChatID == "" {
		return true
	}
	logJH.WithTrace(ctx).Debug("Validating chat id", "chatId", chatReq.ChatID)
	return handlerInstance.service.MessageStore.ValidateChatId(ctx, chatReq.ChatID)
}

// GetChatHistory returns every message of a chat, oldest first.
func GetChatHistory(ctx context.Context, chatId string) ([]jobModel.ChatMessage, bool) {
	if handlerInstance == nil || !handlerInstance.service.MessageStore.ValidateChatId(ctx, chatId) {
		return nil, false
	}
	messages, err := handlerInstance.service.MessageStore.GetMessageHistory(ctx, chatId, 0)
	if err != nil {
		logJH.WithTrace(ctx).Error("Reading chat history failed", "chatId", chatId, "error", err)
		return nil, false
	}
	return messages, true
}

func (h *JobHandler) pushToJobChannel(ctx context.Context, newJob newJobData) {
	j := jobModel.Job{
		Id:          newJob.id,
		CreatedTime: time.Now(),
		TraceId:     newJob.traceId,
	}
	if newJob.isDocumentIngest {
		j.JobType = jobModel.JobTypeIngest
		j.CurrentStep = jobModel.IngestInit
		j.JobPayload.IngestFileName = newJob.documentName
	} else {
		j.JobType = jobModel.JobTypeQuery
		j.CurrentStep = jobModel.UserQueryInit
		j.ChatId = newJob.chatId
		j.JobPayload = jobModel.JobPayload{
			Question:   newJob.message,
			Model:      newJob.model,
			WebpageURL: newJob.webpageURL,
		}
	}
	h.service.Enqueue(ctx, j)
}

func (h *JobHandler) initNewChat(ctx context.Context, chatId string) {
	if err := h.service.MessageStore.InitNewChat(ctx, chatId); err != nil {
		logJH.WithTrace(ctx).Error("Error initiating new chat", "chatId", chatId, "error", err)
	}
}

package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

func ToInitJobResponse(id string, chatId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		ChatId:    chatId,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
		Step:   string(job.CurrentStep),
	}
	if job.JobType == jobModel.JobTypeIngest {
		result.Ingest = ToIngestSummary(job.JobPayload)
	} else {
		result.RAGExternalResponse = ToRAGExternalStatus(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		JobType:   string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question:    ragData.Question,
		Answer:      ragData.Answer,
		Model:       ragData.Model,
		WebpageURL:  ragData.WebpageURL,
		ContextUsed: ragData.ContextUsed,
		Sources:     ragData.Sources,
	}
}

func ToIngestSummary(payload jobModel.JobPayload) *api.IngestSummary {
	if payload.Ingest == nil {
		if payload.IngestFileName == "" {
			return nil
		}
		return &api.IngestSummary{FileName: payload.IngestFileName}
	}
	s := payload.Ingest
	return &api.IngestSummary{
		FileName:        payload.IngestFileName,
		FilesDiscovered: s.FilesDiscovered,
		FilesProcessed:  s.FilesProcessed,
		FilesSkipped:    s.FilesSkipped,
		FilesFailed:     s.FilesFailed,
		Documents:       s.Documents,
		Chunks:          s.Chunks,
		Failures:        s.Failures,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

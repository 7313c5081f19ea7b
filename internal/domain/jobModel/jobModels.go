package jobModel

import "time"

// JobStatus is what clients see on /status.
type JobStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"
)

// InternalStatus is the pipeline step a job is in, or failed in.
type InternalStatus string

// Chat steps.
const (
	UserQueryInit InternalStatus = "Init"
	WebpageCall   InternalStatus = "Webpage"
	RAGCall       InternalStatus = "RAG"
	LLMCall       InternalStatus = "LLM"
	RedisCall     InternalStatus = "Redis"
)

// Ingestion steps.
const (
	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
)

const Complete InternalStatus = "Complete"

type JobType string

const (
	JobTypeQuery  JobType = "Query"
	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	ChatId      string         `json:"chat_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

// JobError carries an HTTP-style code; Retry tells the client whether resubmitting may help.
type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// JobPayload is the input and output of a job. Chat jobs use the first block, ingestion
// jobs the second.
type JobPayload struct {
	Question    string   `json:"question,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Model       string   `json:"model,omitempty"`
	WebpageURL  string   `json:"webpage_url,omitempty"`
	ContextUsed bool     `json:"context_used,omitempty"`
	Sources     []string `json:"sources,omitempty"`

	IngestFileName string         `json:"ingest_file_name,omitempty"`
	Ingest         *IngestSummary `json:"ingest,omitempty"`
}

// IngestSummary is what one ingestion run did.
type IngestSummary struct {
	FilesDiscovered int               `json:"files_discovered"`
	FilesProcessed  int               `json:"files_processed"`
	FilesSkipped    int               `json:"files_skipped"`
	FilesFailed     int               `json:"files_failed"`
	Documents       int               `json:"documents"`
	Chunks          int               `json:"chunks"`
	Failures        map[string]string `json:"failures,omitempty"`
}

package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id,omitempty" example:"chat_550"`
	JobType   string            `json:"job_type,omitempty" example:"Query"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Model       string   `json:"model,omitempty" example:"llama3.2"`
	WebpageURL  string   `json:"webpage_url,omitempty"`
	ContextUsed bool     `json:"context_used"`
	Sources     []string `json:"sources,omitempty" example:"data/notes.pdf (Page 2)"`
}

type IngestSummary struct {
	FileName        string            `json:"file_name,omitempty"`
	FilesDiscovered int               `json:"files_discovered"`
	FilesProcessed  int               `json:"files_processed"`
	FilesSkipped    int               `json:"files_skipped"`
	FilesFailed     int               `json:"files_failed"`
	Documents       int               `json:"documents"`
	Chunks          int               `json:"chunks"`
	Failures        map[string]string `json:"failures,omitempty"`
}

type Result struct {
	Status              string         `json:"status" example:"COMPLETE"`
	Step                string         `json:"step,omitempty" example:"LLM"`
	RAGExternalResponse *RAGResponse   `json:"rag_response,omitempty"`
	Ingest              *IngestSummary `json:"ingest,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	ChatId    string `json:"chat_id,omitempty"`
	StatusURL string `json:"status_url"`
}

type ChatMessage struct {
	Role      string    `json:"role" example:"user"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryResponse struct {
	ChatId   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"`
}

type ContextResponse struct {
	Context string `json:"context"`
}

type QueryResult struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity" example:"0.82"`
}

type QueryResponse struct {
	Query   string        `json:"query"`
	Results []QueryResult `json:"results"`
}

type Collection struct {
	Name     string            `json:"name" example:"documents"`
	Metadata map[string]string `json:"metadata"`
	Count    int               `json:"count"`
}

type CollectionsResponse struct {
	Collections []Collection `json:"collections"`
}

type StatsResponse struct {
	TotalDocuments   int    `json:"total_documents"`
	CollectionName   string `json:"collection_name"`
	PersistDirectory string `json:"persist_directory,omitempty"`
}

type RAGSettings struct {
	Enabled  bool `json:"enabled"`
	NResults int  `json:"n_results" example:"3"`
}

type ModelsResponse struct {
	Default   string   `json:"default"`
	Available []string `json:"available"`
	Running   []string `json:"running"`
}

// requests---------------------

type ChatRequest struct {
	Message    string `json:"message" validate:"required"`
	ChatID     string `json:"chat_id,omitempty"`
	Model      string `json:"model,omitempty" example:"llama3.2"`
	WebpageURL string `json:"webpage_url,omitempty" example:"example.com/about"`
}

type ContextRequest struct {
	Query string `json:"query" validate:"required"`
}

type QueryRequest struct {
	Query string `json:"query" validate:"required"`
	K     int    `json:"k,omitempty" example:"5"`
}

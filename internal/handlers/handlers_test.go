package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/go-chi/chi/v5"
)

// --- Mocks ---

type mockRAG struct {
	rag.Service
	OnQuery            func(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error)
	OnGetContext       func(ctx context.Context, query string) (string, bool, error)
	OnDeleteCollection func(ctx context.Context, name string) error
	settings           rag.Settings
}

func (m *mockRAG) Query(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, query, k)
	}
	return nil, nil
}

func (m *mockRAG) GetContext(ctx context.Context, query string) (string, bool, error) {
	if m.OnGetContext != nil {
		return m.OnGetContext(ctx, query)
	}
	return "", false, nil
}

func (m *mockRAG) Stats(ctx context.Context) (vectorDB.Stats, error) {
	return vectorDB.Stats{TotalDocuments: 4, CollectionName: "documents"}, nil
}

func (m *mockRAG) ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error) {
	return []commonModels.CollectionInfo{{Name: "documents", Count: 4, Metadata: map[string]string{"hnsw:space": "cosine"}}}, nil
}

func (m *mockRAG) DeleteCollection(ctx context.Context, name string) error {
	if m.OnDeleteCollection != nil {
		return m.OnDeleteCollection(ctx, name)
	}
	return nil
}

func (m *mockRAG) ResetCollection(ctx context.Context) error { return nil }

func (m *mockRAG) Settings() rag.Settings { return m.settings }

func (m *mockRAG) UpdateSettings(s rag.Settings) rag.Settings {
	m.settings = s
	return s
}

func (m *mockRAG) Models(ctx context.Context) rag.ModelCatalogue {
	return rag.ModelCatalogue{Default: "llama3.2", Available: []string{"llama3.2"}, Running: []string{}}
}

var (
	testService *job.Service
	testRAG     = &mockRAG{settings: rag.Settings{NResults: config.DefaultNResults}}
	testDataDir string
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "docchat-handlers")
	if err != nil {
		panic(err)
	}
	testDataDir = dir

	testService = job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		MessageStore:      store.InitMessageStore(),
	})
	InitJobHandler(testService)
	InitRAGHandler(testRAG, UploadConfig{
		DataDir:  dir,
		Supports: func(path string) bool { return strings.HasSuffix(path, ".txt") || strings.HasSuffix(path, ".pdf") },
	})

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Post("/chat", ChatHandler)
	r.Get("/chat/{id}/history", GetHistoryHandler)
	r.Get("/status/{id}", GetStatusHandler)
	r.Post("/ingest", PostIngestHandler)
	r.Post("/context", PostContextHandler)
	r.Post("/query", PostQueryHandler)
	r.Get("/collections", GetCollectionsHandler)
	r.Get("/collections/stats", GetStatsHandler)
	r.Delete("/collections/{name}", DeleteCollectionHandler)
	r.Post("/collections/reset", ResetCollectionHandler)
	r.Get("/settings/rag", GetSettingsHandler)
	r.Put("/settings/rag", PutSettingsHandler)
	r.Get("/models", GetModelsHandler)
	return r
}

func do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(context.WithValue(req.Context(), config.TRACE_ID_KEY, "trace-test"))
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	return rec
}

func drainJobs() []jobModel.Job {
	var jobs []jobModel.Job
	for {
		select {
		case j := <-testService.JobChannel:
			jobs = append(jobs, j)
		default:
			return jobs
		}
	}
}

// --- Jobs ---

func TestChatHandler(t *testing.T) {
	drainJobs()

	rec := do(t, http.MethodPost, "/chat", api.ChatRequest{Message: "Where can I rent a kayak?", WebpageURL: "example.com"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.InitJobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Id == "" || resp.ChatId == "" || resp.StatusURL != "status/"+resp.Id {
		t.Errorf("unexpected response %+v", resp)
	}

	jobs := drainJobs()
	if len(jobs) != 1 {
		t.Fatalf("expected one queued job, got %d", len(jobs))
	}
	queued := jobs[0]
	if queued.JobType != jobModel.JobTypeQuery || queued.TraceId != "trace-test" || queued.JobPayload.WebpageURL != "example.com" {
		t.Errorf("queued job got %+v", queued)
	}

	status := do(t, http.MethodGet, "/status/"+resp.Id, nil)
	if status.Code != http.StatusOK {
		t.Fatalf("status got %d", status.Code)
	}
	var jr api.JobResponse
	_ = json.Unmarshal(status.Body.Bytes(), &jr)
	if jr.Result.Status != string(jobModel.JobStatusQueued) || jr.ChatId != resp.ChatId {
		t.Errorf("status body got %+v", jr)
	}

	// a follow-up in the same chat is accepted and keeps the chat id
	rec = do(t, http.MethodPost, "/chat", api.ChatRequest{Message: "And on Sundays?", ChatID: resp.ChatId})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("follow-up got %d", rec.Code)
	}
	if jobs := drainJobs(); len(jobs) != 1 || jobs[0].ChatId != resp.ChatId {
		t.Errorf("follow-up job got %+v", jobs)
	}
}

func TestChatHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{not json"},
		{"empty message", api.ChatRequest{}},
		{"unknown chat", api.ChatRequest{Message: "hi", ChatID: "no-such-chat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, http.MethodPost, "/chat", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
	if jobs := drainJobs(); len(jobs) != 0 {
		t.Errorf("bad requests queued %d jobs", len(jobs))
	}
}

func TestGetStatusHandler_NotFound(t *testing.T) {
	rec := do(t, http.MethodGet, "/status/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var jr api.JobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &jr); err != nil {
		t.Fatalf("body should be a single json document: %v", err)
	}
	if jr.Error == nil || jr.Error.Code != http.StatusNotFound {
		t.Errorf("error body got %+v", jr)
	}
}

func TestGetHistoryHandler(t *testing.T) {
	ctx := context.Background()
	chatId := "chat-history-test"
	if err := testService.MessageStore.InitNewChat(ctx, chatId); err != nil {
		t.Fatal(err)
	}
	_ = testService.MessageStore.TrySaveChat(ctx, chatId,
		jobModel.ChatMessage{Role: jobModel.RoleUser, Content: "hello"},
		jobModel.ChatMessage{Role: jobModel.RoleAI, Content: "hi there"})

	rec := do(t, http.MethodGet, "/chat/"+chatId+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var hr api.HistoryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &hr)
	if len(hr.Messages) != 2 || hr.Messages[0].Content != "hello" || hr.Messages[1].Role != jobModel.RoleAI {
		t.Errorf("history got %+v", hr)
	}

	if rec := do(t, http.MethodGet, "/chat/unknown/history", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown chat got %d", rec.Code)
	}
}

func multipartUpload(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", name)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(content))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPostIngestHandler(t *testing.T) {
	drainJobs()

	t.Run("upload is saved and a job queued", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter().ServeHTTP(rec, multipartUpload(t, "../../notes.txt", "The marina opens at eight."))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		if _, err := os.Stat(filepath.Join(testDataDir, "notes.txt")); err != nil {
			t.Errorf("upload not in data dir: %v", err)
		}
		jobs := drainJobs()
		if len(jobs) != 1 || jobs[0].JobType != jobModel.JobTypeIngest || jobs[0].JobPayload.IngestFileName != "notes.txt" {
			t.Errorf("queued jobs got %+v", jobs)
		}
	})

	t.Run("same name does not overwrite", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter().ServeHTTP(rec, multipartUpload(t, "notes.txt", "second version"))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		original, _ := os.ReadFile(filepath.Join(testDataDir, "notes.txt"))
		if string(original) != "The marina opens at eight." {
			t.Errorf("original upload was overwritten: %q", original)
		}
		drainJobs()
	})

	t.Run("unsupported format", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter().ServeHTTP(rec, multipartUpload(t, "tool.exe", "MZ"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if jobs := drainJobs(); len(jobs) != 0 {
			t.Errorf("rejected upload queued %d jobs", len(jobs))
		}
	})

	t.Run("no upload runs over pending files", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/ingest", nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if jobs := drainJobs(); len(jobs) != 1 || jobs[0].JobPayload.IngestFileName != "" {
			t.Errorf("queued jobs got %+v", jobs)
		}
	})
}

// --- Retrieval and admin ---

func TestPostQueryHandler(t *testing.T) {
	var gotK int
	testRAG.OnQuery = func(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error) {
		gotK = k
		return []commonModels.QueryResult{{ID: "doc_1_0", Content: "kayaks", Similarity: 0.8}}, nil
	}
	defer func() { testRAG.OnQuery = nil }()

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantK    int
	}{
		{"default k", api.QueryRequest{Query: "kayak"}, http.StatusOK, config.DefaultNResults},
		{"explicit k", api.QueryRequest{Query: "kayak", K: 7}, http.StatusOK, 7},
		{"capped k", api.QueryRequest{Query: "kayak", K: 5000}, http.StatusOK, maxQueryResults},
		{"negative k", api.QueryRequest{Query: "kayak", K: -1}, http.StatusBadRequest, 0},
		{"blank query", api.QueryRequest{Query: "  "}, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotK = 0
			rec := do(t, http.MethodPost, "/query", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if gotK != tt.wantK {
				t.Errorf("k passed to service = %d, want %d", gotK, tt.wantK)
			}
		})
	}
}

func TestPostContextHandler(t *testing.T) {
	defer func() { testRAG.OnGetContext = nil }()

	testRAG.OnGetContext = func(ctx context.Context, query string) (string, bool, error) { return "", false, nil }
	if rec := do(t, http.MethodPost, "/context", api.ContextRequest{Query: "kayak"}); rec.Code != http.StatusNoContent {
		t.Errorf("no context should be 204, got %d", rec.Code)
	}

	testRAG.OnGetContext = func(ctx context.Context, query string) (string, bool, error) {
		return "RAG Context (showing top 1 relevant documents):", true, nil
	}
	rec := do(t, http.MethodPost, "/context", api.ContextRequest{Query: "kayak"})
	var cr api.ContextResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &cr)
	if rec.Code != http.StatusOK || !strings.HasPrefix(cr.Context, "RAG Context") {
		t.Errorf("got %d %+v", rec.Code, cr)
	}

	testRAG.OnGetContext = func(ctx context.Context, query string) (string, bool, error) {
		return "", false, commonModels.ErrQueryFailure
	}
	if rec := do(t, http.MethodPost, "/context", api.ContextRequest{Query: "kayak"}); rec.Code != http.StatusInternalServerError {
		t.Errorf("query failure should be 500, got %d", rec.Code)
	}
}

func TestCollectionHandlers(t *testing.T) {
	testRAG.OnDeleteCollection = func(ctx context.Context, name string) error {
		if name != "documents" {
			return commonModels.ErrCollectionNotFound
		}
		return nil
	}
	defer func() { testRAG.OnDeleteCollection = nil }()

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{http.MethodGet, "/collections", http.StatusOK},
		{http.MethodGet, "/collections/stats", http.StatusOK},
		{http.MethodPost, "/collections/reset", http.StatusOK},
		{http.MethodDelete, "/collections/documents", http.StatusNoContent},
		{http.MethodDelete, "/collections/missing", http.StatusNotFound},
		{http.MethodGet, "/models", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rec := do(t, tt.method, tt.path, nil); rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestSettingsHandlers(t *testing.T) {
	rec := do(t, http.MethodPut, "/settings/rag", api.RAGSettings{Enabled: true, NResults: 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, http.MethodGet, "/settings/rag", nil)
	var s api.RAGSettings
	_ = json.Unmarshal(rec.Body.Bytes(), &s)
	if !s.Enabled || s.NResults != 5 {
		t.Errorf("settings got %+v", s)
	}

	if rec := do(t, http.MethodPut, "/settings/rag", api.RAGSettings{Enabled: true}); rec.Code != http.StatusBadRequest {
		t.Errorf("n_results 0 should be 400, got %d", rec.Code)
	}
}

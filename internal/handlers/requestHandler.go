package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/config"
)

const maxUploadSize = 32 << 20 //32mb

type newJobData struct {
	id               string
	chatId           string
	message          string
	model            string
	webpageURL       string
	isNewChat        bool
	traceId          string
	isDocumentIngest bool
	documentName     string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatHandler godoc
// @Summary      Start a new chat job
// @Description  Accepts a message (optionally a model and a webpage to read), queues a background job and returns its id. Poll /status/{id} for the answer.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Message, optional chat id, model and webpage url"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or chat ID"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request) {
		return
	}

	var requestData api.ChatRequest
	defer closeBody(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateChatRequest(request.Context(), requestData) {
		logRH.WithTrace(request.Context()).Warn("Bad chat request", "error", err, "chatId", requestData.ChatID)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ChatID, "Bad Request")
		return
	}

	chatID := requestData.ChatID
	isNewChat := chatID == ""
	if isNewChat {
		chatID = utils.GetNewUUID()
	}
	processNewJobData(w, request, newJobData{
		chatId:     chatID,
		message:    requestData.Message,
		model:      requestData.Model,
		webpageURL: requestData.WebpageURL,
		isNewChat:  isNewChat,
	})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a chat or ingestion job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(r, idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// GetHistoryHandler godoc
// @Summary      Get chat history
// @Description  Returns every message of a chat, oldest first.
// @Tags         Messaging
// @Produce      json
// @Param        id   path      string  true  "Chat ID"
// @Success      200  {object}  api.HistoryResponse
// @Failure      404  {object}  api.JobResponse  "Chat not found"
// @Router       /chat/{id}/history [get]
func GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	chatId := utils.GetChiURLParam(r, "id")
	messages, found := GetChatHistory(r.Context(), chatId)
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, chatId, "Chat not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(chatId, messages))
}

// PostIngestHandler godoc
// @Summary      Run document ingestion
// @Description  Queues an ingestion run over the data directory. An optional multipart upload (field "document", a .pdf, .doc, .docx or .txt file) is saved into the data directory first.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file    false  "Document to add before the run"
// @Success      202  {object}  api.InitJobResponse "Accepted"
// @Failure      400  {object}  api.JobResponse "Bad Request - unsupported format or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}

	docName := ""
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		name, status, errString := saveUpload(w, r)
		if errString != "" {
			WriteErrorResponse(w, status, name, errString)
			return
		}
		docName = name
	}

	processNewJobData(w, r, newJobData{isDocumentIngest: true, documentName: docName})
}

// saveUpload stores the "document" part in the data directory under its own base name.
func saveUpload(w http.ResponseWriter, r *http.Request) (string, int, string) {
	log := logRH.WithTrace(r.Context())
	if ragInstance == nil || ragInstance.uploads.DataDir == "" {
		return "", http.StatusInternalServerError, "Storage error"
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", http.StatusBadRequest, "File too large or bad request"
	}
	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		return "", http.StatusBadRequest, "Could not retrieve file"
	}
	defer fileReader.Close()

	name := filepath.Base(fileMetadata.Filename)
	if name == "." || name == string(filepath.Separator) {
		return "", http.StatusBadRequest, "Invalid file name"
	}
	if ragInstance.uploads.Supports != nil && !ragInstance.uploads.Supports(name) {
		return name, http.StatusBadRequest, "Unsupported document format"
	}

	if err := os.MkdirAll(ragInstance.uploads.DataDir, 0o750); err != nil {
		log.Error("Creating data directory failed", "error", err)
		return name, http.StatusInternalServerError, "Storage error"
	}
	target := filepath.Join(ragInstance.uploads.DataDir, name)
	if _, err := os.Stat(target); err == nil {
		name = fmt.Sprintf("%d-%s", time.Now().UnixNano(), name)
		target = filepath.Join(ragInstance.uploads.DataDir, name)
	}

	destination, err := os.Create(target)
	if err != nil {
		log.Error("Creating upload failed", "error", err)
		return name, http.StatusInternalServerError, "Storage error"
	}
	defer destination.Close()

	if _, err := io.Copy(destination, fileReader); err != nil {
		log.Error("Writing upload failed", "error", err)
		_ = os.Remove(target)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return name, http.StatusBadRequest, "File too large or bad request"
		}
		return name, http.StatusInternalServerError, "Write error"
	}
	log.Info("Saved upload", "file", target)
	return name, 0, ""
}

func processNewJobData(w http.ResponseWriter, request *http.Request, newJob newJobData) {
	if handlerInstance == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Job service unavailable")
		return
	}
	newJob.id = utils.GetNewUUID()
	newJob.traceId, _ = request.Context().Value(config.TRACE_ID_KEY).(string)

	CreateNewJob(request.Context(), newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id, newJob.chatId))
}

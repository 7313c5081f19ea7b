package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, all we can do is log
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateId(r *http.Request, id string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.WithTrace(r.Context()).Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(r.Context(), id)
}

func validateContext(r *http.Request) bool {
	if err := r.Context().Err(); err != nil {
		logRH.WithTrace(r.Context()).Warn("Request context done", "error", err, "remote", r.RemoteAddr)
		return false
	}
	return true
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logRH.Error("Couldn't close the request body", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

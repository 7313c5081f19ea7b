package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

const maxQueryResults = 100

// PostContextHandler godoc
// @Summary      Build retrieval context
// @Description  Returns the formatted context block chat would use for this query. 204 when retrieval is disabled or nothing was found.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        request  body      api.ContextRequest  true  "Query"
// @Success      200      {object}  api.ContextResponse
// @Success      204      "No context"
// @Failure      400      {object}  api.JobResponse
// @Failure      500      {object}  api.JobResponse
// @Router       /context [post]
func PostContextHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	var req api.ContextRequest
	defer closeBody(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "query is required")
		return
	}

	text, found, err := ragInstance.service.GetContext(r.Context(), req.Query)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ContextResponse{Context: text})
}

// PostQueryHandler godoc
// @Summary      Similarity search
// @Description  Returns at most k ranked chunks for the query, duplicates and boilerplate removed.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest  true  "Query and optional k"
// @Success      200      {object}  api.QueryResponse
// @Failure      400      {object}  api.JobResponse
// @Failure      500      {object}  api.JobResponse
// @Router       /query [post]
func PostQueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	var req api.QueryRequest
	defer closeBody(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" || req.K < 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "query is required and k must not be negative")
		return
	}
	k := req.K
	if k == 0 {
		k = config.DefaultNResults
	}
	k = min(k, maxQueryResults)

	results, err := ragInstance.service.Query(r.Context(), req.Query, k)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(req.Query, results))
}

// GetCollectionsHandler godoc
// @Summary      List collections
// @Tags         Collections
// @Produce      json
// @Success      200  {object}  api.CollectionsResponse
// @Failure      500  {object}  api.JobResponse
// @Router       /collections [get]
func GetCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	infos, err := ragInstance.service.ListCollections(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToCollectionsResponse(infos))
}

// GetStatsHandler godoc
// @Summary      Document count of the default collection
// @Tags         Collections
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Failure      404  {object}  api.JobResponse  "Default collection was deleted"
// @Router       /collections/stats [get]
func GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	stats, err := ragInstance.service.Stats(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(stats))
}

// DeleteCollectionHandler godoc
// @Summary      Delete a collection
// @Tags         Collections
// @Param        name  path  string  true  "Collection name"
// @Success      204  "Deleted"
// @Failure      404  {object}  api.JobResponse
// @Router       /collections/{name} [delete]
func DeleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	name := utils.GetChiURLParam(r, "name")
	if err := ragInstance.service.DeleteCollection(r.Context(), name); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetCollectionHandler godoc
// @Summary      Empty the default collection
// @Description  Deletes and recreates the default collection with cosine distance.
// @Tags         Collections
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Failure      500  {object}  api.JobResponse
// @Router       /collections/reset [post]
func ResetCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	if err := ragInstance.service.ResetCollection(r.Context()); err != nil {
		writeStoreError(w, r, err)
		return
	}
	stats, err := ragInstance.service.Stats(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(stats))
}

// GetSettingsHandler godoc
// @Summary      Read RAG settings
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  api.RAGSettings
// @Router       /settings/rag [get]
func GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSettingsResponse(ragInstance.service.Settings()))
}

// PutSettingsHandler godoc
// @Summary      Update RAG settings
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request  body      api.RAGSettings  true  "enabled and n_results (at least 1)"
// @Success      200      {object}  api.RAGSettings
// @Failure      400      {object}  api.JobResponse
// @Router       /settings/rag [put]
func PutSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	var req api.RAGSettings
	defer closeBody(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NResults < 1 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "n_results must be at least 1")
		return
	}
	updated := ragInstance.service.UpdateSettings(adapter.FromSettingsRequest(req))
	writeJsonResponse(w, http.StatusOK, adapter.ToSettingsResponse(updated))
}

// GetModelsHandler godoc
// @Summary      List chat models
// @Description  Available models across backends and the ones currently loaded.
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  api.ModelsResponse
// @Router       /models [get]
func GetModelsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) || !ragReady(w) {
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToModelsResponse(ragInstance.service.Models(r.Context())))
}

func ragReady(w http.ResponseWriter) bool {
	if ragInstance == nil || ragInstance.service == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Retrieval service unavailable")
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	log := logRH.WithTrace(r.Context())
	switch {
	case errors.Is(err, commonModels.ErrCollectionNotFound):
		log.Warn("Collection not found", "error", err)
		WriteErrorResponse(w, http.StatusNotFound, "", "Collection not found")
	case errors.Is(err, commonModels.ErrStorageUnavailable):
		log.Error("Storage unavailable", "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Vector storage unavailable")
	default:
		log.Error("Vector store request failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
	}
}

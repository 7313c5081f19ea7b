package handlers

import (
	"sync"

	"github.com/akolanti/DocChat/internal/rag"
)

// UploadConfig says where uploaded documents go and which ones the loaders accept.
type UploadConfig struct {
	DataDir  string
	Supports func(path string) bool
}

type RAGHandler struct {
	service rag.Service
	uploads UploadConfig
}

var (
	ragInstance *RAGHandler
	ragOnce     sync.Once
)

func InitRAGHandler(ragService rag.Service, uploads UploadConfig) {
	ragOnce.Do(func() {
		ragInstance = &RAGHandler{service: ragService, uploads: uploads}
		logRH.Info("Starting RAG handler", "dataDir", uploads.DataDir)
	})
}

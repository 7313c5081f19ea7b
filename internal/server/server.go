package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/middleware"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes mounts every endpoint on r. mcpHandler may be nil when the tool server is off.
func Routes(r chi.Router, mcpHandler http.Handler) {
	r.Get("/", middleware.GetHandler)

	r.Post("/chat", middleware.ChatHandler)
	r.Get("/chat/{id}/history", middleware.GetHistoryHandler)
	r.Get("/status/{id}", middleware.GetStatusHandler)
	r.Post("/ingest", middleware.PostIngestHandler)

	r.Post("/context", middleware.PostContextHandler)
	r.Post("/query", middleware.PostQueryHandler)

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", middleware.GetCollectionsHandler)
		r.Get("/stats", middleware.GetStatsHandler)
		r.Post("/reset", middleware.ResetCollectionHandler)
		r.Delete("/{name}", middleware.DeleteCollectionHandler)
	})

	r.Get("/settings/rag", middleware.GetSettingsHandler)
	r.Put("/settings/rag", middleware.PutSettingsHandler)
	r.Get("/models", middleware.GetModelsHandler)

	if mcpHandler != nil {
		r.Handle("/mcp", middleware.WrapHandler(mcpHandler))
	}
}

func CreateServer(listenAddr string, mcpHandler http.Handler) {
	r := utils.GetRouter()
	Routes(r.Router, mcpHandler)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}

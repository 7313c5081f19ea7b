// @title           DocChat RAG API
// @version         1.0
// @description     Chat over a local document corpus: asynchronous chat and ingestion jobs, retrieval context and collection admin.
// @termsOfService  http://swagger.io/terms/

// @contact.name    DocChat maintainers
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/handlers"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/internal/mcpserver"
	"github.com/akolanti/DocChat/internal/middleware"
	"github.com/akolanti/DocChat/internal/server"
	"github.com/akolanti/DocChat/internal/worker"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	watchInput        bool
	enableMCP         bool
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides config)")
	flag.BoolVar(&watchInput, "watch", false, "queue an ingestion job whenever documents land in the data directory")
	flag.BoolVar(&enableMCP, "mcp", true, "serve MCP tools on /mcp")
	flag.Parse()

	cfg, err := config.Load(configPath)
	logger_i.Init(cfg.Log.Level, cfg.Log.JSON)
	var logger = logger_i.NewLogger("main")
	if err != nil {
		logger.Error("Loading config failed", "error", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store, the service makes the buffered channels
	serviceConfig := job.ServiceConfig{
		JobStore:     store.GetRedisJobStore(serviceContext, cfg.Redis),
		MessageStore: store.GetRedisMessageStore(serviceContext, cfg.Redis),
	}
	logger.Info("Starting job service")

	if serviceConfig.JobStore == nil || serviceConfig.MessageStore == nil {
		if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
			logger.Error("Redis stores are offline. Shutting down.")
			return
		}
		logger.Error("Redis stores are offline, using in-memory stores")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	}
	jobService := job.InitJobService(serviceConfig)

	stack, err := app.Build(serviceContext, cfg, app.Options{})
	if err != nil {
		logger.Error("Building the retrieval stack failed. Shutting down.", "error", err)
		return
	}
	defer stack.Close()
	logger.Debug("Available services", "VectorStore", stack.Store != nil, "DefaultModel", stack.Models.DefaultModel())

	handlers.InitJobHandler(jobService)
	handlers.InitRAGHandler(stack.RAG, handlers.UploadConfig{
		DataDir:  stack.Loader.Files().InputDir(),
		Supports: stack.Loader.Loaders().Supports,
	})
	middleware.Init(cfg.Server)
	middleware.StartLimiterEviction(serviceContext)

	//init worker pool
	worker.InitServices(jobService, stack.RAG)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	if watchInput {
		go watchDataDir(serviceContext, stack, logger)
	}

	var mcpHandler http.Handler
	if enableMCP {
		if tools, err := mcpserver.NewServer(stack.RAG); err != nil {
			logger.Error("MCP server disabled", "error", err)
		} else {
			mcpHandler = tools.Handler()
		}
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(cfg.Server.ListenAddr, mcpHandler)

	<-stopExecution
	logger.Info("Server stopped")
}

// watchDataDir turns directory changes into ingestion jobs so runs stay serialised with
// the ones requested over HTTP.
func watchDataDir(ctx context.Context, stack *app.App, logger *logger_i.Logger) {
	err := stack.Loader.Watch(ctx, config.WatchDebounce, func() {
		traceCtx := context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())
		id := handlers.QueueIngestJob(traceCtx, "")
		logger.Info("Queued ingestion after directory change", "jobId", id)
	})
	if err != nil {
		logger.Error("Watching data directory failed", "error", err)
	}
}

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/handlers"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// settings for every wrapped handler, set once at startup
var serverConfig config.ServerConfig

func Init(cfg config.ServerConfig) {
	serverConfig = cfg
}

// StartLimiterEviction forgets idle clients until ctx is done.
func StartLimiterEviction(ctx context.Context) {
	if !serverConfig.RateLimit {
		return
	}
	go func() {
		ticker := time.NewTicker(config.RateLimiterIdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiterInstance.Evict(config.RateLimiterIdleTTL)
			}
		}
	}()
}

var GetHandler = Wrap(handlers.GetHandler)

var ChatHandler = Wrap(handlers.ChatHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var GetHistoryHandler = Wrap(handlers.GetHistoryHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)

var PostContextHandler = Wrap(handlers.PostContextHandler)
var PostQueryHandler = Wrap(handlers.PostQueryHandler)
var GetCollectionsHandler = Wrap(handlers.GetCollectionsHandler)
var GetStatsHandler = Wrap(handlers.GetStatsHandler)
var DeleteCollectionHandler = Wrap(handlers.DeleteCollectionHandler)
var ResetCollectionHandler = Wrap(handlers.ResetCollectionHandler)
var GetSettingsHandler = Wrap(handlers.GetSettingsHandler)
var PutSettingsHandler = Wrap(handlers.PutSettingsHandler)
var GetModelsHandler = Wrap(handlers.GetModelsHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(utils.RoutePattern(r), strconv.Itoa(rec.Status)).Inc()
		}()

		re := processRequest(requestResponseStruct{req: r, writer: rec})
		if !handleBadRequest(re) {
			return
		}
		next(rec, re.req)
	}
}

// WrapHandler guards a plain http.Handler (the MCP endpoint) with the same chain.
func WrapHandler(next http.Handler) http.HandlerFunc {
	return Wrap(next.ServeHTTP)
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	if serverConfig.RateLimit {
		re = rateLimiter(re)
	}
	return re
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active job workers",
})

var activePoolWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ingest_active_pool_workers",
	Help: "Number of file workers busy in the current ingestion run",
})

var ingestFiles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_files_total",
	Help: "Files handled by ingestion labelled by outcome",
}, []string{"outcome"})

var ingestChunks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_chunks_total",
	Help: "Chunks produced by ingestion labelled by validation result",
}, []string{"result"})

var documentChars = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "ingest_document_chars",
	Help:    "Size of ingested documents in characters.",
	Buckets: prometheus.ExponentialBuckets(100, 4, 8),
})

var documentChunks = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "ingest_document_chunks",
	Help:    "Accepted chunks per ingested document.",
	Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
})

var ingestRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "ingest_run_duration_seconds",
	Help:    "Wall time of a full ingestion run.",
	Buckets: []float64{.5, 1, 5, 15, 30, 60, 120, 300, 600},
})

var queryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "vector_query_results",
	Help:    "Results returned by a similarity query, before and after filtering.",
	Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
}, []string{"stage"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (MCP event streams) working through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func IncrementActivePoolWorkers() {
	activePoolWorkers.Inc()
}
func DecrementActivePoolWorkers() {
	activePoolWorkers.Dec()
}

// CaptureIngestFile counts one file as processed, skipped or failed.
func CaptureIngestFile(outcome string) {
	ingestFiles.WithLabelValues(outcome).Inc()
}

func CaptureChunks(accepted, rejected int) {
	ingestChunks.WithLabelValues("accepted").Add(float64(accepted))
	ingestChunks.WithLabelValues("rejected").Add(float64(rejected))
}

func CaptureDocumentRun(chars, chunks int) {
	documentChars.Observe(float64(chars))
	documentChunks.Observe(float64(chunks))
}

func CaptureIngestRun(timeElapsed time.Duration) {
	ingestRunDuration.Observe(timeElapsed.Seconds())
}

// CaptureQueryResults records candidate and returned counts for one query.
func CaptureQueryResults(candidates, returned int) {
	queryResults.WithLabelValues("candidates").Observe(float64(candidates))
	queryResults.WithLabelValues("returned").Observe(float64(returned))
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent running a job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 120},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

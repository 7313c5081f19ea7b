// Package worker runs queued jobs on an elastic pool. The dispatcher adds a worker each
// time the job service signals load; idle workers retire until the minimum is left.
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

var (
	_jobService *job.Service
	_ragService rag.Service

	stop    chan bool
	running *sync.WaitGroup

	workers     atomic.Int64
	minWorkers  atomic.Int64
	idleTimeout = config.IdleWorkerTimeout

	logger = logger_i.NewLogger("WorkerPool")
)

func init() {
	minWorkers.Store(config.MinWorkerCount)
}

func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_ragService = ragService
}

// InitWorkerPool starts the dispatcher with one worker. Closing stopChan stops every worker;
// wg is done once they have all returned.
func InitWorkerPool(stopChan chan bool, wg *sync.WaitGroup) {
	stop = stopChan
	running = wg
	logger.Info("Starting worker pool", "max", config.MaxWorkerCount)
	go dispatch(_jobService.DispatcherChannel)
}

func dispatch(signals <-chan bool) {
	spawn()
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return
			}
			if n := workers.Load(); n < config.MaxWorkerCount {
				logger.Info("Adding worker", "workerCount", n)
				spawn()
			}
		case <-stop:
			return
		}
	}
}

func spawn() {
	running.Add(1)
	workers.Add(1)
	metrics.IncrementActiveWorkerCount()
	go work()
}

func work() {
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	for {
		select {
		case j := <-_jobService.JobChannel:
			executeJob(j)
			metrics.DecrementJobsInQueue()
		case <-stop:
			workers.Add(-1)
			removeWorker("stopped")
			return
		case <-idle.C:
			if retireIdle() {
				removeWorker("idle")
				return
			}
		}
		idle.Reset(idleTimeout)
	}
}

// retireIdle takes an idle worker off the count while more than the minimum are running.
func retireIdle() bool {
	for {
		n := workers.Load()
		if n <= minWorkers.Load() {
			return false
		}
		if workers.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

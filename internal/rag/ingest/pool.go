package ingest

import (
	"sync"

	"github.com/akolanti/DocChat/internal/metrics"
)

// runPool processes files on a fixed number of workers and returns when every file is done.
// Results are in completion order.
func runPool(workers int, files []string, process func(string) fileResult) []fileResult {
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan fileResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.IncrementActivePoolWorkers()
			defer metrics.DecrementActivePoolWorkers()
			for path := range jobs {
				results <- process(path)
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]fileResult, 0, len(files))
	for r := range results {
		out = append(out, r)
	}
	return out
}

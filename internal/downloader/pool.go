package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"kcdl/pkg/logger"
	"kcdl/pkg/models"
)

// DownloadJob represents a single download task
type DownloadJob struct {
	Image models.Image
}

// DownloadResult represents the outcome of a download job. Every submitted
// job yields exactly one result, failed or not; a failed item never aborts
// its siblings.
type DownloadResult struct {
	Job        DownloadJob
	Success    bool
	Err        error
	StatusCode int
	Duration   time.Duration
	Size       int64
}

// MediaFetcher fetches a record's signed link as a streamed response
type MediaFetcher interface {
	Download(ctx context.Context, link string) (*http.Response, error)
}

// MediaStorage writes a record's payload to its destination path
type MediaStorage interface {
	Save(r io.Reader, img models.Image) error
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      MediaFetcher
	storage     MediaStorage
	logger      logger.Logger
}

// NewWorkerPool creates a download worker pool. Cancelling the parent
// context stops workers before they start their next item; the in-flight
// request of each worker is bound to the same context.
func NewWorkerPool(
	parent context.Context,
	numWorkers int,
	client MediaFetcher,
	storage MediaStorage,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(parent)

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2),
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for workers to drain it, then closes
// the result queue.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download outcomes
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		// Honor cancellation before starting the next item.
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("worker stopping, context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob downloads a single record and writes it to storage
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}

	wp.logger.DebugWithFields("worker processing job", map[string]interface{}{
		"worker_id": workerID,
		"name":      job.Image.Name,
	})

	resp, err := wp.client.Download(wp.ctx, job.Image.Link)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		// Signed links past their validity window come back non-200.
		result.Err = fmt.Errorf("%s: unexpected status %d", job.Image.Name, resp.StatusCode)
		result.Duration = time.Since(start)
		return result
	}

	counted := &countingReader{r: resp.Body}
	if err := wp.storage.Save(counted, job.Image); err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Size = counted.n
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"name":      job.Image.Name,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

// countingReader counts bytes as storage drains the response body
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

package job

import (
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that run jobs popped from
// a Queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// queue provides the jobs to be processed
	queue *Queue

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// logger for structured logging
	logger *slog.Logger

	// process runs a single job on the calling worker
	process func(j *Job, workerID int)

	startOnce sync.Once
	stopOnce  sync.Once
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(
	queue *Queue,
	config WorkerPoolConfig,
	process func(j *Job, workerID int),
	logger *slog.Logger,
) *WorkerPool {
	// Apply defaults for invalid config values
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		logger:      logger,
		process:     process,
	}
}

// Start launches the worker goroutines. Calling it more than once has no effect.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		p.logger.Info("worker pool started", "worker_count", p.workerCount)
	})
}

// Stop closes the queue and waits for every worker to return. Workers finish
// the job they are running first.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.queue.Close()
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

// worker processes jobs from the queue
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		j, ok := p.queue.Pop()
		if !ok {
			// Queue closed, stop worker
			p.logger.Debug("job queue closed, stopping worker", "worker_id", id)
			return
		}

		p.process(j, id)
	}
}

package job

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := NewQueue(logger)
	process := func(*Job, int) {}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 5}, process, logger)

	assert.NotNil(t, pool)
	assert.Equal(t, 5, pool.workerCount)
	assert.Same(t, queue, pool.queue)
	assert.NotNil(t, pool.logger)
	assert.NotNil(t, pool.process)

	// Test with invalid worker count (should default to 1)
	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, process, logger)
	assert.Equal(t, 1, pool.workerCount)

	// Test with negative worker count (should default to 1)
	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -5}, process, logger)
	assert.Equal(t, 1, pool.workerCount)
}

func TestDefaultWorkerPoolConfig(t *testing.T) {
	assert.Equal(t, 2, DefaultWorkerPoolConfig().WorkerCount)
}

func TestWorkerPool_Start_Stop(t *testing.T) {
	logger := setupTestLogger()
	pool := NewWorkerPool(NewQueue(logger), WorkerPoolConfig{WorkerCount: 2}, func(*Job, int) {}, logger)

	pool.Start()
	pool.Start()

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	waitFor(t, stopped, "pool to stop")

	// Stop is idempotent
	pool.Stop()
}

func TestWorkerPool_ProcessesEveryJob(t *testing.T) {
	logger := setupTestLogger()
	queue := NewQueue(logger)

	var mu sync.Mutex
	seen := make(map[*Job]int)
	var wg sync.WaitGroup

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, func(j *Job, _ int) {
		mu.Lock()
		seen[j]++
		mu.Unlock()
		wg.Done()
	}, logger)
	pool.Start()
	defer pool.Stop()

	jobs := make([]*Job, 20)
	for i := range jobs {
		jobs[i] = newQueuedJob(PriorityNormal)
		wg.Add(1)
		require.NoError(t, queue.Push(jobs[i]))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	waitFor(t, done, "all jobs to be processed")

	mu.Lock()
	defer mu.Unlock()
	for _, j := range jobs {
		assert.Equal(t, 1, seen[j])
	}
}

func TestWorkerPool_LimitsConcurrency(t *testing.T) {
	logger := setupTestLogger()
	queue := NewQueue(logger)

	var running, peak atomic.Int32
	var wg sync.WaitGroup

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, func(*Job, int) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		wg.Done()
	}, logger)
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.NoError(t, queue.Push(newQueuedJob(PriorityNormal)))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	waitFor(t, done, "jobs to drain")

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

// ABOUTME: Small worker pool for running tasks off the UI event loop
// ABOUTME: Provides submit-and-wait; a single worker gives an ordered queue

package pool

import (
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines for background task execution
type WorkerPool struct {
	workers  int
	taskChan chan func()
	workerWg sync.WaitGroup // tracks worker goroutines lifetime
	taskWg   sync.WaitGroup // tracks submitted tasks completion
	closeMu  sync.Mutex
	closed   bool
}

// NewWorkerPool starts workers goroutines; workers <= 0 means one per CPU.
// With a single worker tasks run one at a time in submission order.
// The bufferSize determines the task channel capacity.
func NewWorkerPool(workers, bufferSize int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers:  workers,
		taskChan: make(chan func(), bufferSize),
	}

	for range workers {
		pool.workerWg.Add(1)

		go func() {
			defer pool.workerWg.Done()

			for task := range pool.taskChan {
				task()
				pool.taskWg.Done()
			}
		}()
	}

	return pool
}

// Workers returns the number of worker goroutines
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Submit adds a task to the pool and reports whether it was accepted.
// Blocks if the task channel is full; tasks submitted after Close are dropped.
func (p *WorkerPool) Submit(task func()) bool {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed {
		return false
	}

	p.taskWg.Add(1)
	p.taskChan <- task

	return true
}

// Wait blocks until all submitted tasks have completed
func (p *WorkerPool) Wait() {
	p.taskWg.Wait()
}

// Close stops accepting tasks, lets queued tasks finish and waits for all workers to exit
func (p *WorkerPool) Close() {
	p.closeMu.Lock()

	if p.closed {
		p.closeMu.Unlock()
		return
	}

	p.closed = true
	close(p.taskChan)
	p.closeMu.Unlock()

	p.workerWg.Wait()
}

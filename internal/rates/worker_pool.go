package rates

import (
	"sync"
)

// WorkerPool bounds the number of in-flight venue fetches. One refresh can
// fan out thousands of per-symbol requests; the pool keeps that from
// becoming thousands of simultaneous connections.
type WorkerPool struct {
	size     int
	taskChan chan func()
	wg       sync.WaitGroup
	stopChan chan struct{}
}

func NewWorkerPool(size int) *WorkerPool {
	return &WorkerPool{
		size:     size,
		taskChan: make(chan func(), size*2),
		stopChan: make(chan struct{}),
	}
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop drains queued tasks and stops the workers. Call it after in-flight
// Gathers have returned.
func (p *WorkerPool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

// Submit queues a task. It reports false when the pool is stopping and the
// task was dropped.
func (p *WorkerPool) Submit(task func()) bool {
	select {
	case <-p.stopChan:
		return false
	default:
	}
	select {
	case p.taskChan <- task:
		return true
	case <-p.stopChan:
		return false
	}
}

// Gather runs one task per index on the pool and blocks until all of them
// finished.
func (p *WorkerPool) Gather(n int, task func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		queued := p.Submit(func() {
			defer wg.Done()
			task(i)
		})
		if !queued {
			wg.Done()
		}
	}
	wg.Wait()
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.taskChan:
			if task != nil {
				task()
			}
		case <-p.stopChan:
			p.drain()
			return
		}
	}
}

// drain runs whatever was queued before the stop so Gather counters settle.
func (p *WorkerPool) drain() {
	for {
		select {
		case task := <-p.taskChan:
			if task != nil {
				task()
			}
		default:
			return
		}
	}
}

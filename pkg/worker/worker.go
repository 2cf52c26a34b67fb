package worker

import "sync"

type Handler = func(workerIndex int, job interface{})

// Pool is a fixed-size goroutine pool for fanning a batch of jobs out across
// workers and waiting for the batch to drain. Unlike a long-lived consumer
// pool it has no signal handling: the owner enqueues, waits, and stops.
type Pool struct {
	size    int
	jobs    chan interface{}
	do      Handler
	workers sync.WaitGroup
	pending sync.WaitGroup
}

// NewPool creates a pool with the given number of workers and job buffer.
// SetHandler must be called before Start.
func NewPool(size, buffer int) *Pool {
	if size < 1 {
		size = 1
	}
	if buffer < size {
		buffer = size
	}
	return &Pool{
		size: size,
		jobs: make(chan interface{}, buffer),
	}
}

func (p *Pool) SetHandler(h Handler) {
	p.do = h
}

// Start launches the workers. They run until Stop closes the job channel.
func (p *Pool) Start() {
	p.workers.Add(p.size)
	for i := 0; i < p.size; i++ {
		go func(index int) {
			defer p.workers.Done()
			for job := range p.jobs {
				p.do(index, job)
				p.pending.Done()
			}
		}(i)
	}
}

// Enqueue publishes one job. Blocks when the buffer is full.
func (p *Pool) Enqueue(job interface{}) {
	p.pending.Add(1)
	p.jobs <- job
}

// Wait blocks until every enqueued job has been handled.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop closes the job channel and waits for the workers to exit. The pool
// cannot be reused afterwards.
func (p *Pool) Stop() {
	close(p.jobs)
	p.workers.Wait()
}

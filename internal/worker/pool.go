// Package worker runs source drivers concurrently. Sources are independent
// endpoints, so one worker per source is safe; within a source, fetches stay
// sequential behind the source's own rate-limit clock.
package worker

import (
	"context"
	"sync"

	"github.com/rkalinin/corpora/internal/model"
	"github.com/rkalinin/corpora/internal/source"
)

// Job is one source run.
type Job struct {
	Name   string
	Driver *source.Driver
}

// Result is the outcome of one source run. Partial passages from a canceled
// run are still valid and included.
type Result struct {
	Source   string
	Passages []model.Passage
	Stats    source.Stats
}

// Pool executes source jobs with bounded concurrency.
type Pool struct {
	workers int
	jobs    chan Job
	wg      sync.WaitGroup

	mu      sync.Mutex
	results []Result
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
	}
}

// Start launches the workers. The context flows into every driver run;
// cancellation stops new fetches but lets in-flight work drain.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		passages, stats := job.Driver.Run(ctx)

		p.mu.Lock()
		p.results = append(p.results, Result{
			Source:   job.Name,
			Passages: passages,
			Stats:    stats,
		})
		p.mu.Unlock()
	}
}

// Submit queues a job. Must not be called after Wait.
func (p *Pool) Submit(job Job) {
	p.jobs <- job
}

// Wait closes the queue, waits for the workers, and returns all results.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()
	return p.results
}

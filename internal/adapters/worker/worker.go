// Package worker runs independent upstream fetches with a bounded number of
// concurrent workers and a per-task timeout.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/playerstock/pkg/logger"
	"github.com/okian/playerstock/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultConcurrency = 8
	defaultTaskTimeout = 15 * time.Second
)

// Task is one unit of fan-out work. It must honour ctx.
type Task func(ctx context.Context) error

// Pool executes task batches on a bounded set of workers. A Pool holds no
// per-batch state, so one Pool may serve concurrent Run calls; the cap then
// applies per batch.
type Pool struct {
	concurrency int
	taskTimeout time.Duration
	name        string
	logger      logger.Logger
}

// NewPool creates a pool. A non-positive concurrency falls back to a small
// multiple of the CPU count capped at defaultConcurrency.
func NewPool(concurrency int, opts ...Option) *Pool {
	if concurrency < 1 {
		concurrency = min(runtime.NumCPU()*2, defaultConcurrency)
	}
	p := &Pool{
		concurrency: concurrency,
		taskTimeout: defaultTaskTimeout,
		name:        "worker-pool",
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logger.OrNop(p.logger).Named(p.name)
	metrics.UpdateWorkerConcurrency(p.concurrency)
	return p
}

// Concurrency returns the configured worker cap.
func (p *Pool) Concurrency() int { return p.concurrency }

// TaskTimeout returns the per-task timeout (zero means none).
func (p *Pool) TaskTimeout() time.Duration { return p.taskTimeout }

// Run executes every task and returns their errors aligned by index. Tasks
// that never started because ctx ended report ctx.Err(). Tasks are never
// retried.
func (p *Pool) Run(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	workers := min(p.concurrency, len(tasks))
	jobs := make(chan int)
	done := make(chan struct{})

	for i := 0; i < workers; i++ {
		go p.work(ctx, "worker-"+strconv.Itoa(i), tasks, jobs, errs, done)
	}

	next := 0
feed:
	for ; next < len(tasks); next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	for ; next < len(tasks); next++ {
		errs[next] = ctx.Err()
	}

	for i := 0; i < workers; i++ {
		<-done
	}
	return errs
}

// work drains job indices until the channel closes.
func (p *Pool) work(ctx context.Context, name string, tasks []Task, jobs <-chan int, errs []error, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for i := range jobs {
		errs[i] = p.execute(ctx, name, tasks[i])
	}
}

func (p *Pool) execute(ctx context.Context, name string, task Task) (err error) {
	start := time.Now()
	taskCtx := ctx
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
		metrics.RecordWorkerTask(float64(time.Since(start).Milliseconds()), err != nil)
		if err != nil {
			metrics.RecordErrorByComponent("worker", "task_error")
			p.logger.Debug(ctx, "task failed", logger.String("worker", name), logger.Error(err))
		}
	}()

	return task(taskCtx)
}

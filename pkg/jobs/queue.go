package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer has no room for another job.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueStopped is returned by Enqueue before Start or after Stop.
	ErrQueueStopped = errors.New("queue not running")
)

// Job represents a queued background task.
type Job struct {
	ID       uint64
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// ResultFunc observes the final outcome of a job, after retries.
type ResultFunc func(job Job, err error)

// QueueConfig configures the queue.
type QueueConfig struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	OnResult   ResultFunc
	Logger     *zap.Logger
}

// Queue runs jobs one at a time in enqueue order. A failing job is retried in place, so later
// jobs never overtake it.
type Queue struct {
	name    string
	handler Handler

	maxRetries int
	retryDelay time.Duration
	onResult   ResultFunc
	logger     *zap.Logger

	jobs    chan Job
	nextID  atomic.Uint64
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		onResult:   cfg.OnResult,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
		done:       make(chan struct{}),
	}
}

// Start launches the worker. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true
	go q.worker()
	q.logger.Sugar().Infow("queue started", "queue", q.name)
}

// Stop cancels the worker and waits for it to exit. Jobs still buffered are discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.stopped = true
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	q.mu.Unlock()

	<-q.done
	q.logger.Sugar().Infow("queue stopped", "queue", q.name, "discarded", len(q.jobs))
}

// Enqueue adds a job without blocking.
func (q *Queue) Enqueue(jobType string, payload interface{}) (Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started || q.stopped {
		return Job{}, fmt.Errorf("queue %s: %w", q.name, ErrQueueStopped)
	}

	job := Job{ID: q.nextID.Add(1), Type: jobType, Payload: payload, Enqueued: time.Now().UTC()}
	select {
	case q.jobs <- job:
		return job, nil
	default:
		return job, fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Len reports the number of buffered jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	for {
		job.Attempt++
		err := q.handler(q.ctx, job)
		if err == nil || job.Attempt > q.maxRetries || q.ctx.Err() != nil {
			if err != nil {
				q.logger.Sugar().Errorw("job failed", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
			}
			if q.onResult != nil {
				q.onResult(job, err)
			}
			return
		}

		q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)
		timer := time.NewTimer(q.retryDelay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			if q.onResult != nil {
				q.onResult(job, err)
			}
			return
		case <-timer.C:
		}
	}
}

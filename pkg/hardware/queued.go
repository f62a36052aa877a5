package hardware

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
	"github.com/noah-isme/housing-board-api/pkg/jobs"
)

const jobTypeCommand = "hardware_command"

// QueuedSinkConfig tunes the dispatch queue in front of a slow device.
type QueuedSinkConfig struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// OnResult observes every command once it was written or given up on.
	OnResult func(cmd Command, err error)
	Logger   *zap.Logger
}

// QueuedSink hands commands to a single background writer so callers never wait on the
// device. Commands reach the device in the order they were sent; a failing command is retried
// before the next one is written.
type QueuedSink struct {
	next  Sink
	queue *jobs.Queue
}

// NewQueuedSink wraps next and starts its writer. Stop must be called to release it.
func NewQueuedSink(ctx context.Context, next Sink, cfg QueuedSinkConfig) *QueuedSink {
	s := &QueuedSink{next: next}
	onResult := cfg.OnResult
	s.queue = jobs.NewQueue("hardware", s.write, jobs.QueueConfig{
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     cfg.Logger,
		OnResult: func(job jobs.Job, err error) {
			if onResult != nil {
				onResult(job.Payload.(Command), err)
			}
		},
	})
	s.queue.Start(ctx)
	return s
}

// Send queues the command. It only fails when the queue is full or stopped.
func (s *QueuedSink) Send(ctx context.Context, cmd Command) error {
	if cmd == "" {
		return appErrors.Clone(appErrors.ErrSinkWrite, "empty hardware command")
	}
	if _, err := s.queue.Enqueue(jobTypeCommand, cmd); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSinkWrite.Code, appErrors.ErrSinkWrite.Status, "queue hardware command")
	}
	return nil
}

// Stop halts the writer. Commands still queued are dropped.
func (s *QueuedSink) Stop() {
	s.queue.Stop()
}

func (s *QueuedSink) write(ctx context.Context, job jobs.Job) error {
	return s.next.Send(ctx, job.Payload.(Command))
}

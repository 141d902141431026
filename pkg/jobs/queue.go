package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotRunning is returned when tasks are submitted to a stopped queue.
var ErrNotRunning = errors.New("queue not running")

// Task is one unit of background work carrying a typed payload.
type Task[T any] struct {
	ID       string
	Kind     string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task. A returned error schedules a retry.
type Handler[T any] func(context.Context, Task[T]) error

// Options tune a Queue.
type Options struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.BufferSize <= 0 {
		o.BufferSize = o.Workers * 8
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Queue dispatches tasks to a fixed pool of goroutines.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	opts    Options

	tasks  chan Task[T]
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a queue; call Start before submitting.
func New[T any](name string, handler Handler[T], opts Options) *Queue[T] {
	opts = opts.withDefaults()
	return &Queue[T]{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task[T], opts.BufferSize),
	}
}

// Start launches the workers. Repeated calls are ignored.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.opts.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.opts.Workers))
}

// Stop cancels the workers and waits for running handlers and pending
// retries to return.
func (q *Queue[T]) Stop() {
	q.mu.RLock()
	cancel := q.cancel
	q.mu.RUnlock()
	if cancel == nil {
		return
	}
	cancel()
	q.wg.Wait()
	q.opts.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Submit enqueues a task, blocking while the buffer is full.
func (q *Queue[T]) Submit(task Task[T]) error {
	q.mu.RLock()
	ctx := q.ctx
	q.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrNotRunning
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return ErrNotRunning
	case q.tasks <- task:
		return nil
	}
}

func (q *Queue[T]) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

func (q *Queue[T]) retry(task Task[T], err error) {
	task.Attempt++
	log := q.opts.Logger.With(zap.String("queue", q.name), zap.String("task_id", task.ID), zap.String("kind", task.Kind), zap.Error(err))
	if task.Attempt > q.opts.MaxRetries {
		log.Error("task failed permanently", zap.Int("attempts", task.Attempt))
		return
	}
	log.Warn("task failed, retrying", zap.Int("attempt", task.Attempt))

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		timer := time.NewTimer(q.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Submit(task); err != nil {
				log.Error("requeue failed", zap.NamedError("requeue_error", err))
			}
		}
	}()
}

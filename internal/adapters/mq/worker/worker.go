// Package worker drains allocation audit events from the queue into the
// audit sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/staffing/internal/adapters/mq/queue"
	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/pkg/logger"
	"github.com/okian/staffing/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultAppendTimeout = 2 * time.Second
	poolShutdownTimeout  = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, ev model.AllocationEvent) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events from the queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for audit events.
type InMemoryWorker struct {
	queue         Queue
	sink          Sink
	name          string
	appendTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:         queue,
		sink:          sink,
		name:          "worker",
		appendTimeout: defaultAppendTimeout,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. It returns once the queue channel is closed
// and drained, ctx is done, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// The forwarder behind Dequeue must not outlive this loop.
	dequeueCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventChan := w.queue.Dequeue(dequeueCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	// The write is detached from the run context so a draining shutdown can
	// still persist what was queued.
	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.appendTimeout)
	defer cancel()

	if err := w.sink.Append(appendCtx, event); err != nil {
		reason := "sink_error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "sink_timeout"
		}
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", reason)
		return fmt.Errorf("append event %s: %w", event.ID, err)
	}

	metrics.RecordAuditEventWritten()
	w.logger.Debug(ctx, "audit event written",
		logger.String("event_id", event.ID),
		logger.String("type", string(event.Type)),
		logger.String("allocation_id", event.AllocationID),
	)
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below one uses runtime.NumCPU.
func NewPool(workerCount int, queue Queue, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, sink, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// running when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}

	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", shutdownCtx.Err())
	}
	return nil
}

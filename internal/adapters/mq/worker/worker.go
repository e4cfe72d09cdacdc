// Package worker re-runs recalculations that failed after a result was
// committed, until the group converges or the attempts run out.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/meetpoints/internal/adapters/mq/queue"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/recalc"
	"github.com/okian/meetpoints/pkg/logger"
	"github.com/okian/meetpoints/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkers      = 2
	defaultMaxAttempts  = 5
	defaultBackoff      = 200 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second
)

// TriggerRepair labels recomputations started by a worker.
const TriggerRepair = "repair"

// Recomputer recomputes one competition group.
type Recomputer interface {
	RecomputeGroup(ctx context.Context, eventID string, gender model.Gender) (recalc.Result, error)
}

// Queue is the part of the repair queue a worker needs: it reads jobs and
// puts failed ones back.
type Queue interface {
	Enqueue(ctx context.Context, j queue.Job) bool
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes repair jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	recomputer  Recomputer
	name        string
	maxAttempts int
	backoff     time.Duration
	active      *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, r Recomputer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		recomputer:  r,
		name:        "worker",
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		active:      new(atomic.Int64),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes jobs until ctx is done, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "repair failed",
					logger.String("group", job.Group.String()),
					logger.Int("attempt", job.Attempt),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown signals the worker and waits for it to stop.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.recomputer.RecomputeGroup(recalc.WithTrigger(ctx, TriggerRepair), job.Group.EventID, job.Group.Gender)
	if err == nil {
		metrics.RecordWorkerRepaired()
		w.logger.Info(ctx, "group repaired",
			logger.String("group", job.Group.String()),
			logger.Int("attempt", job.Attempt),
			logger.Int("changed", res.Changed),
		)
		return nil
	}

	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "recompute_failed")

	// a group whose event is gone or whose key is malformed never converges
	if errors.Is(err, recalc.ErrUnknownEvent) || errors.Is(err, recalc.ErrInvalidGender) {
		metrics.RecordErrorByType("repair_dropped", "medium")
		return fmt.Errorf("dropping %s: %w", job.Group, err)
	}
	if job.Attempt+1 >= w.maxAttempts {
		metrics.RecordErrorByType("repair_exhausted", "high")
		return fmt.Errorf("giving up on %s after %d attempts: %w", job.Group, job.Attempt+1, err)
	}

	if !w.wait(ctx, w.backoff*time.Duration(job.Attempt+1)) {
		return fmt.Errorf("requeue %s: %w", job.Group, ctx.Err())
	}
	next := queue.Job{Group: job.Group, Reason: job.Reason, Attempt: job.Attempt + 1}
	if !w.queue.Enqueue(ctx, next) {
		return fmt.Errorf("requeue %s: queue rejected job: %w", job.Group, err)
	}
	metrics.RecordWorkerRequeued()
	w.logger.Warn(ctx, "repair requeued",
		logger.String("group", job.Group.String()),
		logger.Int("attempt", next.Attempt),
		logger.Error(err),
	)
	return nil
}

func (w *InMemoryWorker) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.shutdown:
		return false
	}
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. Options apply to every
// worker; each worker gets its own name.
func NewPool(workerCount int, q Queue, r Recomputer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkers
	}

	active := new(atomic.Int64)
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for i := range workerCount {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)), withActive(active))
		pool.workers[i] = NewInMemoryWorker(q, r, wopts...)
	}

	// the pool logs through the logger the options configure
	base := &InMemoryWorker{}
	for _, opt := range opts {
		opt(base)
	}
	if base.logger == nil {
		base.logger = logger.Get()
	}
	pool.logger = base.logger.Named("worker-pool")

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size reports the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue when it can be closed and waits for the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

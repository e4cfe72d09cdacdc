// Package queue holds competition groups whose recalculation failed and
// must be retried in the background.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/meetpoints/internal/domain/dedupe"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/pkg/metrics"
)

const defaultCapacity = 1024

// Job asks for one competition group to be recomputed.
type Job struct {
	Group    model.GroupKey
	Reason   string
	Attempt  int
	QueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue queues a job. A job for a group that is already pending is
	// merged into it and reported as accepted. Returns false when the queue
	// is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel of jobs that is closed with the queue.
	Dequeue(ctx context.Context) <-chan Job

	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel. Pending groups are
// tracked so a group sits in the queue at most once.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	pending  dedupe.Deduper

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	// one entry per queued group, so the set never needs to evict
	q.pending = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	key := j.Group.String()
	if q.pending.SeenAndRecord(ctx, key) {
		metrics.RecordQueueCoalesced()
		return true
	}
	if j.QueuedAt.IsZero() {
		j.QueuedAt = time.Now()
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	case <-ctx.Done():
		q.pending.Unrecord(ctx, key)
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		q.pending.Unrecord(ctx, key)
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue forwards jobs until the queue is closed or ctx is done. A group
// leaves the pending set as it is handed out, so a failure while it is being
// processed can queue it again.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				q.pending.Unrecord(ctx, j.Group.String())
				select {
				case out <- j:
					metrics.RecordQueueDequeue(float64(time.Since(j.QueuedAt).Microseconds()) / 1000)
					metrics.UpdateQueueSize(len(q.jobs))
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting jobs. Jobs already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Package service implements the meet use cases behind the HTTP API: result
// submission and deletion with synchronous recalculation, registration and
// standings queries.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/meetpoints/internal/adapters/catalog"
	"github.com/okian/meetpoints/internal/adapters/mq/queue"
	"github.com/okian/meetpoints/internal/adapters/mq/worker"
	"github.com/okian/meetpoints/internal/adapters/repository"
	"github.com/okian/meetpoints/internal/domain/dedupe"
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/ranking"
	"github.com/okian/meetpoints/internal/domain/recalc"
	"github.com/okian/meetpoints/pkg/logger"
	"github.com/okian/meetpoints/pkg/metrics"
)

// Service wires the store, the recalculation orchestrator and the repair
// pipeline together.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	recalc  *recalc.Orchestrator
	deduper dedupe.Deduper
	repairs queue.Queue
	pool    *worker.Pool
	catalog catalog.Catalog

	workerCount int
	queueSize   int
	maxAttempts int
	backoff     time.Duration
	dedupeSize  int
	concurrency int
	defaults    points.Defaults
	tie         ranking.TiePolicy

	started bool

	logger logger.Logger
}

// New constructs a Service over store. Results can be submitted right away;
// Start launches the background repair workers.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: 2,
		queueSize:   1024,
		maxAttempts: 5,
		backoff:     200 * time.Millisecond,
		dedupeSize:  50_000,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")

	if s.catalog.Events == nil {
		c, err := catalog.Default()
		if err != nil {
			s.logger.Error(context.Background(), "built-in catalog unusable", logger.Error(err))
		}
		s.catalog = c
	}

	s.recalc = recalc.New(store,
		recalc.WithDefaults(s.defaults),
		recalc.WithTiePolicy(s.tie),
		recalc.WithConcurrency(s.concurrency),
		recalc.WithLogger(s.logger.Named("recalc")),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.repairs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	return s
}

// Start launches the repair worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	// Stop closed the previous queue
	if s.repairs.IsClosed() {
		s.repairs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	}

	s.pool = worker.NewPool(s.workerCount, s.repairs, s.recalc,
		worker.WithMaxAttempts(s.maxAttempts),
		worker.WithBackoff(s.backoff),
		worker.WithLogger(s.logger.Named("repair")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "meet service started",
		logger.Int("repairWorkers", s.workerCount),
		logger.Int("repairQueueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("tiePolicy", s.tie.String()),
	)
	return nil
}

// Stop closes the repair queue and waits for the workers to finish.
// Groups still queued are dropped; a later RecomputeAll converges them.
// A stopped service can be started again with a fresh queue.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping meet service...")

	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "meet service stopped")
	return err
}

func (s *Service) repairQueue() queue.Queue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repairs
}

// SeenAndRecord atomically checks whether a submission request id was seen
// and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, requestID string) bool {
	seen := s.deduper.SeenAndRecord(ctx, requestID)
	if seen {
		metrics.RecordResultRejected("duplicate_request")
	}
	return seen
}

// Unrecord forgets a request id so the submission can be retried.
func (s *Service) Unrecord(ctx context.Context, requestID string) {
	s.deduper.Unrecord(ctx, requestID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	repairs := s.repairs
	s.mu.RUnlock()

	stats := map[string]any{
		"started":           started,
		"repairWorkers":     s.workerCount,
		"repairQueueLength": repairs.Len(ctx),
		"repairQueueSize":   repairs.Capacity(),
		"dedupeEntries":     s.deduper.Size(),
		"tiePolicy":         s.tie.String(),
	}

	counts, err := s.store.Counts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "store counts unavailable", logger.Error(err))
		stats["storeError"] = err.Error()
		return stats
	}
	stats["athletes"] = counts.Athletes
	stats["events"] = counts.Events
	stats["relayTeams"] = counts.Teams
	stats["results"] = counts.Measurements
	metrics.UpdateCatalogTotals(counts.Athletes, counts.Events, counts.Measurements)
	return stats
}

package service

import (
	"time"

	"github.com/okian/meetpoints/internal/adapters/catalog"
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/ranking"
	"github.com/okian/meetpoints/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRepairWorkers sets the number of background repair workers.
func WithRepairWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithRepairQueueSize bounds the queue of groups awaiting repair.
func WithRepairQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRepairRetry sets how often a group is retried and the base delay
// between attempts.
func WithRepairRetry(maxAttempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

// WithDedupeSize sets how many submission request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithRecomputeConcurrency bounds the groups recomputed at once by
// RecomputeAll and RecomputeEvent.
func WithRecomputeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPointsDefaults sets the meet-wide fallback points tables.
func WithPointsDefaults(d points.Defaults) Option {
	return func(s *Service) {
		s.defaults = d
	}
}

// WithTiePolicy selects how tied measurements are positioned.
func WithTiePolicy(p ranking.TiePolicy) Option {
	return func(s *Service) {
		s.tie = p
	}
}

// WithCatalog replaces the built-in event catalog used by SeedCatalog and
// AuditPoints.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

package recalc

import (
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/ranking"
	"github.com/okian/meetpoints/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithDefaults sets the configured default points tables used when an
// event carries none.
func WithDefaults(d points.Defaults) Option {
	return func(o *Orchestrator) { o.defaults = d }
}

// WithTiePolicy selects how equal values are ranked.
func WithTiePolicy(p ranking.TiePolicy) Option {
	return func(o *Orchestrator) { o.tie = p }
}

// WithConcurrency bounds how many groups RecomputeAll runs at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

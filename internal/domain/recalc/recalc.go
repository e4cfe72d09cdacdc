// Package recalc recomputes the positions and points of competition groups
// and writes them back to the store.
package recalc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/meetpoints/internal/adapters/repository"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/ranking"
	"github.com/okian/meetpoints/pkg/logger"
	"github.com/okian/meetpoints/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Store is the part of the repository recalculation needs.
type Store interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListGroup(ctx context.Context, eventID string, g model.Gender) ([]model.Measurement, error)
	UpdateRanking(ctx context.Context, id string, position, points int) error
}

// Result describes one recomputed group.
type Result struct {
	Group    model.GroupKey `json:"-"`
	EventID  string         `json:"event_id"`
	Gender   model.Gender   `json:"gender,omitempty"`
	Entrants int            `json:"entrants"`
	Written  int            `json:"written"`
	Changed  int            `json:"changed"`
}

// Orchestrator ranks groups, allocates points and persists the outcome.
// Recomputations of the same group are serialized within the process.
type Orchestrator struct {
	store       Store
	defaults    points.Defaults
	tie         ranking.TiePolicy
	concurrency int
	tracer      trace.Tracer
	log         logger.Logger

	mu    sync.Mutex
	locks map[model.GroupKey]*sync.Mutex
}

// New creates an orchestrator over store.
func New(store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		tie:         ranking.StableDistinct,
		concurrency: defaultConcurrency,
		tracer:      otel.Tracer("github.com/okian/meetpoints/recalc"),
		log:         logger.Nop(),
		locks:       make(map[model.GroupKey]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type triggerKey struct{}

// WithTrigger labels recomputations started under ctx for metrics and logs,
// e.g. "submit", "delete" or "repair".
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// Trigger returns the label set by WithTrigger, or "" when there is none.
func Trigger(ctx context.Context) string {
	return triggerOf(ctx, "")
}

func triggerOf(ctx context.Context, fallback string) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return fallback
}

// RecomputeGroup recomputes the group of eventID that gender belongs to.
// Gender is ignored for relay and mixed events and must name a gender for
// gender-split events.
func (o *Orchestrator) RecomputeGroup(ctx context.Context, eventID string, gender model.Gender) (Result, error) {
	ev, err := o.event(ctx, eventID)
	if err != nil {
		return Result{}, err
	}
	if ev.GenderSplit && !ev.Relay && !gender.Valid() {
		return Result{}, fmt.Errorf("%w: %q for %s", ErrInvalidGender, gender, eventID)
	}
	return o.recompute(ctx, ev, ev.Group(gender), triggerOf(ctx, "direct"))
}

// RecomputeEvent recomputes every group of one event.
func (o *Orchestrator) RecomputeEvent(ctx context.Context, eventID string) ([]Result, error) {
	ev, err := o.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return o.fanOut(ctx, []model.Event{ev}, triggerOf(ctx, "event"))
}

// RecomputeAll recomputes every group of every event. Groups run
// concurrently; a failing group does not stop the others and all failures
// are returned joined.
func (o *Orchestrator) RecomputeAll(ctx context.Context) ([]Result, error) {
	events, err := o.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return o.fanOut(ctx, events, triggerOf(ctx, "all"))
}

func (o *Orchestrator) fanOut(ctx context.Context, events []model.Event, trigger string) ([]Result, error) {
	type job struct {
		ev  model.Event
		key model.GroupKey
	}
	var jobs []job
	for _, ev := range events {
		for _, key := range ev.Groups() {
			jobs = append(jobs, job{ev, key})
		}
	}

	results := make([]Result, len(jobs))
	errs := make([]error, len(jobs))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i], errs[i] = o.recompute(ctx, j.ev, j.key, trigger)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

func (o *Orchestrator) event(ctx context.Context, id string) (model.Event, error) {
	ev, err := o.store.GetEvent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

func (o *Orchestrator) lock(key model.GroupKey) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[key]
	if !ok {
		l = &sync.Mutex{}
		o.locks[key] = l
	}
	return l
}

func direction(c model.Category) ranking.Direction {
	if c.LowerIsBetter() {
		return ranking.Ascending
	}
	return ranking.Descending
}

func (o *Orchestrator) recompute(ctx context.Context, ev model.Event, key model.GroupKey, trigger string) (res Result, err error) {
	ctx, span := o.tracer.Start(ctx, "recalc.group", trace.WithAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("group.gender", string(key.Gender)),
		attribute.String("trigger", trigger),
	))
	start := time.Now()
	defer func() {
		metrics.RecordRecompute(trigger, float64(time.Since(start).Microseconds())/1000, err != nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	l := o.lock(key)
	l.Lock()
	defer l.Unlock()

	res = Result{Group: key, EventID: key.EventID, Gender: key.Gender}

	group, err := o.store.ListGroup(ctx, key.EventID, key.Gender)
	if err != nil {
		return res, fmt.Errorf("list group %s: %w", key, err)
	}
	res.Entrants = len(group)
	span.SetAttributes(attribute.Int("group.entrants", len(group)))

	entries := make([]ranking.Entry, len(group))
	byID := make(map[string]model.Measurement, len(group))
	for i, m := range group {
		entries[i] = ranking.Entry{ID: m.ID, Value: m.Value}
		byID[m.ID] = m
	}
	table := points.Resolve(ev.Points, ev.Relay, string(key.Gender), o.defaults)
	ranked := points.Allocate(ranking.Rank(entries, direction(ev.Category), ranking.WithTiePolicy(o.tie)), table)

	var failures []error
	for _, e := range ranked {
		if err := o.store.UpdateRanking(ctx, e.ID, e.Position, e.Points); err != nil {
			failures = append(failures, fmt.Errorf("measurement %s: %w", e.ID, err))
			continue
		}
		res.Written++
		if prev := byID[e.ID]; prev.Position != e.Position || prev.Points != e.Points {
			res.Changed++
		}
	}
	metrics.RecordRankingWrites(res.Written)

	if len(failures) > 0 {
		o.log.Warn(ctx, "group partially recomputed",
			logger.String("group", key.String()),
			logger.String("trigger", trigger),
			logger.Int("failed", len(failures)),
			logger.Int("written", res.Written))
		return res, fmt.Errorf("%w: %s: %w", ErrPartialUpdate, key, errors.Join(failures...))
	}
	o.log.Debug(ctx, "group recomputed",
		logger.String("group", key.String()),
		logger.String("trigger", trigger),
		logger.Int("entrants", res.Entrants),
		logger.Int("changed", res.Changed))
	return res, nil
}

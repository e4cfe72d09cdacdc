package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/meetpoints/internal/adapters/mq/queue"
	"github.com/okian/meetpoints/internal/adapters/repository"
	"github.com/okian/meetpoints/internal/domain/measure"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/recalc"
	"github.com/okian/meetpoints/pkg/logger"
	"github.com/okian/meetpoints/pkg/metrics"
)

// Recalculation triggers.
const (
	TriggerSubmit = "submit"
	TriggerDelete = "delete"
)

// SubmitResult records an athlete's raw result for an individual event and
// recomputes the athlete's competition group. The returned measurement
// carries the position and points of that recomputation.
func (s *Service) SubmitResult(ctx context.Context, athleteID, eventID, raw string) (model.Measurement, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return model.Measurement{}, s.reject(err)
	}
	if ev.Relay {
		return model.Measurement{}, s.reject(fmt.Errorf("%w: %s is a relay event", ErrRelayMismatch, ev.ID))
	}
	a, err := s.athlete(ctx, athleteID)
	if err != nil {
		return model.Measurement{}, s.reject(err)
	}
	return s.submit(ctx, ev, model.Measurement{AthleteID: a.ID}, raw, ev.Group(a.Gender), "individual")
}

// SubmitRelayResult records a relay team's raw result for the team's event.
func (s *Service) SubmitRelayResult(ctx context.Context, teamID, raw string) (model.Measurement, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Measurement{}, s.reject(fmt.Errorf("%w: %s", ErrUnknownTeam, teamID))
	}
	if err != nil {
		return model.Measurement{}, s.reject(fmt.Errorf("get team %s: %w", teamID, err))
	}
	ev, err := s.event(ctx, team.EventID)
	if err != nil {
		return model.Measurement{}, s.reject(err)
	}
	if !ev.Relay {
		return model.Measurement{}, s.reject(fmt.Errorf("%w: %s is not a relay event", ErrRelayMismatch, ev.ID))
	}
	return s.submit(ctx, ev, model.Measurement{TeamID: team.ID}, raw, ev.Group(""), "relay")
}

func (s *Service) submit(ctx context.Context, ev model.Event, m model.Measurement, raw string, key model.GroupKey, kind string) (model.Measurement, error) {
	value, err := measure.Parse(raw, ev.Category)
	if err != nil {
		return model.Measurement{}, s.reject(err)
	}
	m.ID = uuid.NewString()
	m.EventID = ev.ID
	m.Value = value

	stored, err := s.store.InsertMeasurement(ctx, m)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.Measurement{}, s.reject(fmt.Errorf("%w: %s in %s", ErrDuplicateResult, m.Entrant(), ev.ID))
	}
	if err != nil {
		return model.Measurement{}, s.reject(fmt.Errorf("insert result: %w", err))
	}
	metrics.RecordResultSubmitted(kind)
	s.logger.Debug(ctx, "result stored",
		logger.String("measurementID", stored.ID),
		logger.String("group", key.String()),
		logger.String("entrant", stored.Entrant()),
		logger.Float64("value", stored.Value),
	)

	s.recomputeCommitted(ctx, key, TriggerSubmit)

	// the insert is committed; a failed read returns it without a position
	if ranked, err := s.store.GetMeasurement(ctx, stored.ID); err == nil {
		return ranked, nil
	}
	return stored, nil
}

// DeleteResult removes a measurement and recomputes its group.
func (s *Service) DeleteResult(ctx context.Context, id string) error {
	m, err := s.store.DeleteMeasurement(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: result %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete result %s: %w", id, err)
	}
	metrics.RecordResultDeleted()

	key := model.GroupKey{EventID: m.EventID, Gender: m.Gender}
	if ev, err := s.store.GetEvent(ctx, m.EventID); err == nil {
		key = ev.Group(m.Gender)
	}
	s.recomputeCommitted(ctx, key, TriggerDelete)
	return nil
}

// recomputeCommitted recomputes a group after its write was committed.
// Failures are never returned: the group is queued for background repair.
func (s *Service) recomputeCommitted(ctx context.Context, key model.GroupKey, trigger string) {
	// the write is durable even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	_, err := s.recalc.RecomputeGroup(recalc.WithTrigger(ctx, trigger), key.EventID, key.Gender)
	if err == nil {
		return
	}
	metrics.RecordErrorByComponent("service", "recompute_failed")
	metrics.RecordErrorByType("recompute_failed", "high")
	s.logger.Error(ctx, "recompute after write failed, queueing repair",
		logger.String("group", key.String()),
		logger.String("trigger", trigger),
		logger.Error(err),
	)
	if !s.repairQueue().Enqueue(ctx, queue.Job{Group: key, Reason: trigger}) {
		s.logger.Warn(ctx, "repair queue rejected group; run a full recompute",
			logger.String("group", key.String()))
	}
}

// RecomputeGroup recomputes one competition group on demand.
func (s *Service) RecomputeGroup(ctx context.Context, eventID string, gender model.Gender) (recalc.Result, error) {
	return s.recalc.RecomputeGroup(ctx, eventID, gender)
}

// RecomputeEvent recomputes every group of one event.
func (s *Service) RecomputeEvent(ctx context.Context, eventID string) ([]recalc.Result, error) {
	return s.recalc.RecomputeEvent(ctx, eventID)
}

// RecomputeAll recomputes every group of the meet.
func (s *Service) RecomputeAll(ctx context.Context) ([]recalc.Result, error) {
	return s.recalc.RecomputeAll(ctx)
}

// reject counts a refused submission by its error kind and returns err.
func (s *Service) reject(err error) error {
	metrics.RecordResultRejected(rejectReason(err))
	return err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMeasurementFormat):
		return "invalid_format"
	case errors.Is(err, ErrDuplicateResult):
		return "duplicate"
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrUnknownAthlete):
		return "unknown_athlete"
	case errors.Is(err, ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, ErrRelayMismatch):
		return "relay_mismatch"
	case errors.Is(err, ErrPersistenceUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

func (s *Service) event(ctx context.Context, id string) (model.Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

func (s *Service) athlete(ctx context.Context, id string) (model.Athlete, error) {
	a, err := s.store.GetAthlete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Athlete{}, fmt.Errorf("%w: %s", ErrUnknownAthlete, id)
	}
	if err != nil {
		return model.Athlete{}, fmt.Errorf("get athlete %s: %w", id, err)
	}
	return a, nil
}

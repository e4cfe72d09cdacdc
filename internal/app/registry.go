package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/okian/meetpoints/internal/adapters/catalog"
	"github.com/okian/meetpoints/internal/adapters/repository"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/pkg/logger"
)

var validate = validator.New()

// RegisterAthlete validates and stores a new athlete. The registration id
// is eight digits and the bib a positive number; both must be unique.
func (s *Service) RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	a.ID = strings.TrimSpace(a.ID)
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	if err := checkAthlete(a); err != nil {
		return model.Athlete{}, err
	}

	err := s.store.CreateAthlete(ctx, a)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.Athlete{}, fmt.Errorf("%w: id %s bib %d", ErrDuplicateAthlete, a.ID, a.Bib)
	}
	if err != nil {
		return model.Athlete{}, fmt.Errorf("create athlete: %w", err)
	}
	s.logger.Info(ctx, "athlete registered",
		logger.String("athleteID", a.ID),
		logger.Int("bib", a.Bib),
		logger.String("house", string(a.House)),
	)
	return a, nil
}

func checkAthlete(a model.Athlete) error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAthlete, err)
	}
	if !a.House.Valid() {
		return fmt.Errorf("%w: unknown house %q", ErrInvalidAthlete, a.House)
	}
	if !a.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidAthlete, a.Gender)
	}
	return nil
}

// AthleteCorrection names the fields to change; nil fields are kept.
type AthleteCorrection struct {
	FirstName *string       `json:"first_name,omitempty"`
	LastName  *string       `json:"last_name,omitempty"`
	House     *model.House  `json:"house,omitempty"`
	Gender    *model.Gender `json:"gender,omitempty"`
}

// CorrectionReport is the corrected athlete and the events whose cached
// positions may no longer match the athlete's groups.
type CorrectionReport struct {
	Athlete     model.Athlete `json:"athlete"`
	StaleEvents []string      `json:"stale_events"`
}

// CorrectAthlete changes an athlete's mutable fields. Results are not
// recomputed: a gender change moves the athlete into another group of
// gender-split events, so those events are reported and logged as stale
// until a recompute runs.
func (s *Service) CorrectAthlete(ctx context.Context, id string, c AthleteCorrection) (CorrectionReport, error) {
	before, err := s.athlete(ctx, id)
	if err != nil {
		return CorrectionReport{}, err
	}
	after := before
	if c.FirstName != nil {
		after.FirstName = strings.TrimSpace(*c.FirstName)
	}
	if c.LastName != nil {
		after.LastName = strings.TrimSpace(*c.LastName)
	}
	if c.House != nil {
		after.House = *c.House
	}
	if c.Gender != nil {
		after.Gender = *c.Gender
	}
	if err := checkAthlete(after); err != nil {
		return CorrectionReport{}, err
	}
	if err := s.store.UpdateAthlete(ctx, after); err != nil {
		return CorrectionReport{}, fmt.Errorf("update athlete %s: %w", id, err)
	}

	report := CorrectionReport{Athlete: after, StaleEvents: []string{}}
	if after.Gender == before.Gender && after.House == before.House {
		return report, nil
	}
	stale, err := s.staleEvents(ctx, after.ID, after.Gender != before.Gender)
	if err != nil {
		s.logger.Warn(ctx, "could not list events affected by correction", logger.Error(err))
		return report, nil
	}
	report.StaleEvents = stale
	if len(stale) > 0 {
		s.logger.Warn(ctx, "athlete corrected; cached positions may be stale",
			logger.String("athleteID", after.ID),
			logger.String("house", string(after.House)),
			logger.String("gender", string(after.Gender)),
			logger.Any("events", stale),
		)
	}
	return report, nil
}

// staleEvents lists the events holding a result of the athlete whose
// groups depend on what changed. House totals are joined at read time, so
// only a gender change affects split events.
func (s *Service) staleEvents(ctx context.Context, athleteID string, genderChanged bool) ([]string, error) {
	if !genderChanged {
		return []string{}, nil
	}
	ms, err := s.store.ListMeasurements(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, m := range ms {
		if m.AthleteID != athleteID || slices.Contains(out, m.EventID) {
			continue
		}
		ev, err := s.store.GetEvent(ctx, m.EventID)
		if err != nil || !ev.GenderSplit || ev.Relay {
			continue
		}
		out = append(out, m.EventID)
	}
	return out, nil
}

// Athletes lists registered athletes in registration order.
func (s *Service) Athletes(ctx context.Context) ([]model.Athlete, error) {
	return s.store.ListAthletes(ctx)
}

// CreateEvent validates and stores an event. An empty id is derived from
// the name.
func (s *Service) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return model.Event{}, fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if !e.Category.Valid() {
		return model.Event{}, fmt.Errorf("%w: unknown category %q", ErrInvalidEvent, e.Category)
	}
	if e.Relay && e.GenderSplit {
		return model.Event{}, fmt.Errorf("%w: relay events are mixed", ErrInvalidEvent)
	}
	if err := e.Points.Validate(); err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	for g := range e.Points.ByGender {
		if !model.Gender(g).Valid() {
			return model.Event{}, fmt.Errorf("%w: points for unknown gender %q", ErrInvalidEvent, g)
		}
	}
	if e.ID == "" {
		e.ID = catalog.Slug(e.Name)
	}

	err := s.store.CreateEvent(ctx, e)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.Event{}, fmt.Errorf("%w: %s", ErrDuplicateEvent, e.Name)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info(ctx, "event created",
		logger.String("eventID", e.ID),
		logger.String("category", string(e.Category)),
		logger.Bool("relay", e.Relay),
	)
	return e, nil
}

// Events lists events in creation order.
func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// RegisterRelayTeam stores a team for a relay event. The four members must
// be distinct registered athletes of the team's house.
func (s *Service) RegisterRelayTeam(ctx context.Context, t model.RelayTeam) (model.RelayTeam, error) {
	t.Name = strings.TrimSpace(t.Name)
	if err := validate.Struct(t); err != nil {
		return model.RelayTeam{}, fmt.Errorf("%w: %w", ErrInvalidTeam, err)
	}
	if !t.House.Valid() {
		return model.RelayTeam{}, fmt.Errorf("%w: unknown house %q", ErrInvalidTeam, t.House)
	}
	ev, err := s.event(ctx, t.EventID)
	if err != nil {
		return model.RelayTeam{}, err
	}
	if !ev.Relay {
		return model.RelayTeam{}, fmt.Errorf("%w: %s is not a relay event", ErrRelayMismatch, ev.ID)
	}

	for i, id := range t.Members {
		if id == "" {
			return model.RelayTeam{}, fmt.Errorf("%w: member %d missing", ErrInvalidTeam, i+1)
		}
		if slices.Contains(t.Members[:i], id) {
			return model.RelayTeam{}, fmt.Errorf("%w: %s listed twice", ErrInvalidTeam, id)
		}
		a, err := s.athlete(ctx, id)
		if err != nil {
			return model.RelayTeam{}, err
		}
		if a.House != t.House {
			return model.RelayTeam{}, fmt.Errorf("%w: %s belongs to %s", ErrInvalidTeam, id, a.House)
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err = s.store.CreateTeam(ctx, t)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.RelayTeam{}, fmt.Errorf("%w: %s in %s", ErrDuplicateTeam, t.Name, t.EventID)
	}
	if err != nil {
		return model.RelayTeam{}, fmt.Errorf("create relay team: %w", err)
	}
	s.logger.Info(ctx, "relay team registered",
		logger.String("teamID", t.ID),
		logger.String("eventID", t.EventID),
		logger.String("house", string(t.House)),
	)
	return t, nil
}

// Teams lists the relay teams of one event, or of every event for "".
func (s *Service) Teams(ctx context.Context, eventID string) ([]model.RelayTeam, error) {
	return s.store.ListTeams(ctx, eventID)
}

package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/meetpoints/internal/domain/measure"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/standings"
	"github.com/okian/meetpoints/internal/domain/types"
	"github.com/okian/meetpoints/pkg/logger"
	"github.com/okian/meetpoints/pkg/metrics"
)

// HouseStandings returns every house ranked by total points.
func (s *Service) HouseStandings(ctx context.Context) ([]types.HouseTotal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, skips := standings.Houses(snap)
	s.reportSkips(ctx, "houses", skips)
	return rows, nil
}

// AthleteLeaderboard returns individual totals narrowed by f and re-ranked.
func (s *Service) AthleteLeaderboard(ctx context.Context, f standings.Filter) ([]types.AthleteTotal, error) {
	if f.Gender != "" && !f.Gender.Valid() {
		return nil, fmt.Errorf("%w: gender %q", ErrInvalidFilter, f.Gender)
	}
	if f.House != "" && !f.House.Valid() {
		return nil, fmt.Errorf("%w: house %q", ErrInvalidFilter, f.House)
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, skips := standings.Athletes(snap)
	s.reportSkips(ctx, "athletes", skips)
	return standings.Leaderboard(rows, f), nil
}

// GenderStandings returns individual points and athlete counts per gender.
func (s *Service) GenderStandings(ctx context.Context) ([]types.GenderTotal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, skips := standings.Genders(snap)
	s.reportSkips(ctx, "genders", skips)
	return rows, nil
}

// EventResults lists an event's results grouped by competition group and
// ordered by position, with display text. Unranked results sort last.
func (s *Service) EventResults(ctx context.Context, eventID string) ([]types.EventResult, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ms, err := s.store.ListGroup(ctx, ev.ID, "")
	if err != nil {
		return nil, fmt.Errorf("list results of %s: %w", ev.ID, err)
	}
	names, err := s.entrants(ctx, ev)
	if err != nil {
		return nil, err
	}

	out := make([]types.EventResult, 0, len(ms))
	var skips []standings.Skip
	for _, m := range ms {
		who, ok := names[m.Entrant()]
		if !ok {
			reason := standings.ReasonUnknownAthlete
			if m.Relay() {
				reason = standings.ReasonUnknownTeam
			}
			skips = append(skips, standings.Skip{MeasurementID: m.ID, Reason: reason})
			continue
		}
		r := types.EventResult{
			MeasurementID: m.ID,
			Position:      m.Position,
			Entrant:       m.Entrant(),
			Name:          who.name,
			House:         who.house,
			Value:         m.Value,
			Display:       measure.Display(m.Value, ev.Category),
			Points:        m.Points,
		}
		if ev.GenderSplit && !ev.Relay {
			r.Gender = m.Gender
		}
		out = append(out, r)
	}
	s.reportSkips(ctx, "event_results", skips)

	slices.SortStableFunc(out, func(a, b types.EventResult) int {
		return cmp.Or(
			cmp.Compare(genderOrder(a.Gender), genderOrder(b.Gender)),
			cmp.Compare(unrankedLast(a.Position), unrankedLast(b.Position)),
		)
	})
	return out, nil
}

type entrant struct {
	name  string
	house model.House
}

func (s *Service) entrants(ctx context.Context, ev model.Event) (map[string]entrant, error) {
	out := make(map[string]entrant)
	if ev.Relay {
		teams, err := s.store.ListTeams(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("list teams: %w", err)
		}
		for _, t := range teams {
			out[t.ID] = entrant{name: t.Name, house: t.House}
		}
		return out, nil
	}
	athletes, err := s.store.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	for _, a := range athletes {
		out[a.ID] = entrant{name: a.Name(), house: a.House}
	}
	return out, nil
}

func genderOrder(g model.Gender) int {
	if i := slices.Index(model.Genders, g); i >= 0 {
		return i
	}
	return len(model.Genders)
}

func unrankedLast(pos int) int {
	if pos < 1 {
		return math.MaxInt
	}
	return pos
}

func (s *Service) snapshot(ctx context.Context) (standings.Snapshot, error) {
	athletes, err := s.store.ListAthletes(ctx)
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("list athletes: %w", err)
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("list events: %w", err)
	}
	teams, err := s.store.ListTeams(ctx, "")
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("list teams: %w", err)
	}
	ms, err := s.store.ListMeasurements(ctx)
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("list results: %w", err)
	}

	snap := standings.Snapshot{
		Athletes:     make(map[string]model.Athlete, len(athletes)),
		Events:       make(map[string]model.Event, len(events)),
		Teams:        make(map[string]model.RelayTeam, len(teams)),
		Measurements: ms,
	}
	for _, a := range athletes {
		snap.Athletes[a.ID] = a
	}
	for _, e := range events {
		snap.Events[e.ID] = e
	}
	for _, t := range teams {
		snap.Teams[t.ID] = t
	}
	return snap, nil
}

// reportSkips logs and counts records left out of a total.
func (s *Service) reportSkips(ctx context.Context, view string, skips []standings.Skip) {
	for _, sk := range skips {
		metrics.RecordAggregationSkip(sk.Reason)
		s.logger.Warn(ctx, "record skipped during aggregation",
			logger.String("view", view),
			logger.String("measurementID", sk.MeasurementID),
			logger.String("reason", sk.Reason),
		)
	}
}

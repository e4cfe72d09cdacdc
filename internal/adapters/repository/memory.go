package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/points"
)

// MemoryStore keeps everything in maps guarded by one RWMutex. Insertion
// order is kept in slices of ids.
type MemoryStore struct {
	mu  sync.RWMutex
	cfg settings

	athletes     map[string]model.Athlete
	athleteOrder []string
	bibs         map[int]string

	events     map[string]model.Event
	eventOrder []string

	teams     map[string]model.RelayTeam
	teamOrder []string

	measurements map[string]model.Measurement
	order        []string // measurement ids by seq
	entrants     map[string]string
	seq          int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cfg:          cfg,
		athletes:     make(map[string]model.Athlete),
		bibs:         make(map[int]string),
		events:       make(map[string]model.Event),
		teams:        make(map[string]model.RelayTeam),
		measurements: make(map[string]model.Measurement),
		entrants:     make(map[string]string),
	}
}

func (s *MemoryStore) CreateAthlete(_ context.Context, a model.Athlete) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.athletes[a.ID]; ok {
		return fmt.Errorf("athlete %s: %w", a.ID, ErrDuplicate)
	}
	if _, ok := s.bibs[a.Bib]; ok {
		return fmt.Errorf("bib %d: %w", a.Bib, ErrDuplicate)
	}
	s.athletes[a.ID] = a
	s.bibs[a.Bib] = a.ID
	s.athleteOrder = append(s.athleteOrder, a.ID)
	return nil
}

func (s *MemoryStore) GetAthlete(_ context.Context, id string) (model.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.athletes[id]
	if !ok {
		return model.Athlete{}, fmt.Errorf("athlete %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (s *MemoryStore) ListAthletes(_ context.Context) ([]model.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Athlete, 0, len(s.athleteOrder))
	for _, id := range s.athleteOrder {
		out = append(out, s.athletes[id])
	}
	return out, nil
}

func (s *MemoryStore) UpdateAthlete(_ context.Context, a model.Athlete) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.athletes[a.ID]
	if !ok {
		return fmt.Errorf("athlete %s: %w", a.ID, ErrNotFound)
	}
	// id and bib are immutable
	a.Bib = cur.Bib
	s.athletes[a.ID] = a
	return nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("event %s: %w", e.ID, ErrDuplicate)
	}
	for _, existing := range s.events {
		if existing.Name == e.Name {
			return fmt.Errorf("event name %q: %w", e.Name, ErrDuplicate)
		}
	}
	s.events[e.ID] = cloneEvent(e)
	s.eventOrder = append(s.eventOrder, e.ID)
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return cloneEvent(e), nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		out = append(out, cloneEvent(s.events[id]))
	}
	return out, nil
}

func (s *MemoryStore) CreateTeam(_ context.Context, t model.RelayTeam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; ok {
		return fmt.Errorf("team %s: %w", t.ID, ErrDuplicate)
	}
	for _, existing := range s.teams {
		if existing.EventID == t.EventID && existing.Name == t.Name {
			return fmt.Errorf("team name %q: %w", t.Name, ErrDuplicate)
		}
	}
	s.teams[t.ID] = t
	s.teamOrder = append(s.teamOrder, t.ID)
	return nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id string) (model.RelayTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return model.RelayTeam{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *MemoryStore) ListTeams(_ context.Context, eventID string) ([]model.RelayTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RelayTeam, 0)
	for _, id := range s.teamOrder {
		t := s.teams[id]
		if eventID == "" || t.EventID == eventID {
			out = append(out, t)
		}
	}
	return out, nil
}

func entrantKey(m model.Measurement) string {
	return m.EventID + "\x00" + m.AthleteID + "\x00" + m.TeamID
}

func (s *MemoryStore) InsertMeasurement(_ context.Context, m model.Measurement) (model.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.measurements[m.ID]; ok {
		return model.Measurement{}, fmt.Errorf("measurement %s: %w", m.ID, ErrDuplicate)
	}
	key := entrantKey(m)
	if _, ok := s.entrants[key]; ok {
		return model.Measurement{}, fmt.Errorf("result for %s in %s: %w", m.Entrant(), m.EventID, ErrDuplicate)
	}
	s.seq++
	m.Seq = s.seq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.cfg.now().UTC()
	}
	m.Gender = ""
	s.measurements[m.ID] = m
	s.entrants[key] = m.ID
	s.order = append(s.order, m.ID)
	return s.withGender(m), nil
}

func (s *MemoryStore) GetMeasurement(_ context.Context, id string) (model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.measurements[id]
	if !ok {
		return model.Measurement{}, fmt.Errorf("measurement %s: %w", id, ErrNotFound)
	}
	return s.withGender(m), nil
}

func (s *MemoryStore) DeleteMeasurement(_ context.Context, id string) (model.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.measurements[id]
	if !ok {
		return model.Measurement{}, fmt.Errorf("measurement %s: %w", id, ErrNotFound)
	}
	delete(s.measurements, id)
	delete(s.entrants, entrantKey(m))
	for i, mid := range s.order {
		if mid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return s.withGender(m), nil
}

func (s *MemoryStore) ListGroup(_ context.Context, eventID string, g model.Gender) ([]model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Measurement, 0)
	for _, id := range s.order {
		m := s.withGender(s.measurements[id])
		if m.EventID != eventID {
			continue
		}
		if g != "" && m.Gender != g {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *MemoryStore) ListMeasurements(_ context.Context) ([]model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Measurement, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.withGender(s.measurements[id]))
	}
	return out, nil
}

func (s *MemoryStore) UpdateRanking(_ context.Context, id string, position, pts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.measurements[id]
	if !ok {
		return fmt.Errorf("measurement %s: %w", id, ErrNotFound)
	}
	m.Position = position
	m.Points = pts
	s.measurements[id] = m
	return nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Athletes:     len(s.athletes),
		Events:       len(s.events),
		Teams:        len(s.teams),
		Measurements: len(s.measurements),
	}, nil
}

// withGender joins the athlete's current gender. Must be called with s.mu held.
func (s *MemoryStore) withGender(m model.Measurement) model.Measurement {
	m.Gender = ""
	if a, ok := s.athletes[m.AthleteID]; ok && m.AthleteID != "" {
		m.Gender = a.Gender
	}
	return m
}

func cloneEvent(e model.Event) model.Event {
	e.Points = clonePoints(e.Points)
	return e
}

func clonePoints(c points.Config) points.Config {
	out := points.Config{Shared: c.Shared.Clone()}
	if c.ByGender != nil {
		out.ByGender = make(map[string]points.Table, len(c.ByGender))
		for g, t := range c.ByGender {
			out.ByGender[g] = t.Clone()
		}
	}
	return out
}

// Package repository persists athletes, events, relay teams and
// measurements. Records cross this boundary flat and typed.
package repository

import (
	"context"

	"github.com/okian/meetpoints/internal/domain/model"
)

// Counts summarises what the store holds.
type Counts struct {
	Athletes     int `json:"athletes"`
	Events       int `json:"events"`
	Teams        int `json:"relay_teams"`
	Measurements int `json:"measurements"`
}

// Store is the persistence collaborator of the service.
type Store interface {
	// CreateAthlete returns ErrDuplicate when the id or bib is taken.
	CreateAthlete(ctx context.Context, a model.Athlete) error
	GetAthlete(ctx context.Context, id string) (model.Athlete, error)
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	// UpdateAthlete replaces the mutable fields of an existing athlete.
	UpdateAthlete(ctx context.Context, a model.Athlete) error

	// CreateEvent returns ErrDuplicate when the id or name is taken.
	CreateEvent(ctx context.Context, e model.Event) error
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)

	// CreateTeam returns ErrDuplicate when the id, or the name within the
	// team's event, is taken.
	CreateTeam(ctx context.Context, t model.RelayTeam) error
	GetTeam(ctx context.Context, id string) (model.RelayTeam, error)
	// ListTeams lists the teams of one event, or all teams for "".
	ListTeams(ctx context.Context, eventID string) ([]model.RelayTeam, error)

	// InsertMeasurement stores m and returns it with Seq and CreatedAt set.
	// A second measurement for the same event and entrant is ErrDuplicate.
	InsertMeasurement(ctx context.Context, m model.Measurement) (model.Measurement, error)
	GetMeasurement(ctx context.Context, id string) (model.Measurement, error)
	// DeleteMeasurement removes a measurement and returns what was removed.
	DeleteMeasurement(ctx context.Context, id string) (model.Measurement, error)
	// ListGroup returns the measurements of an event in insertion order,
	// narrowed to athletes of gender g unless g is empty.
	ListGroup(ctx context.Context, eventID string, g model.Gender) ([]model.Measurement, error)
	// ListMeasurements returns every measurement in insertion order.
	ListMeasurements(ctx context.Context) ([]model.Measurement, error)
	// UpdateRanking writes the cached position and points of one measurement.
	UpdateRanking(ctx context.Context, id string, position, points int) error

	Counts(ctx context.Context) (Counts, error)
}

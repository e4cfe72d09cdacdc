package service

import (
	"errors"

	"github.com/okian/meetpoints/internal/adapters/repository"
	"github.com/okian/meetpoints/internal/domain/measure"
	"github.com/okian/meetpoints/internal/domain/recalc"
)

// Sentinel error kinds returned by the service. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrInvalidMeasurementFormat = measure.ErrInvalidMeasurementFormat
	ErrUnknownEvent             = recalc.ErrUnknownEvent
	ErrInvalidGender            = recalc.ErrInvalidGender
	ErrNotFound                 = repository.ErrNotFound
	ErrPersistenceUnavailable   = repository.ErrUnavailable

	ErrUnknownAthlete   = errors.New("unknown athlete")
	ErrUnknownTeam      = errors.New("unknown relay team")
	ErrDuplicateResult  = errors.New("entrant already has a result for this event")
	ErrRelayMismatch    = errors.New("event kind does not match entrant kind")
	ErrInvalidAthlete   = errors.New("invalid athlete")
	ErrDuplicateAthlete = errors.New("athlete id or bib already registered")
	ErrInvalidEvent     = errors.New("invalid event")
	ErrDuplicateEvent   = errors.New("event already exists")
	ErrInvalidTeam      = errors.New("invalid relay team")
	ErrDuplicateTeam    = errors.New("relay team already exists")
	ErrInvalidFilter    = errors.New("invalid filter")
)

package repository

import "time"

// Option configures a store.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

func defaults() settings {
	return settings{now: time.Now}
}

// WithClock sets the clock used to stamp CreatedAt on new measurements.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

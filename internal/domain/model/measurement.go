package model

import "time"

// Measurement is one recorded performance. Exactly one of AthleteID and
// TeamID is set. Position and Points are caches owned by recalculation and
// are not authoritative until the group has been recomputed.
type Measurement struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	AthleteID string    `json:"athlete_id,omitempty"`
	TeamID    string    `json:"team_id,omitempty"`
	Value     float64   `json:"value"`
	Position  int       `json:"position"`
	Points    int       `json:"points"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`

	// Gender is the entrant's current gender as joined by the store. It is
	// empty for relay measurements.
	Gender Gender `json:"gender,omitempty"`
}

// Relay reports whether the measurement belongs to a relay team.
func (m Measurement) Relay() bool { return m.TeamID != "" }

// Entrant returns the athlete or team id.
func (m Measurement) Entrant() string {
	if m.TeamID != "" {
		return m.TeamID
	}
	return m.AthleteID
}

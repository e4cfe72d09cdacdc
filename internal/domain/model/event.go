// Package model contains domain models passed between layers.
package model

import "github.com/okian/meetpoints/internal/domain/points"

// Event is a competition definition. Category fixes the comparison
// direction; Relay events are contested by teams and are always mixed gender.
type Event struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    Category      `json:"category"`
	Relay       bool          `json:"relay"`
	GenderSplit bool          `json:"gender_split"` // individual events only
	Points      points.Config `json:"points"`
}

// Group returns the competition group a competitor of gender g belongs to.
// Relay and mixed individual events ignore gender.
func (e Event) Group(g Gender) GroupKey {
	if e.Relay || !e.GenderSplit {
		return GroupKey{EventID: e.ID}
	}
	return GroupKey{EventID: e.ID, Gender: g}
}

// Groups lists every competition group the event can produce.
func (e Event) Groups() []GroupKey {
	if e.Relay || !e.GenderSplit {
		return []GroupKey{{EventID: e.ID}}
	}
	keys := make([]GroupKey, 0, len(Genders))
	for _, g := range Genders {
		keys = append(keys, GroupKey{EventID: e.ID, Gender: g})
	}
	return keys
}

// GroupKey identifies a competition group: all measurements of one event,
// narrowed to one gender for gender-split individual events.
type GroupKey struct {
	EventID string
	Gender  Gender // empty when the group is mixed
}

// String renders the key for logs, dedupe ids and metric labels.
func (k GroupKey) String() string {
	if k.Gender == "" {
		return k.EventID
	}
	return k.EventID + "/" + string(k.Gender)
}

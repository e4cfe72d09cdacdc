// Package standings aggregates cached positions and points into house,
// athlete and gender totals. It reads what recalculation wrote and never
// ranks on its own.
package standings

import (
	"cmp"
	"slices"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/types"
)

// Snapshot is everything an aggregation needs, read once from the store.
type Snapshot struct {
	Athletes     map[string]model.Athlete
	Events       map[string]model.Event
	Teams        map[string]model.RelayTeam
	Measurements []model.Measurement
}

// Skip reports a measurement left out of a total.
type Skip struct {
	MeasurementID string `json:"measurement_id"`
	Reason        string `json:"reason"`
}

// Skip reasons.
const (
	ReasonUnknownEvent   = "unknown_event"
	ReasonUnknownAthlete = "unknown_athlete"
	ReasonUnknownTeam    = "unknown_team"
	ReasonUnknownHouse   = "unknown_house"
	ReasonKindMismatch   = "entrant_kind_mismatch"
)

// credit is a measurement resolved to the house it scores for.
type credit struct {
	m       model.Measurement
	event   model.Event
	house   model.House
	athlete model.Athlete // zero for relay credits
}

// resolve joins every measurement to its event and entrant. Measurements
// that cannot be joined are returned as skips.
func resolve(s Snapshot) ([]credit, []Skip) {
	out := make([]credit, 0, len(s.Measurements))
	var skips []Skip
	for _, m := range s.Measurements {
		ev, ok := s.Events[m.EventID]
		if !ok {
			skips = append(skips, Skip{m.ID, ReasonUnknownEvent})
			continue
		}
		if ev.Relay != m.Relay() {
			skips = append(skips, Skip{m.ID, ReasonKindMismatch})
			continue
		}
		c := credit{m: m, event: ev}
		if m.Relay() {
			team, ok := s.Teams[m.TeamID]
			if !ok {
				skips = append(skips, Skip{m.ID, ReasonUnknownTeam})
				continue
			}
			c.house = team.House
		} else {
			a, ok := s.Athletes[m.AthleteID]
			if !ok {
				skips = append(skips, Skip{m.ID, ReasonUnknownAthlete})
				continue
			}
			c.house = a.House
			c.athlete = a
		}
		if !c.house.Valid() {
			skips = append(skips, Skip{m.ID, ReasonUnknownHouse})
			continue
		}
		out = append(out, c)
	}
	return out, skips
}

// Houses totals every fixed house, including houses without points. Rows
// are ordered by total descending and then by canonical house order.
func Houses(s Snapshot) ([]types.HouseTotal, []Skip) {
	credits, skips := resolve(s)

	rows := make([]types.HouseTotal, len(model.Houses))
	index := make(map[model.House]int, len(model.Houses))
	for i, h := range model.Houses {
		rows[i] = types.HouseTotal{House: h, ByCategory: map[model.Category]int{
			model.CategoryTrack: 0,
			model.CategoryField: 0,
		}}
		index[h] = i
	}

	for _, c := range credits {
		row := &rows[index[c.house]]
		if c.m.Relay() {
			row.Relay += c.m.Points
		} else {
			row.Individual += c.m.Points
		}
		row.ByCategory[c.event.Category] += c.m.Points
		row.Total += c.m.Points
	}

	// Stable sort keeps canonical order among equal totals.
	slices.SortStableFunc(rows, func(a, b types.HouseTotal) int {
		return cmp.Compare(b.Total, a.Total)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, skips
}

// Athletes totals individual results per athlete. Relay points never reach
// an athlete. Only athletes with at least one result are listed.
func Athletes(s Snapshot) ([]types.AthleteTotal, []Skip) {
	credits, skips := resolve(s)

	byID := make(map[string]*types.AthleteTotal)
	for _, c := range credits {
		if c.m.Relay() {
			continue
		}
		row, ok := byID[c.athlete.ID]
		if !ok {
			row = &types.AthleteTotal{
				AthleteID: c.athlete.ID,
				Name:      c.athlete.Name(),
				House:     c.athlete.House,
				Gender:    c.athlete.Gender,
			}
			byID[c.athlete.ID] = row
		}
		row.Events++
		row.Points += c.m.Points
		switch c.m.Position {
		case 1:
			row.Gold++
		case 2:
			row.Silver++
		case 3:
			row.Bronze++
		}
	}

	rows := make([]types.AthleteTotal, 0, len(byID))
	for _, row := range byID {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, compareAthletes)
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, skips
}

func compareAthletes(a, b types.AthleteTotal) int {
	return cmp.Or(
		cmp.Compare(b.Points, a.Points),
		cmp.Compare(b.Gold, a.Gold),
		cmp.Compare(b.Silver, a.Silver),
		cmp.Compare(b.Bronze, a.Bronze),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.AthleteID, b.AthleteID),
	)
}

// Filter narrows an athlete leaderboard. Zero values match everything and a
// Limit of zero or less returns every row.
type Filter struct {
	Gender model.Gender
	House  model.House
	Limit  int
}

// Leaderboard filters totals and re-ranks the remaining rows from 1.
func Leaderboard(totals []types.AthleteTotal, f Filter) []types.AthleteTotal {
	out := make([]types.AthleteTotal, 0, len(totals))
	for _, row := range totals {
		if f.Gender != "" && row.Gender != f.Gender {
			continue
		}
		if f.House != "" && row.House != f.House {
			continue
		}
		row.Rank = len(out) + 1
		out = append(out, row)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Genders sums individual points per gender and counts registered
// athletes. Every gender is listed in display order.
func Genders(s Snapshot) ([]types.GenderTotal, []Skip) {
	credits, skips := resolve(s)

	rows := make([]types.GenderTotal, len(model.Genders))
	index := make(map[model.Gender]int, len(model.Genders))
	for i, g := range model.Genders {
		rows[i] = types.GenderTotal{Gender: g}
		index[g] = i
	}
	for _, a := range s.Athletes {
		if i, ok := index[a.Gender]; ok {
			rows[i].Athletes++
		}
	}
	for _, c := range credits {
		if c.m.Relay() {
			continue
		}
		if i, ok := index[c.athlete.Gender]; ok {
			rows[i].Points += c.m.Points
		}
	}
	return rows, skips
}

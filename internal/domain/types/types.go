// Package types contains the read shapes returned by standings queries.
package types

import "github.com/okian/meetpoints/internal/domain/model"

// HouseTotal is one row of the house standings.
type HouseTotal struct {
	Rank       int                    `json:"rank"`
	House      model.House            `json:"house"`
	Individual int                    `json:"individual_points"`
	Relay      int                    `json:"relay_points"`
	ByCategory map[model.Category]int `json:"by_category"`
	Total      int                    `json:"total"`
}

// AthleteTotal is one row of the athlete leaderboard. Only individual
// events contribute.
type AthleteTotal struct {
	Rank      int          `json:"rank"`
	AthleteID string       `json:"athlete_id"`
	Name      string       `json:"name"`
	House     model.House  `json:"house"`
	Gender    model.Gender `json:"gender"`
	Events    int          `json:"events"`
	Points    int          `json:"points"`
	Gold      int          `json:"gold"`
	Silver    int          `json:"silver"`
	Bronze    int          `json:"bronze"`
}

// GenderTotal sums individual points per gender.
type GenderTotal struct {
	Gender   model.Gender `json:"gender"`
	Points   int          `json:"points"`
	Athletes int          `json:"athletes"`
}

// EventResult is one formatted line of an event's result list.
type EventResult struct {
	MeasurementID string       `json:"measurement_id"`
	Position      int          `json:"position"`
	Entrant       string       `json:"entrant"`
	Name          string       `json:"name"`
	House         model.House  `json:"house"`
	Gender        model.Gender `json:"gender,omitempty"`
	Value         float64      `json:"value"`
	Display       string       `json:"display"`
	Points        int          `json:"points"`
}

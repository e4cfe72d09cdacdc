package model

import "strings"

// Athlete is a registered competitor. ID (registration id) and Bib are
// immutable once created; House and Gender may be corrected.
type Athlete struct {
	ID        string `json:"id" validate:"required,len=8,number"`
	Bib       int    `json:"bib" validate:"gt=0"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	House     House  `json:"house" validate:"required"`
	Gender    Gender `json:"gender" validate:"required"`
}

// Name joins first and last name.
func (a Athlete) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// RelayMembers is the fixed size of a relay team.
const RelayMembers = 4

// RelayTeam competes as one entrant in a relay event.
type RelayTeam struct {
	ID      string               `json:"id"`
	Name    string               `json:"name" validate:"required"`
	House   House                `json:"house" validate:"required"`
	EventID string               `json:"event_id" validate:"required"`
	Members [RelayMembers]string `json:"members"`
}

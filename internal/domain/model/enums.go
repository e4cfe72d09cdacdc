package model

// Category decides the comparison direction of an event.
type Category string

// Event categories.
const (
	CategoryTrack Category = "Track"
	CategoryField Category = "Field"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryTrack || c == CategoryField
}

// LowerIsBetter is true for timed events.
func (c Category) LowerIsBetter() bool { return c == CategoryTrack }

// Unit returns the canonical unit of measurements in this category.
func (c Category) Unit() string {
	if c == CategoryTrack {
		return "seconds"
	}
	return "meters"
}

// Gender of an athlete.
type Gender string

// Genders recognised at registration.
const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists every gender in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// House is one of the four fixed team affiliations.
type House string

// Houses of the meet.
const (
	HouseIgnis  House = "Ignis"
	HouseNereus House = "Nereus"
	HouseVentus House = "Ventus"
	HouseTerra  House = "Terra"
)

// Houses lists every house in canonical order. Standings ties fall back to
// this order.
var Houses = []House{HouseIgnis, HouseNereus, HouseVentus, HouseTerra}

// Valid reports whether h is one of the fixed houses.
func (h House) Valid() bool {
	for _, known := range Houses {
		if h == known {
			return true
		}
	}
	return false
}

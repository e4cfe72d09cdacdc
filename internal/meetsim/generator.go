package meetsim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/meetpoints/internal/domain/model"
)

// Value ranges of generated measurements.
const (
	minTrackSeconds = 10.0
	maxTrackSeconds = 300.0
	minFieldMeters  = 1.0
	maxFieldMeters  = 70.0
	firstAthleteID  = 10_000_000
	centisPerMinute = 6000
)

var (
	firstNames = []string{"Ada", "Ben", "Cas", "Dara", "Eli", "Fin", "Gia", "Hugo", "Isla", "Jon", "Kai", "Lena"} //nolint:gochecknoglobals // name pool
	lastNames  = []string{"Moss", "Reed", "Hale", "Cole", "Vance", "Shaw", "Pike", "Ward"}                        //nolint:gochecknoglobals // name pool
)

// Submission is one result to post, either for an athlete or a relay team.
type Submission struct {
	RequestID string
	AthleteID string
	TeamID    string
	EventID   string
	Raw       string
}

// Generator produces a deterministic roster and result set for a seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roster returns perHouse athletes for every house with unique registration
// ids and bibs. Genders rotate so every split group has entrants.
func (g *Generator) Roster(perHouse int) []model.Athlete {
	out := make([]model.Athlete, 0, perHouse*len(model.Houses))
	n := 0
	for _, h := range model.Houses {
		for i := range perHouse {
			out = append(out, model.Athlete{
				ID:        fmt.Sprintf("%08d", firstAthleteID+n),
				Bib:       n + 1,
				FirstName: firstNames[g.rng.IntN(len(firstNames))],
				LastName:  lastNames[g.rng.IntN(len(lastNames))],
				House:     h,
				Gender:    model.Genders[i%2],
			})
			n++
		}
	}
	return out
}

// Teams builds one relay team per house for a relay event from the first
// four athletes of that house. Houses with fewer athletes get no team.
func (g *Generator) Teams(ev model.Event, roster []model.Athlete) []model.RelayTeam {
	byHouse := make(map[model.House][]string)
	for _, a := range roster {
		byHouse[a.House] = append(byHouse[a.House], a.ID)
	}
	var out []model.RelayTeam
	for _, h := range model.Houses {
		ids := byHouse[h]
		if len(ids) < model.RelayMembers {
			continue
		}
		t := model.RelayTeam{Name: string(h) + " " + ev.Name, House: h, EventID: ev.ID}
		copy(t.Members[:], ids[:model.RelayMembers])
		out = append(out, t)
	}
	return out
}

// Results picks up to perEvent random athletes for every individual event and
// enters every team in its relay.
func (g *Generator) Results(events []model.Event, roster []model.Athlete, teams []model.RelayTeam, perEvent int) []Submission {
	var out []Submission
	for _, ev := range events {
		if ev.Relay {
			for _, t := range teams {
				if t.EventID == ev.ID {
					out = append(out, Submission{RequestID: uuid.NewString(), TeamID: t.ID, EventID: ev.ID, Raw: g.value(ev.Category)})
				}
			}
			continue
		}
		for _, i := range g.rng.Perm(len(roster))[:min(perEvent, len(roster))] {
			out = append(out, Submission{
				RequestID: uuid.NewString(),
				AthleteID: roster[i].ID,
				EventID:   ev.ID,
				Raw:       g.value(ev.Category),
			})
		}
	}
	return out
}

// Replays returns a share of subs resent with their original request ids.
func (g *Generator) Replays(subs []Submission, rate float64) []Submission {
	var out []Submission
	for _, s := range subs {
		if g.rng.Float64() < rate {
			out = append(out, s)
		}
	}
	return out
}

// value returns a raw measurement. Track times of a minute or more use the
// M:SS.ss form.
func (g *Generator) value(c model.Category) string {
	if c == model.CategoryField {
		return fmt.Sprintf("%.2f", minFieldMeters+g.rng.Float64()*(maxFieldMeters-minFieldMeters))
	}
	cs := int(math.Round((minTrackSeconds + g.rng.Float64()*(maxTrackSeconds-minTrackSeconds)) * 100))
	if cs < centisPerMinute {
		return fmt.Sprintf("%d.%02d", cs/100, cs%100)
	}
	rem := cs % centisPerMinute
	return fmt.Sprintf("%d:%02d.%02d", cs/centisPerMinute, rem/100, rem%100)
}

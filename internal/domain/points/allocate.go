package points

import "github.com/okian/meetpoints/internal/domain/ranking"

// Allocate returns a copy of ranked with Points set from the table. Positions
// outside the table earn 0. It never fails.
func Allocate(ranked []ranking.Entry, t Table) []ranking.Entry {
	out := make([]ranking.Entry, len(ranked))
	for i, e := range ranked {
		e.Points = t.Lookup(e.Position)
		out[i] = e
	}
	return out
}

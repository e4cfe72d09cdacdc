// Package ranking orders the entries of one competition group and assigns
// finishing positions.
//
// Ordering is by value only: ascending when lower is better (timed events),
// descending when higher is better (measured events). The sort is stable, so
// entries with identical values keep the order in which they were supplied.
// Callers pass entries in insertion order to make that tie-break meaningful.
package ranking

import (
	"cmp"
	"slices"
)

// Direction selects which end of the value range wins.
type Direction int

const (
	// Ascending ranks the smallest value first (times).
	Ascending Direction = iota
	// Descending ranks the largest value first (distances, heights).
	Descending
)

// TiePolicy decides how exactly equal values are positioned.
type TiePolicy int

const (
	// StableDistinct gives tied entries distinct sequential positions in input
	// order: 1, 2, 3, ... with no gaps.
	StableDistinct TiePolicy = iota
	// SharedSkip gives tied entries the same position and skips the positions
	// they consumed: 1, 2, 2, 4.
	SharedSkip
)

// String returns the config name of the policy.
func (p TiePolicy) String() string {
	switch p {
	case SharedSkip:
		return "shared"
	default:
		return "distinct"
	}
}

// ParseTiePolicy maps a config value to a TiePolicy. Unknown values report false.
func ParseTiePolicy(s string) (TiePolicy, bool) {
	switch s {
	case "", "distinct", "stable":
		return StableDistinct, true
	case "shared", "shared_skip":
		return SharedSkip, true
	default:
		return StableDistinct, false
	}
}

// Entry is one competitor's canonical measurement within a group.
type Entry struct {
	ID       string
	Value    float64
	Position int
	Points   int
}

// Option configures a ranking run.
type Option func(*options)

type options struct {
	policy TiePolicy
}

// WithTiePolicy overrides the default StableDistinct policy.
func WithTiePolicy(p TiePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Rank returns a new slice holding entries in finish order with Position set.
// The input slice is not modified. An empty input yields an empty, non-nil slice.
func Rank(entries []Entry, dir Direction, opts ...Option) []Entry {
	o := options{policy: StableDistinct}
	for _, opt := range opts {
		opt(&o)
	}

	out := make([]Entry, len(entries))
	copy(out, entries)

	slices.SortStableFunc(out, func(a, b Entry) int {
		if dir == Descending {
			return cmp.Compare(b.Value, a.Value)
		}
		return cmp.Compare(a.Value, b.Value)
	})

	for i := range out {
		out[i].Position = i + 1
		if o.policy == SharedSkip && i > 0 && out[i].Value == out[i-1].Value {
			out[i].Position = out[i-1].Position
		}
	}
	return out
}

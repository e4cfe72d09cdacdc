// Package points holds the position-to-points tables of the meet, the single
// function that decides which table applies to a competition group, and the
// allocator that turns finishing positions into points.
package points

import (
	"fmt"
	"maps"
	"slices"
)

// Table maps a finishing position (1-based) to the points it earns.
// Positions absent from the table earn nothing.
type Table map[int]int

// Built-in tables used when neither the event nor the configuration
// provides one.
var (
	BuiltinIndividual = Table{1: 10, 2: 6, 3: 3, 4: 1}
	BuiltinRelay      = Table{1: 15, 2: 9, 3: 5, 4: 3}
)

// Lookup returns the points for position, or 0 when the position is not
// defined by the table.
func (t Table) Lookup(position int) int {
	if position < 1 {
		return 0
	}
	return t[position]
}

// Empty reports whether the table defines no positions. Empty tables are
// treated as absent during resolution.
func (t Table) Empty() bool { return len(t) == 0 }

// Positions returns the defined positions in ascending order.
func (t Table) Positions() []int {
	return slices.Sorted(maps.Keys(t))
}

// Validate rejects non-positive positions and negative awards.
func (t Table) Validate() error {
	for _, pos := range t.Positions() {
		if pos < 1 {
			return fmt.Errorf("%w: position %d", ErrInvalidTable, pos)
		}
		if t[pos] < 0 {
			return fmt.Errorf("%w: position %d awards %d", ErrInvalidTable, pos, t[pos])
		}
	}
	return nil
}

// Monotonic reports whether a better position never earns fewer points than
// a worse one.
func (t Table) Monotonic() bool {
	prev := -1
	for i, pos := range t.Positions() {
		if i > 0 && t[pos] > prev {
			return false
		}
		prev = t[pos]
	}
	return true
}

// Equal reports whether both tables award the same points for every position.
func (t Table) Equal(o Table) bool {
	return maps.Equal(t, o)
}

// Clone returns an independent copy.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	return maps.Clone(t)
}

package points

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTable reads a table written as "1:10,2:6,3:3". Blank input yields an
// empty table, which resolution treats as absent.
func ParseTable(s string) (Table, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Table{}, nil
	}
	t := Table{}
	for _, pair := range strings.Split(s, ",") {
		pos, pts, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not position:points", ErrInvalidTable, pair)
		}
		p, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil {
			return nil, fmt.Errorf("%w: position %q", ErrInvalidTable, pos)
		}
		v, err := strconv.Atoi(strings.TrimSpace(pts))
		if err != nil {
			return nil, fmt.Errorf("%w: points %q", ErrInvalidTable, pts)
		}
		if _, dup := t[p]; dup {
			return nil, fmt.Errorf("%w: position %d listed twice", ErrInvalidTable, p)
		}
		t[p] = v
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// String writes the table in the form ParseTable reads.
func (t Table) String() string {
	parts := make([]string, 0, len(t))
	for _, pos := range t.Positions() {
		parts = append(parts, strconv.Itoa(pos)+":"+strconv.Itoa(t[pos]))
	}
	return strings.Join(parts, ",")
}

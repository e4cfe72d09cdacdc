// Package catalog loads the YAML event catalog, seeds missing events into a
// store and audits configured points allocations against it.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/points"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned for catalogs that do not decode or validate.
var ErrInvalidCatalog = errors.New("invalid event catalog")

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// Entry is one event definition of the catalog.
type Entry struct {
	Name        string         `yaml:"name" validate:"required"`
	Category    model.Category `yaml:"category" validate:"required,oneof=Track Field"`
	Relay       bool           `yaml:"relay"`
	GenderSplit bool           `yaml:"gender_split"`
	Points      points.Config  `yaml:"points"`
}

// Event converts the entry into an event keyed by its slug.
func (e Entry) Event() model.Event {
	return model.Event{
		ID:          Slug(e.Name),
		Name:        e.Name,
		Category:    e.Category,
		Relay:       e.Relay,
		GenderSplit: e.GenderSplit && !e.Relay,
		Points:      e.Points,
	}
}

// Catalog is an ordered list of event definitions.
type Catalog struct {
	Events []Entry `yaml:"events" validate:"dive"`
}

// Default returns the embedded catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog. Unknown keys are rejected.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validate.Struct(c); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	seen := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		if err := e.Points.Validate(); err != nil {
			return Catalog{}, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, e.Name, err)
		}
		id := Slug(e.Name)
		if seen[id] {
			return Catalog{}, fmt.Errorf("%w: duplicate event %q", ErrInvalidCatalog, e.Name)
		}
		seen[id] = true
	}
	return c, nil
}

// Lookup finds an entry by event name.
func (c Catalog) Lookup(name string) (Entry, bool) {
	for _, e := range c.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Slug turns an event name into a stable id: "4x100m Relay" -> "4x100m-relay".
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// EventStore is the part of the repository seeding needs.
type EventStore interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, e model.Event) error
}

// SeedReport lists what Seed did.
type SeedReport struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// Seed creates every catalog event whose name the store does not know yet.
func (c Catalog) Seed(ctx context.Context, store EventStore) (SeedReport, error) {
	existing, err := store.ListEvents(ctx)
	if err != nil {
		return SeedReport{}, fmt.Errorf("list events: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[e.Name] = true
	}

	var report SeedReport
	for _, entry := range c.Events {
		if known[entry.Name] {
			report.Skipped = append(report.Skipped, entry.Name)
			continue
		}
		if err := store.CreateEvent(ctx, entry.Event()); err != nil {
			return report, fmt.Errorf("seed %s: %w", entry.Name, err)
		}
		report.Created = append(report.Created, entry.Name)
	}
	return report, nil
}

// Finding is one points allocation that differs from its template.
type Finding struct {
	EventID  string       `json:"event_id"`
	Name     string       `json:"name"`
	Gender   model.Gender `json:"gender,omitempty"`
	Expected points.Table `json:"expected"`
	Actual   points.Table `json:"actual"`
}

// Audit resolves the table every group of every event will use and
// reports the groups whose table differs from the template. Events named in
// the catalog are compared with their entry; others with the built-in
// tables.
func (c Catalog) Audit(events []model.Event, defaults points.Defaults) []Finding {
	var findings []Finding
	for _, ev := range events {
		template := points.Config{}
		if entry, ok := c.Lookup(ev.Name); ok {
			template = entry.Points
		}
		for _, key := range ev.Groups() {
			g := string(key.Gender)
			actual := points.Resolve(ev.Points, ev.Relay, g, defaults)
			expected := points.Resolve(template, ev.Relay, g, points.Defaults{})
			if !actual.Equal(expected) {
				findings = append(findings, Finding{
					EventID:  ev.ID,
					Name:     ev.Name,
					Gender:   key.Gender,
					Expected: expected,
					Actual:   actual,
				})
			}
		}
	}
	return findings
}

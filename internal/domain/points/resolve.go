package points

import "fmt"

// Config is the set of tables an event carries. Relay and mixed events use
// Shared; gender-split individual events look up ByGender first.
type Config struct {
	Shared   Table            `json:"shared,omitempty" yaml:"shared,omitempty"`
	ByGender map[string]Table `json:"by_gender,omitempty" yaml:"by_gender,omitempty"`
}

// Validate checks every table in the config.
func (c Config) Validate() error {
	if err := c.Shared.Validate(); err != nil {
		return fmt.Errorf("shared: %w", err)
	}
	for gender, t := range c.ByGender {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%s: %w", gender, err)
		}
	}
	return nil
}

// Defaults are the meet-wide fallback tables from configuration.
type Defaults struct {
	Individual Table
	Relay      Table
}

// Resolve selects the table for a competition group.
//
// Precedence for relay groups:
//  1. cfg.Shared
//  2. defaults.Relay
//  3. BuiltinRelay
//
// Precedence for individual groups:
//  1. cfg.ByGender[gender]
//  2. cfg.Shared
//  3. defaults.Individual
//  4. BuiltinIndividual
//
// Empty tables are skipped at every step.
func Resolve(cfg Config, relay bool, gender string, defaults Defaults) Table {
	if relay {
		return first(cfg.Shared, defaults.Relay, BuiltinRelay)
	}
	return first(cfg.ByGender[gender], cfg.Shared, defaults.Individual, BuiltinIndividual)
}

func first(tables ...Table) Table {
	for _, t := range tables {
		if !t.Empty() {
			return t
		}
	}
	return Table{}
}

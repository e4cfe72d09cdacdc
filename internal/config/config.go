// Package config defines the meet service configuration and how it is loaded.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/ranking"
)

var validate = validator.New()

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// StorageDriver selects the result store: memory, sqlite or postgres.
	StorageDriver string `koanf:"storage_driver" validate:"oneof=memory sqlite postgres"`

	// StorageDSN is the data source for sqlite and postgres.
	StorageDSN string `koanf:"storage_dsn" validate:"required_unless=StorageDriver memory"`

	// CatalogPath points to an event catalog; empty uses the built-in one.
	CatalogPath string `koanf:"catalog_path"`

	// SeedCatalog creates catalog events missing from the store at startup.
	SeedCatalog bool `koanf:"seed_catalog"`

	// TiePolicy is "distinct" (1,2,3) or "shared" (1,2,2,4).
	TiePolicy string `koanf:"tie_policy" validate:"oneof=distinct stable shared shared_skip"`

	// IndividualPoints and RelayPoints override the built-in default tables,
	// written as "1:10,2:6,3:3,4:1". Empty keeps the built-in table.
	IndividualPoints string `koanf:"individual_points"`
	RelayPoints      string `koanf:"relay_points"`

	// RepairQueueSize bounds the queue of groups awaiting background repair.
	RepairQueueSize int `koanf:"repair_queue_size" validate:"gt=0"`

	// RepairWorkers sets the number of repair workers.
	RepairWorkers int `koanf:"repair_workers" validate:"gt=0"`

	// RepairMaxAttempts bounds how often one group is retried.
	RepairMaxAttempts int `koanf:"repair_max_attempts" validate:"gt=0"`

	// RepairBackoff is the base delay between attempts.
	RepairBackoff time.Duration `koanf:"repair_backoff" validate:"gte=0"`

	// DedupeSize bounds the remembered submission request ids.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`

	// RecomputeConcurrency bounds concurrent groups in a full recompute.
	RecomputeConcurrency int `koanf:"recompute_concurrency" validate:"gt=0"`

	// MaxLeaderboardLimit caps GET /standings/athletes?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gt=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StorageDriver:        "memory",
		SeedCatalog:          true,
		TiePolicy:            "distinct",
		RepairQueueSize:      1024,
		RepairWorkers:        2,
		RepairMaxAttempts:    5,
		RepairBackoff:        200 * time.Millisecond,
		DedupeSize:           50_000,
		RecomputeConcurrency: 4,
		MaxLeaderboardLimit:  100,
		ShutdownTimeout:      10 * time.Second,
	}
}

// Validate checks field constraints and that the points tables parse.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.PointsDefaults(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// PointsDefaults returns the configured default tables.
func (c *Config) PointsDefaults() (points.Defaults, error) {
	ind, err := points.ParseTable(c.IndividualPoints)
	if err != nil {
		return points.Defaults{}, fmt.Errorf("individual_points: %w", err)
	}
	rel, err := points.ParseTable(c.RelayPoints)
	if err != nil {
		return points.Defaults{}, fmt.Errorf("relay_points: %w", err)
	}
	return points.Defaults{Individual: ind, Relay: rel}, nil
}

// Ties returns the configured tie policy.
func (c *Config) Ties() ranking.TiePolicy {
	p, _ := ranking.ParseTiePolicy(c.TiePolicy)
	return p
}

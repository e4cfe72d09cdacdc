package meetsim

import (
	"time"

	"github.com/okian/meetpoints/pkg/logger"
)

// Config holds configuration for a simulated meet.
type Config struct {
	BaseURL          string        // Base URL of the service
	AthletesPerHouse int           // Athletes registered per house
	EntriesPerEvent  int           // Athletes entered per individual event
	DuplicateRate    float64       // Share of submissions replayed with the same request id
	Workers          int           // Concurrent requests
	Timeout          time.Duration // HTTP request timeout
	Seed             uint64        // Random seed; 0 picks one from the clock
	Verbose          bool          // Log every request
	Logger           logger.Logger // nil logs through the global logger
}

// Stats holds simulation statistics.
type Stats struct {
	AthletesRegistered int
	TeamsRegistered    int
	ResultsSubmitted   int
	ResultsAccepted    int
	ResultsDuplicate   int
	ResultsFailed      int
	GroupsVerified     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

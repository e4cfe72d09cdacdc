package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/meetpoints/internal/meetsim"
)

// Default configuration constants.
const (
	defaultAthletes      = 12
	defaultEntries       = 8
	defaultDuplicateRate = 0.05
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		athletes   = flag.Int("athletes", defaultAthletes, "Athletes registered per house")
		entries    = flag.Int("entries", defaultEntries, "Athletes entered per individual event")
		duplicates = flag.Float64("duplicates", defaultDuplicateRate, "Share of submissions replayed with the same request id")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Random seed, 0 picks one from the clock")
		logFile    = flag.String("log", "", "Log file (default: meet_sim_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every submission")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		meetsim.ShowHelp()
		return
	}

	closeLog, err := meetsim.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &meetsim.Config{
		BaseURL:          *baseURL,
		AthletesPerHouse: *athletes,
		EntriesPerEvent:  *entries,
		DuplicateRate:    *duplicates,
		Workers:          *workers,
		Timeout:          *timeout,
		Seed:             *seed,
		Verbose:          *verbose,
	}

	if _, err := meetsim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1) //nolint:gocritic // deferred calls already run above
	}
}

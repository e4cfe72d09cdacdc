package meetsim

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/meetpoints/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stdout and a file. If logFile is
// empty, a timestamped filename is generated. The returned function closes
// the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if logFile == "" {
		logFile = "meet_sim_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the meet simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Meet Simulator
==============

Registers a roster, submits random results to a running meet service and
verifies that every group is ranked from 1 and that house totals equal the
points of their results.

Usage:
  go run ./cmd/meet-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -athletes int
        Athletes registered per house (default 12)
  -entries int
        Athletes entered per individual event (default 8)
  -duplicates float
        Share of submissions replayed with the same request id (default 0.05)
  -workers int
        Number of concurrent requests (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Random seed, 0 picks one from the clock
  -log string
        Log file (default: meet_sim_TIMESTAMP.log)
  -verbose
        Log every submission
  -help
        Show this help message

Examples:
  # Simulate against a local service
  go run ./cmd/meet-sim

  # Reproducible run with a larger roster
  go run ./cmd/meet-sim -athletes 40 -entries 16 -seed 7
`)
}

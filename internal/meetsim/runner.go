package meetsim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Run registers a roster, submits generated results through the API and
// verifies the standings the service reports.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := cfg.Logger
	if log == nil {
		log = logger.Named("meetsim")
	}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(stats.StartTime.UnixNano())
	}
	gen := NewGenerator(seed)

	log.Info(ctx, "starting meet simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletesPerHouse", cfg.AthletesPerHouse),
		logger.Int("entriesPerEvent", cfg.EntriesPerEvent),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", seed))

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	events, err := client.Events(ctx)
	if err != nil {
		return stats, fmt.Errorf("list events: %w", err)
	}

	// Step 2: Register athletes and relay teams
	roster := gen.Roster(cfg.AthletesPerHouse)
	if err := forEach(ctx, cfg.Workers, roster, func(ctx context.Context, a model.Athlete) error {
		return client.RegisterAthlete(ctx, a)
	}); err != nil {
		return stats, fmt.Errorf("register athletes: %w", err)
	}
	stats.AthletesRegistered = len(roster)

	var teams []model.RelayTeam
	for _, ev := range events {
		if !ev.Relay {
			continue
		}
		existing, err := client.Teams(ctx, ev.ID)
		if err != nil {
			return stats, fmt.Errorf("list teams of %s: %w", ev.ID, err)
		}
		known := make(map[string]model.RelayTeam, len(existing))
		for _, t := range existing {
			known[t.Name] = t
		}
		for _, t := range gen.Teams(ev, roster) {
			if prev, ok := known[t.Name]; ok {
				teams = append(teams, prev)
				continue
			}
			created, err := client.RegisterTeam(ctx, t)
			if err != nil {
				return stats, fmt.Errorf("register team %s: %w", t.Name, err)
			}
			teams = append(teams, created)
		}
	}
	stats.TeamsRegistered = len(teams)

	// Step 3: Submit results concurrently, replaying some request ids
	subs := gen.Results(events, roster, teams, cfg.EntriesPerEvent)
	subs = append(subs, gen.Replays(subs, cfg.DuplicateRate)...)
	submitResults(ctx, cfg, log, client, subs, stats)

	// Step 4: Converge any group whose recompute was left to repair
	if err := client.RecomputeAll(ctx); err != nil {
		return stats, fmt.Errorf("recompute: %w", err)
	}

	// Step 5: Verify
	snap, err := Fetch(ctx, client, events)
	if err != nil {
		return stats, fmt.Errorf("fetch standings: %w", err)
	}
	groups, err := Verify(snap)
	stats.GroupsVerified = groups

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err != nil {
		return stats, err
	}
	log.Info(ctx, "simulation verified", logger.Int("houses", len(snap.Houses)))
	return stats, nil
}

// submitResults posts subs with at most cfg.Workers requests in flight.
// Failed submissions are counted, not returned.
func submitResults(ctx context.Context, cfg *Config, log logger.Logger, client *Client, subs []Submission, stats *Stats) {
	var accepted, duplicate, failed atomic.Int64

	_ = forEach(ctx, cfg.Workers, subs, func(ctx context.Context, s Submission) error {
		outcome, err := client.Submit(ctx, s)
		switch {
		case err != nil:
			failed.Add(1)
			log.Warn(ctx, "submission failed", logger.String("requestId", s.RequestID), logger.Error(err))
		case outcome == outcomeDuplicate:
			duplicate.Add(1)
		default:
			accepted.Add(1)
		}
		if cfg.Verbose {
			log.Debug(ctx, "submitted", logger.String("event", s.EventID), logger.String("raw", s.Raw), logger.String("outcome", outcome))
		}
		return nil
	})

	stats.ResultsSubmitted = len(subs)
	stats.ResultsAccepted = int(accepted.Load())
	stats.ResultsDuplicate = int(duplicate.Load())
	stats.ResultsFailed = int(failed.Load())
}

// forEach runs fn for every item with a bounded errgroup.
func forEach[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, it := range items {
		g.Go(func() error { return fn(ctx, it) })
	}
	return g.Wait()
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.ResultsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("athletesRegistered", stats.AthletesRegistered),
		logger.Int("teamsRegistered", stats.TeamsRegistered),
		logger.Int("resultsSubmitted", stats.ResultsSubmitted),
		logger.Int("resultsAccepted", stats.ResultsAccepted),
		logger.Int("resultsDuplicate", stats.ResultsDuplicate),
		logger.Int("resultsFailed", stats.ResultsFailed),
		logger.Int("groupsVerified", stats.GroupsVerified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("resultsPerSecond", perSecond))
}

package meetsim

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/types"
)

// Snapshot is what the simulation reads back from the service.
type Snapshot struct {
	Events  []model.Event
	Results map[string][]types.EventResult // by event id
	Houses  []types.HouseTotal
}

// Fetch reads every event's results and the house standings.
func Fetch(ctx context.Context, c *Client, events []model.Event) (Snapshot, error) {
	snap := Snapshot{Events: events, Results: make(map[string][]types.EventResult, len(events))}
	for _, ev := range events {
		rows, err := c.EventResults(ctx, ev.ID)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Results[ev.ID] = rows
	}
	houses, err := c.HouseStandings(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Houses = houses
	return snap, nil
}

// Verify checks that every group is ranked from 1 without gaps other than the
// ones left by shared positions, and that house totals equal the sum of the
// points of their results. It returns the number of groups checked.
func Verify(snap Snapshot) (int, error) {
	var (
		errs   []error
		groups int
		total  = make(map[model.House]int)
		relay  = make(map[model.House]int)
	)

	for _, ev := range snap.Events {
		byGroup := make(map[model.Gender][]types.EventResult)
		var order []model.Gender
		for _, r := range snap.Results[ev.ID] {
			if _, ok := byGroup[r.Gender]; !ok {
				order = append(order, r.Gender)
			}
			byGroup[r.Gender] = append(byGroup[r.Gender], r)

			total[r.House] += r.Points
			if ev.Relay {
				relay[r.House] += r.Points
			}
		}
		for _, g := range order {
			groups++
			if err := checkPositions(byGroup[g]); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: %w", ErrVerification, model.GroupKey{EventID: ev.ID, Gender: g}, err))
			}
		}
	}

	for _, h := range snap.Houses {
		if h.Total != total[h.House] {
			errs = append(errs, fmt.Errorf("%w: house %s total %d, results sum to %d", ErrVerification, h.House, h.Total, total[h.House]))
		}
		if h.Relay != relay[h.House] {
			errs = append(errs, fmt.Errorf("%w: house %s relay %d, relay results sum to %d", ErrVerification, h.House, h.Relay, relay[h.House]))
		}
	}
	return groups, errors.Join(errs...)
}

// checkPositions expects rows in position order.
func checkPositions(rows []types.EventResult) error {
	for i, r := range rows {
		switch {
		case r.Position < 1:
			return fmt.Errorf("result %s is unranked", r.MeasurementID)
		case r.Position == i+1:
		case i > 0 && (r.Position == rows[i-1].Position || r.Position == rows[i-1].Position+1):
		default:
			return fmt.Errorf("result %s at index %d has position %d", r.MeasurementID, i, r.Position)
		}
	}
	return nil
}

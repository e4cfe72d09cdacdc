package meetsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/types"
)

// Submission outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
)

// Client talks to the meet service over its JSON API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends a request and decodes the response into out when the status is
// one of want.
func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	for _, status := range want {
		if resp.StatusCode != status {
			continue
		}
		if out == nil || len(data) == 0 {
			return resp.StatusCode, nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}

	var e errorResponse
	_ = json.Unmarshal(data, &e)
	return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s %s", ErrUnexpectedStatus, method, path, resp.StatusCode, e.Code, e.Message)
}

// Health checks the metrics endpoint answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

// Events lists the events of the meet.
func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	_, err := c.do(ctx, http.MethodGet, "/events", nil, &events, http.StatusOK)
	return events, err
}

// RegisterAthlete registers a, treating an existing registration id as success.
func (c *Client) RegisterAthlete(ctx context.Context, a model.Athlete) error {
	_, err := c.do(ctx, http.MethodPost, "/athletes", a, nil, http.StatusCreated, http.StatusConflict)
	return err
}

// RegisterTeam registers a relay team and returns it with its assigned id.
func (c *Client) RegisterTeam(ctx context.Context, t model.RelayTeam) (model.RelayTeam, error) {
	var created model.RelayTeam
	_, err := c.do(ctx, http.MethodPost, "/relay-teams", t, &created, http.StatusCreated)
	return created, err
}

// Teams lists the relay teams entered in an event.
func (c *Client) Teams(ctx context.Context, eventID string) ([]model.RelayTeam, error) {
	var teams []model.RelayTeam
	_, err := c.do(ctx, http.MethodGet, "/relay-teams?event_id="+url.QueryEscape(eventID), nil, &teams, http.StatusOK)
	return teams, err
}

type resultRequest struct {
	RequestID string `json:"request_id"`
	AthleteID string `json:"athlete_id,omitempty"`
	TeamID    string `json:"team_id,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	Value     string `json:"value"`
}

// Submit posts one result and reports whether it was accepted or recognised
// as a duplicate request.
func (c *Client) Submit(ctx context.Context, s Submission) (string, error) {
	req := resultRequest{RequestID: s.RequestID, Value: s.Raw}
	path := "/results"
	if s.TeamID != "" {
		path = "/relay-results"
		req.TeamID = s.TeamID
	} else {
		req.AthleteID = s.AthleteID
		req.EventID = s.EventID
	}

	var ack ackResponse
	status, err := c.do(ctx, http.MethodPost, path, req, &ack, http.StatusCreated, http.StatusOK)
	if err != nil {
		return "", err
	}
	if status == http.StatusOK && ack.Duplicate {
		return outcomeDuplicate, nil
	}
	return outcomeAccepted, nil
}

// EventResults returns the ranked results of one event.
func (c *Client) EventResults(ctx context.Context, eventID string) ([]types.EventResult, error) {
	var rows []types.EventResult
	_, err := c.do(ctx, http.MethodGet, "/results?event_id="+url.QueryEscape(eventID), nil, &rows, http.StatusOK)
	return rows, err
}

// HouseStandings returns the house totals.
func (c *Client) HouseStandings(ctx context.Context) ([]types.HouseTotal, error) {
	var rows []types.HouseTotal
	_, err := c.do(ctx, http.MethodGet, "/standings/houses", nil, &rows, http.StatusOK)
	return rows, err
}

// RecomputeAll asks the service to re-rank every group.
func (c *Client) RecomputeAll(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/recompute", nil, nil, http.StatusOK)
	return err
}

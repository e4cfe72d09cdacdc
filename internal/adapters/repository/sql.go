package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okian/meetpoints/internal/domain/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects placeholder syntax.
type Dialect string

// Supported SQL dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements Store over database/sql. Every driver error is
// reported as ErrUnavailable.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	cfg     settings
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB, dialect Dialect, opts ...Option) *SQLStore {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SQLStore{db: db, dialect: dialect, cfg: cfg}
}

// Migrate creates missing tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return unavailable("migrate", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// bind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) bind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// pgUniqueViolation is the postgres SQLSTATE of a unique constraint failure.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique or primary key
// constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

// insertFailed maps a failed INSERT: a constraint race lost to a concurrent
// writer is a duplicate, anything else leaves the store unavailable.
func insertFailed(op, what string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return unavailable(op, err)
}

func (s *SQLStore) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (s *SQLStore) exists(ctx context.Context, tx *sql.Tx, op, query string, args ...any) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, s.bind(query), args...).Scan(&n); err != nil {
		return false, unavailable(op, err)
	}
	return n > 0, nil
}

// Athletes

const athleteCols = `id, bib, first_name, last_name, house, gender`

func scanAthlete(row interface{ Scan(...any) error }) (model.Athlete, error) {
	var a model.Athlete
	var house, gender string
	if err := row.Scan(&a.ID, &a.Bib, &a.FirstName, &a.LastName, &house, &gender); err != nil {
		return model.Athlete{}, err
	}
	a.House = model.House(house)
	a.Gender = model.Gender(gender)
	return a, nil
}

func (s *SQLStore) CreateAthlete(ctx context.Context, a model.Athlete) error {
	const op = "create athlete"
	return s.inTx(ctx, op, func(tx *sql.Tx) error {
		dup, err := s.exists(ctx, tx, op, `SELECT COUNT(*) FROM athletes WHERE id = ? OR bib = ?`, a.ID, a.Bib)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("athlete %s / bib %d: %w", a.ID, a.Bib, ErrDuplicate)
		}
		_, err = tx.ExecContext(ctx, s.bind(`INSERT INTO athletes (`+athleteCols+`) VALUES (?, ?, ?, ?, ?, ?)`),
			a.ID, a.Bib, a.FirstName, a.LastName, string(a.House), string(a.Gender))
		if err != nil {
			return insertFailed(op, fmt.Sprintf("athlete %s / bib %d", a.ID, a.Bib), err)
		}
		return nil
	})
}

func (s *SQLStore) GetAthlete(ctx context.Context, id string) (model.Athlete, error) {
	row := s.db.QueryRowContext(ctx, s.bind(`SELECT `+athleteCols+` FROM athletes WHERE id = ?`), id)
	a, err := scanAthlete(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Athlete{}, fmt.Errorf("athlete %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Athlete{}, unavailable("get athlete", err)
	}
	return a, nil
}

func (s *SQLStore) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	const op = "list athletes"
	rows, err := s.db.QueryContext(ctx, `SELECT `+athleteCols+` FROM athletes ORDER BY bib`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]model.Athlete, 0)
	for rows.Next() {
		a, err := scanAthlete(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (s *SQLStore) UpdateAthlete(ctx context.Context, a model.Athlete) error {
	res, err := s.db.ExecContext(ctx,
		s.bind(`UPDATE athletes SET first_name = ?, last_name = ?, house = ?, gender = ? WHERE id = ?`),
		a.FirstName, a.LastName, string(a.House), string(a.Gender), a.ID)
	if err != nil {
		return unavailable("update athlete", err)
	}
	return affected(res, "athlete "+a.ID)
}

func affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// Events

const eventCols = `id, name, category, relay, gender_split, points`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	var category, pts string
	if err := row.Scan(&e.ID, &e.Name, &category, &e.Relay, &e.GenderSplit, &pts); err != nil {
		return model.Event{}, err
	}
	e.Category = model.Category(category)
	if err := json.Unmarshal([]byte(pts), &e.Points); err != nil {
		return model.Event{}, fmt.Errorf("decode points of %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *SQLStore) CreateEvent(ctx context.Context, e model.Event) error {
	const op = "create event"
	pts, err := json.Marshal(e.Points)
	if err != nil {
		return fmt.Errorf("encode points of %s: %w", e.ID, err)
	}
	return s.inTx(ctx, op, func(tx *sql.Tx) error {
		dup, err := s.exists(ctx, tx, op, `SELECT COUNT(*) FROM events WHERE id = ? OR name = ?`, e.ID, e.Name)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("event %s / %q: %w", e.ID, e.Name, ErrDuplicate)
		}
		_, err = tx.ExecContext(ctx, s.bind(`INSERT INTO events (`+eventCols+`) VALUES (?, ?, ?, ?, ?, ?)`),
			e.ID, e.Name, string(e.Category), e.Relay, e.GenderSplit, string(pts))
		if err != nil {
			return insertFailed(op, fmt.Sprintf("event %s / %q", e.ID, e.Name), err)
		}
		return nil
	})
}

func (s *SQLStore) GetEvent(ctx context.Context, id string) (model.Event, error) {
	row := s.db.QueryRowContext(ctx, s.bind(`SELECT `+eventCols+` FROM events WHERE id = ?`), id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Event{}, unavailable("get event", err)
	}
	return e, nil
}

func (s *SQLStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	const op = "list events"
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventCols+` FROM events ORDER BY name`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// Relay teams

const teamCols = `id, name, house, event_id, members`

func scanTeam(row interface{ Scan(...any) error }) (model.RelayTeam, error) {
	var t model.RelayTeam
	var house, members string
	if err := row.Scan(&t.ID, &t.Name, &house, &t.EventID, &members); err != nil {
		return model.RelayTeam{}, err
	}
	t.House = model.House(house)
	if err := json.Unmarshal([]byte(members), &t.Members); err != nil {
		return model.RelayTeam{}, fmt.Errorf("decode members of %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *SQLStore) CreateTeam(ctx context.Context, t model.RelayTeam) error {
	const op = "create team"
	members, err := json.Marshal(t.Members)
	if err != nil {
		return fmt.Errorf("encode members of %s: %w", t.ID, err)
	}
	return s.inTx(ctx, op, func(tx *sql.Tx) error {
		dup, err := s.exists(ctx, tx, op,
			`SELECT COUNT(*) FROM relay_teams WHERE id = ? OR (event_id = ? AND name = ?)`, t.ID, t.EventID, t.Name)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("team %s / %q: %w", t.ID, t.Name, ErrDuplicate)
		}
		_, err = tx.ExecContext(ctx, s.bind(`INSERT INTO relay_teams (`+teamCols+`) VALUES (?, ?, ?, ?, ?)`),
			t.ID, t.Name, string(t.House), t.EventID, string(members))
		if err != nil {
			return insertFailed(op, fmt.Sprintf("team %s / %q", t.ID, t.Name), err)
		}
		return nil
	})
}

func (s *SQLStore) GetTeam(ctx context.Context, id string) (model.RelayTeam, error) {
	row := s.db.QueryRowContext(ctx, s.bind(`SELECT `+teamCols+` FROM relay_teams WHERE id = ?`), id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RelayTeam{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.RelayTeam{}, unavailable("get team", err)
	}
	return t, nil
}

func (s *SQLStore) ListTeams(ctx context.Context, eventID string) ([]model.RelayTeam, error) {
	const op = "list teams"
	query := `SELECT ` + teamCols + ` FROM relay_teams`
	var args []any
	if eventID != "" {
		query += ` WHERE event_id = ?`
		args = append(args, eventID)
	}
	rows, err := s.db.QueryContext(ctx, s.bind(query+` ORDER BY name`), args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]model.RelayTeam, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// Measurements

const measurementSelect = `SELECT m.id, m.seq, m.event_id, m.athlete_id, m.team_id, m.value, m.position, m.points, m.created_at, COALESCE(a.gender, '')
	FROM measurements m LEFT JOIN athletes a ON a.id = m.athlete_id`

func scanMeasurement(row interface{ Scan(...any) error }) (model.Measurement, error) {
	var m model.Measurement
	var created int64
	var gender string
	if err := row.Scan(&m.ID, &m.Seq, &m.EventID, &m.AthleteID, &m.TeamID, &m.Value,
		&m.Position, &m.Points, &created, &gender); err != nil {
		return model.Measurement{}, err
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	m.Gender = model.Gender(gender)
	return m, nil
}

func (s *SQLStore) InsertMeasurement(ctx context.Context, m model.Measurement) (model.Measurement, error) {
	const op = "insert measurement"
	m.Gender = ""
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.cfg.now().UTC()
	}
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		dup, err := s.exists(ctx, tx, op,
			`SELECT COUNT(*) FROM measurements WHERE id = ? OR (event_id = ? AND athlete_id = ? AND team_id = ?)`,
			m.ID, m.EventID, m.AthleteID, m.TeamID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("result for %s in %s: %w", m.Entrant(), m.EventID, ErrDuplicate)
		}
		err = tx.QueryRowContext(ctx, s.bind(`INSERT INTO measurements
			(id, event_id, athlete_id, team_id, value, position, points, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING seq`),
			m.ID, m.EventID, m.AthleteID, m.TeamID, m.Value, m.Position, m.Points, m.CreatedAt.UnixNano()).Scan(&m.Seq)
		if err != nil {
			return insertFailed(op, fmt.Sprintf("result for %s in %s", m.Entrant(), m.EventID), err)
		}
		if m.AthleteID == "" {
			return nil
		}
		var gender string
		err = tx.QueryRowContext(ctx, s.bind(`SELECT gender FROM athletes WHERE id = ?`), m.AthleteID).Scan(&gender)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return unavailable(op, err)
		}
		m.Gender = model.Gender(gender)
		return nil
	})
	if err != nil {
		return model.Measurement{}, err
	}
	return m, nil
}

func (s *SQLStore) GetMeasurement(ctx context.Context, id string) (model.Measurement, error) {
	row := s.db.QueryRowContext(ctx, s.bind(measurementSelect+` WHERE m.id = ?`), id)
	m, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Measurement{}, fmt.Errorf("measurement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Measurement{}, unavailable("get measurement", err)
	}
	return m, nil
}

func (s *SQLStore) DeleteMeasurement(ctx context.Context, id string) (model.Measurement, error) {
	m, err := s.GetMeasurement(ctx, id)
	if err != nil {
		return model.Measurement{}, err
	}
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM measurements WHERE id = ?`), id)
	if err != nil {
		return model.Measurement{}, unavailable("delete measurement", err)
	}
	if err := affected(res, "measurement "+id); err != nil {
		return model.Measurement{}, err
	}
	return m, nil
}

func (s *SQLStore) listMeasurements(ctx context.Context, op, query string, args ...any) ([]model.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]model.Measurement, 0)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (s *SQLStore) ListGroup(ctx context.Context, eventID string, g model.Gender) ([]model.Measurement, error) {
	if g == "" {
		return s.listMeasurements(ctx, "list group",
			measurementSelect+` WHERE m.event_id = ? ORDER BY m.seq`, eventID)
	}
	return s.listMeasurements(ctx, "list group",
		measurementSelect+` WHERE m.event_id = ? AND a.gender = ? ORDER BY m.seq`, eventID, string(g))
}

func (s *SQLStore) ListMeasurements(ctx context.Context) ([]model.Measurement, error) {
	return s.listMeasurements(ctx, "list measurements", measurementSelect+` ORDER BY m.seq`)
}

func (s *SQLStore) UpdateRanking(ctx context.Context, id string, position, pts int) error {
	res, err := s.db.ExecContext(ctx, s.bind(`UPDATE measurements SET position = ?, points = ? WHERE id = ?`),
		position, pts, id)
	if err != nil {
		return unavailable("update ranking", err)
	}
	return affected(res, "measurement "+id)
}

func (s *SQLStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM athletes),
		(SELECT COUNT(*) FROM events),
		(SELECT COUNT(*) FROM relay_teams),
		(SELECT COUNT(*) FROM measurements)`)
	if err := row.Scan(&c.Athletes, &c.Events, &c.Teams, &c.Measurements); err != nil {
		return Counts{}, unavailable("counts", err)
	}
	return c, nil
}

package repository

import "strings"

// seqColumn is the insertion-order key of measurements, assigned by the
// database so concurrent inserts never compete for a value.
var seqColumn = map[Dialect]string{ //nolint:gochecknoglobals // static DDL
	DialectSQLite:   `seq INTEGER PRIMARY KEY AUTOINCREMENT`,
	DialectPostgres: `seq BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY`,
}

// schemaFor returns the DDL Migrate applies for d.
func schemaFor(d Dialect) []string {
	seq, ok := seqColumn[d]
	if !ok {
		seq = seqColumn[DialectSQLite]
	}
	out := make([]string, len(tables))
	for i, stmt := range tables {
		out[i] = strings.Replace(stmt, "{{seq}}", seq, 1)
	}
	return out
}

var tables = []string{ //nolint:gochecknoglobals // static DDL
	`CREATE TABLE IF NOT EXISTS athletes (
		id TEXT PRIMARY KEY,
		bib INTEGER NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		house TEXT NOT NULL,
		gender TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		relay BOOLEAN NOT NULL,
		gender_split BOOLEAN NOT NULL,
		points TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS relay_teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		house TEXT NOT NULL,
		event_id TEXT NOT NULL,
		members TEXT NOT NULL,
		UNIQUE (event_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS measurements (
		{{seq}},
		id TEXT NOT NULL UNIQUE,
		event_id TEXT NOT NULL,
		athlete_id TEXT NOT NULL DEFAULT '',
		team_id TEXT NOT NULL DEFAULT '',
		value DOUBLE PRECISION NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		points INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		UNIQUE (event_id, athlete_id, team_id)
	)`,
	`CREATE INDEX IF NOT EXISTS measurements_event_seq ON measurements (event_id, seq)`,
}

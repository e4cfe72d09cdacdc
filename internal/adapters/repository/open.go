package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // registers the "sqlite" database/sql driver
)

// Storage drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open builds the store named by driver. SQL stores are pinged and migrated
// before they are returned. The returned close function is never nil.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, func() error, error) {
	var (
		sqlDriver string
		dialect   Dialect
	)
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(opts...), func() error { return nil }, nil
	case DriverSQLite:
		sqlDriver, dialect = "sqlite", DialectSQLite
	case DriverPostgres:
		sqlDriver, dialect = "pgx", DialectPostgres
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, nil, unavailable("open "+driver, err)
	}
	if dialect == DialectSQLite {
		// sqlite has a single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, unavailable("ping "+driver, err)
	}
	s := NewSQLStore(db, dialect, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, s.Close, nil
}

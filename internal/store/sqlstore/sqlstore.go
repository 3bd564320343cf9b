// Package sqlstore implements domain.Store on database/sql, for PostgreSQL
// (pgx) and SQLite (go-sqlite3).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

const (
	maxIdleConnections     = 2
	connectionsMaxIdleTime = 2 * time.Minute
	connectionsLifetime    = 30 * time.Minute
	pingTimeout            = 5 * time.Second
)

// Store is a SQL backed bookmark table.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	newID   func() string
}

var _ domain.Store = (*Store)(nil)

// Open connects to driver ("postgres" or "sqlite") at dsn and creates the
// schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(d.maxConns)
	db.SetMaxIdleConns(min(maxIdleConnections, d.maxConns))
	db.SetConnMaxIdleTime(connectionsMaxIdleTime)
	db.SetConnMaxLifetime(connectionsLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dialect: d, now: time.Now, newID: domain.NewID}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Package sqlite implements the host ports on a SQLite database holding the
// CRM tables the triggers read and write.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/adapter/sqlite/migrations"
	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	_ "modernc.org/sqlite"
)

// Store reads and writes host records in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite not reachable: %w", err)
	}
	return nil
}

// CreateActivity inserts an automatic activity entry.
func (s *Store) CreateActivity(ctx context.Context, e domain.ActivityEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (type_code, code, label, element_type, fk_element, owner_id, datep, percentage)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TypeCode, e.Code, e.Label, e.ElementType, e.FKElement, e.OwnerID, toMillis(e.DateP), e.Percentage,
	)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	return res.LastInsertId()
}

// CreateGeolocation inserts a geolocation record.
func (s *Store) CreateGeolocation(ctx context.Context, g domain.Geolocation) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO geolocations (element_type, fk_element, latitude, longitude, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ElementType, g.FKElement, g.Latitude, g.Longitude, g.CreatedBy, toMillis(g.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert geolocation: %w", err)
	}
	return res.LastInsertId()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

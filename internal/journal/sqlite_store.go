package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/sqlite"

	"truckping/migrations"
	"truckping/pkg/migrator"
)

// SQLiteStore keeps entries in the pings table. The schema is brought up to
// date on open.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	const op = "journal.NewSQLiteStore"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	m := migrator.NewMigrator(db, migrator.Config{Source: migrations.FS}, log)
	if err := m.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pings (
			id, at, vendor_id, user_id, address, note,
			vendor_lat, vendor_lon, eta_min, queued
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UnixNano(), e.VendorID, e.UserID, e.Address, e.Note,
		e.VendorLat, e.VendorLon, e.ETAMinutes, e.Queued,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ping: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, vendor_id, user_id, address, note,
			vendor_lat, vendor_lon, eta_min, queued
		FROM pings ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, min(n, recentPrealloc))
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &at, &e.VendorID, &e.UserID, &e.Address, &e.Note,
			&e.VendorLat, &e.VendorLon, &e.ETAMinutes, &e.Queued); err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return ErrNilDB
	}
	return s.db.Close()
}

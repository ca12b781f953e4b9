package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns Booking Records and is the only writer of seat capacity.
// Every capacity decision happens inside a transaction, so a check by the
// wizard is advisory until Create or Modify accepts.
type Store struct {
	db       *sql.DB
	capacity int
	loc      *time.Location
}

// NewStore opens (and if needed creates) the SQLite database at path.
// capacity is the seat capacity of every departure.
func NewStore(path string, capacity int, loc *time.Location) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under contention, which is exactly the capacity-race path.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	return &Store{db: db, capacity: capacity, loc: loc}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			direction TEXT NOT NULL,
			date TEXT NOT NULL,
			stop_id INTEGER NOT NULL,
			depart TEXT NOT NULL,
			identity TEXT NOT NULL,
			check_in TEXT NOT NULL DEFAULT '',
			check_out TEXT NOT NULL DEFAULT '',
			room_code TEXT NOT NULL DEFAULT '',
			dining_date TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL,
			pickup_key TEXT NOT NULL,
			dropoff_key TEXT NOT NULL,
			passenger_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			version INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_slot
			ON bookings (direction, date, stop_id, depart)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_phone ON bookings (phone)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings (email)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created ON bookings (created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

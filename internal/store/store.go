// Package store persists flight records, their weather snapshots and the
// airport directory in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avlogbook/weather/internal/forecast"
)

// DB wraps a database connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := initSchema(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS flights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			origin TEXT NOT NULL DEFAULT '',
			destination TEXT NOT NULL DEFAULT '',
			origin_station TEXT NOT NULL DEFAULT '',
			destination_station TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMP,
			end_time TIMESTAMP,
			planned_start TIMESTAMP,
			planned_end TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS flight_weather_snapshots (
			flight_id INTEGER PRIMARY KEY REFERENCES flights(id),
			captured_at TIMESTAMP NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS airports (
			ident TEXT PRIMARY KEY,
			iata TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			preferred TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Flight loads one flight record with its snapshot, if any.
func (db *DB) Flight(ctx context.Context, id int64) (*forecast.Flight, error) {
	row := db.QueryRowContext(ctx, `
		SELECT f.origin, f.destination, f.origin_station, f.destination_station,
		       f.start_time, f.end_time, f.planned_start, f.planned_end,
		       s.data
		FROM flights f
		LEFT JOIN flight_weather_snapshots s ON s.flight_id = f.id
		WHERE f.id = ?`, id)

	var (
		flight       forecast.Flight
		startTime    sql.NullTime
		endTime      sql.NullTime
		plannedStart sql.NullTime
		plannedEnd   sql.NullTime
		snapshotJSON sql.NullString
	)
	err := row.Scan(
		&flight.Origin, &flight.Destination,
		&flight.OriginStationHint, &flight.DestinationStationHint,
		&startTime, &endTime, &plannedStart, &plannedEnd,
		&snapshotJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("flight %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading flight %d: %w", id, err)
	}

	flight.ID = id
	flight.StartTime = startTime.Time
	flight.EndTime = endTime.Time
	flight.PlannedStart = plannedStart.Time
	flight.PlannedEnd = plannedEnd.Time

	if snapshotJSON.Valid && snapshotJSON.String != "" {
		var snap forecast.Snapshot
		if err := json.Unmarshal([]byte(snapshotJSON.String), &snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot for flight %d: %w", id, err)
		}
		flight.Snapshot = &snap
	}
	return &flight, nil
}

// SaveSnapshot writes the snapshot for a flight, replacing any previous one.
// The whole value is swapped in a single statement, so concurrent captures
// leave whichever complete snapshot landed last.
func (db *DB) SaveSnapshot(ctx context.Context, flightID int64, snap forecast.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot for flight %d: %w", flightID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO flight_weather_snapshots (flight_id, captured_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT(flight_id) DO UPDATE SET
			captured_at = excluded.captured_at,
			data = excluded.data`,
		flightID, snap.CapturedAt, string(data))
	if err != nil {
		return fmt.Errorf("saving snapshot for flight %d: %w", flightID, err)
	}
	return nil
}

// PreferredStation looks up the airport directory by exact match on the
// 4-character ident, the 3-character IATA code or the airport name, and
// returns the directory's preferred reporting station. No match returns an
// empty code and no error.
func (db *DB) PreferredStation(ctx context.Context, code string) (string, error) {
	row := db.QueryRowContext(ctx, `
		SELECT CASE WHEN preferred != '' THEN preferred ELSE ident END
		FROM airports
		WHERE ident = ?1 COLLATE NOCASE
		   OR iata = ?1 COLLATE NOCASE
		   OR name = ?1 COLLATE NOCASE
		LIMIT 1`, code)

	var preferred string
	err := row.Scan(&preferred)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("directory lookup for %q: %w", code, err)
	}
	return preferred, nil
}

// InsertFlight creates a flight record and returns its id. Zero times are
// stored as NULL.
func (db *DB) InsertFlight(ctx context.Context, f forecast.Flight) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO flights (origin, destination, origin_station, destination_station,
		                     start_time, end_time, planned_start, planned_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Origin, f.Destination, f.OriginStationHint, f.DestinationStationHint,
		nullableTime(f.StartTime), nullableTime(f.EndTime),
		nullableTime(f.PlannedStart), nullableTime(f.PlannedEnd))
	if err != nil {
		return 0, fmt.Errorf("inserting flight: %w", err)
	}
	return res.LastInsertId()
}

// InsertAirport adds or replaces a directory entry.
func (db *DB) InsertAirport(ctx context.Context, ident, iata, name, preferred string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO airports (ident, iata, name, preferred)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ident) DO UPDATE SET
			iata = excluded.iata,
			name = excluded.name,
			preferred = excluded.preferred`,
		ident, iata, name, preferred)
	if err != nil {
		return fmt.Errorf("inserting airport %s: %w", ident, err)
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var (
	_ forecast.FlightStore      = (*DB)(nil)
	_ forecast.StationDirectory = (*DB)(nil)
)

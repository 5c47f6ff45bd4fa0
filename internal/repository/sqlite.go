package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS flood_predictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prediction_time DATETIME NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			probability REAL NOT NULL,
			confidence REAL,
			model_version TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS earthquake_predictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prediction_time DATETIME NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			probability REAL NOT NULL,
			estimated_magnitude REAL,
			confidence REAL,
			model_version TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS weather_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			temperature REAL,
			humidity REAL,
			pressure REAL,
			precipitation REAL,
			wind_speed REAL,
			source TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS seismic_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			timestamp DATETIME NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			magnitude REAL NOT NULL,
			depth REAL,
			place TEXT,
			source TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			alert_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			sent_at DATETIME,
			expires_at DATETIME,
			metadata TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_flood_predictions_created_at ON flood_predictions(created_at);
		CREATE INDEX IF NOT EXISTS idx_earthquake_predictions_created_at ON earthquake_predictions(created_at);
		CREATE INDEX IF NOT EXISTS idx_weather_readings_timestamp ON weather_readings(timestamp);
		CREATE INDEX IF NOT EXISTS idx_seismic_events_timestamp ON seismic_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
		CREATE INDEX IF NOT EXISTS idx_alerts_is_active ON alerts(is_active);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

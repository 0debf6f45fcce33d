package sqlite

import (
	"context"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

var createStatements = []string{
	`CREATE TABLE constructors (
	constructor_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	nationality TEXT
)`,
	`CREATE TABLE drivers (
	driver_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	nationality TEXT
)`,
	`CREATE TABLE races (
	race_id INTEGER PRIMARY KEY AUTOINCREMENT,
	year INTEGER NOT NULL,
	round INTEGER NOT NULL,
	race_name TEXT NOT NULL,
	circuit TEXT,
	date TEXT,
	UNIQUE (year, round)
)`,
	`CREATE TABLE weather_conditions (
	weather_id INTEGER PRIMARY KEY AUTOINCREMENT,
	race_id INTEGER REFERENCES races(race_id) ON DELETE CASCADE,
	temperature REAL,
	humidity REAL,
	wind_speed REAL,
	wind_direction REAL,
	precipitation REAL,
	pressure REAL
)`,
	`CREATE TABLE race_results (
	result_id INTEGER PRIMARY KEY AUTOINCREMENT,
	race_id INTEGER REFERENCES races(race_id) ON DELETE CASCADE,
	driver_id INTEGER REFERENCES drivers(driver_id) ON DELETE CASCADE,
	constructor_id INTEGER REFERENCES constructors(constructor_id) ON DELETE CASCADE,
	grid INTEGER,
	position INTEGER,
	points REAL,
	race_time TEXT,
	fastest_lap_rank INTEGER,
	fastest_lap_time TEXT,
	fastest_lap_speed REAL
)`,
	`CREATE TABLE rankings (
	ranking_id INTEGER PRIMARY KEY AUTOINCREMENT,
	race_id INTEGER REFERENCES races(race_id) ON DELETE CASCADE,
	driver_id INTEGER REFERENCES drivers(driver_id) ON DELETE CASCADE,
	constructor_id INTEGER REFERENCES constructors(constructor_id) ON DELETE CASCADE,
	points REAL,
	position INTEGER
)`,
}

// Reset drops and recreates the six schema tables.
func (s *Store) Reset(ctx context.Context) error {
	return store.ResetSchema(ctx, func(ctx context.Context, stmt string) error {
		_, err := s.db.ExecContext(ctx, stmt)
		return err
	}, createStatements, s.logger)
}

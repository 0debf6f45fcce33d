package postgres

import (
	"context"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

var createStatements = []string{
	`CREATE TABLE constructors (
	constructor_id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL UNIQUE,
	nationality VARCHAR(100)
)`,
	`CREATE TABLE drivers (
	driver_id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL UNIQUE,
	nationality VARCHAR(100)
)`,
	`CREATE TABLE races (
	race_id SERIAL PRIMARY KEY,
	year INTEGER NOT NULL,
	round INTEGER NOT NULL,
	race_name VARCHAR(255) NOT NULL,
	circuit VARCHAR(255),
	date DATE,
	UNIQUE (year, round)
)`,
	`CREATE TABLE weather_conditions (
	weather_id SERIAL PRIMARY KEY,
	race_id INTEGER REFERENCES races(race_id) ON DELETE CASCADE,
	temperature DOUBLE PRECISION,
	humidity DOUBLE PRECISION,
	wind_speed DOUBLE PRECISION,
	wind_direction DOUBLE PRECISION,
	precipitation DOUBLE PRECISION,
	pressure DOUBLE PRECISION
)`,
	`CREATE TABLE race_results (
	result_id SERIAL PRIMARY KEY,
	race_id INTEGER REFERENCES races(race_id) ON DELETE CASCADE,
	driver_id INTEGER REFERENCES drivers(driver_id) ON DELETE CASCADE,
	constructor_id INTEGER REFERENCES constructors(constructor_id) ON DELETE CASCADE,
	grid INTEGER,
	position INTEGER,
	points DOUBLE PRECISION,
	race_time VARCHAR(20),
	fastest_lap_rank INTEGER,
	fastest_lap_time VARCHAR(20),
	fastest_lap_speed DOUBLE PRECISION
)`,
	`CREATE TABLE rankings (
	ranking_id SERIAL PRIMARY KEY,
	race_id INTEGER REFERENCES races(race_id) ON DELETE CASCADE,
	driver_id INTEGER REFERENCES drivers(driver_id) ON DELETE CASCADE,
	constructor_id INTEGER REFERENCES constructors(constructor_id) ON DELETE CASCADE,
	points DOUBLE PRECISION,
	position INTEGER
)`,
}

// Reset drops and recreates the six schema tables.
func (s *Store) Reset(ctx context.Context) error {
	return store.ResetSchema(ctx, func(ctx context.Context, stmt string) error {
		_, err := s.pool.Exec(ctx, stmt)
		return err
	}, createStatements, s.logger)
}

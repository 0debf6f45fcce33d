package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

func collect[T any](ctx context.Context, s *Store, op, query string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap(op, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, store.Wrap(op, fmt.Errorf("scan: %w", err))
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap(op, err)
	}
	return out, nil
}

// RacesByYear lists the races of a season, optionally at one circuit.
func (s *Store) RacesByYear(ctx context.Context, year int, circuit string) ([]store.Race, error) {
	query, args := store.SelectRacesByYear, []any{year}
	if circuit != "" {
		query, args = store.SelectRacesByYearAndCircuit, []any{year, circuit}
	}
	return collect(ctx, s, "races by year", query, func(rows *sql.Rows) (store.Race, error) {
		var (
			r    store.Race
			date sql.NullString
		)
		err := rows.Scan(&r.ID, &r.Year, &r.Round, &r.RaceName, &r.Circuit, &date)
		r.Date = parseDate(date)
		return r, err
	}, args...)
}

// DriverSeasons aggregates a driver's results per season.
func (s *Store) DriverSeasons(ctx context.Context, driver string, year *int) ([]store.DriverSeason, error) {
	query, args := store.SelectDriverSeasons, []any{driver}
	if year != nil {
		query += store.DriverSeasonsYearFilter
		args = append(args, *year)
	}
	query += store.DriverSeasonsGrouping
	return collect(ctx, s, "driver seasons", query, func(rows *sql.Rows) (store.DriverSeason, error) {
		var d store.DriverSeason
		err := rows.Scan(&d.Year, &d.Races, &d.TotalPoints, &d.Wins)
		return d, err
	}, args...)
}

// ChampionshipRaces summarizes every race of a season.
func (s *Store) ChampionshipRaces(ctx context.Context, year int) ([]store.ChampionshipRace, error) {
	return collect(ctx, s, "championship races", store.SelectChampionshipRaces, func(rows *sql.Rows) (store.ChampionshipRace, error) {
		var (
			c    store.ChampionshipRace
			date sql.NullString
		)
		err := rows.Scan(&c.ID, &c.RaceName, &c.Circuit, &date, &c.TotalDrivers, &c.MaxPoints, &c.Winner)
		c.Date = parseDate(date)
		return c, err
	}, year)
}

// Podium returns the classified drivers of a race up to position limit.
func (s *Store) Podium(ctx context.Context, raceID int64, limit int) ([]store.PodiumEntry, error) {
	return collect(ctx, s, "podium", store.SelectPodium, func(rows *sql.Rows) (store.PodiumEntry, error) {
		var p store.PodiumEntry
		err := rows.Scan(&p.Driver, &p.Constructor, &p.Position, &p.Points)
		return p, err
	}, raceID, limit)
}

// TopConstructors ranks constructors with at least minSeasons seasons by points.
func (s *Store) TopConstructors(ctx context.Context, minSeasons, limit int) ([]store.ConstructorTotal, error) {
	return collect(ctx, s, "top constructors", store.SelectTopConstructors, func(rows *sql.Rows) (store.ConstructorTotal, error) {
		var c store.ConstructorTotal
		err := rows.Scan(&c.Constructor, &c.TotalPoints, &c.Seasons)
		return c, err
	}, minSeasons, limit)
}

// CircuitSpeeds ranks circuits by average fastest-lap speed.
func (s *Store) CircuitSpeeds(ctx context.Context, minSamples, limit int) ([]store.CircuitSpeed, error) {
	return collect(ctx, s, "circuit speeds", store.SelectCircuitSpeeds, func(rows *sql.Rows) (store.CircuitSpeed, error) {
		var c store.CircuitSpeed
		err := rows.Scan(&c.Circuit, &c.AvgSpeed, &c.Samples)
		return c, err
	}, minSamples, limit)
}

// ConstructorEvolution returns points per constructor per season.
func (s *Store) ConstructorEvolution(ctx context.Context) ([]store.ConstructorYear, error) {
	return collect(ctx, s, "constructor evolution", store.SelectConstructorEvolution, func(rows *sql.Rows) (store.ConstructorYear, error) {
		var c store.ConstructorYear
		err := rows.Scan(&c.Year, &c.Constructor, &c.Points)
		return c, err
	})
}

// WeatherImpact pairs race conditions with fastest-lap speeds.
func (s *Store) WeatherImpact(ctx context.Context) ([]store.WeatherSample, error) {
	return collect(ctx, s, "weather impact", store.SelectWeatherImpact, func(rows *sql.Rows) (store.WeatherSample, error) {
		var w store.WeatherSample
		err := rows.Scan(&w.Temperature, &w.Humidity, &w.FastestLapSpeed, &w.Circuit)
		return w, err
	})
}

// RecentRaces summarises every race held in minYear or later, newest first.
func (s *Store) RecentRaces(ctx context.Context, minYear int) ([]store.RaceSummary, error) {
	return collect(ctx, s, "recent races", store.SelectRecentRaces, func(rows *sql.Rows) (store.RaceSummary, error) {
		var r store.RaceSummary
		err := rows.Scan(&r.Year, &r.RaceName, &r.Circuit, &r.DriversCount, &r.AvgSpeed)
		return r, err
	}, minYear)
}

// DeleteRace removes a race and, by cascade, its dependents.
func (s *Store) DeleteRace(ctx context.Context, year, round int) (bool, error) {
	res, err := s.db.ExecContext(ctx, store.DeleteRace, year, round)
	if err != nil {
		return false, store.Wrap("delete race", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, store.Wrap("delete race", err)
	}
	return n > 0, nil
}

// TableCounts returns the row count of every schema table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(store.Tables))
	for _, table := range store.Tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, store.CountStatement(table)).Scan(&n); err != nil {
			return nil, store.Wrap("count "+table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

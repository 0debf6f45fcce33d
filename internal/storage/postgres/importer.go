package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

// BeginImport opens a transaction for one loader pass.
func (s *Store) BeginImport(ctx context.Context) (store.ImportTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, store.Wrap("begin import", err)
	}
	return &importTx{tx: tx}, nil
}

type importTx struct {
	tx pgx.Tx
}

func (t *importTx) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := t.tx.Exec(ctx, store.Rebind(query), args...); err != nil {
		return store.Wrap(op, err)
	}
	return nil
}

func (t *importTx) lookup(ctx context.Context, what, query string, args ...any) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, store.Rebind(query), args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNoRows(what)
	}
	if err != nil {
		return 0, store.Wrap("lookup "+what, err)
	}
	return id, nil
}

func (t *importTx) UpsertDriver(ctx context.Context, name string, nationality *string) error {
	return t.exec(ctx, "upsert driver", store.InsertDriver, name, nationality)
}

func (t *importTx) UpsertConstructor(ctx context.Context, name string, nationality *string) error {
	return t.exec(ctx, "upsert constructor", store.InsertConstructor, name, nationality)
}

func (t *importTx) UpsertRace(ctx context.Context, race f1.RaceRecord) error {
	return t.exec(ctx, "upsert race", store.InsertRace, race.Year, race.Round, race.RaceName, race.Circuit, race.Date)
}

func (t *importTx) RaceID(ctx context.Context, year, round int) (int64, error) {
	return t.lookup(ctx, "race", store.SelectRaceID, year, round)
}

func (t *importTx) DriverID(ctx context.Context, name string) (int64, error) {
	return t.lookup(ctx, "driver", store.SelectDriverID, name)
}

func (t *importTx) ConstructorID(ctx context.Context, name string) (int64, error) {
	return t.lookup(ctx, "constructor", store.SelectConstructorID, name)
}

func (t *importTx) InsertResult(ctx context.Context, r f1.ResultRecord) error {
	return t.exec(ctx, "insert result", store.InsertResult,
		r.RaceID, r.DriverID, r.ConstructorID, r.Grid, r.Position, r.Points,
		r.RaceTime, r.FastestLapRank, r.FastestLapTime, r.FastestLapSpeed)
}

func (t *importTx) InsertWeather(ctx context.Context, raceID int64, w f1.WeatherSnapshot) error {
	return t.exec(ctx, "insert weather", store.InsertWeather,
		raceID, w.Temperature, w.Humidity, w.WindSpeed, w.WindDirection, w.Precipitation, w.Pressure)
}

func (t *importTx) InsertRanking(ctx context.Context, r f1.RankingRecord) error {
	return t.exec(ctx, "insert ranking", store.InsertRanking,
		r.RaceID, r.DriverID, r.ConstructorID, r.Points, r.Position)
}

func (t *importTx) Commit(ctx context.Context) error {
	return store.Wrap("commit", t.tx.Commit(ctx))
}

func (t *importTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return store.Wrap("rollback", err)
}

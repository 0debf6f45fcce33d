// Package loader normalizes flat result rows into the relational schema.
package loader

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/metrics"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

// Counts summarizes one import pass.
type Counts struct {
	Rows      int `json:"rows"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Results   int `json:"results"`
	Weather   int `json:"weather"`
	Rankings  int `json:"rankings"`
}

// Loader writes rows through a store.Importer.
//
// Every pass appends: result, weather and ranking rows are inserted again
// for rows that were already imported, while drivers, constructors and
// races are only inserted when their unique key is new.
type Loader struct {
	importer store.Importer
	logger   *zap.Logger
}

// New builds a Loader.
func New(importer store.Importer, logger *zap.Logger) *Loader {
	return &Loader{importer: importer, logger: logging.OrNop(logger)}
}

var errSkip = errors.New("row skipped")

// Import writes rows in a single transaction. Any database failure rolls
// the whole pass back and is returned as *f1.DatabaseError.
func (l *Loader) Import(ctx context.Context, rows []f1.Row) (Counts, error) {
	counts := Counts{Rows: len(rows)}
	tx, err := l.importer.BeginImport(ctx)
	if err != nil {
		return counts, store.Wrap("begin import", err)
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			l.rollback(ctx, tx)
			return counts, store.Wrap("import", err)
		}
		ranked, err := l.importRow(ctx, tx, i, row)
		if errors.Is(err, errSkip) {
			counts.Skipped++
			continue
		}
		if err != nil {
			l.logger.Error("import failed, rolling back",
				zap.Int("row", i),
				zap.String("driver", row.Driver),
				zap.Error(err),
			)
			l.rollback(ctx, tx)
			metrics.ObserveImportRows("rolled_back", counts.Processed)
			return Counts{Rows: len(rows)}, store.Wrap("import", err)
		}
		counts.Processed++
		counts.Results++
		counts.Weather++
		if ranked {
			counts.Rankings++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		l.rollback(ctx, tx)
		return Counts{Rows: len(rows)}, store.Wrap("commit", err)
	}
	metrics.ObserveImportRows("imported", counts.Processed)
	metrics.ObserveImportRows("skipped", counts.Skipped)
	l.logger.Info("import committed",
		zap.Int("rows", counts.Rows),
		zap.Int("processed", counts.Processed),
		zap.Int("skipped", counts.Skipped),
		zap.Int("rankings", counts.Rankings),
	)
	return counts, nil
}

// importRow reports whether a ranking row was written.
func (l *Loader) importRow(ctx context.Context, tx store.ImportTx, index int, row f1.Row) (bool, error) {
	if row.Driver != "" {
		if err := tx.UpsertDriver(ctx, row.Driver, row.DriverNationality); err != nil {
			return false, err
		}
	}
	if row.Constructor != "" {
		if err := tx.UpsertConstructor(ctx, row.Constructor, row.ConstructorNationality); err != nil {
			return false, err
		}
	}

	if !row.HasRaceKey() {
		l.logger.Warn("skipping row without year or round", zap.Int("row", index), zap.String("driver", row.Driver))
		return false, errSkip
	}
	year, round := *row.Year, *row.Round
	if err := tx.UpsertRace(ctx, f1.RaceRecord{
		Year:     year,
		Round:    round,
		RaceName: row.RaceName,
		Circuit:  row.Circuit,
		Date:     row.Date,
	}); err != nil {
		return false, err
	}

	raceID, err := l.resolve(index, "race", fmt.Sprintf("%d/%d", year, round), func() (int64, error) {
		return tx.RaceID(ctx, year, round)
	})
	if err != nil {
		return false, err
	}
	driverID, err := l.resolve(index, "driver", row.Driver, func() (int64, error) {
		return tx.DriverID(ctx, row.Driver)
	})
	if err != nil {
		return false, err
	}
	constructorID, err := l.resolve(index, "constructor", row.Constructor, func() (int64, error) {
		return tx.ConstructorID(ctx, row.Constructor)
	})
	if err != nil {
		return false, err
	}

	if err := tx.InsertResult(ctx, f1.ResultRecord{
		RaceID:          raceID,
		DriverID:        driverID,
		ConstructorID:   constructorID,
		Grid:            row.Grid,
		Position:        row.Position,
		Points:          row.Points,
		RaceTime:        row.RaceTime,
		FastestLapRank:  row.FastestLapRank,
		FastestLapTime:  row.FastestLapTime,
		FastestLapSpeed: row.FastestLapSpeed,
	}); err != nil {
		return false, err
	}
	if err := tx.InsertWeather(ctx, raceID, row.Weather); err != nil {
		return false, err
	}
	if !row.HasStanding() {
		return false, nil
	}
	if err := tx.InsertRanking(ctx, f1.RankingRecord{
		RaceID:        raceID,
		DriverID:      driverID,
		ConstructorID: constructorID,
		Points:        row.StandingPoints,
		Position:      row.StandingPosition,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// resolve turns a not-found lookup into a logged skip.
func (l *Loader) resolve(index int, what, key string, lookup func() (int64, error)) (int64, error) {
	id, err := lookup()
	if errors.Is(err, f1.ErrNotFound) {
		l.logger.Warn("skipping row with unresolved reference",
			zap.Int("row", index),
			zap.String("entity", what),
			zap.String("key", key),
		)
		return 0, errSkip
	}
	return id, err
}

func (l *Loader) rollback(ctx context.Context, tx store.ImportTx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		l.logger.Error("rollback failed", zap.Error(err))
	}
}

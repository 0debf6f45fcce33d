// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/app"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/clock/system"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/config"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	collyfetcher "github.com/EtienneMahe9/Projet-Bloc1-F1/internal/fetcher/colly"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.General.CacheDir = filepath.Join(dir, "cache")
	cfg.General.DataDir = filepath.Join(dir, "data")
	cfg.DB.DSN = filepath.Join(dir, "data", "f1.db")
	return cfg
}

func TestNewAppSQLite(t *testing.T) {
	t.Parallel()
	a, err := app.New(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NotNil(t, a.Cache())
	require.NotNil(t, a.Seasons())
	require.NotNil(t, a.Weather())
	assert.Equal(t, 3, a.Policy().MaxAttempts)
	assert.Equal(t, filepath.Join(a.Config().General.DataDir, "f1_data_all_years.csv"), a.CSVPath())

	s, err := a.Store(context.Background())
	require.NoError(t, err)
	again, err := a.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, s, again)

	require.NoError(t, s.Reset(context.Background()))
	counts, err := s.TableCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, 6)

	docs, err := a.Documents(context.Background())
	require.NoError(t, err)
	assert.Nil(t, docs)
}

func TestNewAppWithoutCache(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.General.UseCache = false

	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.Nil(t, a.Cache())
}

func TestPageFetcherUsesConfiguredBackend(t *testing.T) {
	t.Parallel()
	a, err := app.New(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	pages, err := a.PageFetcher()
	require.NoError(t, err)
	assert.Equal(t, collyfetcher.Name, pages.Backend())
}

func TestCollectorWithArchive(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Scraping.ArchivePages = true

	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	c, err := a.Collector()
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.DirExists(t, cfg.General.DataDir)
}

func TestStoreRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.DB.Driver = "mysql"

	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.Store(context.Background())
	var cfgErr *f1.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "db.driver", cfgErr.Key)
}

func TestStorePostgresBadDSN(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.DB.Driver = config.DriverPostgres
	cfg.DB.DSN = "postgres://%zz"

	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.Store(context.Background())
	var dbErr *f1.DatabaseError
	require.ErrorAs(t, err, &dbErr)
}

func TestYearsUseInjectedClock(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.General.YearsToCollect = 2
	a, err := app.New(cfg, zap.NewNop(), app.WithClock(system.Fixed(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Equal(t, []int{2021, 2022, 2023}, a.Years())
}

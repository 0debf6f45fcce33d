// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/cache"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/clock/system"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/collector"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/config"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/ergast"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/fetcher"
	collyfetcher "github.com/EtienneMahe9/Projet-Bloc1-F1/internal/fetcher/colly"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/fetcher/headless"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/httpclient"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/loader"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/retry"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/local"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/mongostore"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/postgres"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/sqlite"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/weather"
)

// BreakerCooldown is how long an open upstream breaker rejects calls.
const BreakerCooldown = 30 * time.Second

// App holds all the shared, long-lived services for the application.
// Network clients are built eagerly; the stores connect on first use so a
// command only opens what it needs.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	cache   *cache.Cache
	http    *httpclient.Client
	seasons *ergast.Client
	meteo   *weather.Client
	clock   f1.Clock

	mu      sync.Mutex
	store   store.Store
	docs    *mongostore.Store
	closers []func()
}

// Option customizes an App.
type Option func(*App)

// WithClock replaces the wall clock that resolves the default seasons.
func WithClock(c f1.Clock) Option {
	return func(a *App) { a.clock = c }
}

// New creates and initializes the services described by cfg.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	logger = logging.OrNop(logger)
	a := &App{cfg: cfg, logger: logger, clock: system.New()}
	for _, opt := range opts {
		opt(a)
	}

	var responses f1.Cache = cache.Disabled{}
	if cfg.General.UseCache {
		c, err := cache.New(cfg.General.CacheDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		a.cache = c
		responses = c
	}

	a.http = httpclient.New(httpclient.Config{
		Timeout:           cfg.APIs.Timeout,
		RequestsPerSecond: cfg.APIs.RequestsPerSec,
		BreakerFailures:   cfg.APIs.BreakerFailures,
		BreakerCooldown:   BreakerCooldown,
	}, a.Policy(), logger)
	a.seasons = ergast.New(cfg.APIs.ErgastBaseURL, a.http, responses, logger)
	a.meteo = weather.New(cfg.APIs.OpenMeteoBaseURL, cfg.APIs.RaceHour, a.http, responses, logger)

	logger.Info("application services initialized",
		zap.Bool("cache", cfg.General.UseCache),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("backend", cfg.Scraping.Backend),
	)
	return a, nil
}

// Years resolves the seasons a collection covers when none are given.
func (a *App) Years() []int { return a.cfg.Years(a.clock.Now()) }

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Cache returns the response cache, or nil when general.use_cache is off.
func (a *App) Cache() *cache.Cache { return a.cache }

// Seasons returns the Ergast client.
func (a *App) Seasons() *ergast.Client { return a.seasons }

// Weather returns the Open-Meteo client.
func (a *App) Weather() *weather.Client { return a.meteo }

// Policy returns the retry policy shared by the HTTP client and the page fetcher.
func (a *App) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: a.cfg.APIs.MaxRetries,
		Multiplier:  a.cfg.APIs.Multiplier,
		MinWait:     a.cfg.APIs.MinWait,
		MaxWait:     a.cfg.APIs.MaxWait,
	}
}

// CSVPath is the interchange file under data_dir.
func (a *App) CSVPath() string {
	return filepath.Join(a.cfg.General.DataDir, collector.CSVFile)
}

// PageFetcher builds the page fetcher on the configured backend.
func (a *App) PageFetcher() (*fetcher.PageFetcher, error) {
	var backend fetcher.Backend
	switch a.cfg.Scraping.Backend {
	case config.BackendBrowser:
		b, err := headless.NewChromedp(headless.Config{
			NavigationTimeout: a.cfg.Scraping.NavTimeout,
			SettleDelay:       a.cfg.Scraping.SettleDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize browser backend: %w", err)
		}
		a.onClose(b.Close)
		backend = b
	case config.BackendHTTP:
		backend = collyfetcher.New(collyfetcher.Config{
			RespectRobots: a.cfg.Scraping.RespectRobots,
			Timeout:       a.cfg.APIs.Timeout,
		})
	default:
		return nil, &f1.ConfigError{Key: "scraping.backend", Reason: "unknown backend " + a.cfg.Scraping.Backend}
	}
	return fetcher.New(backend, a.Policy(), fetcher.Config{
		UserAgents:     a.cfg.Scraping.UserAgents,
		AcceptLanguage: a.cfg.Scraping.AcceptLanguage,
		MinDelay:       a.cfg.Scraping.MinDelay,
		MaxDelay:       a.cfg.Scraping.MaxDelay,
	}, a.logger), nil
}

// Archive returns the page archive rooted at data_dir.
func (a *App) Archive() (*local.BlobStore, error) {
	archive, err := local.New(local.Config{BaseDir: a.cfg.General.DataDir})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize page archive: %w", err)
	}
	return archive, nil
}

// Collector wires the season, weather and, when scraping.archive_pages is
// set, page sources.
func (a *App) Collector() (*collector.Collector, error) {
	var opts []collector.Option
	if a.cfg.Scraping.ArchivePages {
		pages, err := a.PageFetcher()
		if err != nil {
			return nil, err
		}
		archive, err := a.Archive()
		if err != nil {
			return nil, err
		}
		opts = append(opts, collector.WithPageArchive(pages, archive))
	}
	return collector.New(a.seasons, a.meteo, a.logger, opts...), nil
}

// Store opens the relational store selected by db.driver on first call.
func (a *App) Store(ctx context.Context) (store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	var (
		s   store.Store
		err error
	)
	switch a.cfg.DB.Driver {
	case config.DriverPostgres:
		s, err = postgres.New(ctx, postgres.Config{DSN: a.cfg.DB.DSN, MaxConns: a.cfg.DB.MaxConns}, a.logger)
	case config.DriverSQLite:
		s, err = sqlite.Open(ctx, a.cfg.DB.DSN, a.logger)
	default:
		return nil, &f1.ConfigError{Key: "db.driver", Reason: "unknown driver " + a.cfg.DB.Driver}
	}
	if err != nil {
		return nil, &f1.DatabaseError{Op: "connect", Err: err}
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// Loader returns a loader writing through the relational store.
func (a *App) Loader(ctx context.Context) (*loader.Loader, error) {
	s, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return loader.New(s, a.logger), nil
}

// Documents connects the MongoDB performance store. It returns nil without
// error when mongo.uri is empty.
func (a *App) Documents(ctx context.Context) (*mongostore.Store, error) {
	if a.cfg.Mongo.URI == "" {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.docs != nil {
		return a.docs, nil
	}
	docs, err := mongostore.Connect(ctx, mongostore.Config{
		URI:        a.cfg.Mongo.URI,
		Database:   a.cfg.Mongo.Database,
		Collection: a.cfg.Mongo.Collection,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.docs = docs
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		docs.Close(ctx)
	})
	return docs, nil
}

func (a *App) onClose(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Close gracefully shuts down all services in the App container, newest first.
func (a *App) Close() {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	a.logger.Info("shutting down application services")
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	// Sync fails on stderr-backed loggers; nothing useful can be done with it.
	_ = a.logger.Sync()
}

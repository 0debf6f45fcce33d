// Package ergast fetches season schedules, race results and driver standings
// from the Ergast motorsport API through the cache.
package ergast

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/httpclient"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
)

// Caller performs an outbound request and returns the raw body.
type Caller interface {
	Call(ctx context.Context, req httpclient.Request) ([]byte, error)
}

// Client implements f1.SeasonSource.
type Client struct {
	baseURL string
	http    Caller
	cache   f1.Cache
	logger  *zap.Logger
}

// New builds a Client rooted at baseURL (e.g. http://ergast.com/api/f1).
func New(baseURL string, http Caller, cache f1.Cache, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		cache:   cache,
		logger:  logging.OrNop(logger),
	}
}

// SeasonKey is the cache key of a season schedule.
func SeasonKey(year int) string { return fmt.Sprintf("season_%d", year) }

// RaceKey is the cache key of a race result set.
func RaceKey(year, round int) string { return fmt.Sprintf("race_%d_%d", year, round) }

// StandingsKey is the cache key of the driver standings after a round.
func StandingsKey(year, round int) string { return fmt.Sprintf("standings_%d_%d", year, round) }

// GetSeason returns the schedule of a season.
func (c *Client) GetSeason(ctx context.Context, year int) (f1.Envelope, error) {
	return c.fetch(ctx, SeasonKey(year), fmt.Sprintf("%s/%d.json", c.baseURL, year), validateRaceTable(false))
}

// GetRaceResults returns the classified results of one round.
func (c *Client) GetRaceResults(ctx context.Context, year, round int) (f1.Envelope, error) {
	return c.fetch(ctx, RaceKey(year, round), fmt.Sprintf("%s/%d/%d/results.json", c.baseURL, year, round), validateRaceTable(true))
}

// GetDriverStandings returns the championship standings after one round.
func (c *Client) GetDriverStandings(ctx context.Context, year, round int) (f1.Envelope, error) {
	return c.fetch(ctx, StandingsKey(year, round), fmt.Sprintf("%s/%d/%d/driverStandings.json", c.baseURL, year, round), validateStandings)
}

func (c *Client) fetch(ctx context.Context, key, url string, validate func(f1.Envelope) error) (f1.Envelope, error) {
	var env f1.Envelope
	if c.cache.Get(key, &env) {
		if err := validate(env); err == nil {
			c.logger.Debug("cache hit", zap.String("key", key))
			return env, nil
		}
		c.logger.Warn("ignoring cached entry with invalid shape", zap.String("key", key))
		env = f1.Envelope{}
	}

	body, err := c.http.Call(ctx, httpclient.Request{URL: url})
	if err != nil {
		return f1.Envelope{}, err
	}
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("undecodable response", zap.String("url", url), zap.Error(err))
		return f1.Envelope{}, &f1.APIError{URL: url, Err: fmt.Errorf("%w: %v", f1.ErrInvalidShape, err)}
	}
	if err := validate(env); err != nil {
		c.logger.Error("invalid response shape", zap.String("url", url), zap.Error(err))
		return f1.Envelope{}, &f1.APIError{URL: url, Err: err}
	}
	if err := c.cache.Set(key, json.RawMessage(body)); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return env, nil
}

func validateRaceTable(requireRaces bool) func(f1.Envelope) error {
	return func(env f1.Envelope) error {
		if env.MRData.RaceTable == nil {
			return fmt.Errorf("%w: missing MRData.RaceTable", f1.ErrInvalidShape)
		}
		if env.MRData.RaceTable.Races == nil {
			return fmt.Errorf("%w: missing RaceTable.Races", f1.ErrInvalidShape)
		}
		if requireRaces && len(env.MRData.RaceTable.Races) == 0 {
			return fmt.Errorf("%w: empty race list", f1.ErrInvalidShape)
		}
		return nil
	}
}

func validateStandings(env f1.Envelope) error {
	if env.MRData.StandingsTable == nil || len(env.MRData.StandingsTable.StandingsLists) == 0 {
		return fmt.Errorf("%w: missing MRData.StandingsTable", f1.ErrInvalidShape)
	}
	return nil
}

// Package collector drives the season, race, standings and weather sources
// and flattens what they return into f1.Row values.
package collector

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage"
)

// Summary counts what one collection run produced and absorbed.
type Summary struct {
	Seasons       int `json:"seasons"`
	Races         int `json:"races"`
	Rows          int `json:"rows"`
	Errors        int `json:"errors"`
	PagesArchived int `json:"pages_archived"`
}

// Collector fetches seasons sequentially. Upstream and extraction failures
// are logged and counted, never returned.
type Collector struct {
	seasons f1.SeasonSource
	weather f1.WeatherSource
	pages   f1.PageSource
	archive storage.Provider
	logger  *zap.Logger
}

// Option customizes a Collector.
type Option func(*Collector)

// WithPageArchive fetches each race's reference page and saves it to archive.
func WithPageArchive(pages f1.PageSource, archive storage.Provider) Option {
	return func(c *Collector) {
		c.pages = pages
		c.archive = archive
	}
}

// New builds a Collector.
func New(seasons f1.SeasonSource, weather f1.WeatherSource, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		seasons: seasons,
		weather: weather,
		archive: storage.NoOpProvider{},
		logger:  logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect returns the rows of every race of years. The only error it
// returns is the context's.
func (c *Collector) Collect(ctx context.Context, years []int) ([]f1.Row, Summary, error) {
	var (
		rows []f1.Row
		sum  Summary
	)
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return rows, sum, err
		}
		season, err := c.seasons.GetSeason(ctx, year)
		if err != nil {
			c.absorb(&sum, "season fetch failed", err, zap.Int("year", year))
			continue
		}
		sum.Seasons++
		c.logger.Info("collecting season", zap.Int("year", year), zap.Int("races", len(season.Races())))

		for _, race := range season.Races() {
			if err := ctx.Err(); err != nil {
				return rows, sum, err
			}
			raceRows, ok := c.collectRace(ctx, &sum, year, race)
			if !ok {
				continue
			}
			sum.Races++
			rows = append(rows, raceRows...)
		}
	}
	sum.Rows = len(rows)
	return rows, sum, ctx.Err()
}

func (c *Collector) collectRace(ctx context.Context, sum *Summary, year int, race f1.Race) ([]f1.Row, bool) {
	round, err := strconv.Atoi(race.Round)
	if err != nil {
		c.absorb(sum, "race without round", err, zap.Int("year", year), zap.String("race", race.RaceName))
		return nil, false
	}
	fields := []zap.Field{zap.Int("year", year), zap.Int("round", round)}

	results, err := c.seasons.GetRaceResults(ctx, year, round)
	if err != nil {
		c.absorb(sum, "race results fetch failed", err, fields...)
		return nil, false
	}
	races := results.Races()
	if len(races) == 0 {
		return nil, false
	}
	resultRace := races[0]
	if resultRace.Circuit.Location.Lat == "" {
		resultRace.Circuit = race.Circuit
	}

	standings := map[string]f1.DriverStanding{}
	if env, err := c.seasons.GetDriverStandings(ctx, year, round); err != nil {
		c.absorb(sum, "standings fetch failed", err, fields...)
	} else {
		standings = standingsByDriver(env)
	}

	weather := c.raceWeather(ctx, sum, resultRace, fields)
	c.archivePage(ctx, sum, year, round, resultRace.URL)

	return BuildRows(resultRace, standings, weather), true
}

func (c *Collector) raceWeather(ctx context.Context, sum *Summary, race f1.Race, fields []zap.Field) f1.WeatherSnapshot {
	lat, lon, err := race.Coordinates()
	if err != nil {
		c.absorb(sum, "circuit without coordinates", err, fields...)
		return f1.WeatherSnapshot{}
	}
	day, err := race.Day()
	if err != nil {
		c.absorb(sum, "race without date", err, fields...)
		return f1.WeatherSnapshot{}
	}
	snap, err := c.weather.GetWeather(ctx, lat, lon, day)
	if err != nil {
		c.absorb(sum, "weather fetch failed", err, fields...)
		return f1.WeatherSnapshot{}
	}
	return snap
}

func (c *Collector) archivePage(ctx context.Context, sum *Summary, year, round int, url string) {
	if c.pages == nil || url == "" {
		return
	}
	html, err := c.pages.Fetch(ctx, url)
	if err != nil {
		c.absorb(sum, "page fetch failed", err, zap.String("url", url))
		return
	}
	if err := c.archive.Save(ctx, storage.PageObject(year, round), []byte(html)); err != nil {
		c.absorb(sum, "page archive failed", err, zap.String("url", url))
		return
	}
	sum.PagesArchived++
}

func (c *Collector) absorb(sum *Summary, msg string, err error, fields ...zap.Field) {
	sum.Errors++
	c.logger.Warn(msg, append(fields, zap.Error(err))...)
}

func standingsByDriver(env f1.Envelope) map[string]f1.DriverStanding {
	out := map[string]f1.DriverStanding{}
	table := env.MRData.StandingsTable
	if table == nil {
		return out
	}
	for _, list := range table.StandingsLists {
		for _, ds := range list.DriverStandings {
			out[ds.Driver.DriverID] = ds
		}
	}
	return out
}

package f1

import (
	"context"
	"time"
)

// Cache stores raw JSON bodies by key.
type Cache interface {
	Get(key string, out any) bool
	Set(key string, value any) error
}

// SeasonSource provides Ergast season, race and standings data.
type SeasonSource interface {
	GetSeason(ctx context.Context, year int) (Envelope, error)
	GetRaceResults(ctx context.Context, year, round int) (Envelope, error)
	GetDriverStandings(ctx context.Context, year, round int) (Envelope, error)
}

// WeatherSource provides the race-hour weather snapshot for a location and day.
type WeatherSource interface {
	GetWeather(ctx context.Context, lat, lon float64, date time.Time) (WeatherSnapshot, error)
}

// PageSource fetches the HTML of a page.
type PageSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

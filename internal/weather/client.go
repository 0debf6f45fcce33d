// Package weather samples Open-Meteo archive data at the race hour.
package weather

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/ergast"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/httpclient"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
)

// DefaultRaceHour is the hourly index sampled when none is configured.
const DefaultRaceHour = 14

// Hourly series requested from the archive, in Open-Meteo naming.
const (
	SeriesTemperature   = "temperature_2m"
	SeriesHumidity      = "relative_humidity_2m"
	SeriesPrecipitation = "precipitation"
	SeriesWindSpeed     = "wind_speed_10m"
	SeriesWindDirection = "wind_direction_10m"
	SeriesPressure      = "surface_pressure"
)

var hourlySeries = []string{
	SeriesTemperature,
	SeriesHumidity,
	SeriesPrecipitation,
	SeriesWindSpeed,
	SeriesWindDirection,
	SeriesPressure,
}

// Response is the subset of the archive payload we read.
type Response struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    *Hourly `json:"hourly"`
}

// Hourly holds one sample per hour for each requested series. A series absent
// from the payload decodes as nil.
type Hourly struct {
	Time          []string   `json:"time,omitempty"`
	Temperature   []*float64 `json:"temperature_2m"`
	Humidity      []*float64 `json:"relative_humidity_2m"`
	Precipitation []*float64 `json:"precipitation"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	Pressure      []*float64 `json:"surface_pressure"`
}

func (h *Hourly) series() []struct {
	name    string
	samples []*float64
} {
	return []struct {
		name    string
		samples []*float64
	}{
		{SeriesTemperature, h.Temperature},
		{SeriesHumidity, h.Humidity},
		{SeriesPrecipitation, h.Precipitation},
		{SeriesWindSpeed, h.WindSpeed},
		{SeriesWindDirection, h.WindDirection},
		{SeriesPressure, h.Pressure},
	}
}

// Client implements f1.WeatherSource.
type Client struct {
	baseURL  string
	raceHour int
	http     ergast.Caller
	cache    f1.Cache
	logger   *zap.Logger
}

// New builds a Client. A negative raceHour selects DefaultRaceHour.
func New(baseURL string, raceHour int, http ergast.Caller, cache f1.Cache, logger *zap.Logger) *Client {
	if raceHour < 0 {
		raceHour = DefaultRaceHour
	}
	return &Client{
		baseURL:  baseURL,
		raceHour: raceHour,
		http:     http,
		cache:    cache,
		logger:   logging.OrNop(logger),
	}
}

// Key is the cache key of a day's archive response at a location.
func Key(date time.Time, lat, lon float64) string {
	return fmt.Sprintf("weather_%s_%s_%s", date.Format(f1.DateLayout), coord(lat), coord(lon))
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Query returns the archive request parameters for one race day.
func Query(lat, lon float64, date time.Time) map[string]string {
	return map[string]string{
		"latitude":   coord(lat),
		"longitude":  coord(lon),
		"start_date": date.Format(f1.DateLayout),
		"end_date":   date.AddDate(0, 0, 1).Format(f1.DateLayout),
		"hourly":     strings.Join(hourlySeries, ","),
	}
}

// GetWeather returns the conditions at the race hour of date.
func (c *Client) GetWeather(ctx context.Context, lat, lon float64, date time.Time) (f1.WeatherSnapshot, error) {
	key := Key(date, lat, lon)
	req := httpclient.Request{URL: c.baseURL, Query: Query(lat, lon, date)}

	var resp Response
	if c.cache.Get(key, &resp) {
		snap, err := Extract(resp, c.raceHour)
		if err == nil {
			c.logger.Debug("cache hit", zap.String("key", key))
			return snap, nil
		}
		c.logger.Warn("ignoring cached weather entry", zap.String("key", key), zap.Error(err))
		resp = Response{}
	}

	body, err := c.http.Call(ctx, req)
	if err != nil {
		return f1.WeatherSnapshot{}, err
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return f1.WeatherSnapshot{}, &f1.APIError{URL: req.FullURL(), Err: fmt.Errorf("%w: %v", f1.ErrInvalidShape, err)}
	}
	snap, err := Extract(resp, c.raceHour)
	if err != nil {
		c.logger.Error("weather response unusable",
			zap.String("url", req.FullURL()),
			zap.Int("race_hour", c.raceHour),
			zap.Error(err),
		)
		return f1.WeatherSnapshot{}, &f1.APIError{URL: req.FullURL(), Err: err}
	}
	if err := c.cache.Set(key, json.RawMessage(body)); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return snap, nil
}

// Extract samples every hourly series at index hour. A missing series, or one
// too short to contain hour, fails with f1.ErrInvalidShape. Null samples stay nil.
func Extract(resp Response, hour int) (f1.WeatherSnapshot, error) {
	if resp.Hourly == nil {
		return f1.WeatherSnapshot{}, fmt.Errorf("%w: missing hourly block", f1.ErrInvalidShape)
	}
	values := make(map[string]*float64, len(hourlySeries))
	for _, s := range resp.Hourly.series() {
		if s.samples == nil {
			return f1.WeatherSnapshot{}, fmt.Errorf("%w: missing series %s", f1.ErrInvalidShape, s.name)
		}
		if len(s.samples) <= hour {
			return f1.WeatherSnapshot{}, fmt.Errorf("%w: series %s has %d samples, need index %d",
				f1.ErrInvalidShape, s.name, len(s.samples), hour)
		}
		values[s.name] = s.samples[hour]
	}
	return f1.WeatherSnapshot{
		Temperature:   values[SeriesTemperature],
		Humidity:      values[SeriesHumidity],
		WindSpeed:     values[SeriesWindSpeed],
		WindDirection: values[SeriesWindDirection],
		Precipitation: values[SeriesPrecipitation],
		Pressure:      values[SeriesPressure],
	}, nil
}

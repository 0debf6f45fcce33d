package f1

import (
	"math"
	"time"
)

// DateLayout is the calendar date format used by Ergast, Open-Meteo and the CSV interchange.
const DateLayout = "2006-01-02"

// WeatherSnapshot holds the six hourly metrics sampled at the race hour.
// Absent samples are nil.
type WeatherSnapshot struct {
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	WindSpeed     *float64 `json:"wind_speed"`
	WindDirection *float64 `json:"wind_direction"`
	Precipitation *float64 `json:"precipitation"`
	Pressure      *float64 `json:"pressure"`
}

// Empty reports whether no metric was sampled.
func (w WeatherSnapshot) Empty() bool {
	return w.Temperature == nil && w.Humidity == nil && w.WindSpeed == nil &&
		w.WindDirection == nil && w.Precipitation == nil && w.Pressure == nil
}

// Row is one flattened driver result with its race identity, weather and
// standings. It is the unit written by the collector and consumed by the loader.
type Row struct {
	Driver                 string
	DriverNationality      *string
	Constructor            string
	ConstructorNationality *string

	Year     *int
	Round    *int
	RaceName string
	Circuit  *string
	Date     *time.Time

	Position        *int
	Grid            *int
	Points          *float64
	RaceTime        *string
	FastestLapRank  *int
	FastestLapTime  *string
	FastestLapSpeed *float64

	StandingPosition *int
	StandingPoints   *float64

	Weather WeatherSnapshot
}

// HasRaceKey reports whether the row carries both year and round.
func (r Row) HasRaceKey() bool {
	return r.Year != nil && r.Round != nil
}

// HasStanding reports whether the row carries a cumulative standing.
func (r Row) HasStanding() bool {
	return r.StandingPosition != nil || r.StandingPoints != nil
}

// RaceRecord is the relational identity and attributes of a race.
type RaceRecord struct {
	Year     int
	Round    int
	RaceName string
	Circuit  *string
	Date     *time.Time
}

// ResultRecord is a race_results row with resolved foreign keys.
type ResultRecord struct {
	RaceID          int64
	DriverID        int64
	ConstructorID   int64
	Grid            *int
	Position        *int
	Points          *float64
	RaceTime        *string
	FastestLapRank  *int
	FastestLapTime  *string
	FastestLapSpeed *float64
}

// RankingRecord is a rankings row with resolved foreign keys.
type RankingRecord struct {
	RaceID        int64
	DriverID      int64
	ConstructorID int64
	Points        *float64
	Position      *int
}

// Float returns a pointer to v, or nil when v is NaN or infinite.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// String returns a pointer to v, or nil when v is empty.
func String(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

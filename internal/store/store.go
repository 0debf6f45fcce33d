package store

import (
	"context"
	"time"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
)

// ImportTx is one loader transaction. Upserts insert a row only when its
// unique key is absent and never update existing fields.
type ImportTx interface {
	UpsertDriver(ctx context.Context, name string, nationality *string) error
	UpsertConstructor(ctx context.Context, name string, nationality *string) error
	UpsertRace(ctx context.Context, race f1.RaceRecord) error
	// Lookups return f1.ErrNotFound when no row matches.
	RaceID(ctx context.Context, year, round int) (int64, error)
	DriverID(ctx context.Context, name string) (int64, error)
	ConstructorID(ctx context.Context, name string) (int64, error)
	InsertResult(ctx context.Context, result f1.ResultRecord) error
	InsertWeather(ctx context.Context, raceID int64, weather f1.WeatherSnapshot) error
	InsertRanking(ctx context.Context, ranking f1.RankingRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Importer opens loader transactions.
type Importer interface {
	BeginImport(ctx context.Context) (ImportTx, error)
}

// SchemaManager destructively recreates the relational schema.
type SchemaManager interface {
	Reset(ctx context.Context) error
}

// Reader serves the read-side queries of the REST facade and the reports.
type Reader interface {
	RacesByYear(ctx context.Context, year int, circuit string) ([]Race, error)
	DriverSeasons(ctx context.Context, driver string, year *int) ([]DriverSeason, error)
	ChampionshipRaces(ctx context.Context, year int) ([]ChampionshipRace, error)
	Podium(ctx context.Context, raceID int64, limit int) ([]PodiumEntry, error)
	TopConstructors(ctx context.Context, minSeasons, limit int) ([]ConstructorTotal, error)
	CircuitSpeeds(ctx context.Context, minSamples, limit int) ([]CircuitSpeed, error)
	ConstructorEvolution(ctx context.Context) ([]ConstructorYear, error)
	WeatherImpact(ctx context.Context) ([]WeatherSample, error)
	RecentRaces(ctx context.Context, minYear int) ([]RaceSummary, error)
	DeleteRace(ctx context.Context, year, round int) (bool, error)
	TableCounts(ctx context.Context) (map[string]int64, error)
}

// Store is the full relational backend.
type Store interface {
	Importer
	SchemaManager
	Reader
	Close()
}

// Race is a races row.
type Race struct {
	ID       int64      `json:"id"`
	Year     int        `json:"year"`
	Round    int        `json:"round"`
	RaceName string     `json:"race_name"`
	Circuit  *string    `json:"circuit"`
	Date     *time.Time `json:"date"`
}

// DriverSeason aggregates one driver's results over a season.
type DriverSeason struct {
	Year        int     `json:"year"`
	Races       int     `json:"races"`
	TotalPoints float64 `json:"total_points"`
	Wins        int     `json:"wins"`
}

// ChampionshipRace summarizes one race of a season.
type ChampionshipRace struct {
	ID           int64         `json:"id"`
	RaceName     string        `json:"race_name"`
	Circuit      *string       `json:"circuit"`
	Date         *time.Time    `json:"date"`
	TotalDrivers int           `json:"total_drivers"`
	MaxPoints    *float64      `json:"max_points"`
	Winner       *string       `json:"winner"`
	Podium       []PodiumEntry `json:"podium,omitempty"`
}

// PodiumEntry is one classified driver near the top of a race.
type PodiumEntry struct {
	Driver      string   `json:"driver"`
	Constructor string   `json:"constructor"`
	Position    int      `json:"position"`
	Points      *float64 `json:"points"`
}

// ConstructorTotal is a constructor's all-time points.
type ConstructorTotal struct {
	Constructor string  `json:"constructor"`
	TotalPoints float64 `json:"total_points"`
	Seasons     int     `json:"seasons"`
}

// CircuitSpeed is the average fastest-lap speed at a circuit.
type CircuitSpeed struct {
	Circuit  string  `json:"circuit"`
	AvgSpeed float64 `json:"avg_speed"`
	Samples  int     `json:"races"`
}

// ConstructorYear is a constructor's points in one season.
type ConstructorYear struct {
	Year        int     `json:"year"`
	Constructor string  `json:"constructor"`
	Points      float64 `json:"year_points"`
}

// WeatherSample pairs race-hour conditions with a fastest-lap speed.
type WeatherSample struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	FastestLapSpeed float64 `json:"fastest_lap_speed"`
	Circuit         *string `json:"circuit"`
}

// RaceSummary is one race's field size and average fastest-lap speed.
// AvgSpeed is nil when no result carries a fastest-lap speed.
type RaceSummary struct {
	Year         int      `json:"year"`
	RaceName     string   `json:"race_name"`
	Circuit      *string  `json:"circuit"`
	DriversCount int      `json:"drivers_count"`
	AvgSpeed     *float64 `json:"avg_speed"`
}

// Tables lists the schema tables in drop order: dependents first.
var Tables = []string{
	"weather_conditions",
	"race_results",
	"rankings",
	"races",
	"drivers",
	"constructors",
}

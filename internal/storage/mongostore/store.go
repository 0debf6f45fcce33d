// Package mongostore reads per-driver performance documents from MongoDB.
//
// Documents carry at least year, race_name, circuit, driver, an optional
// weather sub-document, performance.speeds.{avg,max} and optionally
// performance.best_lap_time and performance.engine.avg_rpm.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
)

// Config locates the performance collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

type collection interface {
	Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	Distinct(ctx context.Context, field string, filter any, opts ...*options.DistinctOptions) ([]any, error)
}

// Store runs aggregations over the performance collection.
type Store struct {
	client *mongo.Client
	coll   collection
	logger *zap.Logger
}

// RaceKey groups performance documents.
type RaceKey struct {
	Year     int    `bson:"year" json:"year"`
	RaceName string `bson:"race_name" json:"race_name"`
}

// RacePerformance is the speed summary of one race at a circuit. Lap times
// are stored as "m:ss.fff" strings, so the minimum is the fastest lap.
type RacePerformance struct {
	ID          RaceKey  `bson:"_id" json:"_id"`
	AvgSpeed    *float64 `bson:"avg_speed" json:"avg_speed"`
	MaxSpeed    *float64 `bson:"max_speed" json:"max_speed"`
	BestLapTime *string  `bson:"best_lap_time" json:"best_lap_time"`
	AvgRPM      *float64 `bson:"avg_rpm" json:"avg_rpm,omitempty"`
}

// ConditionSpeed is the average speed under one weather condition.
type ConditionSpeed struct {
	Condition  string  `bson:"_id" json:"weather_condition"`
	AvgSpeed   float64 `bson:"avg_speed" json:"avg_speed"`
	RacesCount int     `bson:"races_count" json:"races_count"`
}

// CircuitAverage is the average speed recorded at a circuit.
type CircuitAverage struct {
	Circuit        string  `bson:"_id" json:"circuit"`
	AvgPerformance float64 `bson:"avg_performance" json:"avg_performance"`
	RacesCount     int     `bson:"races_count" json:"races_count"`
}

// Stats summarizes the collection.
type Stats = f1.CollectionStats

// Weather condition labels.
const (
	ConditionRain = "rain"
	ConditionDry  = "dry"
)

// Connect opens a client and pings the server.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo.uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger = logging.OrNop(logger)
	logger.Info("connected to document store",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
	)
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: logger,
	}, nil
}

// newWithCollection wires a store around an existing collection handle.
func newWithCollection(coll collection, logger *zap.Logger) *Store {
	return &Store{coll: coll, logger: logging.OrNop(logger)}
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("mongo disconnect", zap.Error(err))
	}
}

// PerformancePipeline groups a circuit's documents by (year, race_name) with
// average and maximum speeds and the best lap, oldest season first. A nil
// year matches every season.
func PerformancePipeline(circuit string, year *int) mongo.Pipeline {
	match := bson.D{{Key: "circuit", Value: circuit}}
	if year != nil {
		match = append(match, bson.E{Key: "year", Value: *year})
	}
	return racePerformancePipeline(match, false)
}

// CircuitTrendPipeline is PerformancePipeline over every season from minYear
// on, with the average engine speed added.
func CircuitTrendPipeline(circuit string, minYear int) mongo.Pipeline {
	return racePerformancePipeline(bson.D{
		{Key: "circuit", Value: circuit},
		{Key: "year", Value: bson.D{{Key: "$gte", Value: minYear}}},
	}, true)
}

func racePerformancePipeline(match bson.D, withRPM bool) mongo.Pipeline {
	group := bson.D{
		{Key: "_id", Value: bson.D{
			{Key: "year", Value: "$year"},
			{Key: "race_name", Value: "$race_name"},
		}},
		{Key: "avg_speed", Value: bson.D{{Key: "$avg", Value: "$performance.speeds.avg"}}},
		{Key: "max_speed", Value: bson.D{{Key: "$max", Value: "$performance.speeds.max"}}},
		{Key: "best_lap_time", Value: bson.D{{Key: "$min", Value: "$performance.best_lap_time"}}},
	}
	if withRPM {
		group = append(group, bson.E{Key: "avg_rpm", Value: bson.D{{Key: "$avg", Value: "$performance.engine.avg_rpm"}}})
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: group}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}}}},
	}
}

// WeatherPipeline splits documents with weather and an average speed into
// rain (precipitation > 0) and dry groups. A non-nil year restricts it to
// one season.
func WeatherPipeline(year *int) mongo.Pipeline {
	match := bson.D{
		{Key: "weather", Value: bson.D{{Key: "$ne", Value: nil}}},
		{Key: "performance.speeds.avg", Value: bson.D{{Key: "$nin", Value: bson.A{nil, 0}}}},
	}
	if year != nil {
		match = append(bson.D{{Key: "year", Value: *year}}, match...)
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$weather.precipitation", 0}}}, 0}}},
				ConditionRain,
				ConditionDry,
			}}}},
			{Key: "avg_speed", Value: bson.D{{Key: "$avg", Value: "$performance.speeds.avg"}}},
			{Key: "races_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// CircuitPipeline averages speeds per circuit from minYear on, fastest first.
func CircuitPipeline(minYear int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "year", Value: bson.D{{Key: "$gte", Value: minYear}}},
			{Key: "circuit", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
			{Key: "performance.speeds.avg", Value: bson.D{{Key: "$nin", Value: bson.A{nil, 0}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$circuit"},
			{Key: "avg_performance", Value: bson.D{{Key: "$avg", Value: "$performance.speeds.avg"}}},
			{Key: "races_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avg_performance", Value: -1}}}},
	}
}

// RacesPerYearPipeline counts distinct race names per season.
func RacesPerYearPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "year", Value: bson.D{{Key: "$ne", Value: nil}}}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: bson.D{
			{Key: "year", Value: "$year"},
			{Key: "race_name", Value: "$race_name"},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id.year"},
			{Key: "races", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func aggregate[T any](ctx context.Context, s *Store, op string, pipeline mongo.Pipeline) ([]T, error) {
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	return out, nil
}

// PerformanceByCircuit returns per-race speed summaries at circuit.
func (s *Store) PerformanceByCircuit(ctx context.Context, circuit string, year *int) ([]RacePerformance, error) {
	return aggregate[RacePerformance](ctx, s, "performance by circuit", PerformancePipeline(circuit, year))
}

// CircuitTrend returns per-race summaries at circuit since minYear,
// including the average engine speed.
func (s *Store) CircuitTrend(ctx context.Context, circuit string, minYear int) ([]RacePerformance, error) {
	return aggregate[RacePerformance](ctx, s, "circuit trend", CircuitTrendPipeline(circuit, minYear))
}

// WeatherImpact returns the average speed in rain and in the dry, for one
// season when year is non-nil.
func (s *Store) WeatherImpact(ctx context.Context, year *int) ([]ConditionSpeed, error) {
	return aggregate[ConditionSpeed](ctx, s, "weather impact", WeatherPipeline(year))
}

// CircuitAverages ranks circuits by average speed since minYear.
func (s *Store) CircuitAverages(ctx context.Context, minYear int) ([]CircuitAverage, error) {
	return aggregate[CircuitAverage](ctx, s, "circuit averages", CircuitPipeline(minYear))
}

// Stats reports races per season and unique circuit and driver counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	type yearCount struct {
		Year  int `bson:"_id"`
		Races int `bson:"races"`
	}
	years, err := aggregate[yearCount](ctx, s, "races per year", RacesPerYearPipeline())
	if err != nil {
		return Stats{}, err
	}
	st := Stats{RacesPerYear: make(map[int]int, len(years))}
	for _, y := range years {
		st.RacesPerYear[y.Year] = y.Races
	}
	if st.Circuits, err = s.distinctCount(ctx, "circuit"); err != nil {
		return Stats{}, err
	}
	if st.Drivers, err = s.distinctCount(ctx, "driver"); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *Store) distinctCount(ctx context.Context, field string) (int, error) {
	values, err := s.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("distinct %s: %w", field, err)
	}
	n := 0
	for _, v := range values {
		if v == nil || v == "" {
			continue
		}
		n++
	}
	return n, nil
}

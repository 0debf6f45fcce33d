package mongostore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type fakeCollection struct {
	docs      [][]any
	distinct  map[string][]any
	err       error
	pipelines []any
}

func (f *fakeCollection) Aggregate(_ context.Context, pipeline any, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	f.pipelines = append(f.pipelines, pipeline)
	if f.err != nil {
		return nil, f.err
	}
	docs := f.docs[0]
	f.docs = f.docs[1:]
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *fakeCollection) Distinct(_ context.Context, field string, _ any, _ ...*options.DistinctOptions) ([]any, error) {
	return f.distinct[field], nil
}

func TestPerformancePipeline(t *testing.T) {
	t.Parallel()

	year := 2023
	p := PerformancePipeline("Circuit de Monaco", &year)
	require.Len(t, p, 3)
	assert.Equal(t, bson.D{
		{Key: "circuit", Value: "Circuit de Monaco"},
		{Key: "year", Value: 2023},
	}, p[0][0].Value)
	assert.Equal(t, "$group", p[1][0].Key)
	group := p[1][0].Value.(bson.D)
	assert.Contains(t, group, bson.E{Key: "best_lap_time", Value: bson.D{{Key: "$min", Value: "$performance.best_lap_time"}}})
	assert.NotContains(t, keys(group), "avg_rpm")
	assert.Equal(t, bson.D{{Key: "_id.year", Value: 1}}, p[2][0].Value)

	unfiltered := PerformancePipeline("Monza", nil)
	assert.Equal(t, bson.D{{Key: "circuit", Value: "Monza"}}, unfiltered[0][0].Value)
}

func keys(d bson.D) []string {
	out := make([]string, 0, len(d))
	for _, e := range d {
		out = append(out, e.Key)
	}
	return out
}

func TestCircuitTrendPipeline(t *testing.T) {
	t.Parallel()

	p := CircuitTrendPipeline("Circuit de Monaco", 2021)
	require.Len(t, p, 3)
	assert.Equal(t, bson.D{
		{Key: "circuit", Value: "Circuit de Monaco"},
		{Key: "year", Value: bson.D{{Key: "$gte", Value: 2021}}},
	}, p[0][0].Value)
	assert.Equal(t, []string{"_id", "avg_speed", "max_speed", "best_lap_time", "avg_rpm"}, keys(p[1][0].Value.(bson.D)))
}

func TestWeatherPipelineYearFilter(t *testing.T) {
	t.Parallel()

	all := WeatherPipeline(nil)
	assert.NotContains(t, keys(all[0][0].Value.(bson.D)), "year")

	year := 2021
	one := WeatherPipeline(&year)
	match := one[0][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "year", Value: 2021}, match[0])
	assert.Equal(t, all[1], one[1])
}

func TestPerformanceByCircuitDecodes(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{docs: [][]any{{
		bson.D{
			{Key: "_id", Value: bson.D{{Key: "year", Value: int32(2022)}, {Key: "race_name", Value: "Monaco Grand Prix"}}},
			{Key: "avg_speed", Value: 158.2},
			{Key: "max_speed", Value: 290.1},
			{Key: "best_lap_time", Value: "1:12.909"},
		},
		bson.D{
			{Key: "_id", Value: bson.D{{Key: "year", Value: int32(2023)}, {Key: "race_name", Value: "Monaco Grand Prix"}}},
			{Key: "avg_speed", Value: nil},
			{Key: "max_speed", Value: 288.0},
		},
	}}}
	s := newWithCollection(coll, zap.NewNop())

	got, err := s.PerformanceByCircuit(context.Background(), "Circuit de Monaco", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, RaceKey{Year: 2022, RaceName: "Monaco Grand Prix"}, got[0].ID)
	assert.InDelta(t, 158.2, *got[0].AvgSpeed, 1e-9)
	require.NotNil(t, got[0].BestLapTime)
	assert.Equal(t, "1:12.909", *got[0].BestLapTime)
	assert.Nil(t, got[1].AvgSpeed)
	assert.Nil(t, got[1].BestLapTime)
}

func TestWeatherImpact(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{docs: [][]any{{
		bson.D{{Key: "_id", Value: ConditionDry}, {Key: "avg_speed", Value: 210.0}, {Key: "races_count", Value: int32(40)}},
		bson.D{{Key: "_id", Value: ConditionRain}, {Key: "avg_speed", Value: 190.5}, {Key: "races_count", Value: int32(6)}},
	}}}
	year := 2023
	got, err := newWithCollection(coll, nil).WeatherImpact(context.Background(), &year)
	require.NoError(t, err)
	assert.Equal(t, []ConditionSpeed{
		{Condition: ConditionDry, AvgSpeed: 210, RacesCount: 40},
		{Condition: ConditionRain, AvgSpeed: 190.5, RacesCount: 6},
	}, got)
	assert.Equal(t, WeatherPipeline(&year), coll.pipelines[0])
}

func TestStats(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{
		docs: [][]any{{
			bson.D{{Key: "_id", Value: int32(2022)}, {Key: "races", Value: int32(22)}},
			bson.D{{Key: "_id", Value: int32(2021)}, {Key: "races", Value: int32(21)}},
		}},
		distinct: map[string][]any{
			"circuit": {"Monza", "Spa", nil},
			"driver":  {"Max Verstappen", "", "Charles Leclerc", "Lando Norris"},
		},
	}
	st, err := newWithCollection(coll, nil).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2021: 21, 2022: 22}, st.RacesPerYear)
	assert.Equal(t, []int{2021, 2022}, st.SortedYears())
	assert.Equal(t, 2, st.Circuits)
	assert.Equal(t, 3, st.Drivers)
}

func TestAggregateError(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{err: errors.New("server selection timeout")}
	_, err := newWithCollection(coll, nil).CircuitAverages(context.Background(), 2021)
	require.ErrorContains(t, err, "circuit averages")
	require.Len(t, coll.pipelines, 1)
	assert.Equal(t, CircuitPipeline(2021), coll.pipelines[0])
}

func TestConnectRequiresURI(t *testing.T) {
	t.Parallel()
	_, err := Connect(context.Background(), Config{}, nil)
	require.Error(t, err)
}

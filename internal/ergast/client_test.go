package ergast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/cache"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/httpclient"
)

type fakeCaller struct {
	bodies map[string][]byte
	err    error
	urls   []string
}

func (f *fakeCaller) Call(_ context.Context, req httpclient.Request) ([]byte, error) {
	f.urls = append(f.urls, req.URL)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[req.URL]
	if !ok {
		return nil, &f1.APIError{URL: req.URL, Attempts: 3, Err: errors.New("404")}
	}
	return body, nil
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func newClient(t *testing.T, caller Caller) (*Client, *cache.Cache) {
	t.Helper()
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), zap.NewNop())
	require.NoError(t, err)
	return New("http://ergast.test/api/f1/", caller, c, zap.NewNop()), c
}

func TestGetSeasonCachesValidatedFixture(t *testing.T) {
	t.Parallel()

	fixture := readFixture(t, "season_2023.json")
	caller := &fakeCaller{bodies: map[string][]byte{"http://ergast.test/api/f1/2023.json": fixture}}
	client, store := newClient(t, caller)

	env, err := client.GetSeason(context.Background(), 2023)
	require.NoError(t, err)

	var want f1.Envelope
	require.NoError(t, json.Unmarshal(fixture, &want))
	if diff := cmp.Diff(want, env); diff != "" {
		t.Fatalf("season mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, env.Races(), 2)

	var cached, raw any
	require.True(t, store.Get("season_2023", &cached))
	require.NoError(t, json.Unmarshal(fixture, &raw))
	if diff := cmp.Diff(raw, cached); diff != "" {
		t.Fatalf("cached body differs from upstream (-want +got):\n%s", diff)
	}

	again, err := client.GetSeason(context.Background(), 2023)
	require.NoError(t, err)
	require.Equal(t, env, again)
	require.Len(t, caller.urls, 1, "second call must be served from cache")
}

func TestGetRaceResults(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{bodies: map[string][]byte{
		"http://ergast.test/api/f1/2023/1/results.json": readFixture(t, "results_2023_1.json"),
	}}
	client, store := newClient(t, caller)

	env, err := client.GetRaceResults(context.Background(), 2023, 1)
	require.NoError(t, err)
	races := env.Races()
	require.Len(t, races, 1)
	require.Len(t, races[0].Results, 2)
	require.Equal(t, "Max Verstappen", races[0].Results[0].Driver.FullName())
	require.Equal(t, "202.452", races[0].Results[0].FastestLap.AverageSpeed.Speed)
	require.Nil(t, races[0].Results[1].FastestLap)

	var cached any
	require.True(t, store.Get("race_2023_1", &cached))
}

func TestInvalidShapesAreNotCached(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		call func(*Client) error
		key  string
	}{
		{
			name: "season without race table",
			body: `{"MRData":{"total":"0"}}`,
			call: func(c *Client) error { _, err := c.GetSeason(context.Background(), 1949); return err },
			key:  "season_1949",
		},
		{
			name: "race with empty list",
			body: `{"MRData":{"RaceTable":{"Races":[]}}}`,
			call: func(c *Client) error { _, err := c.GetRaceResults(context.Background(), 1949, 1); return err },
			key:  "race_1949_1",
		},
		{
			name: "not json",
			body: `<html>rate limited</html>`,
			call: func(c *Client) error { _, err := c.GetSeason(context.Background(), 1949); return err },
			key:  "season_1949",
		},
		{
			name: "standings without table",
			body: `{"MRData":{"RaceTable":{"Races":[]}}}`,
			call: func(c *Client) error { _, err := c.GetDriverStandings(context.Background(), 1949, 1); return err },
			key:  "standings_1949_1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			caller := &fakeCaller{bodies: map[string][]byte{
				"http://ergast.test/api/f1/1949.json":                   []byte(tt.body),
				"http://ergast.test/api/f1/1949/1/results.json":         []byte(tt.body),
				"http://ergast.test/api/f1/1949/1/driverStandings.json": []byte(tt.body),
			}}
			client, store := newClient(t, caller)

			err := tt.call(client)
			var apiErr *f1.APIError
			require.ErrorAs(t, err, &apiErr)
			require.ErrorIs(t, err, f1.ErrInvalidShape)

			var cached any
			require.False(t, store.Get(tt.key, &cached))
		})
	}
}

func TestExhaustedRetriesPropagate(t *testing.T) {
	t.Parallel()

	upstream := &f1.APIError{URL: "http://ergast.test/api/f1/2023.json", Attempts: 3, Err: errors.New("503")}
	client, store := newClient(t, &fakeCaller{err: upstream})

	_, err := client.GetSeason(context.Background(), 2023)
	require.ErrorIs(t, err, upstream)
	var cached any
	require.False(t, store.Get("season_2023", &cached))
}

func TestGetDriverStandings(t *testing.T) {
	t.Parallel()

	body := `{"MRData":{"StandingsTable":{"season":"2023","round":"1","StandingsLists":[{"season":"2023","round":"1",
		"DriverStandings":[{"position":"1","points":"25","wins":"1","Driver":{"driverId":"max_verstappen","givenName":"Max","familyName":"Verstappen"},
		"Constructors":[{"constructorId":"red_bull","name":"Red Bull"}]}]}]}}}`
	caller := &fakeCaller{bodies: map[string][]byte{"http://ergast.test/api/f1/2023/1/driverStandings.json": []byte(body)}}
	client, _ := newClient(t, caller)

	env, err := client.GetDriverStandings(context.Background(), 2023, 1)
	require.NoError(t, err)
	standings := env.MRData.StandingsTable.StandingsLists[0].DriverStandings
	require.Len(t, standings, 1)
	require.Equal(t, "25", standings[0].Points)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	require.Equal(t, "season_2023", SeasonKey(2023))
	require.Equal(t, "race_2023_4", RaceKey(2023, 4))
	require.Equal(t, "standings_2023_4", StandingsKey(2023, 4))
}

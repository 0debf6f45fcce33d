package f1

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()
	monaco, bahrain := "Circuit de Monaco", "Bahrain International Circuit"
	rows := []Row{
		{Driver: "Max Verstappen", Year: Int(2022), RaceName: "Monaco Grand Prix", Circuit: &monaco},
		{Driver: "Lewis Hamilton", Year: Int(2022), RaceName: "Monaco Grand Prix", Circuit: &monaco},
		{Driver: "Max Verstappen", Year: Int(2021), RaceName: "Monaco Grand Prix", Circuit: &monaco},
		{Driver: "Charles Leclerc", Year: Int(2021), RaceName: "Bahrain Grand Prix", Circuit: &bahrain},
		{Driver: "", RaceName: "Unknown"},
	}

	st := Summarize(rows)
	assert.Equal(t, map[int]int{2021: 2, 2022: 1}, st.RacesPerYear)
	assert.Equal(t, 2, st.Circuits)
	assert.Equal(t, 3, st.Drivers)
	assert.Equal(t, []int{2021, 2022}, st.SortedYears())
}

func TestRaceCoordinatesAndDay(t *testing.T) {
	t.Parallel()
	race := Race{Date: "2023-03-05", Circuit: Circuit{Location: Location{Lat: "26.0325", Long: "50.5106"}}}
	lat, lon, err := race.Coordinates()
	require.NoError(t, err)
	assert.InDelta(t, 26.0325, lat, 1e-9)
	assert.InDelta(t, 50.5106, lon, 1e-9)

	day, err := race.Day()
	require.NoError(t, err)
	assert.Equal(t, 5, day.Day())

	_, _, err = Race{}.Coordinates()
	assert.Error(t, err)
}

func TestDriverFullName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		driver Driver
		want   string
	}{
		{Driver{GivenName: "Max", FamilyName: "Verstappen"}, "Max Verstappen"},
		{Driver{FamilyName: "Zhou"}, "Zhou"},
		{Driver{GivenName: "Guanyu"}, "Guanyu"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.driver.FullName())
	}
}

func TestFloatRejectsNaN(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Float(math.NaN()))
	assert.Nil(t, Float(math.Inf(1)))
	assert.InDelta(t, 1.5, *Float(1.5), 0)
	assert.Nil(t, String(""))
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()
	api := &APIError{URL: "http://ergast.test/2023.json", Attempts: 3, Err: ErrInvalidShape}
	assert.ErrorIs(t, api, ErrInvalidShape)
	assert.Contains(t, api.Error(), "after 3 attempt(s)")

	db := &DatabaseError{Op: "commit", Err: ErrNotFound}
	assert.ErrorIs(t, db, ErrNotFound)

	var cfgErr *ConfigError
	assert.True(t, errors.As(error(&ConfigError{Key: "api.port", Reason: "must be > 0"}), &cfgErr))
	assert.Equal(t, "config: api.port must be > 0", cfgErr.Error())
}

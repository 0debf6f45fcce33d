package collector

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
)

func TestCSVFileRoundTrip(t *testing.T) {
	t.Parallel()
	race := bahrain()
	race.Results = []f1.Result{verstappen(), alonso()}
	temp, rain := 25.0, 0.0
	rows := BuildRows(race, nil, f1.WeatherSnapshot{Temperature: &temp, Precipitation: &rain})

	path := filepath.Join(t.TempDir(), "data", CSVFile)
	require.NoError(t, WriteCSV(path, rows))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestEncodeCSVHeader(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, nil))
	assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
}

func TestDecodeCSVAbsentMarkers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cell string
	}{
		{name: "empty", cell: ""},
		{name: "lower nan", cell: "nan"},
		{name: "NaN", cell: "NaN"},
		{name: "None", cell: "None"},
		{name: "null", cell: "null"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := "driver,year,round,points,circuit\nMax Verstappen," + tc.cell + ",1," + tc.cell + "," + tc.cell + "\n"
			rows, err := DecodeCSV(strings.NewReader(in))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Nil(t, rows[0].Year)
			assert.Nil(t, rows[0].Points)
			assert.Nil(t, rows[0].Circuit)
			assert.Equal(t, 1, *rows[0].Round)
		})
	}
}

func TestDecodeCSVFloatIntegers(t *testing.T) {
	t.Parallel()
	in := "driver,year,round,position,date\nLewis Hamilton,2021.0,3.0,2.5,2021-04-18 00:00:00\n"
	rows, err := DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2021, *rows[0].Year)
	assert.Equal(t, 3, *rows[0].Round)
	assert.Nil(t, rows[0].Position)
	assert.Equal(t, "2021-04-18", rows[0].Date.Format(f1.DateLayout))
}

func TestDecodeCSVEmptyInput(t *testing.T) {
	t.Parallel()
	rows, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSVMissingFile(t *testing.T) {
	t.Parallel()
	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	var extractErr *f1.DataExtractionError
	require.ErrorAs(t, err, &extractErr)
}

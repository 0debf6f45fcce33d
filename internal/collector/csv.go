package collector

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
)

// CSVFile is the interchange file name under data_dir.
const CSVFile = "f1_data_all_years.csv"

// Columns is the CSV header, in order.
var Columns = []string{
	"driver", "driver_nationality", "constructor", "constructor_nationality",
	"year", "round", "race_name", "circuit", "date",
	"position", "grid", "points", "race_time",
	"fastest_lap_rank", "fastest_lap_time", "fastest_lap_speed",
	"standing_position", "standing_points",
	"temperature", "humidity", "wind_speed", "wind_direction", "precipitation", "pressure",
}

// WriteCSV atomically replaces path with rows.
func WriteCSV(path string, rows []f1.Row) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, rows); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create csv dir: %w", err)
		}
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// EncodeCSV writes the header and one record per row to w.
func EncodeCSV(w io.Writer, rows []f1.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(record(r)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func record(r f1.Row) []string {
	var date string
	if r.Date != nil {
		date = r.Date.Format(f1.DateLayout)
	}
	w := r.Weather
	return []string{
		r.Driver, str(r.DriverNationality), r.Constructor, str(r.ConstructorNationality),
		integer(r.Year), integer(r.Round), r.RaceName, str(r.Circuit), date,
		integer(r.Position), integer(r.Grid), float(r.Points), str(r.RaceTime),
		integer(r.FastestLapRank), str(r.FastestLapTime), float(r.FastestLapSpeed),
		integer(r.StandingPosition), float(r.StandingPoints),
		float(w.Temperature), float(w.Humidity), float(w.WindSpeed), float(w.WindDirection),
		float(w.Precipitation), float(w.Pressure),
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func integer(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func float(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ReadCSV loads rows from path.
func ReadCSV(path string) ([]f1.Row, error) {
	// #nosec G304 -- path comes from configuration or the command line.
	f, err := os.Open(path)
	if err != nil {
		return nil, &f1.DataExtractionError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	rows, err := DecodeCSV(f)
	if err != nil {
		return nil, &f1.DataExtractionError{Source: path, Err: err}
	}
	return rows, nil
}

// DecodeCSV parses records by header name. Unknown columns are ignored and
// missing ones read as absent. Empty cells and the markers nan, NaN, None
// and null are absent values.
func DecodeCSV(r io.Reader) ([]f1.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var rows []f1.Row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		rows = append(rows, decodeRecord(cells{index: index, rec: rec}))
	}
}

type cells struct {
	index map[string]int
	rec   []string
}

func (c cells) get(col string) (string, bool) {
	i, ok := c.index[col]
	if !ok || i >= len(c.rec) {
		return "", false
	}
	v := strings.TrimSpace(c.rec[i])
	switch v {
	case "", "nan", "NaN", "None", "null":
		return "", false
	}
	return v, true
}

func (c cells) text(col string) string {
	v, _ := c.get(col)
	return v
}

func (c cells) optText(col string) *string {
	v, ok := c.get(col)
	if !ok {
		return nil
	}
	return &v
}

// integer columns may carry a float rendering such as "3.0".
func (c cells) integer(col string) *int {
	v, ok := c.get(col)
	if !ok {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}

func (c cells) float(col string) *float64 {
	v, ok := c.get(col)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return f1.Float(f)
}

func (c cells) date(col string) *time.Time {
	v, ok := c.get(col)
	if !ok {
		return nil
	}
	if len(v) > len(f1.DateLayout) {
		v = v[:len(f1.DateLayout)]
	}
	d, err := time.Parse(f1.DateLayout, v)
	if err != nil {
		return nil
	}
	return &d
}

func decodeRecord(c cells) f1.Row {
	return f1.Row{
		Driver:                 c.text("driver"),
		DriverNationality:      c.optText("driver_nationality"),
		Constructor:            c.text("constructor"),
		ConstructorNationality: c.optText("constructor_nationality"),
		Year:                   c.integer("year"),
		Round:                  c.integer("round"),
		RaceName:               c.text("race_name"),
		Circuit:                c.optText("circuit"),
		Date:                   c.date("date"),
		Position:               c.integer("position"),
		Grid:                   c.integer("grid"),
		Points:                 c.float("points"),
		RaceTime:               c.optText("race_time"),
		FastestLapRank:         c.integer("fastest_lap_rank"),
		FastestLapTime:         c.optText("fastest_lap_time"),
		FastestLapSpeed:        c.float("fastest_lap_speed"),
		StandingPosition:       c.integer("standing_position"),
		StandingPoints:         c.float("standing_points"),
		Weather: f1.WeatherSnapshot{
			Temperature:   c.float("temperature"),
			Humidity:      c.float("humidity"),
			WindSpeed:     c.float("wind_speed"),
			WindDirection: c.float("wind_direction"),
			Precipitation: c.float("precipitation"),
			Pressure:      c.float("pressure"),
		},
	}
}

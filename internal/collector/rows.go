package collector

import (
	"strconv"
	"strings"
	"time"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
)

// BuildRows flattens the classified drivers of race. standings is keyed by
// Ergast driver id.
func BuildRows(race f1.Race, standings map[string]f1.DriverStanding, weather f1.WeatherSnapshot) []f1.Row {
	rows := make([]f1.Row, 0, len(race.Results))
	year := parseInt(race.Season)
	round := parseInt(race.Round)
	var date *time.Time
	if day, err := race.Day(); err == nil {
		date = &day
	}
	for _, res := range race.Results {
		row := f1.Row{
			Driver:                 res.Driver.FullName(),
			DriverNationality:      f1.String(res.Driver.Nationality),
			Constructor:            res.Constructor.Name,
			ConstructorNationality: f1.String(res.Constructor.Nationality),
			Year:                   year,
			Round:                  round,
			RaceName:               race.RaceName,
			Circuit:                f1.String(race.Circuit.CircuitName),
			Date:                   date,
			Position:               parseInt(res.Position),
			Grid:                   parseInt(res.Grid),
			Points:                 parseFloat(res.Points),
			Weather:                weather,
		}
		if res.Time != nil {
			row.RaceTime = f1.String(res.Time.Time)
		}
		if fl := res.FastestLap; fl != nil {
			row.FastestLapRank = parseInt(fl.Rank)
			if fl.Time != nil {
				row.FastestLapTime = f1.String(fl.Time.Time)
			}
			if fl.AverageSpeed != nil {
				row.FastestLapSpeed = parseFloat(fl.AverageSpeed.Speed)
			}
		}
		if st, ok := standings[res.Driver.DriverID]; ok {
			row.StandingPosition = parseInt(st.Position)
			row.StandingPoints = parseFloat(st.Points)
		}
		rows = append(rows, row)
	}
	return rows
}

func parseInt(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return f1.Float(v)
}

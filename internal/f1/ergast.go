package f1

import (
	"strconv"
	"time"
)

// Envelope is the MRData wrapper returned by every Ergast endpoint.
type Envelope struct {
	MRData MRData `json:"MRData"`
}

// MRData carries paging metadata and one of the result tables.
type MRData struct {
	XMLNS          string          `json:"xmlns,omitempty"`
	Series         string          `json:"series,omitempty"`
	URL            string          `json:"url,omitempty"`
	Limit          string          `json:"limit,omitempty"`
	Offset         string          `json:"offset,omitempty"`
	Total          string          `json:"total,omitempty"`
	RaceTable      *RaceTable      `json:"RaceTable,omitempty"`
	StandingsTable *StandingsTable `json:"StandingsTable,omitempty"`
}

// RaceTable lists races of a season or a single round.
type RaceTable struct {
	Season string `json:"season,omitempty"`
	Round  string `json:"round,omitempty"`
	Races  []Race `json:"Races"`
}

// Race is one Grand Prix as described by Ergast.
type Race struct {
	Season   string   `json:"season"`
	Round    string   `json:"round"`
	URL      string   `json:"url,omitempty"`
	RaceName string   `json:"raceName"`
	Circuit  Circuit  `json:"Circuit"`
	Date     string   `json:"date"`
	Time     string   `json:"time,omitempty"`
	Results  []Result `json:"Results,omitempty"`
}

// Circuit describes the venue of a race.
type Circuit struct {
	CircuitID   string   `json:"circuitId"`
	URL         string   `json:"url,omitempty"`
	CircuitName string   `json:"circuitName"`
	Location    Location `json:"Location"`
}

// Location is the circuit geolocation, encoded as strings upstream.
type Location struct {
	Lat      string `json:"lat"`
	Long     string `json:"long"`
	Locality string `json:"locality,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Result is one classified driver in a race.
type Result struct {
	Number       string      `json:"number,omitempty"`
	Position     string      `json:"position"`
	PositionText string      `json:"positionText,omitempty"`
	Points       string      `json:"points"`
	Driver       Driver      `json:"Driver"`
	Constructor  Constructor `json:"Constructor"`
	Grid         string      `json:"grid,omitempty"`
	Laps         string      `json:"laps,omitempty"`
	Status       string      `json:"status,omitempty"`
	Time         *RaceTime   `json:"Time,omitempty"`
	FastestLap   *FastestLap `json:"FastestLap,omitempty"`
}

// Driver identifies a driver.
type Driver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber,omitempty"`
	Code            string `json:"code,omitempty"`
	URL             string `json:"url,omitempty"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	Nationality     string `json:"nationality,omitempty"`
}

// FullName returns "Given Family".
func (d Driver) FullName() string {
	switch {
	case d.GivenName == "":
		return d.FamilyName
	case d.FamilyName == "":
		return d.GivenName
	}
	return d.GivenName + " " + d.FamilyName
}

// Constructor identifies a team.
type Constructor struct {
	ConstructorID string `json:"constructorId"`
	URL           string `json:"url,omitempty"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality,omitempty"`
}

// RaceTime is the finishing time of a classified driver.
type RaceTime struct {
	Millis string `json:"millis,omitempty"`
	Time   string `json:"time"`
}

// FastestLap summarizes a driver's quickest lap.
type FastestLap struct {
	Rank         string        `json:"rank,omitempty"`
	Lap          string        `json:"lap,omitempty"`
	Time         *LapTime      `json:"Time,omitempty"`
	AverageSpeed *AverageSpeed `json:"AverageSpeed,omitempty"`
}

// LapTime is a formatted lap duration.
type LapTime struct {
	Time string `json:"time"`
}

// AverageSpeed is a lap speed with its unit.
type AverageSpeed struct {
	Units string `json:"units,omitempty"`
	Speed string `json:"speed"`
}

// StandingsTable lists standings after a round.
type StandingsTable struct {
	Season         string          `json:"season,omitempty"`
	Round          string          `json:"round,omitempty"`
	StandingsLists []StandingsList `json:"StandingsLists"`
}

// StandingsList is the driver classification after one round.
type StandingsList struct {
	Season          string           `json:"season"`
	Round           string           `json:"round"`
	DriverStandings []DriverStanding `json:"DriverStandings"`
}

// DriverStanding is one driver's cumulative championship position.
type DriverStanding struct {
	Position     string        `json:"position"`
	PositionText string        `json:"positionText,omitempty"`
	Points       string        `json:"points"`
	Wins         string        `json:"wins,omitempty"`
	Driver       Driver        `json:"Driver"`
	Constructors []Constructor `json:"Constructors"`
}

// Races returns the race list, or nil when the envelope has no race table.
func (e Envelope) Races() []Race {
	if e.MRData.RaceTable == nil {
		return nil
	}
	return e.MRData.RaceTable.Races
}

// Coordinates parses the circuit latitude and longitude.
func (r Race) Coordinates() (float64, float64, error) {
	lat, err := strconv.ParseFloat(r.Circuit.Location.Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(r.Circuit.Location.Long, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// Day parses the race date.
func (r Race) Day() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

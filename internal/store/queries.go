package store

import (
	"strconv"
	"strings"
)

// Queries shared by every SQL backend. Placeholders are written as '?' and
// rewritten with Rebind for drivers that use numbered parameters.
const (
	InsertDriver      = `INSERT INTO drivers (name, nationality) VALUES (?, ?) ON CONFLICT DO NOTHING`
	InsertConstructor = `INSERT INTO constructors (name, nationality) VALUES (?, ?) ON CONFLICT DO NOTHING`
	InsertRace        = `INSERT INTO races (year, round, race_name, circuit, date) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`

	SelectRaceID        = `SELECT race_id FROM races WHERE year = ? AND round = ?`
	SelectDriverID      = `SELECT driver_id FROM drivers WHERE name = ?`
	SelectConstructorID = `SELECT constructor_id FROM constructors WHERE name = ?`

	InsertResult = `INSERT INTO race_results (race_id, driver_id, constructor_id, grid, position, points,
	race_time, fastest_lap_rank, fastest_lap_time, fastest_lap_speed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	InsertWeather = `INSERT INTO weather_conditions (race_id, temperature, humidity, wind_speed, wind_direction,
	precipitation, pressure) VALUES (?, ?, ?, ?, ?, ?, ?)`
	InsertRanking = `INSERT INTO rankings (race_id, driver_id, constructor_id, points, position) VALUES (?, ?, ?, ?, ?)`

	SelectRacesByYear           = `SELECT race_id, year, round, race_name, circuit, date FROM races WHERE year = ? ORDER BY round`
	SelectRacesByYearAndCircuit = `SELECT race_id, year, round, race_name, circuit, date FROM races WHERE year = ? AND circuit = ? ORDER BY round`

	SelectDriverSeasons = `SELECT ra.year, COUNT(*), COALESCE(SUM(rr.points), 0),
	SUM(CASE WHEN rr.position = 1 THEN 1 ELSE 0 END)
FROM race_results rr
JOIN races ra ON rr.race_id = ra.race_id
JOIN drivers d ON rr.driver_id = d.driver_id
WHERE d.name = ?`
	DriverSeasonsYearFilter = ` AND ra.year = ?`
	DriverSeasonsGrouping   = ` GROUP BY ra.year ORDER BY ra.year`

	SelectChampionshipRaces = `SELECT r.race_id, r.race_name, r.circuit, r.date,
	COUNT(DISTINCT rr.driver_id), MAX(rr.points),
	(SELECT d.name FROM race_results w JOIN drivers d ON d.driver_id = w.driver_id
		WHERE w.race_id = r.race_id AND w.position = 1 ORDER BY w.result_id LIMIT 1)
FROM races r
JOIN race_results rr ON r.race_id = rr.race_id
WHERE r.year = ?
GROUP BY r.race_id, r.race_name, r.circuit, r.date
ORDER BY r.date, r.round`

	SelectPodium = `SELECT d.name, c.name, rr.position, rr.points
FROM race_results rr
JOIN drivers d ON rr.driver_id = d.driver_id
JOIN constructors c ON rr.constructor_id = c.constructor_id
WHERE rr.race_id = ? AND rr.position <= ?
ORDER BY rr.position, rr.result_id`

	SelectTopConstructors = `SELECT c.name, COALESCE(SUM(rr.points), 0) AS total_points, COUNT(DISTINCT ra.year) AS seasons
FROM race_results rr
JOIN constructors c ON rr.constructor_id = c.constructor_id
JOIN races ra ON rr.race_id = ra.race_id
GROUP BY c.name
HAVING COUNT(DISTINCT ra.year) >= ?
ORDER BY total_points DESC, c.name
LIMIT ?`

	SelectCircuitSpeeds = `SELECT r.circuit, AVG(rr.fastest_lap_speed) AS avg_speed, COUNT(*) AS samples
FROM races r
JOIN race_results rr ON r.race_id = rr.race_id
WHERE rr.fastest_lap_speed IS NOT NULL AND r.circuit IS NOT NULL
GROUP BY r.circuit
HAVING COUNT(*) >= ?
ORDER BY avg_speed DESC, r.circuit
LIMIT ?`

	SelectConstructorEvolution = `SELECT ra.year, c.name, COALESCE(SUM(rr.points), 0) AS year_points
FROM race_results rr
JOIN races ra ON rr.race_id = ra.race_id
JOIN constructors c ON rr.constructor_id = c.constructor_id
GROUP BY ra.year, c.name
ORDER BY ra.year, year_points DESC, c.name`

	// The loader appends one weather row per result row, so only the first
	// snapshot of each race is paired with its results.
	SelectWeatherImpact = `SELECT wc.temperature, wc.humidity, rr.fastest_lap_speed, r.circuit
FROM weather_conditions wc
JOIN races r ON wc.race_id = r.race_id
JOIN race_results rr ON r.race_id = rr.race_id
WHERE wc.weather_id = (SELECT MIN(w.weather_id) FROM weather_conditions w WHERE w.race_id = r.race_id)
AND wc.temperature IS NOT NULL
AND wc.humidity IS NOT NULL
AND rr.fastest_lap_speed IS NOT NULL`

	SelectRecentRaces = `SELECT r.year, r.race_name, r.circuit, COUNT(DISTINCT rr.driver_id) AS drivers_count,
	AVG(rr.fastest_lap_speed) AS avg_speed
FROM races r
JOIN race_results rr ON r.race_id = rr.race_id
WHERE r.year >= ?
GROUP BY r.race_id, r.year, r.race_name, r.circuit
ORDER BY r.year DESC, r.race_name`

	DeleteRace = `DELETE FROM races WHERE year = ? AND round = ?`
)

// Rebind rewrites '?' placeholders as $1, $2, ... for Postgres.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// DropStatement returns the DROP for one schema table.
func DropStatement(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

// CountStatement returns the row count query for one schema table.
func CountStatement(table string) string {
	return "SELECT COUNT(*) FROM " + table
}

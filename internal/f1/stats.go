package f1

import "sort"

// CollectionStats summarizes a collection of driver results.
type CollectionStats struct {
	RacesPerYear map[int]int `json:"races_per_year"`
	Circuits     int         `json:"unique_circuits"`
	Drivers      int         `json:"unique_drivers"`
}

// SortedYears returns the seasons of st in ascending order.
func (st CollectionStats) SortedYears() []int {
	years := make([]int, 0, len(st.RacesPerYear))
	for y := range st.RacesPerYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Summarize counts distinct races per year, circuits and drivers in rows.
// Rows without a year do not contribute a race.
func Summarize(rows []Row) CollectionStats {
	races := make(map[int]map[string]struct{})
	circuits := make(map[string]struct{})
	drivers := make(map[string]struct{})
	for _, r := range rows {
		if r.Year != nil {
			if races[*r.Year] == nil {
				races[*r.Year] = make(map[string]struct{})
			}
			races[*r.Year][r.RaceName] = struct{}{}
		}
		if r.Circuit != nil && *r.Circuit != "" {
			circuits[*r.Circuit] = struct{}{}
		}
		if r.Driver != "" {
			drivers[r.Driver] = struct{}{}
		}
	}
	st := CollectionStats{
		RacesPerYear: make(map[int]int, len(races)),
		Circuits:     len(circuits),
		Drivers:      len(drivers),
	}
	for y, names := range races {
		st.RacesPerYear[y] = len(names)
	}
	return st
}

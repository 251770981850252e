package views

import "time"

// DefaultActivityDays is the width of the dashboard's trailing window.
const DefaultActivityDays = 14

type ActivityPoint struct {
	Date  time.Time `json:"-"`
	Day   string    `json:"day"`
	Label string    `json:"date"`
	Count int       `json:"count"`
}

// ActivitySeries buckets event times into the days-long window ending today (in
// now's location). Days without events are present with a zero count; events
// outside the window are ignored.
func ActivitySeries(events []time.Time, now time.Time, days int) []ActivityPoint {
	if days <= 0 {
		days = DefaultActivityDays
	}
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(days - 1))

	points := make([]ActivityPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		points[i] = ActivityPoint{Date: day, Day: key, Label: day.Format("Jan 02")}
		index[key] = i
	}

	for _, at := range events {
		key := at.In(loc).Format("2006-01-02")
		if i, ok := index[key]; ok {
			points[i].Count++
		}
	}
	return points
}

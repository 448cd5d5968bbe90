package composite

import (
	"fmt"
	"time"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/catalog"
)

// Month is a calendar month in UTC.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	y, m, _ := t.UTC().Date()
	return Month{Year: y, Month: m}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Next() Month {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m Month) Contains(t time.Time) bool {
	return MonthOf(t) == m
}

// Months lists every calendar month touched by the inclusive date range
// [start, end], ascending. It is empty when end is before start.
func Months(start, end time.Time) []Month {
	if end.Before(start) {
		return nil
	}
	last := MonthOf(end)
	var months []Month
	for m := MonthOf(start); !last.Before(m); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// MonthRange clips m to the inclusive date range [start, end]. The returned
// interval is half open: from is included, to is not.
func MonthRange(m Month, start, end time.Time) (time.Time, time.Time) {
	from := m.Start()
	if s := day(start); s.After(from) {
		from = s
	}
	to := m.Next().Start()
	if e := day(end).AddDate(0, 0, 1); e.Before(to) {
		to = e
	}
	return from, to
}

// GroupScenes buckets scenes by the calendar month of their acquisition.
func GroupScenes(scenes []catalog.Scene) map[Month][]catalog.Scene {
	groups := make(map[Month][]catalog.Scene)
	for _, s := range scenes {
		m := MonthOf(s.Datetime)
		groups[m] = append(groups[m], s)
	}
	return groups
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

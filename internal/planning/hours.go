package planning

import (
	"math"
	"time"

	"semainier/internal/slots"
)

// DailyHours sums the duration of every worked slot in a day row. The
// iteration covers the shorter of the row and the label list, so a stale
// row shape degrades to a partial sum instead of an index panic.
func DailyHours(row []bool, timeSlots []string) float64 {
	n := len(row)
	if len(timeSlots) < n {
		n = len(timeSlots)
	}
	var total float64
	for i := 0; i < n; i++ {
		if row[i] {
			total += slots.SlotDuration(timeSlots[i])
		}
	}
	return total
}

// EmployeeDailyHours is DailyHours for one employee and ISO day key.
// Missing employees or days contribute zero.
func EmployeeDailyHours(grid WeekGrid, employee, day string, timeSlots []string) float64 {
	return DailyHours(grid[employee][day], timeSlots)
}

// WeeklyHours sums EmployeeDailyHours over the 7 days starting at
// weekStart. When monthFilter is non-nil, days falling outside that
// calendar month are skipped; a week straddling a month boundary then
// contributes only its in-month days.
func WeeklyHours(grid WeekGrid, employee string, weekStart time.Time, timeSlots []string, monthFilter *time.Time) float64 {
	var total float64
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		if monthFilter != nil && !sameMonth(day, *monthFilter) {
			continue
		}
		total += EmployeeDailyHours(grid, employee, day.Format(DayFormat), timeSlots)
	}
	return total
}

// ShopDailyHours sums one day across the selected employees.
func ShopDailyHours(grid WeekGrid, employees []string, day string, timeSlots []string) float64 {
	var total float64
	for _, employee := range employees {
		total += EmployeeDailyHours(grid, employee, day, timeSlots)
	}
	return total
}

// ShopWeeklyHours sums the week across the selected employees.
func ShopWeeklyHours(grid WeekGrid, employees []string, weekStart time.Time, timeSlots []string) float64 {
	var total float64
	for _, employee := range employees {
		total += WeeklyHours(grid, employee, weekStart, timeSlots, nil)
	}
	return total
}

// Round1 rounds to one decimal for presentation. Totals are accumulated
// unrounded and rounded exactly once at the edge; rounding each weekly
// contribution first would drift on quarter-hour grids.
func Round1(hours float64) float64 {
	return math.Round(hours*10) / 10
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

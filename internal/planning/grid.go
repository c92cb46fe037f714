package planning

import (
	"time"
)

// DayFormat is the ISO day key used throughout stored grids.
const DayFormat = "2006-01-02"

// WeekGrid maps employee name -> ISO day -> one presence flag per slot
// index. Day arrays are sized to the active configuration's slot count;
// EnsureShape reconciles arrays left behind by an older configuration.
type WeekGrid map[string]map[string][]bool

// WeekDays returns the seven ISO day keys starting at weekStart.
func WeekDays(weekStart time.Time) []string {
	days := make([]string, 7)
	for i := 0; i < 7; i++ {
		days[i] = weekStart.AddDate(0, 0, i).Format(DayFormat)
	}
	return days
}

// IsEmpty reports whether the grid holds no employees at all. An empty
// grid is "no data", not a recorded zero-hours week.
func (g WeekGrid) IsEmpty() bool {
	return len(g) == 0
}

// Clone returns a deep copy of the grid.
func (g WeekGrid) Clone() WeekGrid {
	out := make(WeekGrid, len(g))
	for employee, days := range g {
		cd := make(map[string][]bool, len(days))
		for day, row := range days {
			cr := make([]bool, len(row))
			copy(cr, row)
			cd[day] = cr
		}
		out[employee] = cd
	}
	return out
}

// EnsureShape makes sure every selected employee has a day array of
// exactly slotCount flags for each of the 7 days starting at weekStart.
// Missing arrays are created all-false; arrays whose length disagrees
// with the current configuration are replaced with all-false ones (data
// recorded against different slot boundaries is not remappable, so it is
// reset rather than guessed). The grid is modified in place and returned;
// a nil grid is allocated. Applying it twice is a no-op.
func EnsureShape(grid WeekGrid, employees []string, weekStart time.Time, slotCount int) WeekGrid {
	if grid == nil {
		grid = make(WeekGrid, len(employees))
	}
	days := WeekDays(weekStart)
	for _, employee := range employees {
		if grid[employee] == nil {
			grid[employee] = make(map[string][]bool, 7)
		}
		for _, day := range days {
			if len(grid[employee][day]) != slotCount {
				grid[employee][day] = make([]bool, slotCount)
			}
		}
	}
	return grid
}

// Toggle returns a new grid with grid[employee][day][slot] set to *forced
// when forced is non-nil, or flipped otherwise. Missing day arrays are
// created all-false (slotCount flags) before the change applies. The
// input grid is never modified; only the touched path is copied.
func Toggle(grid WeekGrid, employee, day string, slot, slotCount int, forced *bool) WeekGrid {
	if slot < 0 {
		return grid
	}

	row, ok := grid[employee][day]
	if !ok {
		row = make([]bool, slotCount)
	}
	if slot >= len(row) {
		return grid
	}

	newRow := make([]bool, len(row))
	copy(newRow, row)
	if forced != nil {
		newRow[slot] = *forced
	} else {
		newRow[slot] = !newRow[slot]
	}

	out := make(WeekGrid, len(grid)+1)
	for e, d := range grid {
		out[e] = d
	}
	newDays := make(map[string][]bool, len(grid[employee])+1)
	for d, r := range grid[employee] {
		newDays[d] = r
	}
	newDays[day] = newRow
	out[employee] = newDays
	return out
}

// ResetEmployee blanks all 7 day arrays of one employee for the week.
func ResetEmployee(grid WeekGrid, employee string, weekStart time.Time, slotCount int) WeekGrid {
	if grid == nil {
		grid = make(WeekGrid)
	}
	grid[employee] = make(map[string][]bool, 7)
	for _, day := range WeekDays(weekStart) {
		grid[employee][day] = make([]bool, slotCount)
	}
	return grid
}

// CopyDay copies the source day's arrays onto the target days for the
// given employees. Employees without data for the source day paste an
// all-false array, matching an explicit blank rather than a skip.
func CopyDay(grid WeekGrid, employees []string, sourceDay string, targetDays []string, slotCount int) WeekGrid {
	out := grid.Clone()
	if out == nil {
		out = make(WeekGrid)
	}
	for _, employee := range employees {
		src := out[employee][sourceDay]
		for _, target := range targetDays {
			row := make([]bool, slotCount)
			copy(row, src)
			if out[employee] == nil {
				out[employee] = make(map[string][]bool, 7)
			}
			out[employee][target] = row
		}
	}
	return out
}

// CopyEmployeeDay copies one employee's source-day array onto another
// employee's target days.
func CopyEmployeeDay(grid WeekGrid, source, target, sourceDay string, targetDays []string, slotCount int) WeekGrid {
	out := grid.Clone()
	if out == nil {
		out = make(WeekGrid)
	}
	src := out[source][sourceDay]
	if out[target] == nil {
		out[target] = make(map[string][]bool, 7)
	}
	for _, day := range targetDays {
		row := make([]bool, slotCount)
		copy(row, src)
		out[target][day] = row
	}
	return out
}

// MergeWeek overlays another week's grid onto this week's days, pairing
// the source week's days with the target week's in order. Used when
// pasting a previously stored week into the open one.
func MergeWeek(grid WeekGrid, source WeekGrid, sourceWeekStart, targetWeekStart time.Time) WeekGrid {
	out := grid.Clone()
	if out == nil {
		out = make(WeekGrid)
	}
	sourceDays := WeekDays(sourceWeekStart)
	targetDays := WeekDays(targetWeekStart)
	for employee, days := range source {
		if out[employee] == nil {
			out[employee] = make(map[string][]bool, 7)
		}
		for i := range sourceDays {
			src, ok := days[sourceDays[i]]
			if !ok {
				continue
			}
			row := make([]bool, len(src))
			copy(row, src)
			out[employee][targetDays[i]] = row
		}
	}
	return out
}

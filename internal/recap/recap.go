// Package recap turns day rows of slot flags into human-readable
// arrival/pause/return/exit checkpoints for recap tables and exports.
package recap

import (
	"strings"
	"time"

	"semainier/internal/planning"
)

// StatusDayOff marks a day with no worked slot at all.
const StatusDayOff = "Congé"

// MaxInterruptions is how many pause/return pairs a rendered row can
// carry. Further interruptions are kept in Breaks but not given columns.
const MaxInterruptions = 2

// Range is a contiguous worked stretch or a break between two stretches.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DaySummary describes one employee's day in checkpoint form.
type DaySummary struct {
	Day    string   `json:"day"`
	Status string   `json:"status,omitempty"` // StatusDayOff, or empty when worked
	Ranges []Range  `json:"ranges,omitempty"`
	Breaks []Range  `json:"breaks,omitempty"`
	Hours  float64  `json:"hours"`
	Values []string `json:"values,omitempty"` // checkpoint cells, entry first
}

// Interruptions returns the break count capped to what columns can show.
func (d DaySummary) Interruptions() int {
	n := len(d.Breaks)
	if n > MaxInterruptions {
		n = MaxInterruptions
	}
	return n
}

// Summarize extracts checkpoints from a day row. Runs of worked slots
// become ranges; the gaps between them become breaks. A row with no
// worked slot is a day off. A row longer than the label list is a stale
// shape: the summary degrades to the partial hours total with dashed
// checkpoints instead of failing.
func Summarize(day string, row []bool, timeSlots []string) DaySummary {
	worked := false
	for _, v := range row {
		if v {
			worked = true
			break
		}
	}
	if !worked {
		return DaySummary{Day: day, Status: StatusDayOff}
	}

	hours := planning.DailyHours(row, timeSlots)

	if len(row) > len(timeSlots) {
		return DaySummary{Day: day, Hours: hours, Values: []string{"-", "-"}}
	}

	var (
		ranges  []Range
		current *Range
	)
	for i := 0; i < len(row); i++ {
		start, end, ok := splitLabel(timeSlots[i])
		if !ok {
			continue
		}
		if row[i] {
			if current == nil {
				current = &Range{Start: start, End: end}
			} else {
				current.End = end
			}
		} else if current != nil {
			ranges = append(ranges, *current)
			current = nil
		}
	}
	if current != nil {
		ranges = append(ranges, *current)
	}

	// Interruptions are the gaps between consecutive runs; a trailing
	// gap after the last run is just the end of the day.
	var breaks []Range
	for i := 1; i < len(ranges); i++ {
		breaks = append(breaks, Range{Start: ranges[i-1].End, End: ranges[i].Start})
	}

	if len(ranges) == 0 {
		// Worked flags existed but every matching label was unparsable.
		return DaySummary{Day: day, Hours: hours, Values: []string{"-", "-"}}
	}

	return DaySummary{
		Day:    day,
		Ranges: ranges,
		Breaks: breaks,
		Hours:  hours,
		Values: checkpointValues(ranges, breaks),
	}
}

// checkpointValues flattens ranges and breaks into cells: entry, then a
// pause/return pair per interruption (up to MaxInterruptions), then exit.
func checkpointValues(ranges, breaks []Range) []string {
	if len(breaks) == 0 {
		return []string{ranges[0].Start, ranges[0].End}
	}

	values := []string{ranges[0].Start, breaks[0].Start, rangeStart(ranges, 1)}
	if len(breaks) > 1 && len(ranges) > 2 {
		values = append(values, breaks[1].Start, ranges[2].Start)
	}
	return append(values, ranges[len(ranges)-1].End)
}

func rangeStart(ranges []Range, i int) string {
	if i < len(ranges) {
		return ranges[i].Start
	}
	return "-"
}

// Columns returns the checkpoint column headers for a table whose rows
// have at most the given interruption count.
func Columns(interruptions int) []string {
	switch {
	case interruptions <= 0:
		return []string{"ENTRÉE", "SORTIE"}
	case interruptions == 1:
		return []string{"ENTRÉE", "PAUSE", "RETOUR", "SORTIE"}
	default:
		return []string{"ENTRÉE", "PAUSE", "RETOUR", "PAUSE", "RETOUR", "SORTIE"}
	}
}

// TableColumns computes the column set for rows rendered together: the
// widest row decides, shorter rows pad blank (see PadValues).
func TableColumns(rows []DaySummary) []string {
	max := 0
	for _, r := range rows {
		if n := r.Interruptions(); n > max {
			max = n
		}
	}
	return Columns(max)
}

// PadValues stretches a row's checkpoint cells to the table width. The
// entry stays in the first column and the exit in the last; unused
// pause/return columns in between stay blank. Day-off rows render their
// status in the first column.
func PadValues(row DaySummary, width int) []string {
	out := make([]string, width)
	if width == 0 {
		return out
	}
	if row.Status != "" {
		out[0] = row.Status
		return out
	}
	n := len(row.Values)
	if n == 0 {
		return out
	}
	out[0] = row.Values[0]
	if n == 1 {
		return out
	}
	out[width-1] = row.Values[n-1]
	for i := 1; i < n-1 && i < width-1; i++ {
		out[i] = row.Values[i]
	}
	return out
}

// WeekRecap is one employee's week in checkpoint form.
type WeekRecap struct {
	Employee string       `json:"employee"`
	Week     string       `json:"week"`
	Days     []DaySummary `json:"days"`
	Hours    float64      `json:"hours"`
}

// ForWeek builds an employee's recap over the 7 days starting at
// weekStart. When monthFilter is non-nil, out-of-month days are omitted
// and the total covers only the kept days.
func ForWeek(grid planning.WeekGrid, employee string, weekStart time.Time, timeSlots []string, monthFilter *time.Time) WeekRecap {
	recap := WeekRecap{
		Employee: employee,
		Week:     weekStart.Format(planning.DayFormat),
	}
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		if monthFilter != nil && (day.Month() != monthFilter.Month() || day.Year() != monthFilter.Year()) {
			continue
		}
		key := day.Format(planning.DayFormat)
		summary := Summarize(key, grid[employee][key], timeSlots)
		recap.Days = append(recap.Days, summary)
		recap.Hours += summary.Hours
	}
	return recap
}

func splitLabel(label string) (start, end string, ok bool) {
	start, end, ok = strings.Cut(label, "-")
	if !ok || start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

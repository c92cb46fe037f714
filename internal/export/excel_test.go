package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"semainier/internal/planning"
	"semainier/internal/recap"
	"semainier/internal/schedule"
	"semainier/internal/slots"
)

func weekRecaps(t *testing.T) (time.Time, []recap.WeekRecap) {
	t.Helper()
	cfg := slots.Config{Interval: 30, StartTime: "09:00", EndTime: "18:00"}
	require.NoError(t, cfg.Generate())

	weekStart := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)
	grid := planning.EnsureShape(nil, []string{"ALICE", "BOB"}, weekStart, cfg.SlotCount())
	for i := 0; i < 6; i++ {
		grid["ALICE"]["2025-02-03"][i] = true
	}
	grid["BOB"]["2025-02-04"][0] = true
	grid["BOB"]["2025-02-04"][1] = true
	grid["BOB"]["2025-02-04"][6] = true

	return weekStart, []recap.WeekRecap{
		recap.ForWeek(grid, "ALICE", weekStart, cfg.TimeSlots, nil),
		recap.ForWeek(grid, "BOB", weekStart, cfg.TimeSlots, nil),
	}
}

func TestFilename(t *testing.T) {
	month := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "recap_SHOP_Février_2025.xlsx", Filename("SHOP", month))
}

func TestAddWeekRecap(t *testing.T) {
	weekStart, recaps := weekRecaps(t)

	wb := NewWorkbook()
	require.NoError(t, wb.AddWeekRecap("SHOP", weekStart, recaps))

	var buf bytes.Buffer
	require.NoError(t, wb.Save(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Semaine 2025-02-03")
	require.NoError(t, err)
	// Header + 8 day rows per employee (7 days + total) x 2 employees.
	require.Len(t, rows, 1+8*2)

	// BOB has one interruption, so the sheet renders 4 checkpoint columns.
	assert.Equal(t, []string{"Employé", "Jour", "ENTRÉE", "PAUSE", "RETOUR", "SORTIE", "Heures"}, rows[0])
	assert.Equal(t, "ALICE", rows[1][0])
	assert.Equal(t, "09:00", rows[1][2])
	assert.Equal(t, "12:00", rows[1][5], "exit sits in the SORTIE column")
}

func TestAddMonthlyRecap(t *testing.T) {
	m := &schedule.MonthlyRecap{
		Shop:  "SHOP",
		Month: "2025-02",
		Totals: []schedule.EmployeeTotal{
			{Employee: "ALICE", Hours: 3},
		},
		Weeks: []schedule.EmployeeWeek{
			{
				Employee: "ALICE",
				Week:     "2025-02-03",
				Days: []recap.DaySummary{
					{Day: "2025-02-03", Ranges: []recap.Range{{Start: "09:00", End: "12:00"}}, Hours: 3, Values: []string{"09:00", "12:00"}},
					{Day: "2025-02-04", Status: recap.StatusDayOff},
				},
				Hours: 3,
			},
		},
		Hours: 3,
	}

	wb := NewWorkbook()
	require.NoError(t, wb.AddMonthlyRecap(m))

	var buf bytes.Buffer
	require.NoError(t, wb.Save(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Février 2025")
	require.NoError(t, err)
	require.Len(t, rows, 1+2+1, "header, two day rows, footer")
	assert.Equal(t, "ALICE", rows[1][0])
	assert.Equal(t, recap.StatusDayOff, rows[2][4])
	assert.Equal(t, "Total général", rows[3][0])
}

func TestSheetNameTruncated(t *testing.T) {
	wb := NewWorkbook()
	require.NoError(t, wb.addSheet("a very long sheet name exceeding the excel thirty one char limit"))
	assert.LessOrEqual(t, len(wb.currentSheet), 31)
}

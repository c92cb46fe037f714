// Package export renders recap data as Excel workbooks. The workbook
// carries the same rows the recap tables show, one sheet per scope.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"semainier/internal/metrics"
	"semainier/internal/planning"
	"semainier/internal/recap"
	"semainier/internal/schedule"
)

// MonthNames in French for sheet titles and filenames.
var MonthNames = map[time.Month]string{
	time.January:   "Janvier",
	time.February:  "Février",
	time.March:     "Mars",
	time.April:     "Avril",
	time.May:       "Mai",
	time.June:      "Juin",
	time.July:      "Juillet",
	time.August:    "Août",
	time.September: "Septembre",
	time.October:   "Octobre",
	time.November:  "Novembre",
	time.December:  "Décembre",
}

// Filename builds a download name like "recap_SHOP_Février_2025.xlsx".
func Filename(shop string, month time.Time) string {
	return fmt.Sprintf("recap_%s_%s_%d.xlsx", shop, MonthNames[month.Month()], month.Year())
}

// Workbook accumulates recap sheets and serializes to xlsx.
type Workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// addSheet opens a sheet and resets the row cursor. Sheet names are
// truncated to Excel's 31-character limit.
func (w *Workbook) addSheet(name string) error {
	if len(name) > 31 {
		name = name[:31]
	}
	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *Workbook) writeHeader(columns []string) error {
	if err := w.writeRow(toAny(columns)); err != nil {
		return err
	}
	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

func (w *Workbook) writeRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *Workbook) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// AddWeekRecap writes one sheet with a week's checkpoint rows for every
// employee. Checkpoint column width follows the widest row of the sheet.
func (w *Workbook) AddWeekRecap(shop string, weekStart time.Time, recaps []recap.WeekRecap) error {
	if err := w.addSheet(fmt.Sprintf("Semaine %s", weekStart.Format(planning.DayFormat))); err != nil {
		return err
	}

	var allDays []recap.DaySummary
	for _, r := range recaps {
		allDays = append(allDays, r.Days...)
	}
	checkpoints := recap.TableColumns(allDays)

	header := append([]string{"Employé", "Jour"}, checkpoints...)
	header = append(header, "Heures")
	if err := w.writeHeader(header); err != nil {
		return err
	}

	for _, r := range recaps {
		for i, day := range r.Days {
			name := ""
			if i == 0 {
				name = r.Employee
			}
			row := []interface{}{name, day.Day}
			for _, v := range recap.PadValues(day, len(checkpoints)) {
				row = append(row, v)
			}
			row = append(row, planning.Round1(day.Hours))
			if err := w.writeRow(row); err != nil {
				return err
			}
		}
		total := []interface{}{r.Employee, "Total semaine"}
		for range checkpoints {
			total = append(total, "")
		}
		total = append(total, planning.Round1(r.Hours))
		if err := w.writeRow(total); err != nil {
			return err
		}
	}

	metrics.IncExport("week")
	return nil
}

// AddMonthlyRecap writes one sheet with the monthly recap rows: employee,
// monthly total, then each in-month week's day checkpoints.
func (w *Workbook) AddMonthlyRecap(m *schedule.MonthlyRecap) error {
	month, err := time.Parse("2006-01", m.Month)
	if err != nil {
		return fmt.Errorf("parse month %s: %w", m.Month, err)
	}
	if err := w.addSheet(fmt.Sprintf("%s %d", MonthNames[month.Month()], month.Year())); err != nil {
		return err
	}

	var allDays []recap.DaySummary
	for _, ew := range m.Weeks {
		allDays = append(allDays, ew.Days...)
	}
	checkpoints := recap.TableColumns(allDays)

	header := append([]string{"Employé", "Total mois (h)", "Semaine", "Jour"}, checkpoints...)
	header = append(header, "Total semaine (h)")
	if err := w.writeHeader(header); err != nil {
		return err
	}

	totals := make(map[string]float64, len(m.Totals))
	for _, t := range m.Totals {
		totals[t.Employee] = t.Hours
	}

	lastEmployee := ""
	for _, ew := range m.Weeks {
		for i, day := range ew.Days {
			var name, monthTotal, week interface{} = "", "", ""
			if i == 0 {
				week = ew.Week
				if ew.Employee != lastEmployee {
					name = ew.Employee
					monthTotal = planning.Round1(totals[ew.Employee])
					lastEmployee = ew.Employee
				}
			}
			row := []interface{}{name, monthTotal, week, day.Day}
			for _, v := range recap.PadValues(day, len(checkpoints)) {
				row = append(row, v)
			}
			row = append(row, planning.Round1(ew.Hours))
			if err := w.writeRow(row); err != nil {
				return err
			}
		}
	}

	footer := []interface{}{"Total général", planning.Round1(m.Hours)}
	if err := w.writeRow(footer); err != nil {
		return err
	}

	metrics.IncExport("month")
	return nil
}

func toAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

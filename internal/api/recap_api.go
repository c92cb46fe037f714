package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"semainier/internal/backup"
	"semainier/internal/export"
	"semainier/internal/metrics"
	"semainier/internal/planning"
	"semainier/internal/schedule"
)

const monthFormat = "2006-01"

// handleWeekRecap returns the checkpoint rows of one week.
// GET /api/recap/week?shop=&week=
func (s *HTTPServer) handleWeekRecap(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("recap_week")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "shop is required")
		return
	}
	week, ok := weekParam(r.URL.Query().Get("week"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
		return
	}

	recaps, err := s.planner.WeekRecap(r.Context(), shop, week)
	if err != nil {
		s.writePlannerError(w, err, "week recap")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shop":  shop,
		"week":  week.Format(planning.DayFormat),
		"recap": recaps,
	})
}

// handleMonthRecap returns monthly totals plus the per-week rows.
// GET /api/recap/month?shop=&month=YYYY-MM&week=
// The optional week parameter names the currently open week, whose
// unflushed state folds into the result; it defaults to this week.
func (s *HTTPServer) handleMonthRecap(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("recap_month")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "shop is required")
		return
	}
	month, err := time.Parse(monthFormat, r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	openWeek := MondayOf(time.Now().UTC())
	if v := r.URL.Query().Get("week"); v != "" {
		openWeek, _ = weekParam(v)
		if openWeek.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
			return
		}
	}

	rec, err := s.planner.MonthRecap(r.Context(), shop, month, openWeek)
	if err != nil {
		s.writePlannerError(w, err, "month recap")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleExportRecap streams the Excel recap workbook for a month.
// GET /api/export/recap.xlsx?shop=&month=YYYY-MM&week=
func (s *HTTPServer) handleExportRecap(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_recap")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "shop is required")
		return
	}
	month, err := time.Parse(monthFormat, r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	openWeek := MondayOf(time.Now().UTC())
	if v := r.URL.Query().Get("week"); v != "" {
		openWeek, _ = weekParam(v)
		if openWeek.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
			return
		}
	}

	rec, err := s.planner.MonthRecap(r.Context(), shop, month, openWeek)
	if err != nil {
		s.writePlannerError(w, err, "month recap")
		return
	}

	wb := export.NewWorkbook()
	for _, week := range weeksOf(rec.Weeks) {
		weekStart, err := time.Parse(planning.DayFormat, week)
		if err != nil {
			continue
		}
		recaps, err := s.planner.WeekRecap(r.Context(), shop, weekStart)
		if err != nil {
			s.writePlannerError(w, err, "week recap")
			return
		}
		if err := wb.AddWeekRecap(shop, weekStart, recaps); err != nil {
			s.writePlannerError(w, err, "export week sheet")
			return
		}
	}
	if err := wb.AddMonthlyRecap(rec); err != nil {
		s.writePlannerError(w, err, "export month sheet")
		return
	}

	var buf bytes.Buffer
	if err := wb.Save(&buf); err != nil {
		s.writePlannerError(w, err, "save workbook")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(shop, month)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// weeksOf returns the distinct week starts of the rows, ascending.
func weeksOf(rows []schedule.EmployeeWeek) []string {
	seen := make(map[string]bool, len(rows))
	var weeks []string
	for _, row := range rows {
		if !seen[row.Week] {
			seen[row.Week] = true
			weeks = append(weeks, row.Week)
		}
	}
	sort.Strings(weeks)
	return weeks
}

// handleBackup exports and restores the full planner state.
// GET  /api/backup
// POST /api/backup
func (s *HTTPServer) handleBackup(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("backup")
	switch r.Method {
	case http.MethodGet:
		snap, err := s.backup.Export(r.Context())
		if err != nil {
			s.writePlannerError(w, err, "backup export")
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
			fmt.Sprintf("semainier_backup_%s.json", snap.CreatedAt.Format("2006-01-02"))))
		writeJSON(w, http.StatusOK, snap)
	case http.MethodPost:
		var snap backup.Snapshot
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&snap); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.backup.Import(r.Context(), &snap); err != nil {
			s.writePlannerError(w, err, "backup import")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": snap.ID})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

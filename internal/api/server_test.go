package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"semainier/internal/backup"
	"semainier/internal/service"
	"semainier/internal/slots"
	"semainier/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.NewMemory()
	logger := zerolog.Nop()
	planner := service.NewPlanner(s, &logger)
	bk := backup.NewService(s, &logger)
	srv := NewHTTPServer(planner, bk, s, &logger, 1000, 1000)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func putConfig(t *testing.T, ts *httptest.Server) {
	t.Helper()
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/config", slots.Config{
		Interval:  60,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlanningRequiresConfig(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/planning?shop=PARIS&week=2025-02-03", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var er errorResponse
	decodeJSON(t, resp, &er)
	assert.Contains(t, er.Error, "no time slots defined")
}

func TestConfigRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg slots.Config
	decodeJSON(t, resp, &cfg)
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"}, cfg.TimeSlots)
}

func TestConfigRejectsEmptySlots(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/config", slots.Config{
		Interval:  60,
		StartTime: "12:00",
		EndTime:   "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToggleFlow(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop:      "PARIS",
		Week:      "2025-02-03",
		Employees: []string{"ALICE"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop:     "PARIS",
		Week:     "2025-02-03",
		Employee: "ALICE",
		Day:      "2025-02-03",
		Slot:     0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view service.WeekView
	decodeJSON(t, resp, &view)
	assert.True(t, view.Grid["ALICE"]["2025-02-03"][0])
	assert.Equal(t, 1.0, view.WeekHours)
}

func TestWeekParamSnapsToMonday(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	// A Wednesday addresses the same stored week as its Monday.
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop:      "PARIS",
		Week:      "2025-02-05",
		Employees: []string{"ALICE"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view service.WeekView
	decodeJSON(t, resp, &view)
	assert.Equal(t, "2025-02-03", view.Week)
}

func TestToggleValidation(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name:       "missing fields",
			body:       map[string]string{"shop": "PARIS"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad week",
			body: map[string]any{
				"shop": "PARIS", "week": "03/02/2025",
				"employee": "ALICE", "day": "2025-02-03", "slot": 0,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       map[string]any{"shop": "PARIS", "week": "2025-02-03", "bogus": 1},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestResetWeekEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop: "PARIS", Week: "2025-02-03", Employee: "ALICE", Day: "2025-02-03", Slot: 0,
	})

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/planning?shop=PARIS&week=2025-02-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view service.WeekView
	decodeJSON(t, resp, &view)
	assert.Equal(t, []bool{false, false, false}, view.Grid["ALICE"]["2025-02-03"])
}

func TestResetShopEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/planning?shop=PARIS&scope=shop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The week is gone; loading it again yields a blank roster.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/planning?shop=PARIS&week=2025-02-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view service.WeekView
	decodeJSON(t, resp, &view)
	assert.Empty(t, view.Roster)
}

func TestCopyEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop: "PARIS", Week: "2025-02-03", Employee: "ALICE", Day: "2025-02-03", Slot: 1,
	})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/planning/copy", service.CopyRequest{
		Shop:       "PARIS",
		Week:       "2025-02-03",
		Mode:       "day",
		SourceDay:  "2025-02-03",
		TargetDays: []string{"2025-02-06"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view service.WeekView
	decodeJSON(t, resp, &view)
	assert.True(t, view.Grid["ALICE"]["2025-02-06"][1])
}

func TestWeekRecapEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop: "PARIS", Week: "2025-02-03", Employee: "ALICE", Day: "2025-02-03", Slot: 0,
	})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/recap/week?shop=PARIS&week=2025-02-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Week  string `json:"week"`
		Recap []struct {
			Employee string  `json:"employee"`
			Hours    float64 `json:"hours"`
		} `json:"recap"`
	}
	decodeJSON(t, resp, &out)
	assert.Equal(t, "2025-02-03", out.Week)
	require.Len(t, out.Recap, 1)
	assert.Equal(t, "ALICE", out.Recap[0].Employee)
	assert.Equal(t, 1.0, out.Recap[0].Hours)
}

func TestMonthRecapEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop: "PARIS", Week: "2025-02-03", Employee: "ALICE", Day: "2025-02-03", Slot: 0,
	})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/recap/month?shop=PARIS&month=2025-02&week=2025-02-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec struct {
		Month  string `json:"month"`
		Totals []struct {
			Employee string  `json:"employee"`
			Hours    float64 `json:"hours"`
		} `json:"totals"`
	}
	decodeJSON(t, resp, &rec)
	assert.Equal(t, "2025-02", rec.Month)
	require.Len(t, rec.Totals, 1)
	assert.Equal(t, 1.0, rec.Totals[0].Hours)
}

func TestExportRecapEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop: "PARIS", Week: "2025-02-03", Employee: "ALICE", Day: "2025-02-03", Slot: 0,
	})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/export/recap.xlsx?shop=PARIS&month=2025-02&week=2025-02-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "recap_PARIS")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Semaine 2025-02-03")
	assert.Contains(t, f.GetSheetList(), "Février 2025")
}

func TestBackupRoundTripEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	putConfig(t, ts)

	doJSON(t, http.MethodPut, ts.URL+"/api/planning/roster", RosterRequest{
		Shop: "PARIS", Week: "2025-02-03", Employees: []string{"ALICE"},
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/planning/toggle", ToggleRequest{
		Shop: "PARIS", Week: "2025-02-03", Employee: "ALICE", Day: "2025-02-03", Slot: 0,
	})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/backup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap backup.Snapshot
	decodeJSON(t, resp, &snap)

	// Restore into a fresh server and check the grid survived.
	ts2 := setupTestServer(t)
	resp = doJSON(t, http.MethodPost, ts2.URL+"/api/backup", snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts2.URL+"/api/planning?shop=PARIS&week=2025-02-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view service.WeekView
	decodeJSON(t, resp, &view)
	assert.True(t, view.Grid["ALICE"]["2025-02-03"][0])
}

func TestRateLimit(t *testing.T) {
	s := store.NewMemory()
	logger := zerolog.Nop()
	planner := service.NewPlanner(s, &logger)
	bk := backup.NewService(s, &logger)
	srv := NewHTTPServer(planner, bk, s, &logger, 1, 1)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/config", nil)
	first := resp.StatusCode
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/config", nil)
	assert.NotEqual(t, http.StatusTooManyRequests, first)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-02-03", "2025-02-03"}, // Monday
		{"2025-02-05", "2025-02-03"}, // Wednesday
		{"2025-02-09", "2025-02-03"}, // Sunday
		{"2025-03-02", "2025-02-24"}, // month boundary
	}
	for _, tt := range tests {
		day, err := time.Parse("2006-01-02", tt.day)
		require.NoError(t, err)
		assert.Equal(t, tt.want, MondayOf(day).Format("2006-01-02"), tt.day)
	}
}

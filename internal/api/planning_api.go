package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"semainier/internal/metrics"
	"semainier/internal/service"
	"semainier/internal/slots"
)

// ToggleRequest is the request body for POST /api/planning/toggle.
type ToggleRequest struct {
	Shop     string `json:"shop"`
	Week     string `json:"week"` // Format: YYYY-MM-DD
	Employee string `json:"employee"`
	Day      string `json:"day"` // Format: YYYY-MM-DD
	Slot     int    `json:"slot"`
	Forced   *bool  `json:"forced,omitempty"` // set instead of flip (drag-fill)
}

// RosterRequest is the request body for PUT /api/planning/roster.
type RosterRequest struct {
	Shop      string   `json:"shop"`
	Week      string   `json:"week"`
	Employees []string `json:"employees"`
}

// handlePlanning serves one shop week.
// GET    /api/planning?shop=&week=
// DELETE /api/planning?shop=&week=&scope=week|shop&employee=
func (s *HTTPServer) handlePlanning(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("planning")
	switch r.Method {
	case http.MethodGet:
		s.servePlanning(w, r)
	case http.MethodDelete:
		s.resetPlanning(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) servePlanning(w http.ResponseWriter, r *http.Request) {
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

	view, err := s.planner.LoadWeek(r.Context(), shop, week)
	if err != nil {
		s.writePlannerError(w, err, "load week")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) resetPlanning(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "shop is required")
		return
	}

	if r.URL.Query().Get("scope") == "shop" {
		if err := s.planner.ResetShop(r.Context(), shop); err != nil {
			s.writePlannerError(w, err, "reset shop")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	week, ok := weekParam(r.URL.Query().Get("week"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
		return
	}
	view, err := s.planner.ResetWeek(r.Context(), shop, week, r.URL.Query().Get("employee"))
	if err != nil {
		s.writePlannerError(w, err, "reset week")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleToggle flips or forces one grid cell.
// POST /api/planning/toggle
func (s *HTTPServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("planning_toggle")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ToggleRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Shop == "" || req.Employee == "" || req.Day == "" {
		writeError(w, http.StatusBadRequest, "shop, employee and day are required")
		return
	}
	week, ok := weekParam(req.Week)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
		return
	}

	view, err := s.planner.ToggleSlot(r.Context(), req.Shop, week, req.Employee, req.Day, req.Slot, req.Forced)
	if err != nil {
		s.writePlannerError(w, err, "toggle slot")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleRoster sets the selected employees for a week.
// PUT /api/planning/roster
func (s *HTTPServer) handleRoster(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("planning_roster")
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req RosterRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Shop == "" {
		writeError(w, http.StatusBadRequest, "shop is required")
		return
	}
	week, ok := weekParam(req.Week)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
		return
	}

	view, err := s.planner.SetRoster(r.Context(), req.Shop, week, req.Employees)
	if err != nil {
		s.writePlannerError(w, err, "set roster")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCopy applies a day/week/employee copy operation.
// POST /api/planning/copy
func (s *HTTPServer) handleCopy(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("planning_copy")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req service.CopyRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Shop == "" || req.Mode == "" {
		writeError(w, http.StatusBadRequest, "shop and mode are required")
		return
	}

	view, err := s.planner.Copy(r.Context(), req)
	if err != nil {
		if errors.Is(err, slots.ErrNoSlots) {
			writeError(w, http.StatusConflict, "no time slots defined")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleConfig serves and updates the slot configuration.
// GET /api/config
// PUT /api/config
func (s *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("config")
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.planner.Config(r.Context())
		if err != nil {
			s.writePlannerError(w, err, "read config")
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		var cfg slots.Config
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		saved, err := s.planner.SetConfig(r.Context(), cfg)
		if err != nil {
			if errors.Is(err, slots.ErrNoSlots) {
				writeError(w, http.StatusBadRequest, "configuration produces no time slots")
				return
			}
			s.writePlannerError(w, err, "save config")
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) writePlannerError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, slots.ErrNoSlots) {
		writeError(w, http.StatusConflict, "no time slots defined; save a configuration first")
		return
	}
	s.log.Error().Err(err).Str("op", op).Msg("planner operation failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

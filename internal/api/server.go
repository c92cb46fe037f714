// Package api exposes the planner over a small JSON HTTP surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"semainier/internal/backup"
	"semainier/internal/planning"
	"semainier/internal/service"
	"semainier/internal/store"
)

// HTTPServer holds the handlers' dependencies.
type HTTPServer struct {
	planner *service.Planner
	backup  *backup.Service
	store   store.Store
	log     *zerolog.Logger
	limiter *rate.Limiter
}

// NewHTTPServer wires the API over a planner and its store.
func NewHTTPServer(planner *service.Planner, bk *backup.Service, s store.Store, logger *zerolog.Logger, ratePerSecond float64, burst int) *HTTPServer {
	return &HTTPServer{
		planner: planner,
		backup:  bk,
		store:   s,
		log:     logger,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Handler returns the rate-limited API mux.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/planning", s.handlePlanning)
	mux.HandleFunc("/api/planning/toggle", s.handleToggle)
	mux.HandleFunc("/api/planning/roster", s.handleRoster)
	mux.HandleFunc("/api/planning/copy", s.handleCopy)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/recap/week", s.handleWeekRecap)
	mux.HandleFunc("/api/recap/month", s.handleMonthRecap)
	mux.HandleFunc("/api/export/recap.xlsx", s.handleExportRecap)
	mux.HandleFunc("/api/backup", s.handleBackup)
	return s.rateLimit(mux)
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// weekParam parses a date query parameter and snaps it back to its
// Monday, so any day of a week addresses the same stored grid.
func weekParam(value string) (time.Time, bool) {
	day, err := time.Parse(planning.DayFormat, value)
	if err != nil {
		return time.Time{}, false
	}
	return MondayOf(day), true
}

// MondayOf returns the Monday of the week containing day.
func MondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Package schedule discovers stored weeks and aggregates hours across
// them for monthly recaps.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"semainier/internal/metrics"
	"semainier/internal/planning"
	"semainier/internal/recap"
	"semainier/internal/store"
)

// StoredWeek pairs a week's Monday with its grid.
type StoredWeek struct {
	Start time.Time
	Grid  planning.WeekGrid
}

// EmployeeTotal is one employee's monthly total, in selection order.
type EmployeeTotal struct {
	Employee string  `json:"employee"`
	Hours    float64 `json:"hours"`
}

// EmployeeWeek is one employee's in-month slice of one week.
type EmployeeWeek struct {
	Employee string             `json:"employee"`
	Week     string             `json:"week"`
	Days     []recap.DaySummary `json:"days"`
	Hours    float64            `json:"hours"`
}

// MonthlyRecap is everything a monthly recap table or export needs.
type MonthlyRecap struct {
	Shop   string          `json:"shop"`
	Month  string          `json:"month"` // "2006-01"
	Totals []EmployeeTotal `json:"totals"`
	Weeks  []EmployeeWeek  `json:"weeks"`
	Hours  float64         `json:"hours"` // shop total, unrounded
}

// Aggregator reads stored weeks and computes monthly views.
type Aggregator struct {
	store store.Store
	log   *zerolog.Logger
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(s store.Store, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{store: s, log: logger}
}

// StoredWeeks returns every persisted week for the shop, ascending by
// date. A key qualifies only when its trailing segment is a valid date
// falling on a Monday and its grid is non-empty; an empty grid is "no
// data recorded", not a zero-hours week.
func (a *Aggregator) StoredWeeks(ctx context.Context, shop string) ([]StoredWeek, error) {
	keys, err := a.store.ListKeys(ctx, store.PlanningPrefix(shop))
	if err != nil {
		return nil, fmt.Errorf("list stored weeks: %w", err)
	}

	var weeks []StoredWeek
	for _, key := range keys {
		weekStart, ok := store.WeekFromPlanningKey(key, shop)
		if !ok || weekStart.Weekday() != time.Monday {
			continue
		}
		var grid planning.WeekGrid
		found, err := store.GetJSON(ctx, a.store, key, &grid)
		if err != nil {
			a.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable week")
			continue
		}
		if !found || grid.IsEmpty() {
			continue
		}
		weeks = append(weeks, StoredWeek{Start: weekStart, Grid: grid})
	}

	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Start.Before(weeks[j].Start) })
	return weeks, nil
}

// MonthlyWeeks filters StoredWeeks down to weeks whose 7-day span
// overlaps the month of the given date. current, when non-nil, is the
// week open in memory: if it qualifies and is not already stored it is
// included, so recaps reflect edits that have not been flushed yet.
func (a *Aggregator) MonthlyWeeks(ctx context.Context, shop string, month time.Time, current *StoredWeek) ([]StoredWeek, error) {
	stored, err := a.StoredWeeks(ctx, shop)
	if err != nil {
		return nil, err
	}

	var weeks []StoredWeek
	for _, w := range stored {
		if weekOverlapsMonth(w.Start, month) {
			weeks = append(weeks, w)
		}
	}

	if current != nil &&
		current.Start.Weekday() == time.Monday &&
		weekOverlapsMonth(current.Start, month) &&
		!current.Grid.IsEmpty() {
		replaced := false
		for i, w := range weeks {
			if w.Start.Equal(current.Start) {
				weeks[i] = *current
				replaced = true
				break
			}
		}
		if !replaced {
			weeks = append(weeks, *current)
			sort.Slice(weeks, func(i, j int) bool { return weeks[i].Start.Before(weeks[j].Start) })
		}
	}

	return weeks, nil
}

// MonthlyTotals sums month-filtered weekly hours per employee over the
// qualifying weeks. Every employee of the selection gets an entry, zero
// included, in selection order.
func (a *Aggregator) MonthlyTotals(ctx context.Context, shop string, month time.Time, employees []string, timeSlots []string, current *StoredWeek) ([]EmployeeTotal, error) {
	weeks, err := a.MonthlyWeeks(ctx, shop, month, current)
	if err != nil {
		return nil, err
	}

	totals := make([]EmployeeTotal, len(employees))
	for i, employee := range employees {
		totals[i].Employee = employee
		for _, w := range weeks {
			totals[i].Hours += planning.WeeklyHours(w.Grid, employee, w.Start, timeSlots, &month)
		}
	}
	return totals, nil
}

// MonthlyRecap assembles the full monthly view: per-employee totals plus
// the in-month day summaries of every qualifying week.
func (a *Aggregator) MonthlyRecap(ctx context.Context, shop string, month time.Time, employees []string, timeSlots []string, current *StoredWeek) (*MonthlyRecap, error) {
	weeks, err := a.MonthlyWeeks(ctx, shop, month, current)
	if err != nil {
		return nil, err
	}

	out := &MonthlyRecap{
		Shop:   shop,
		Month:  month.Format("2006-01"),
		Totals: make([]EmployeeTotal, len(employees)),
	}
	for i, employee := range employees {
		out.Totals[i].Employee = employee
	}

	// Rows group by employee in selection order, weeks ascending within.
	for i, employee := range employees {
		for _, w := range weeks {
			wr := recap.ForWeek(w.Grid, employee, w.Start, timeSlots, &month)
			out.Totals[i].Hours += wr.Hours
			out.Hours += wr.Hours
			out.Weeks = append(out.Weeks, EmployeeWeek{
				Employee: employee,
				Week:     w.Start.Format(planning.DayFormat),
				Days:     wr.Days,
				Hours:    wr.Hours,
			})
		}
	}

	metrics.IncRecapBuilt("month")
	a.log.Debug().
		Str("shop", shop).
		Str("month", out.Month).
		Int("weeks", len(weeks)).
		Msg("monthly recap built")
	return out, nil
}

// weekOverlapsMonth reports whether the 7-day span starting at weekStart
// intersects the month of the reference date: its start falls in the
// month, its end does, or it spans past both boundaries.
func weekOverlapsMonth(weekStart, month time.Time) bool {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)
	weekEnd := weekStart.AddDate(0, 0, 6)

	inMonth := func(d time.Time) bool {
		return !d.Before(monthStart) && !d.After(monthEnd)
	}
	return inMonth(weekStart) || inMonth(weekEnd) ||
		(weekStart.Before(monthStart) && weekEnd.After(monthEnd))
}

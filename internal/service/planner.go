// Package service orchestrates the planner: it loads and saves weekly
// grids, keeps them shaped against the active slot configuration, and
// assembles recap views.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"semainier/internal/metrics"
	"semainier/internal/planning"
	"semainier/internal/recap"
	"semainier/internal/schedule"
	"semainier/internal/slots"
	"semainier/internal/store"
)

// WeekView is one shop week ready for rendering: the shaped grid, the
// roster and the derived hour totals.
type WeekView struct {
	Shop      string             `json:"shop"`
	Week      string             `json:"week"`
	Roster    []string           `json:"roster"`
	Grid      planning.WeekGrid  `json:"grid"`
	TimeSlots []string           `json:"timeSlots"`
	DayHours  map[string]float64 `json:"dayHours"`  // shop total per ISO day, rounded
	WeekHours float64            `json:"weekHours"` // shop total, rounded
}

// Planner is the single logical writer over the store. Mutations take
// the mutex; reads are cheap recomputations over current state.
type Planner struct {
	mu    sync.Mutex
	store store.Store
	agg   *schedule.Aggregator
	log   *zerolog.Logger
}

// NewPlanner creates a planner over the given store.
func NewPlanner(s store.Store, logger *zerolog.Logger) *Planner {
	return &Planner{
		store: s,
		agg:   schedule.NewAggregator(s, logger),
		log:   logger,
	}
}

// Config returns the active slot configuration. Returns ErrNoSlots when
// none has been saved yet.
func (p *Planner) Config(ctx context.Context) (slots.Config, error) {
	var cfg slots.Config
	found, err := store.GetJSON(ctx, p.store, store.KeySlotConfig, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("read slot config: %w", err)
	}
	if !found || cfg.SlotCount() == 0 {
		return cfg, slots.ErrNoSlots
	}
	return cfg, nil
}

// SetConfig regenerates the slot list and persists the configuration.
// A configuration resolving to zero slots is rejected and not stored.
func (p *Planner) SetConfig(ctx context.Context, cfg slots.Config) (slots.Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := cfg.Generate(); err != nil {
		return cfg, err
	}
	if err := store.SetJSON(ctx, p.store, store.KeySlotConfig, cfg); err != nil {
		return cfg, fmt.Errorf("save slot config: %w", err)
	}
	p.log.Info().
		Int("interval", cfg.Interval).
		Str("start", cfg.StartTime).
		Str("end", cfg.EndTime).
		Int("slots", cfg.SlotCount()).
		Msg("slot configuration updated")
	return cfg, nil
}

// LoadWeek reads a shop week, reconciles its shape against the active
// configuration and persists the result when reconciliation changed it.
func (p *Planner) LoadWeek(ctx context.Context, shop string, week time.Time) (*WeekView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadWeek(ctx, shop, week)
}

func (p *Planner) loadWeek(ctx context.Context, shop string, week time.Time) (*WeekView, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}

	var grid planning.WeekGrid
	if _, err := store.GetJSON(ctx, p.store, store.PlanningKey(shop, week), &grid); err != nil {
		return nil, err
	}

	var roster []string
	if _, err := store.GetJSON(ctx, p.store, store.RosterKey(shop, week), &roster); err != nil {
		return nil, err
	}

	before := len(grid)
	grid = planning.EnsureShape(grid, roster, week, cfg.SlotCount())
	if len(roster) > 0 && (before != len(grid) || before == 0) {
		// Shape reconciliation is routine, not a fault; persist so the
		// stored copy matches what callers will see.
		if err := p.saveWeek(ctx, shop, week, grid); err != nil {
			return nil, err
		}
	}

	return p.view(shop, week, roster, grid, cfg), nil
}

// ToggleSlot applies one cell change and persists the grid. forced, when
// non-nil, sets the cell instead of flipping it (drag-fill).
func (p *Planner) ToggleSlot(ctx context.Context, shop string, week time.Time, employee, day string, slot int, forced *bool) (*WeekView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}

	view, err := p.loadWeek(ctx, shop, week)
	if err != nil {
		return nil, err
	}

	grid := planning.Toggle(view.Grid, employee, day, slot, cfg.SlotCount(), forced)
	if err := p.saveWeek(ctx, shop, week, grid); err != nil {
		return nil, err
	}

	metrics.IncSlotToggled()
	p.log.Debug().
		Str("shop", shop).
		Str("employee", employee).
		Str("day", day).
		Int("slot", slot).
		Msg("slot toggled")
	return p.view(shop, week, view.Roster, grid, cfg), nil
}

// SetRoster records the selected employees for a week and shapes the
// grid for them.
func (p *Planner) SetRoster(ctx context.Context, shop string, week time.Time, employees []string) (*WeekView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.SetJSON(ctx, p.store, store.RosterKey(shop, week), employees); err != nil {
		return nil, fmt.Errorf("save roster: %w", err)
	}
	if err := p.registerEmployees(ctx, shop, employees); err != nil {
		return nil, err
	}

	var grid planning.WeekGrid
	if _, err := store.GetJSON(ctx, p.store, store.PlanningKey(shop, week), &grid); err != nil {
		return nil, err
	}
	grid = planning.EnsureShape(grid, employees, week, cfg.SlotCount())
	if err := p.saveWeek(ctx, shop, week, grid); err != nil {
		return nil, err
	}

	return p.view(shop, week, employees, grid, cfg), nil
}

// CopyRequest describes a copy/paste operation inside one week or from
// a stored week into the open one.
type CopyRequest struct {
	Shop string `json:"shop"`
	Week string `json:"week"`
	// Mode is "day" (one day to others, whole roster), "employeeDay"
	// (one employee's day to another employee) or "week" (a stored
	// week pasted onto this one).
	Mode           string   `json:"mode"`
	SourceDay      string   `json:"sourceDay,omitempty"`
	TargetDays     []string `json:"targetDays,omitempty"`
	SourceEmployee string   `json:"sourceEmployee,omitempty"`
	TargetEmployee string   `json:"targetEmployee,omitempty"`
	SourceWeek     string   `json:"sourceWeek,omitempty"`
}

// Copy applies a CopyRequest and persists the result.
func (p *Planner) Copy(ctx context.Context, req CopyRequest) (*WeekView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	week, err := time.Parse(planning.DayFormat, req.Week)
	if err != nil {
		return nil, fmt.Errorf("invalid week %q: %w", req.Week, err)
	}
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	view, err := p.loadWeek(ctx, req.Shop, week)
	if err != nil {
		return nil, err
	}

	var grid planning.WeekGrid
	switch req.Mode {
	case "day":
		grid = planning.CopyDay(view.Grid, view.Roster, req.SourceDay, req.TargetDays, cfg.SlotCount())
	case "employeeDay":
		grid = planning.CopyEmployeeDay(view.Grid, req.SourceEmployee, req.TargetEmployee, req.SourceDay, req.TargetDays, cfg.SlotCount())
	case "week":
		sourceWeek, err := time.Parse(planning.DayFormat, req.SourceWeek)
		if err != nil {
			return nil, fmt.Errorf("invalid source week %q: %w", req.SourceWeek, err)
		}
		var source planning.WeekGrid
		if _, err := store.GetJSON(ctx, p.store, store.PlanningKey(req.Shop, sourceWeek), &source); err != nil {
			return nil, err
		}
		grid = planning.MergeWeek(view.Grid, source, sourceWeek, week)
	default:
		return nil, fmt.Errorf("unknown copy mode %q", req.Mode)
	}

	if err := p.saveWeek(ctx, req.Shop, week, grid); err != nil {
		return nil, err
	}
	return p.view(req.Shop, week, view.Roster, grid, cfg), nil
}

// ResetWeek blanks the week's grid: every selected employee (or just
// one, when employee is non-empty) gets all-false day arrays again.
func (p *Planner) ResetWeek(ctx context.Context, shop string, week time.Time, employee string) (*WeekView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	view, err := p.loadWeek(ctx, shop, week)
	if err != nil {
		return nil, err
	}

	grid := view.Grid
	if employee != "" {
		grid = planning.ResetEmployee(grid, employee, week, cfg.SlotCount())
	} else {
		for _, e := range view.Roster {
			grid = planning.ResetEmployee(grid, e, week, cfg.SlotCount())
		}
	}

	if err := p.saveWeek(ctx, shop, week, grid); err != nil {
		return nil, err
	}
	p.log.Info().Str("shop", shop).Str("week", view.Week).Str("employee", employee).Msg("week reset")
	return p.view(shop, week, view.Roster, grid, cfg), nil
}

// ResetShop removes every stored week and roster of a shop.
func (p *Planner) ResetShop(ctx context.Context, shop string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, prefix := range []string{store.PlanningPrefix(shop), store.RosterPrefix(shop)} {
		keys, err := p.store.ListKeys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("list keys for reset: %w", err)
		}
		for _, key := range keys {
			if err := p.store.Remove(ctx, key); err != nil {
				return fmt.Errorf("remove %s: %w", key, err)
			}
		}
	}
	if err := p.store.Remove(ctx, store.LastPlanningKey(shop)); err != nil {
		return err
	}
	p.log.Info().Str("shop", shop).Msg("shop planning reset")
	return nil
}

// WeekRecap builds the checkpoint view of one week for every rostered
// employee.
func (p *Planner) WeekRecap(ctx context.Context, shop string, week time.Time) ([]recap.WeekRecap, error) {
	view, err := p.LoadWeek(ctx, shop, week)
	if err != nil {
		return nil, err
	}

	recaps := make([]recap.WeekRecap, 0, len(view.Roster))
	for _, employee := range view.Roster {
		recaps = append(recaps, recap.ForWeek(view.Grid, employee, week, view.TimeSlots, nil))
	}
	metrics.IncRecapBuilt("week")
	return recaps, nil
}

// MonthRecap builds the monthly view for the month containing the given
// date, using the open week's roster and reflecting its unflushed state.
func (p *Planner) MonthRecap(ctx context.Context, shop string, month time.Time, openWeek time.Time) (*schedule.MonthlyRecap, error) {
	view, err := p.LoadWeek(ctx, shop, openWeek)
	if err != nil {
		return nil, err
	}

	current := &schedule.StoredWeek{Start: openWeek, Grid: view.Grid}
	return p.agg.MonthlyRecap(ctx, shop, month, view.Roster, view.TimeSlots, current)
}

// registerEmployees records the shop in the shops list and folds new
// names into its employee list, so backup discovery sees them.
func (p *Planner) registerEmployees(ctx context.Context, shop string, employees []string) error {
	var shops []string
	if _, err := store.GetJSON(ctx, p.store, store.KeyShops, &shops); err != nil {
		return err
	}
	known := false
	for _, s := range shops {
		if s == shop {
			known = true
			break
		}
	}
	if !known {
		shops = append(shops, shop)
		if err := store.SetJSON(ctx, p.store, store.KeyShops, shops); err != nil {
			return fmt.Errorf("save shops: %w", err)
		}
	}

	var all []string
	if _, err := store.GetJSON(ctx, p.store, store.EmployeesKey(shop), &all); err != nil {
		return err
	}
	seen := make(map[string]bool, len(all))
	for _, e := range all {
		seen[e] = true
	}
	added := false
	for _, e := range employees {
		if e != "" && !seen[e] {
			all = append(all, e)
			seen[e] = true
			added = true
		}
	}
	if added {
		if err := store.SetJSON(ctx, p.store, store.EmployeesKey(shop), all); err != nil {
			return fmt.Errorf("save employees: %w", err)
		}
	}
	return nil
}

func (p *Planner) saveWeek(ctx context.Context, shop string, week time.Time, grid planning.WeekGrid) error {
	if err := store.SetJSON(ctx, p.store, store.PlanningKey(shop, week), grid); err != nil {
		return fmt.Errorf("save planning: %w", err)
	}
	last := map[string]any{"week": week.Format(planning.DayFormat), "planning": grid}
	if err := store.SetJSON(ctx, p.store, store.LastPlanningKey(shop), last); err != nil {
		return fmt.Errorf("save last planning: %w", err)
	}
	return nil
}

func (p *Planner) view(shop string, week time.Time, roster []string, grid planning.WeekGrid, cfg slots.Config) *WeekView {
	v := &WeekView{
		Shop:      shop,
		Week:      week.Format(planning.DayFormat),
		Roster:    roster,
		Grid:      grid,
		TimeSlots: cfg.TimeSlots,
		DayHours:  make(map[string]float64, 7),
	}
	for _, day := range planning.WeekDays(week) {
		v.DayHours[day] = planning.Round1(planning.ShopDailyHours(grid, roster, day, cfg.TimeSlots))
	}
	v.WeekHours = planning.Round1(planning.ShopWeeklyHours(grid, roster, week, cfg.TimeSlots))
	return v
}

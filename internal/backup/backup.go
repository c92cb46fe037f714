// Package backup serializes the planner's whole state to one JSON
// snapshot and restores it, for backup files and device moves.
package backup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"semainier/internal/planning"
	"semainier/internal/slots"
	"semainier/internal/store"
)

// WeekData is one stored week: its grid and the roster active that week.
type WeekData struct {
	Planning planning.WeekGrid `json:"planning"`
	Roster   []string          `json:"selectedEmployees"`
}

// ShopData is everything recorded for one shop.
type ShopData struct {
	Shop      string              `json:"shop"`
	Employees []string            `json:"employees"`
	Weeks     map[string]WeekData `json:"weeks"`
}

// Snapshot is the full-state export format.
type Snapshot struct {
	ID         uuid.UUID    `json:"id"`
	CreatedAt  time.Time    `json:"createdAt"`
	Shops      []ShopData   `json:"shops"`
	SlotConfig slots.Config `json:"timeSlotConfig"`
}

// Service exports and imports snapshots against a store.
type Service struct {
	store store.Store
	log   *zerolog.Logger
}

func NewService(s store.Store, logger *zerolog.Logger) *Service {
	return &Service{store: s, log: logger}
}

// Export reads the entire planner state into a snapshot.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}

	var shops []string
	if _, err := store.GetJSON(ctx, s.store, store.KeyShops, &shops); err != nil {
		return nil, fmt.Errorf("read shops: %w", err)
	}
	if _, err := store.GetJSON(ctx, s.store, store.KeySlotConfig, &snap.SlotConfig); err != nil {
		return nil, fmt.Errorf("read slot config: %w", err)
	}

	for _, shop := range shops {
		data := ShopData{Shop: shop, Weeks: make(map[string]WeekData)}
		if _, err := store.GetJSON(ctx, s.store, store.EmployeesKey(shop), &data.Employees); err != nil {
			return nil, fmt.Errorf("read employees for %s: %w", shop, err)
		}

		keys, err := s.store.ListKeys(ctx, store.PlanningPrefix(shop))
		if err != nil {
			return nil, fmt.Errorf("list weeks for %s: %w", shop, err)
		}
		for _, key := range keys {
			week, ok := store.WeekFromPlanningKey(key, shop)
			if !ok {
				continue
			}
			wd := WeekData{}
			if _, err := store.GetJSON(ctx, s.store, key, &wd.Planning); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable week in export")
				continue
			}
			if _, err := store.GetJSON(ctx, s.store, store.RosterKey(shop, week), &wd.Roster); err != nil {
				return nil, fmt.Errorf("read roster for %s: %w", key, err)
			}
			data.Weeks[week.Format(planning.DayFormat)] = wd
		}
		snap.Shops = append(snap.Shops, data)
	}

	s.log.Info().
		Str("snapshot", snap.ID.String()).
		Int("shops", len(snap.Shops)).
		Msg("state exported")
	return snap, nil
}

// Import wipes the planner keys and restores the snapshot. The last
// edited week per shop is rebuilt from the latest restored week.
func (s *Service) Import(ctx context.Context, snap *Snapshot) error {
	if err := s.clear(ctx); err != nil {
		return err
	}

	shops := make([]string, 0, len(snap.Shops))
	for _, data := range snap.Shops {
		if data.Shop == "" {
			continue
		}
		shops = append(shops, data.Shop)

		if err := store.SetJSON(ctx, s.store, store.EmployeesKey(data.Shop), data.Employees); err != nil {
			return fmt.Errorf("restore employees for %s: %w", data.Shop, err)
		}

		weekKeys := make([]string, 0, len(data.Weeks))
		for weekISO := range data.Weeks {
			weekKeys = append(weekKeys, weekISO)
		}
		sort.Strings(weekKeys)

		for _, weekISO := range weekKeys {
			week, err := time.Parse(planning.DayFormat, weekISO)
			if err != nil {
				s.log.Warn().Str("week", weekISO).Msg("skipping invalid week in snapshot")
				continue
			}
			wd := data.Weeks[weekISO]
			if err := store.SetJSON(ctx, s.store, store.PlanningKey(data.Shop, week), wd.Planning); err != nil {
				return fmt.Errorf("restore week %s for %s: %w", weekISO, data.Shop, err)
			}
			if err := store.SetJSON(ctx, s.store, store.RosterKey(data.Shop, week), wd.Roster); err != nil {
				return fmt.Errorf("restore roster %s for %s: %w", weekISO, data.Shop, err)
			}
		}

		if len(weekKeys) > 0 {
			latest := weekKeys[len(weekKeys)-1]
			last := map[string]any{"week": latest, "planning": data.Weeks[latest].Planning}
			if err := store.SetJSON(ctx, s.store, store.LastPlanningKey(data.Shop), last); err != nil {
				return fmt.Errorf("restore last planning for %s: %w", data.Shop, err)
			}
		}
	}

	if err := store.SetJSON(ctx, s.store, store.KeyShops, shops); err != nil {
		return fmt.Errorf("restore shops: %w", err)
	}
	if err := store.SetJSON(ctx, s.store, store.KeySlotConfig, snap.SlotConfig); err != nil {
		return fmt.Errorf("restore slot config: %w", err)
	}

	s.log.Info().
		Str("snapshot", snap.ID.String()).
		Int("shops", len(shops)).
		Msg("state imported")
	return nil
}

// clear removes every planner key so an import starts from scratch.
func (s *Service) clear(ctx context.Context) error {
	for _, prefix := range []string{"planning_", "selected_employees_", "employees_", "lastPlanning_", store.KeyShops, store.KeySlotConfig} {
		keys, err := s.store.ListKeys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("list %s keys: %w", prefix, err)
		}
		for _, key := range keys {
			if err := s.store.Remove(ctx, key); err != nil {
				return fmt.Errorf("remove %s: %w", key, err)
			}
		}
	}
	return nil
}

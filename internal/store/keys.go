package store

import (
	"fmt"
	"strings"
	"time"
)

// Key layout. The trailing date segment of planning keys is what week
// discovery parses, so these shapes are part of the stored data format.
const (
	KeyShops      = "shops"
	KeySlotConfig = "timeSlotConfig"

	weekFormat = "2006-01-02"
)

// PlanningKey addresses one week's grid for a shop; week is the Monday.
func PlanningKey(shop string, week time.Time) string {
	return fmt.Sprintf("planning_%s_%s", shop, week.Format(weekFormat))
}

// PlanningPrefix is the enumeration prefix for a shop's stored weeks.
func PlanningPrefix(shop string) string {
	return fmt.Sprintf("planning_%s_", shop)
}

// RosterKey addresses the selected-employee list for a shop's week.
func RosterKey(shop string, week time.Time) string {
	return fmt.Sprintf("selected_employees_%s_%s", shop, week.Format(weekFormat))
}

// RosterPrefix is the enumeration prefix for a shop's stored rosters.
func RosterPrefix(shop string) string {
	return fmt.Sprintf("selected_employees_%s_", shop)
}

// EmployeesKey addresses a shop's full employee list.
func EmployeesKey(shop string) string {
	return fmt.Sprintf("employees_%s", shop)
}

// LastPlanningKey addresses the most recently edited week for a shop.
func LastPlanningKey(shop string) string {
	return fmt.Sprintf("lastPlanning_%s", shop)
}

// WeekFromPlanningKey parses the week date out of a planning key for the
// given shop. Returns false for keys of other shops or with an invalid
// trailing date.
func WeekFromPlanningKey(key, shop string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(key, PlanningPrefix(shop))
	if !ok {
		return time.Time{}, false
	}
	week, err := time.Parse(weekFormat, rest)
	if err != nil {
		return time.Time{}, false
	}
	return week, true
}

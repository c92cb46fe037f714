package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoSlots is returned when a configuration resolves to zero slots.
// Grid operations must not proceed with such a configuration.
var ErrNoSlots = errors.New("no time slots defined")

// pastMidnightEnds lists end times the legacy configuration format treats
// as falling on the next day. Kept for stored configs that predate the
// EndNextDay flag; new configs should set the flag instead, which also
// allows end times after 04:00.
var pastMidnightEnds = map[string]bool{
	"24:00": true,
	"00:00": true,
	"01:00": true,
	"02:00": true,
	"03:00": true,
}

// Config describes the active time grid: opening/closing times and the
// slot interval in minutes. TimeSlots holds the generated "HH:mm-HH:mm"
// labels and must be regenerated whenever the other fields change.
type Config struct {
	Interval   int      `json:"interval" yaml:"interval"`
	StartTime  string   `json:"startTime" yaml:"start_time"`
	EndTime    string   `json:"endTime" yaml:"end_time"`
	EndNextDay bool     `json:"endNextDay,omitempty" yaml:"end_next_day"`
	TimeSlots  []string `json:"timeSlots,omitempty" yaml:"-"`
}

// Generate fills TimeSlots by stepping from StartTime to EndTime in
// Interval-minute increments. The final slot may overshoot EndTime when
// the span is not divisible by the interval. Returns ErrNoSlots when the
// resolved end does not fall after the start.
func (c *Config) Generate() error {
	c.TimeSlots = nil

	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d: %w", c.Interval, ErrNoSlots)
	}

	ref := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	start, err := parseClock(ref, c.StartTime)
	if err != nil {
		return fmt.Errorf("parse start time: %w", err)
	}

	endDay := ref
	endStr := c.EndTime
	if c.EndNextDay || pastMidnightEnds[c.EndTime] {
		endDay = ref.AddDate(0, 0, 1)
	}
	if endStr == "24:00" {
		endStr = "00:00"
		endDay = ref.AddDate(0, 0, 1)
	}
	end, err := parseClock(endDay, endStr)
	if err != nil {
		return fmt.Errorf("parse end time: %w", err)
	}

	if !end.After(start) {
		return ErrNoSlots
	}

	step := time.Duration(c.Interval) * time.Minute
	for cursor := start; cursor.Before(end); cursor = cursor.Add(step) {
		c.TimeSlots = append(c.TimeSlots, cursor.Format("15:04")+"-"+cursor.Add(step).Format("15:04"))
	}

	if len(c.TimeSlots) == 0 {
		return ErrNoSlots
	}
	return nil
}

// SlotCount returns the number of generated slots.
func (c *Config) SlotCount() int {
	return len(c.TimeSlots)
}

// SlotDuration returns the duration in hours of a single "HH:mm-HH:mm"
// label, computed from the label's own bounds rather than the configured
// interval so that custom or trailing short slots resolve correctly. An
// end before the start means the slot crosses midnight ("23:30-00:00" is
// half an hour, not minus 23.5). Malformed labels contribute zero.
func SlotDuration(label string) float64 {
	startStr, endStr, ok := strings.Cut(label, "-")
	if !ok {
		return 0
	}

	ref := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	start, err := parseClock(ref, startStr)
	if err != nil {
		return 0
	}
	end, err := parseClock(ref, endStr)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end.Sub(start).Hours()
}

func parseClock(date time.Time, s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", s)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantCount  int
		wantFirst  string
		wantLast   string
		wantErr    error
	}{
		{
			name:      "half hour slots over a morning",
			cfg:       Config{Interval: 30, StartTime: "09:00", EndTime: "12:00"},
			wantCount: 6,
			wantFirst: "09:00-09:30",
			wantLast:  "11:30-12:00",
		},
		{
			name:      "quarter hour slots",
			cfg:       Config{Interval: 15, StartTime: "09:00", EndTime: "10:00"},
			wantCount: 4,
			wantFirst: "09:00-09:15",
			wantLast:  "09:45-10:00",
		},
		{
			name:      "full day hour slots",
			cfg:       Config{Interval: 60, StartTime: "08:00", EndTime: "20:00"},
			wantCount: 12,
			wantFirst: "08:00-09:00",
			wantLast:  "19:00-20:00",
		},
		{
			name:      "non divisible span overshoots",
			cfg:       Config{Interval: 45, StartTime: "09:00", EndTime: "10:00"},
			wantCount: 2,
			wantFirst: "09:00-09:45",
			wantLast:  "09:45-10:30",
		},
		{
			name:      "legacy past midnight end",
			cfg:       Config{Interval: 30, StartTime: "18:00", EndTime: "01:00"},
			wantCount: 14,
			wantFirst: "18:00-18:30",
			wantLast:  "00:30-01:00",
		},
		{
			name:      "end 24:00 means next midnight",
			cfg:       Config{Interval: 60, StartTime: "22:00", EndTime: "24:00"},
			wantCount: 2,
			wantFirst: "22:00-23:00",
			wantLast:  "23:00-00:00",
		},
		{
			name:      "explicit next day flag past the legacy set",
			cfg:       Config{Interval: 30, StartTime: "22:00", EndTime: "04:30", EndNextDay: true},
			wantCount: 13,
			wantFirst: "22:00-22:30",
			wantLast:  "04:00-04:30",
		},
		{
			name:    "end before start same day",
			cfg:     Config{Interval: 30, StartTime: "12:00", EndTime: "09:00"},
			wantErr: ErrNoSlots,
		},
		{
			name:    "end equals start",
			cfg:     Config{Interval: 30, StartTime: "09:00", EndTime: "09:00"},
			wantErr: ErrNoSlots,
		},
		{
			name:    "zero interval",
			cfg:     Config{Interval: 0, StartTime: "09:00", EndTime: "12:00"},
			wantErr: ErrNoSlots,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Generate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tt.cfg.TimeSlots)
				return
			}
			require.NoError(t, err)
			require.Len(t, tt.cfg.TimeSlots, tt.wantCount)
			assert.Equal(t, tt.wantFirst, tt.cfg.TimeSlots[0])
			assert.Equal(t, tt.wantLast, tt.cfg.TimeSlots[len(tt.cfg.TimeSlots)-1])
		})
	}
}

func TestGenerateExampleScenario(t *testing.T) {
	cfg := Config{Interval: 30, StartTime: "09:00", EndTime: "12:00"}
	require.NoError(t, cfg.Generate())
	assert.Equal(t, []string{
		"09:00-09:30",
		"09:30-10:00",
		"10:00-10:30",
		"10:30-11:00",
		"11:00-11:30",
		"11:30-12:00",
	}, cfg.TimeSlots)
}

func TestGenerateSlotCountMatchesMinutes(t *testing.T) {
	// For same-day spans divisible by the interval, the count is exact.
	for _, interval := range []int{15, 30, 60} {
		cfg := Config{Interval: interval, StartTime: "08:00", EndTime: "17:00"}
		require.NoError(t, cfg.Generate())
		assert.Equal(t, 9*60/interval, cfg.SlotCount(), "interval %d", interval)
	}
}

func TestSlotDuration(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"09:00-09:30", 0.5},
		{"09:00-10:00", 1},
		{"09:45-10:30", 0.75},
		{"23:30-00:00", 0.5}, // crosses midnight
		{"23:00-01:00", 2},
		{"garbage", 0},
		{"09:00", 0},
		{"9h-10h", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SlotDuration(tt.label), "label %q", tt.label)
	}
}

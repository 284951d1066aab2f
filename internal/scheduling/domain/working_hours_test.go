package domain_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingHours_Validate(t *testing.T) {
	require.NoError(t, domain.DefaultWorkingHours.Validate())
	require.NoError(t, domain.WorkingHours{StartHour: 0, EndHour: 24}.Validate())

	for _, w := range []domain.WorkingHours{
		{StartHour: 18, EndHour: 9},
		{StartHour: 9, EndHour: 9},
		{StartHour: -1, EndHour: 9},
		{StartHour: 9, EndHour: 25},
	} {
		assert.ErrorIs(t, w.Validate(), domain.ErrInvalidWorkingHours)
	}
}

func TestWorkingHours_WindowOnDSTDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name   string
		day    time.Time
		hours  domain.WorkingHours
		length time.Duration
	}{
		{"spring forward", time.Date(2026, time.March, 8, 12, 0, 0, 0, ny), domain.DefaultWorkingHours, 9 * time.Hour},
		{"fall back", time.Date(2026, time.November, 1, 12, 0, 0, 0, ny), domain.DefaultWorkingHours, 9 * time.Hour},
		{"whole spring day", time.Date(2026, time.March, 8, 12, 0, 0, 0, ny), domain.WorkingHours{StartHour: 0, EndHour: 24}, 23 * time.Hour},
		{"whole autumn day", time.Date(2026, time.November, 1, 12, 0, 0, 0, ny), domain.WorkingHours{StartHour: 0, EndHour: 24}, 25 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.hours.Window(tt.day, ny)

			assert.Equal(t, tt.hours.StartHour%24, start.Hour())
			assert.Equal(t, tt.hours.EndHour%24, end.Hour())
			assert.Equal(t, tt.length, end.Sub(start))
		})
	}
}

func TestWallClock_MidnightIsNextDay(t *testing.T) {
	day := time.Date(2026, time.June, 11, 15, 0, 0, 0, ist)

	assert.Equal(t, time.Date(2026, time.June, 12, 0, 0, 0, 0, ist), domain.WallClock(day, 24*60))
	assert.Equal(t, at(14, 30), domain.WallClock(day, 14*60+30))
}

func TestWorkingHours_Minutes(t *testing.T) {
	assert.Equal(t, 540, domain.DefaultWorkingHours.Minutes())
}

func TestWorkingHours_WindowUsesCalendarDay(t *testing.T) {
	// 22:00 UTC on 10 June is already 11 June in IST.
	date := time.Date(2026, time.June, 10, 22, 0, 0, 0, time.UTC)

	start, end := domain.DefaultWorkingHours.Window(date, ist)

	assert.Equal(t, at(9, 0), start)
	assert.Equal(t, at(18, 0), end)
	assert.Equal(t, ist, start.Location())
}

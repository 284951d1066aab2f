package queries

import (
	"context"
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSuggestAlternativesHandler_Handle(t *testing.T) {
	ctx := context.Background()
	source := new(mockBusySource)
	source.On("ListBusyIntervals", ctx, mock.Anything).Return([]calendarDomain.BusyInterval{
		{Start: clock(time.June, 11, 9, 0), End: clock(time.June, 11, 17, 0)},
	}, nil)
	handler := NewSuggestAlternativesHandler(newHandler(source))

	alternatives, err := handler.Handle(ctx, SuggestAlternativesQuery{
		DurationMinutes: 60,
		Date:            clock(time.June, 11, 0, 0),
	})

	require.NoError(t, err)
	require.Len(t, alternatives, 2)

	assert.True(t, alternatives[0].NextDay)
	assert.Equal(t, clock(time.June, 12, 0, 0), alternatives[0].Date)
	assert.Equal(t, []time.Time{clock(time.June, 12, 9, 0), clock(time.June, 12, 9, 15)}, starts(alternatives[0].Slots))

	assert.False(t, alternatives[1].NextDay)
	assert.Equal(t, domain.RangeEvening, alternatives[1].TimeRange.Kind)
	assert.Equal(t, []time.Time{clock(time.June, 11, 17, 0)}, starts(alternatives[1].Slots))
}

func TestSuggestAlternativesHandler_DefaultsToToday(t *testing.T) {
	ctx := context.Background()
	source := new(mockBusySource)
	source.On("ListBusyIntervals", ctx, mock.Anything).Return([]calendarDomain.BusyInterval{}, nil)
	handler := NewSuggestAlternativesHandler(newHandler(source))

	alternatives, err := handler.Handle(ctx, SuggestAlternativesQuery{DurationMinutes: 30})

	require.NoError(t, err)
	require.Len(t, alternatives, 4)
	assert.Equal(t, clock(time.June, 11, 0, 0), alternatives[0].Date)
	for _, alt := range alternatives[1:] {
		assert.Equal(t, clock(time.June, 10, 0, 0), alt.Date)
		assert.Len(t, alt.Slots, 2)
	}
}

func TestSuggestAlternativesHandler_PropagatesInvalidDuration(t *testing.T) {
	handler := NewSuggestAlternativesHandler(newHandler(new(mockBusySource)))

	_, err := handler.Handle(context.Background(), SuggestAlternativesQuery{DurationMinutes: 0})

	assert.ErrorIs(t, err, ErrInvalidDuration)
}

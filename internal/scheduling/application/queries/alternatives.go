package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

// alternativesPerOption caps the slots offered per suggestion.
const alternativesPerOption = 2

// Alternative is a secondary recommendation offered when the requested
// date and range have no availability. Either NextDay is set or TimeRange
// names the same-day range the slots fall in.
type Alternative struct {
	Date      time.Time
	NextDay   bool
	TimeRange domain.TimeRange
	Slots     []domain.Slot
}

// SuggestAlternativesQuery describes the search that came back empty.
type SuggestAlternativesQuery struct {
	DurationMinutes int
	// Date is the day originally asked for; zero means today.
	Date time.Time
}

// SuggestAlternativesHandler looks at the following day and at each named
// range of the original day.
type SuggestAlternativesHandler struct {
	slots *FindAvailableSlotsHandler
}

// NewSuggestAlternativesHandler creates a new SuggestAlternativesHandler.
func NewSuggestAlternativesHandler(slots *FindAvailableSlotsHandler) *SuggestAlternativesHandler {
	return &SuggestAlternativesHandler{slots: slots}
}

// Handle executes the SuggestAlternativesQuery. Options without slots are
// left out, so an empty result means there is nothing to suggest.
func (h *SuggestAlternativesHandler) Handle(ctx context.Context, query SuggestAlternativesQuery) ([]Alternative, error) {
	date := query.Date
	if date.IsZero() {
		loc := h.slots.config.Location
		now := h.slots.now().In(loc)
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}

	var alternatives []Alternative

	nextDay := date.AddDate(0, 0, 1)
	slots, err := h.slots.Handle(ctx, FindAvailableSlotsQuery{
		DurationMinutes: query.DurationMinutes,
		PreferredDate:   nextDay,
	})
	if err != nil {
		return nil, err
	}
	if len(slots) > 0 {
		alternatives = append(alternatives, Alternative{
			Date:    nextDay,
			NextDay: true,
			Slots:   firstN(slots, alternativesPerOption),
		})
	}

	for _, rng := range domain.Periods {
		slots, err := h.slots.Handle(ctx, FindAvailableSlotsQuery{
			DurationMinutes: query.DurationMinutes,
			PreferredDate:   date,
			TimeRange:       rng,
		})
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}
		alternatives = append(alternatives, Alternative{
			Date:      date,
			TimeRange: rng,
			Slots:     firstN(slots, alternativesPerOption),
		})
	}

	return alternatives, nil
}

func firstN(slots []domain.Slot, n int) []domain.Slot {
	if len(slots) > n {
		return slots[:n]
	}
	return slots
}

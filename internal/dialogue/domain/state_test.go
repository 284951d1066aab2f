package domain

import (
	"encoding/json"
	"testing"
	"time"

	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(hour, minute int) scheduling.Slot {
	start := time.Date(2026, time.June, 11, hour, minute, 0, 0, time.UTC)
	return scheduling.Slot{Start: start, End: start.Add(30 * time.Minute)}
}

func offeringState(t *testing.T) *ConversationState {
	t.Helper()
	s := NewConversationState(0)
	require.NoError(t, s.Advance(StageDuration))
	require.NoError(t, s.Advance(StagePreference))
	require.NoError(t, s.OfferSlots([]scheduling.Slot{slotAt(9, 0), slotAt(9, 15)}))
	return s
}

func TestNewConversationState(t *testing.T) {
	s := NewConversationState(0)
	assert.Equal(t, StageStart, s.Stage)
	assert.Equal(t, DefaultDurationMinutes, s.DurationMinutes)

	s = NewConversationState(30)
	assert.Equal(t, 30, s.DurationMinutes)
}

func TestConversationState_Advance(t *testing.T) {
	s := NewConversationState(0)
	assert.ErrorIs(t, s.Advance(StageConfirm), ErrInvalidTransition)
	assert.Equal(t, StageStart, s.Stage)

	require.NoError(t, s.Advance(StageDuration))
	assert.Equal(t, StageDuration, s.Stage)
}

func TestConversationState_SetDuration(t *testing.T) {
	s := NewConversationState(0)
	assert.ErrorIs(t, s.SetDuration(0), ErrInvalidDuration)
	assert.ErrorIs(t, s.SetDuration(MaxDurationMinutes+1), ErrInvalidDuration)
	assert.ErrorIs(t, s.SetDuration(200000000), ErrInvalidDuration)
	require.NoError(t, s.SetDuration(45))
	assert.Equal(t, 45, s.DurationMinutes)
	require.NoError(t, s.SetDuration(MaxDurationMinutes))
}

func TestConversationState_OfferSlotsRejectsEmpty(t *testing.T) {
	s := NewConversationState(0)
	require.NoError(t, s.Advance(StageDuration))
	require.NoError(t, s.Advance(StagePreference))

	assert.ErrorIs(t, s.OfferSlots(nil), ErrNoSlots)
	assert.Equal(t, StagePreference, s.Stage)
}

func TestConversationState_SelectOnlyOfferedSlots(t *testing.T) {
	s := offeringState(t)

	assert.ErrorIs(t, s.Select(slotAt(10, 0)), ErrSlotNotOffered)
	assert.Equal(t, StageOfferSlots, s.Stage)
	assert.Nil(t, s.SelectedSlot)

	require.NoError(t, s.Select(slotAt(9, 15)))
	assert.Equal(t, StageConfirm, s.Stage)
	require.NotNil(t, s.SelectedSlot)
	assert.True(t, s.SelectedSlot.Start.Equal(slotAt(9, 15).Start))
}

func TestConversationState_Reset(t *testing.T) {
	s := offeringState(t)
	s.PreferredDate = time.Date(2026, time.June, 11, 0, 0, 0, 0, time.UTC)
	s.PreferredTimeRange = scheduling.ParseTimeRange("morning")
	require.NoError(t, s.SetDuration(30))
	require.NoError(t, s.Select(slotAt(9, 0)))
	s.Summary = "Design review"
	s.DurationSuggested = true

	s.Reset()

	assert.Equal(t, StageStart, s.Stage)
	assert.Equal(t, DefaultDurationMinutes, s.DurationMinutes)
	assert.False(t, s.HasPreferredDate())
	assert.True(t, s.PreferredTimeRange.IsAny())
	assert.Empty(t, s.AvailableSlots)
	assert.Nil(t, s.SelectedSlot)
	assert.Empty(t, s.Summary)
	assert.False(t, s.DurationSuggested)
}

func TestConversationState_Snapshot(t *testing.T) {
	s := offeringState(t)
	s.PreferredDate = time.Date(2026, time.June, 11, 0, 0, 0, 0, time.UTC)
	s.PreferredTimeRange = scheduling.ParseTimeRange("before 11:00")

	snapshot := s.Snapshot()
	assert.Equal(t, "offer_slots", snapshot["stage"])
	assert.Equal(t, "2026-06-11", snapshot["preferred_date"])
	assert.Equal(t, "before 11:00", snapshot["preferred_time_range"])
	assert.Equal(t, []string{"2026-06-11T09:00:00Z", "2026-06-11T09:15:00Z"}, snapshot["available_slots"])
	assert.Nil(t, snapshot["selected_slot"])

	_, err := json.Marshal(snapshot)
	assert.NoError(t, err)
}

func TestConversationState_JSON(t *testing.T) {
	s := offeringState(t)
	s.PreferredTimeRange = scheduling.ParseTimeRange("afternoon")
	require.NoError(t, s.Select(slotAt(9, 0)))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded ConversationState
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, StageConfirm, decoded.Stage)
	assert.Equal(t, scheduling.RangeAfternoon, decoded.PreferredTimeRange.Kind)
	require.NotNil(t, decoded.SelectedSlot)
	assert.True(t, decoded.SelectedSlot.Start.Equal(slotAt(9, 0).Start))
	assert.Len(t, decoded.AvailableSlots, 2)
}

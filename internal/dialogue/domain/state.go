package domain

import (
	"time"

	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

const (
	// DefaultDurationMinutes is the meeting length assumed until the user gives one.
	DefaultDurationMinutes = 60
	// MaxDurationMinutes is the longest meeting a session accepts.
	MaxDurationMinutes = 24 * 60
)

// ConversationState is the mutable record of one dialogue session. It is
// exported field by field so session stores can serialise it.
type ConversationState struct {
	Stage              Stage                `json:"stage"`
	DurationMinutes    int                  `json:"duration_minutes"`
	PreferredDate      time.Time            `json:"preferred_date"`
	PreferredTimeRange scheduling.TimeRange `json:"preferred_time_range"`
	AvailableSlots     []scheduling.Slot    `json:"available_slots"`
	SelectedSlot       *scheduling.Slot     `json:"selected_slot,omitempty"`
	// Summary is the meeting title when the user named one.
	Summary string `json:"summary,omitempty"`
	// DurationSuggested is set when DurationMinutes came from a free-text
	// request and only needs a yes.
	DurationSuggested bool `json:"duration_suggested,omitempty"`
	// DefaultDuration is restored by Reset.
	DefaultDuration int `json:"default_duration"`
}

// NewConversationState creates a state at StageStart. A non-positive
// defaultDuration uses DefaultDurationMinutes.
func NewConversationState(defaultDuration int) *ConversationState {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDurationMinutes
	}
	s := &ConversationState{DefaultDuration: defaultDuration}
	s.Reset()
	return s
}

// Reset returns the state to its initial values.
func (s *ConversationState) Reset() {
	if s.DefaultDuration <= 0 {
		s.DefaultDuration = DefaultDurationMinutes
	}
	s.Stage = StageStart
	s.DurationMinutes = s.DefaultDuration
	s.PreferredDate = time.Time{}
	s.PreferredTimeRange = scheduling.TimeRange{}
	s.AvailableSlots = nil
	s.SelectedSlot = nil
	s.Summary = ""
	s.DurationSuggested = false
}

// Advance moves to target along a legal edge.
func (s *ConversationState) Advance(target Stage) error {
	if !s.Stage.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	s.Stage = target
	return nil
}

// SetDuration records the meeting length.
func (s *ConversationState) SetDuration(minutes int) error {
	if minutes <= 0 || minutes > MaxDurationMinutes {
		return ErrInvalidDuration
	}
	s.DurationMinutes = minutes
	s.DurationSuggested = false
	return nil
}

// HasPreferredDate reports whether a day preference is set.
func (s *ConversationState) HasPreferredDate() bool {
	return !s.PreferredDate.IsZero()
}

// OfferSlots stores slots and enters StageOfferSlots. The stage is never
// entered with an empty list.
func (s *ConversationState) OfferSlots(slots []scheduling.Slot) error {
	if len(slots) == 0 {
		return ErrNoSlots
	}
	if err := s.Advance(StageOfferSlots); err != nil {
		return err
	}
	s.AvailableSlots = append([]scheduling.Slot(nil), slots...)
	s.SelectedSlot = nil
	return nil
}

// Select picks an offered slot and enters StageConfirm. slot must be one of
// the most recently offered slots.
func (s *ConversationState) Select(slot scheduling.Slot) error {
	offered := false
	for _, candidate := range s.AvailableSlots {
		if candidate.Start.Equal(slot.Start) && candidate.End.Equal(slot.End) {
			offered = true
			break
		}
	}
	if !offered {
		return ErrSlotNotOffered
	}
	if err := s.Advance(StageConfirm); err != nil {
		return err
	}
	s.SelectedSlot = &slot
	return nil
}

// Snapshot renders the state for debug logging.
func (s *ConversationState) Snapshot() map[string]any {
	slots := make([]string, 0, len(s.AvailableSlots))
	for _, slot := range s.AvailableSlots {
		slots = append(slots, slot.Start.Format(time.RFC3339))
	}

	snapshot := map[string]any{
		"stage":                s.Stage.String(),
		"duration":             s.DurationMinutes,
		"preferred_date":       nil,
		"preferred_time_range": nil,
		"available_slots":      slots,
		"selected_slot":        nil,
		"summary":              s.Summary,
	}
	if s.HasPreferredDate() {
		snapshot["preferred_date"] = s.PreferredDate.Format("2006-01-02")
	}
	if !s.PreferredTimeRange.IsAny() {
		snapshot["preferred_time_range"] = s.PreferredTimeRange.String()
	}
	if s.SelectedSlot != nil {
		snapshot["selected_slot"] = s.SelectedSlot.Start.Format(time.RFC3339)
	}
	return snapshot
}

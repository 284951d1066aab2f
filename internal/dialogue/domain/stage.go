package domain

// Stage is the step of the scheduling conversation.
type Stage string

const (
	// StageStart waits for a scheduling request or a free-text question.
	StageStart Stage = "start"
	// StageDuration waits for the meeting length.
	StageDuration Stage = "duration"
	// StagePreference waits for a day and time-of-day preference.
	StagePreference Stage = "preference"
	// StageOfferSlots waits for the user to pick one of the offered slots.
	StageOfferSlots Stage = "offer_slots"
	// StageConfirm waits for a yes or no on the selected slot.
	StageConfirm Stage = "confirm"
)

// transitions lists every legal next stage. Staying put is listed explicitly
// because every stage re-prompts on input it cannot use.
var transitions = map[Stage][]Stage{
	StageStart:      {StageStart, StageDuration},
	StageDuration:   {StageDuration, StagePreference},
	StagePreference: {StagePreference, StageOfferSlots},
	StageOfferSlots: {StageOfferSlots, StageConfirm},
	StageConfirm:    {StageConfirm, StageStart},
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is a known value.
func (s Stage) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo returns true if moving to target is a legal edge.
func (s Stage) CanTransitionTo(target Stage) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ParseStage parses a string into a Stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.IsValid() {
		return "", ErrInvalidStage
	}
	return stage, nil
}

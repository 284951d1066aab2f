package domain

import "errors"

var (
	ErrInvalidStage      = errors.New("invalid conversation stage")
	ErrInvalidTransition = errors.New("invalid stage transition")
	// ErrNoSlots is returned when slots are offered from an empty list.
	ErrNoSlots = errors.New("no slots to offer")
	// ErrSlotNotOffered is returned when a selection is not among the offered slots.
	ErrSlotNotOffered  = errors.New("slot was not offered")
	ErrInvalidDuration = errors.New("duration must be between 1 minute and 24 hours")
	// ErrSessionNotFound is returned by session stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("session not found")
)

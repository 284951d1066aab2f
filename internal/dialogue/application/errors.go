package application

import (
	"context"
	"errors"
	"net"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	dialogueDomain "github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
)

var (
	// ErrNotUnderstood marks an utterance the current stage could not use.
	ErrNotUnderstood = errors.New("utterance not understood")
	// ErrNoAvailability marks an availability search that came back empty.
	ErrNoAvailability = errors.New("no available slots")
)

// ErrorKind classifies what went wrong during a turn.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindExtraction        ErrorKind = "extraction"
	KindNoAvailability    ErrorKind = "no_availability"
	KindBackend           ErrorKind = "backend"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindUnknown           ErrorKind = "unknown"
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// Classify maps err onto the error taxonomy.
func Classify(err error) ErrorKind {
	var netErr net.Error
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotUnderstood),
		errors.Is(err, queries.ErrInvalidDuration),
		errors.Is(err, dialogueDomain.ErrInvalidDuration),
		errors.Is(err, dialogueDomain.ErrSlotNotOffered):
		return KindExtraction
	case errors.Is(err, ErrNoAvailability), errors.Is(err, dialogueDomain.ErrNoSlots):
		return KindNoAvailability
	case errors.Is(err, calendarDomain.ErrMalformedResponse),
		errors.Is(err, extraction.ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, calendarDomain.ErrBackendUnavailable),
		errors.Is(err, calendarDomain.ErrNotAuthenticated),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return KindBackend
	default:
		return KindUnknown
	}
}

// UserMessage explains err to the user in plain language, as a clause that
// fits after "Sorry, ".
func UserMessage(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindExtraction:
		return msgRepeat
	case KindNoAvailability:
		return msgNoSlots
	case KindMalformedResponse:
		return "the calendar sent a response I couldn't read"
	case KindBackend:
		if errors.Is(err, calendarDomain.ErrNotAuthenticated) {
			return "your calendar isn't connected yet, run 'slotwise auth url' to connect it"
		}
		return "I couldn't reach your calendar right now"
	default:
		return "something unexpected went wrong"
	}
}

package application_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	dialogueDomain "github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want application.ErrorKind
	}{
		{"nil", nil, application.KindNone},
		{"not understood", application.ErrNotUnderstood, application.KindExtraction},
		{"invalid duration", fmt.Errorf("search: %w", queries.ErrInvalidDuration), application.KindExtraction},
		{"state duration", dialogueDomain.ErrInvalidDuration, application.KindExtraction},
		{"no availability", application.ErrNoAvailability, application.KindNoAvailability},
		{"empty offer", dialogueDomain.ErrNoSlots, application.KindNoAvailability},
		{"calendar malformed", fmt.Errorf("decode: %w", calendarDomain.ErrMalformedResponse), application.KindMalformedResponse},
		{"llm malformed", extraction.ErrMalformedResponse, application.KindMalformedResponse},
		{"unavailable", fmt.Errorf("list: %w", calendarDomain.ErrBackendUnavailable), application.KindBackend},
		{"not authenticated", calendarDomain.ErrNotAuthenticated, application.KindBackend},
		{"deadline", context.DeadlineExceeded, application.KindBackend},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, application.KindBackend},
		{"other", errors.New("boom"), application.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, application.Classify(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, application.UserMessage(nil))
	assert.Contains(t, application.UserMessage(calendarDomain.ErrNotAuthenticated), "slotwise auth url")
	assert.Equal(t, "I couldn't reach your calendar right now", application.UserMessage(calendarDomain.ErrBackendUnavailable))
	assert.Equal(t, "something unexpected went wrong", application.UserMessage(errors.New("boom")))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "none", application.KindNone.String())
	assert.Equal(t, "backend", application.KindBackend.String())
}

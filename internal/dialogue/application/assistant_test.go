package application_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	"github.com/felixgeelhaar/slotwise/internal/voice"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureResult struct {
	text string
	err  error
}

// scriptedCapturer replays results, then reports io.EOF.
type scriptedCapturer struct {
	results []captureResult
}

func (c *scriptedCapturer) Capture(context.Context, time.Duration) (string, error) {
	if len(c.results) == 0 {
		return "", io.EOF
	}
	next := c.results[0]
	c.results = c.results[1:]
	return next.text, next.err
}

func said(lines ...string) []captureResult {
	out := make([]captureResult, len(lines))
	for i, l := range lines {
		out[i] = captureResult{text: l}
	}
	return out
}

type recordingSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
}

type panickingExtractor struct{}

func (panickingExtractor) ExtractParameters(context.Context, string) extraction.Parameters {
	panic("model exploded")
}

func newTestAssistant(t *testing.T, capturer voice.Capturer, speaker voice.Speaker, extractor application.ParameterExtractor) (*application.Assistant, *fakeBackend, *observability.InMemoryMetrics) {
	t.Helper()
	backend := &fakeBackend{}
	s := newStack(backend, extractor)
	metrics := observability.NewInMemoryMetrics()
	monitor := observability.NewLatencyMonitor(time.Second, nil, metrics)
	assistant := application.NewAssistant(
		s.machine,
		domain.NewConversationState(60),
		capturer,
		speaker,
		monitor,
		metrics,
		application.AssistantConfig{ListenTimeout: time.Second, CaptureBackoff: time.Millisecond},
		nil,
	)
	return assistant, backend, metrics
}

func TestAssistant_RunBooksAndExits(t *testing.T) {
	capturer := &scriptedCapturer{results: said(
		"schedule a meeting",
		"30 minutes",
		"tomorrow morning",
		"first",
		"yes",
		"exit",
	)}
	speaker := &recordingSpeaker{}
	assistant, backend, metrics := newTestAssistant(t, capturer, speaker, nil)

	require.NoError(t, assistant.Run(context.Background()))

	require.Len(t, speaker.lines, 7)
	assert.Equal(t, "Hello! I'm your meeting scheduling assistant. How can I help?", speaker.lines[0])
	assert.Equal(t, "Meeting scheduled! You can view it at: https://calendar.example/evt-1", speaker.lines[5])
	assert.Equal(t, "Goodbye!", speaker.lines[6])
	require.Len(t, backend.created, 1)
	assert.Equal(t, at(11, 9, 0), backend.created[0].Start)
	assert.Equal(t, domain.StageStart, assistant.State().Stage)

	assert.Equal(t, int64(6), metrics.GetCounter(observability.MetricTurnTotal))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBookings))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSlotSearches, observability.T("outcome", "offered")))
}

func TestAssistant_RunHandlesSilenceAndEmptyInput(t *testing.T) {
	capturer := &scriptedCapturer{results: []captureResult{
		{err: voice.ErrSilence},
		{text: "   "},
		{err: voice.ErrSilence},
	}}
	speaker := &recordingSpeaker{}
	assistant, _, _ := newTestAssistant(t, capturer, speaker, nil)

	require.NoError(t, assistant.Run(context.Background()))

	assert.Equal(t, []string{
		"Hello! I'm your meeting scheduling assistant. How can I help?",
		"Sorry, I didn't catch that. Could you please repeat?",
	}, speaker.lines)
}

func TestAssistant_RunKeepsListeningAfterCaptureFailures(t *testing.T) {
	broken := errors.New("microphone unplugged")
	capturer := &scriptedCapturer{results: []captureResult{
		{err: broken}, {err: broken}, {err: broken}, {err: broken}, {text: "schedule a meeting"},
	}}
	speaker := &recordingSpeaker{}
	assistant, _, metrics := newTestAssistant(t, capturer, speaker, nil)

	require.NoError(t, assistant.Run(context.Background()))

	assert.Empty(t, capturer.results)
	assert.Contains(t, speaker.lines, "Okay! How long should the meeting be in minutes?")
	assert.Equal(t, domain.StageDuration, assistant.State().Stage)
	assert.Equal(t, int64(4), metrics.GetCounter(observability.MetricCaptureFailures))
}

type brokenCapturer struct {
	calls  int
	cancel context.CancelFunc
}

func (c *brokenCapturer) Capture(context.Context, time.Duration) (string, error) {
	c.calls++
	if c.calls == 3 {
		c.cancel()
	}
	return "", errors.New("device busy")
}

func TestAssistant_RunStopsWhenCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	capturer := &brokenCapturer{cancel: cancel}
	assistant, _, _ := newTestAssistant(t, capturer, &recordingSpeaker{}, nil)

	assert.NoError(t, assistant.Run(ctx))
	assert.Equal(t, 3, capturer.calls)
}

func TestAssistant_RunReturnsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	speaker := &recordingSpeaker{}
	assistant, _, _ := newTestAssistant(t, &scriptedCapturer{results: said("schedule")}, speaker, nil)

	assert.NoError(t, assistant.Run(ctx))
	assert.Len(t, speaker.lines, 1)
}

func TestAssistant_TurnRecoversFromPanic(t *testing.T) {
	assistant, _, metrics := newTestAssistant(t, &scriptedCapturer{}, &recordingSpeaker{}, panickingExtractor{})

	text, done := assistant.Turn(context.Background(), "what about tomorrow")

	assert.False(t, done)
	assert.Equal(t, "Sorry, I encountered an error. Let's try again.", text)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricTurnErrors, observability.T("kind", "unknown")))

	// The session keeps going.
	text, _ = assistant.Turn(context.Background(), "schedule a meeting")
	assert.Equal(t, "Okay! How long should the meeting be in minutes?", text)
}

func TestAssistant_TurnExit(t *testing.T) {
	assistant, _, _ := newTestAssistant(t, &scriptedCapturer{}, &recordingSpeaker{}, nil)

	text, done := assistant.Turn(context.Background(), "quit")

	assert.True(t, done)
	assert.Equal(t, "Goodbye!", text)
}

func TestAssistant_TurnCountsNoAvailability(t *testing.T) {
	assistant, backend, metrics := newTestAssistant(t, &scriptedCapturer{}, &recordingSpeaker{}, nil)
	backend.events = []calendarDomain.Event{
		{ID: "all-day", Start: at(11, 0, 0), End: at(12, 0, 0)},
		{ID: "all-day-2", Start: at(12, 0, 0), End: at(13, 0, 0)},
	}
	state := assistant.State()
	state.Stage = domain.StagePreference

	text, _ := assistant.Turn(context.Background(), "tomorrow")

	assert.Contains(t, text, "Sorry, I couldn't find available slots.")
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSlotSearches, observability.T("outcome", "empty")))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricTurnErrors, observability.T("kind", "no_availability")))
}

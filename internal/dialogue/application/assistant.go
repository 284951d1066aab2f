package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/felixgeelhaar/slotwise/internal/voice"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

// AssistantConfig configures the listening loop.
type AssistantConfig struct {
	ListenTimeout time.Duration
	// CaptureBackoff is the pause after a failed capture. It doubles with
	// each failure in a row up to MaxCaptureBackoff.
	CaptureBackoff    time.Duration
	MaxCaptureBackoff time.Duration
}

// DefaultAssistantConfig returns the default loop settings.
func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		ListenTimeout:     10 * time.Second,
		CaptureBackoff:    500 * time.Millisecond,
		MaxCaptureBackoff: 10 * time.Second,
	}
}

// Assistant is the outer conversation loop for a single user: listen, run
// one turn, speak the reply. No turn can end the session except an exit.
type Assistant struct {
	machine  *Machine
	capturer voice.Capturer
	speaker  voice.Speaker
	monitor  *observability.LatencyMonitor
	metrics  observability.Metrics
	config   AssistantConfig
	logger   *slog.Logger

	mu    sync.Mutex
	state *domain.ConversationState
}

// NewAssistant creates a new Assistant.
func NewAssistant(
	machine *Machine,
	state *domain.ConversationState,
	capturer voice.Capturer,
	speaker voice.Speaker,
	monitor *observability.LatencyMonitor,
	metrics observability.Metrics,
	config AssistantConfig,
	logger *slog.Logger,
) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if monitor == nil {
		monitor = observability.NewLatencyMonitor(observability.DefaultLatencyBudget, logger, metrics)
	}
	if state == nil {
		state = domain.NewConversationState(domain.DefaultDurationMinutes)
	}
	defaults := DefaultAssistantConfig()
	if config.ListenTimeout <= 0 {
		config.ListenTimeout = defaults.ListenTimeout
	}
	if config.CaptureBackoff <= 0 {
		config.CaptureBackoff = defaults.CaptureBackoff
	}
	if config.MaxCaptureBackoff < config.CaptureBackoff {
		config.MaxCaptureBackoff = max(defaults.MaxCaptureBackoff, config.CaptureBackoff)
	}
	return &Assistant{
		machine:  machine,
		capturer: capturer,
		speaker:  speaker,
		monitor:  monitor,
		metrics:  metrics,
		config:   config,
		logger:   logger,
		state:    state,
	}
}

// State returns the conversation state. Callers must not use it concurrently
// with Turn.
func (a *Assistant) State() *domain.ConversationState {
	return a.state
}

// Run greets the user and handles utterances until the user exits, the input
// closes or ctx is cancelled. Capture errors are logged and retried after a
// backoff; they never end the conversation.
func (a *Assistant) Run(ctx context.Context) error {
	a.speaker.Speak(ctx, msgGreeting)

	failures := 0
	backoff := a.config.CaptureBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		utterance, err := a.capturer.Capture(ctx, a.config.ListenTimeout)
		switch {
		case err == nil:
			failures = 0
			backoff = a.config.CaptureBackoff
		case errors.Is(err, voice.ErrSilence):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			a.logger.Info("input closed, ending conversation")
			return nil
		default:
			failures++
			a.metrics.Counter(observability.MetricCaptureFailures, 1)
			a.logger.Warn("capture failed", "error", err, "failures", failures, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, a.config.MaxCaptureBackoff)
			continue
		}

		if strings.TrimSpace(utterance) == "" {
			a.speaker.Speak(ctx, msgDidNotCatch)
			continue
		}

		timer := a.monitor.Start()
		text, done := a.Turn(ctx, utterance)
		timer.MarkProcessed()
		a.speaker.Speak(ctx, text)
		timer.Stop(ctx)

		if done {
			return nil
		}
	}
}

// Turn handles one utterance and returns the reply text. done is true when
// the user asked to leave.
func (a *Assistant) Turn(ctx context.Context, utterance string) (text string, done bool) {
	if IsExit(utterance) {
		return msgGoodbye, true
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Debug("conversation state", "state", a.state.Snapshot())
	reply := a.handle(ctx, utterance)
	a.record(reply)
	return reply.Text, false
}

func (a *Assistant) handle(ctx context.Context, utterance string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("dialogue turn panicked", "panic", r, "stage", a.state.Stage)
			reply = Reply{
				Text:  msgTurnError,
				Stage: a.state.Stage,
				Err:   fmt.Errorf("turn panicked: %v", r),
				Kind:  KindUnknown,
			}
		}
	}()
	return a.machine.Handle(ctx, a.state, utterance)
}

func (a *Assistant) record(reply Reply) {
	if reply.Kind != KindNone {
		a.metrics.Counter(observability.MetricTurnErrors, 1, observability.T("kind", reply.Kind.String()))
		a.logger.Debug("turn not completed", "kind", reply.Kind.String(), "error", reply.Err)
	}
	switch {
	case len(reply.Slots) > 0:
		a.metrics.Counter(observability.MetricSlotSearches, 1, observability.T("outcome", "offered"))
	case reply.Kind == KindNoAvailability:
		a.metrics.Counter(observability.MetricSlotSearches, 1, observability.T("outcome", "empty"))
	}
	if reply.Booking != nil {
		a.metrics.Counter(observability.MetricBookings, 1)
	}
}

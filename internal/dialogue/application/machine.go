package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
)

// DefaultMeetingSummary titles bookings when the user gave no title.
const DefaultMeetingSummary = "Scheduled Meeting"

// Dependencies are the collaborators a Machine calls. Alternatives, Events,
// Upcoming and Extractor are optional.
type Dependencies struct {
	Parser       *timeexpr.Parser
	Slots        SlotFinder
	Alternatives AlternativeFinder
	Events       EventsOnDate
	Upcoming     UpcomingEvents
	Booker       Booker
	Extractor    ParameterExtractor
}

// MachineConfig holds the fixed dialogue settings.
type MachineConfig struct {
	MeetingSummary string
	HorizonDays    int
	// MaxDurationMinutes is the longest meeting the slot search can place,
	// normally the working-day length. Zero means domain.MaxDurationMinutes.
	MaxDurationMinutes int
}

// Reply is the outcome of one turn.
type Reply struct {
	Text  string
	Stage domain.Stage
	// Slots are the slots offered this turn.
	Slots        []scheduling.Slot
	Alternatives []queries.Alternative
	Booking      *calendarDomain.EventReference
	// Err is set when the turn could not do what was asked; Kind classifies it.
	Err  error
	Kind ErrorKind
}

// Machine runs the scheduling dialogue. It holds no per-session state, so one
// Machine can serve many sessions.
type Machine struct {
	deps   Dependencies
	config MachineConfig
	logger *slog.Logger
}

// NewMachine creates a new Machine.
func NewMachine(deps Dependencies, config MachineConfig, logger *slog.Logger) *Machine {
	if deps.Parser == nil {
		deps.Parser = timeexpr.NewParser(nil)
	}
	if config.MeetingSummary == "" {
		config.MeetingSummary = DefaultMeetingSummary
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = 7
	}
	if config.MaxDurationMinutes <= 0 || config.MaxDurationMinutes > domain.MaxDurationMinutes {
		config.MaxDurationMinutes = domain.MaxDurationMinutes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		deps:   deps,
		config: config,
		logger: logger,
	}
}

// Handle advances state with one utterance. Unusable input re-prompts in the
// same stage; collaborator failures are reported in the reply, never returned.
func (m *Machine) Handle(ctx context.Context, state *domain.ConversationState, utterance string) Reply {
	text := strings.ToLower(strings.TrimSpace(utterance))

	var reply Reply
	switch state.Stage {
	case domain.StageStart:
		reply = m.handleStart(ctx, state, utterance, text)
	case domain.StageDuration:
		reply = m.handleDuration(state, text)
	case domain.StagePreference:
		reply = m.handlePreference(ctx, state, text)
	case domain.StageOfferSlots:
		reply = m.handleOffer(state, text)
	case domain.StageConfirm:
		reply = m.handleConfirm(ctx, state, text)
	default:
		m.logger.Warn("unknown dialogue stage, resetting", "stage", state.Stage)
		state.Reset()
		reply = Reply{Text: msgStartOver}
	}

	reply.Stage = state.Stage
	if reply.Err != nil {
		reply.Kind = Classify(reply.Err)
	}
	return reply
}

func (m *Machine) handleStart(ctx context.Context, state *domain.ConversationState, utterance, text string) Reply {
	if WantsToSchedule(text) {
		_ = state.Advance(domain.StageDuration)
		return Reply{Text: msgAskDuration}
	}

	params := extraction.Fallback(utterance)
	if m.deps.Extractor != nil {
		params = m.deps.Extractor.ExtractParameters(ctx, utterance)
	}

	switch params.Intent {
	case extraction.IntentSchedule:
		_ = state.Advance(domain.StageDuration)
		m.prefill(state, params)
		if state.DurationSuggested {
			return Reply{Text: msgDurationSuggested(state.DurationMinutes)}
		}
		return Reply{Text: msgAskDuration}
	case extraction.IntentCancel:
		state.Reset()
		return Reply{Text: msgStartOver}
	default:
		return m.answerDateQuery(ctx, params.Date)
	}
}

// prefill copies what the extractor found into a fresh request.
func (m *Machine) prefill(state *domain.ConversationState, params extraction.Parameters) {
	state.Summary = strings.TrimSpace(params.Summary)
	if params.DurationMinutes > 0 && params.DurationMinutes <= m.config.MaxDurationMinutes {
		if err := state.SetDuration(params.DurationMinutes); err == nil {
			state.DurationSuggested = true
		}
	}
	if params.Date != "" {
		if date, ok := m.deps.Parser.ParseRelativeDate(params.Date); ok && !date.Before(m.deps.Parser.Today()) {
			state.PreferredDate = date
		}
	}
	if params.TimeRange != "" {
		state.PreferredTimeRange = rangeFromText(params.TimeRange)
	}
}

func (m *Machine) answerDateQuery(ctx context.Context, phrase string) Reply {
	phrase = strings.TrimSpace(phrase)
	date, ok := m.deps.Parser.ParseRelativeDate(phrase)
	if !ok || m.deps.Events == nil {
		return Reply{Text: msgRepeat, Err: ErrNotUnderstood}
	}

	dto, err := m.deps.Events.Handle(ctx, date)
	if err != nil {
		m.logger.Warn("date query failed", "date", date.Format("2006-01-02"), "error", err)
		return Reply{Text: "Sorry, " + UserMessage(err) + ".", Err: err}
	}
	return Reply{Text: msgEventsOn(phrase, dto.Summaries())}
}

func (m *Machine) handleDuration(state *domain.ConversationState, text string) Reply {
	minutes, ok := ParseDuration(text)
	if !ok && state.DurationSuggested && IsAffirmative(text) {
		minutes, ok = state.DurationMinutes, true
	}
	if !ok {
		return Reply{Text: msgDurationRetry, Err: ErrNotUnderstood}
	}
	if minutes > m.config.MaxDurationMinutes {
		return Reply{Text: msgDurationTooLong(m.config.MaxDurationMinutes), Err: domain.ErrInvalidDuration}
	}
	if err := state.SetDuration(minutes); err != nil {
		return Reply{Text: msgDurationRetry, Err: err}
	}
	_ = state.Advance(domain.StagePreference)
	return Reply{Text: msgDurationSet(minutes)}
}

func (m *Machine) handlePreference(ctx context.Context, state *domain.ConversationState, text string) Reply {
	m.applyPreference(ctx, state, text)

	slots, err := m.deps.Slots.Handle(ctx, queries.FindAvailableSlotsQuery{
		DurationMinutes: state.DurationMinutes,
		PreferredDate:   state.PreferredDate,
		TimeRange:       state.PreferredTimeRange,
	})
	if err != nil {
		m.logger.Warn("slot search failed", "error", err)
		return Reply{Text: msgSearchFailed(err), Err: err}
	}

	if len(slots) == 0 {
		alternatives := m.alternatives(ctx, state)
		return Reply{
			Text:         msgNoSlotsWithAlternatives(alternatives),
			Alternatives: alternatives,
			Err:          ErrNoAvailability,
		}
	}

	if err := state.OfferSlots(slots); err != nil {
		return Reply{Text: msgTurnError, Err: err}
	}
	return Reply{Text: msgOffer(slots), Slots: slots}
}

// applyPreference reads the day and time-of-day preference. Keyword rules
// run first, then explicit dates, then relational and clock constraints.
func (m *Machine) applyPreference(ctx context.Context, state *domain.ConversationState, text string) {
	parser := m.deps.Parser
	today := parser.Today()

	date, found := dayKeywordDate(text, today)
	if found {
		state.PreferredDate = date
	}
	if period, ok := periodKeyword(text); ok {
		state.PreferredTimeRange = period
	}

	relational := timeexpr.HasRelationalConstraint(text)
	if !found && !relational {
		if date, ok := parser.ParseRelativeDate(timeexpr.StripClocks(text)); ok && !date.Before(today) {
			state.PreferredDate = date
		}
	}

	var events []timeexpr.EventRef
	if relational && m.deps.Upcoming != nil {
		upcoming, err := m.deps.Upcoming.ListEvents(ctx, m.config.HorizonDays)
		if err != nil {
			m.logger.Warn("listing events for relational constraint failed", "error", err)
		}
		for _, e := range upcoming {
			events = append(events, timeexpr.EventRef{Summary: e.Summary, Start: e.Start, End: e.End})
		}
	}

	constraint := parser.ParseTimeConstraint(text, events, timeexpr.Constraint{
		Date:      state.PreferredDate,
		TimeRange: state.PreferredTimeRange.String(),
	})
	state.PreferredDate = constraint.Date
	state.PreferredTimeRange = scheduling.ParseTimeRange(constraint.TimeRange)
}

func (m *Machine) alternatives(ctx context.Context, state *domain.ConversationState) []queries.Alternative {
	if m.deps.Alternatives == nil {
		return nil
	}
	alternatives, err := m.deps.Alternatives.Handle(ctx, queries.SuggestAlternativesQuery{
		DurationMinutes: state.DurationMinutes,
		Date:            state.PreferredDate,
	})
	if err != nil {
		m.logger.Warn("suggesting alternatives failed", "error", err)
		return nil
	}
	return alternatives
}

func (m *Machine) handleOffer(state *domain.ConversationState, text string) Reply {
	slot, err := SelectSlot(text, state.AvailableSlots)
	if err != nil {
		var unoffered *unofferedTimeError
		if errors.As(err, &unoffered) {
			return Reply{Text: msgNotOffered(unoffered.hour, unoffered.minute), Err: err}
		}
		return Reply{Text: msgSelectionRetry, Err: err}
	}
	if err := state.Select(slot); err != nil {
		return Reply{Text: msgSelectionRetry, Err: err}
	}
	return Reply{Text: msgConfirm(slot)}
}

func (m *Machine) handleConfirm(ctx context.Context, state *domain.ConversationState, text string) Reply {
	switch {
	case IsAffirmative(text):
		return m.book(ctx, state)
	case IsNegative(text):
		state.Reset()
		return Reply{Text: msgStartOver}
	default:
		return Reply{Text: msgConfirmRetry, Err: ErrNotUnderstood}
	}
}

// book creates the event for the selected slot. The state is reset whatever
// the outcome so no selection outlives a booking attempt.
func (m *Machine) book(ctx context.Context, state *domain.ConversationState) Reply {
	defer state.Reset()

	if state.SelectedSlot == nil {
		return Reply{Text: msgStartOver}
	}
	slot := *state.SelectedSlot
	summary := state.Summary
	if summary == "" {
		summary = m.config.MeetingSummary
	}
	start := slot.Start
	end := start.Add(time.Duration(state.DurationMinutes) * time.Minute)

	ref, err := m.deps.Booker.CreateEvent(ctx, summary, start, end, m.deps.Parser.Location().String())
	if err != nil {
		m.logger.Error("booking failed", "start", start, "end", end, "error", err)
		return Reply{Text: msgBookingFailed(err), Err: err}
	}

	m.logger.Info("meeting booked", "event_id", ref.ID, "start", start, "end", end)
	return Reply{Text: msgBooked(ref), Booking: &ref}
}

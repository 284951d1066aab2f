package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/adapter/cli/clitest"
	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool)
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{
		"scheduler.slots",
		"scheduler.alternatives",
		"scheduler.book",
		"scheduler.events",
		"scheduler.chat",
		"scheduler.end_chat",
		"scheduler.parse_date",
		"health",
		"auth.url",
		"auth.exchange",
		"auth.status",
	} {
		assert.True(t, names[want], "%s tool should be registered", want)
	}
}

func TestRegisterCLITools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})

	assert.Error(t, RegisterCLITools(nil, ToolDependencies{App: &cli.App{}}))
	assert.Error(t, RegisterCLITools(srv, ToolDependencies{}))
}

func TestSlotsHandler(t *testing.T) {
	app := clitest.NewApp(t, clitest.WithStandup())

	result, err := slotsHandler(app)(context.Background(), slotsInput{
		Date:      "tomorrow",
		TimeRange: "morning",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-06-11", result["date"])
	assert.Equal(t, "morning", result["time_range"])
	assert.Equal(t, 30, result["duration_minutes"])

	slots := result["slots"].([]slotDTO)
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label
	}
	assert.Equal(t, []string{
		"09:00 AM", "09:15 AM", "09:30 AM",
		"11:00 AM", "11:15 AM", "11:30 AM",
	}, labels)
}

func TestSlotsHandler_Limit(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})

	result, err := slotsHandler(app)(context.Background(), slotsInput{
		Date:            "2026-06-12",
		DurationMinutes: 60,
		Limit:           2,
	})
	require.NoError(t, err)

	slots := result["slots"].([]slotDTO)
	require.Len(t, slots, 2)
	assert.Equal(t, "2026-06-12T09:00:00+05:30", slots[0].Start)
	assert.Equal(t, "2026-06-12T10:00:00+05:30", slots[0].End)
}

func TestSlotsHandler_InvalidInput(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})
	handler := slotsHandler(app)

	tests := []struct {
		name  string
		input slotsInput
	}{
		{name: "unknown date", input: slotsInput{Date: "someday"}},
		{name: "unknown range", input: slotsInput{TimeRange: "lunchtime"}},
		{name: "longer than working day", input: slotsInput{DurationMinutes: 200000000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler(context.Background(), tt.input)
			assert.Error(t, err)
		})
	}
}

func TestBookHandler(t *testing.T) {
	tests := []struct {
		name    string
		input   bookInput
		wantErr bool
		start   time.Time
	}{
		{
			name:  "free slot",
			input: bookInput{Date: "tomorrow", Time: "2:00 pm", Summary: "Design review"},
			start: clitest.At(11, 14, 0),
		},
		{
			name:    "overlaps an event",
			input:   bookInput{Date: "tomorrow", Time: "10:15"},
			wantErr: true,
		},
		{
			name:  "forced over an event",
			input: bookInput{Date: "2026-06-11", Time: "10:15", Force: true},
			start: clitest.At(11, 10, 15),
		},
		{
			name:    "missing time",
			input:   bookInput{Date: "tomorrow"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calendar := clitest.WithStandup()
			app := clitest.NewApp(t, calendar)

			result, err := bookHandler(app)(context.Background(), tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, calendar.Created)
				return
			}
			require.NoError(t, err)
			require.Len(t, calendar.Created, 1)
			created := calendar.Created[0]
			assert.True(t, tt.start.Equal(created.Start))
			assert.Equal(t, 30*time.Minute, created.End.Sub(created.Start))
			assert.Equal(t, "evt-1", result["id"])
			if tt.input.Summary != "" {
				assert.Equal(t, tt.input.Summary, created.Summary)
			} else {
				assert.Equal(t, "Scheduled Meeting", created.Summary)
			}
		})
	}
}

func TestEventsHandler(t *testing.T) {
	app := clitest.NewApp(t, clitest.WithStandup())

	result, err := eventsHandler(app)(context.Background(), eventsInput{Date: "tomorrow"})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-11", result["date"])
	events := result["events"].([]eventDTO)
	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Summary)

	result, err = eventsHandler(app)(context.Background(), eventsInput{})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-10", result["date"])
	assert.Empty(t, result["events"])
}

func TestEventsHandler_BackendError(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{Err: calendarDomain.ErrBackendUnavailable})

	_, err := eventsHandler(app)(context.Background(), eventsInput{})

	assert.ErrorIs(t, err, calendarDomain.ErrBackendUnavailable)
}

func TestParseDateHandler(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})
	handler := parseDateHandler(app)

	result, err := handler(context.Background(), parseDateInput{Text: "tomorrow evening"})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-11", result["date"])
	assert.Equal(t, "evening", result["time_range"])
	assert.Equal(t, false, result["relational"])

	result, err = handler(context.Background(), parseDateInput{Text: "before my meeting called standup"})
	require.NoError(t, err)
	assert.Equal(t, true, result["relational"])

	_, err = handler(context.Background(), parseDateInput{})
	assert.Error(t, err)
}

func TestChatHandler_Conversation(t *testing.T) {
	app := clitest.NewApp(t, clitest.WithStandup())
	chat := chatHandler(app)
	ctx := context.Background()

	out, err := chat(ctx, chatInput{Utterance: "schedule a meeting"})
	require.NoError(t, err)
	require.NotEmpty(t, out.SessionID)
	assert.Equal(t, "duration", out.Stage)

	id := out.SessionID
	out, err = chat(ctx, chatInput{SessionID: id, Utterance: "30 minutes"})
	require.NoError(t, err)
	assert.Equal(t, "preference", out.Stage)

	out, err = chat(ctx, chatInput{SessionID: id, Utterance: "tomorrow morning"})
	require.NoError(t, err)
	assert.Equal(t, "offer_slots", out.Stage)
	require.NotEmpty(t, out.Slots)
	assert.Equal(t, "09:00 AM", out.Slots[0].Label)
	assert.Empty(t, out.ErrorKind)

	out, err = chat(ctx, chatInput{SessionID: id, Utterance: "exit"})
	require.NoError(t, err)
	assert.True(t, out.Ended)
	assert.Equal(t, "Goodbye!", out.Reply)
}

func TestChatHandler_BackendFailure(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{Err: calendarDomain.ErrBackendUnavailable})
	chat := chatHandler(app)
	ctx := context.Background()

	out, err := chat(ctx, chatInput{Utterance: "schedule a meeting"})
	require.NoError(t, err)
	id := out.SessionID
	_, err = chat(ctx, chatInput{SessionID: id, Utterance: "30"})
	require.NoError(t, err)

	out, err = chat(ctx, chatInput{SessionID: id, Utterance: "tomorrow"})
	require.NoError(t, err)
	assert.Equal(t, "backend", out.ErrorKind)
	assert.NotEmpty(t, out.Error)
}

func TestSettings(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})

	got := settings(app)

	assert.Equal(t, "google", got["provider"])
	assert.Equal(t, "IST", got["timezone"])
	assert.Equal(t, map[string]int{"start": 9, "end": 18}, got["working_hours"])
	assert.Equal(t, "15m0s", got["slot_interval"])
}

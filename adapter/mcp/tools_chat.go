package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	dialogueApp "github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

type chatInput struct {
	SessionID string `json:"session_id,omitempty"`
	Utterance string `json:"utterance" jsonschema:"required"`
}

type endChatInput struct {
	SessionID string `json:"session_id" jsonschema:"required"`
}

type chatOutput struct {
	SessionID    string           `json:"session_id"`
	Reply        string           `json:"reply"`
	Stage        string           `json:"stage"`
	Slots        []slotDTO        `json:"slots,omitempty"`
	Alternatives []alternativeDTO `json:"alternatives,omitempty"`
	Booking      string           `json:"booking,omitempty"`
	Error        string           `json:"error,omitempty"`
	ErrorKind    string           `json:"error_kind,omitempty"`
	Ended        bool             `json:"ended,omitempty"`
}

func registerChatTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("scheduler.chat").
		Description("Send one utterance to the scheduling assistant. Omit session_id to start a conversation and pass the returned one on later turns").
		Handler(chatHandler(app))

	srv.Tool("scheduler.end_chat").
		Description("End a scheduling conversation").
		Handler(func(ctx context.Context, input endChatInput) (map[string]any, error) {
			if app.Sessions == nil {
				return nil, errors.New("sessions not configured")
			}
			if input.SessionID == "" {
				return nil, errors.New("session_id is required")
			}
			if err := app.Sessions.End(ctx, input.SessionID); err != nil {
				return nil, err
			}
			return map[string]any{"ended": true}, nil
		})

	return nil
}

func chatHandler(app *cli.App) func(context.Context, chatInput) (*chatOutput, error) {
	return func(ctx context.Context, input chatInput) (*chatOutput, error) {
		if app.Sessions == nil {
			return nil, errors.New("sessions not configured")
		}
		if input.SessionID != "" {
			ctx = observability.WithSessionID(ctx, input.SessionID)
		}
		result, err := app.Sessions.Chat(ctx, input.SessionID, input.Utterance)
		if err != nil {
			return nil, err
		}

		reply := result.Reply
		out := &chatOutput{
			SessionID: result.SessionID,
			Reply:     reply.Text,
			Stage:     reply.Stage.String(),
			Slots:     toSlotDTOs(reply.Slots),
			Ended:     result.Ended,
		}
		for _, alt := range reply.Alternatives {
			out.Alternatives = append(out.Alternatives, alternativeDTO{
				Date:      alt.Date.Format(dateLayout),
				NextDay:   alt.NextDay,
				TimeRange: alt.TimeRange.String(),
				Slots:     toSlotDTOs(alt.Slots),
			})
		}
		if reply.Booking != nil {
			out.Booking = reply.Booking.String()
		}
		if reply.Err != nil {
			out.Error = reply.Err.Error()
		}
		if reply.Kind != dialogueApp.KindNone {
			out.ErrorKind = reply.Kind.String()
		}
		return out, nil
	}
}

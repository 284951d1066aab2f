package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common scheduling workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("schedule_meeting").
		Description("Find a free time and book a meeting.").
		Argument("summary", "Title of the meeting", false).
		Argument("duration", "Meeting length in minutes", false).
		Argument("when", `Preferred day and time, e.g. "friday afternoon"`, false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			summary := args["summary"]
			if summary == "" {
				summary = "[use the default title]"
			}
			duration := args["duration"]
			if duration == "" {
				duration = "[ask me, or use the default length]"
			}
			when := args["when"]
			if when == "" {
				when = "[any time in the next few days]"
			}

			return &mcp.PromptResult{
				Description: "Schedule a Meeting",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Book a meeting on my calendar.

**Title:** %s
**Length:** %s
**When:** %s

1. Resolve the preferred day with scheduler.parse_date if it is a phrase
2. Find free starts with scheduler.slots (pass date and time_range)
3. If nothing is free, call scheduler.alternatives and offer those instead
4. Show me at most three options and wait for my choice
5. Book the chosen start with scheduler.book

Never book without my confirmation.`, summary, duration, when),
						},
					},
				},
			}, nil
		})

	srv.Prompt("day_overview").
		Description("Summarise what is on the calendar for a day and where the gaps are.").
		Argument("date", `Day to review, e.g. "tomorrow" (default today)`, false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			date := args["date"]
			if date == "" {
				date = "today"
			}

			return &mcp.PromptResult{
				Description: "Day Overview",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Give me an overview of %s.

1. List the events with scheduler.events (date: %q)
2. List free starts with scheduler.slots for the same date

Reply with the events in order, then the longest free stretches within
working hours.`, date, date),
						},
					},
				},
			}, nil
		})

	return nil
}

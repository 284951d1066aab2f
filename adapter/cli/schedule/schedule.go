package schedule

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/spf13/cobra"
)

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Find free slots, book meetings and list events",
	Long:  `Query your calendar availability and book meetings without a conversation.`,
}

func init() {
	Cmd.AddCommand(slotsCmd)
	Cmd.AddCommand(bookCmd)
	Cmd.AddCommand(eventsCmd)
	Cmd.AddCommand(parseCmd)
}

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.Parser == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// resolveDate turns a phrase such as "next friday" into a date. An empty
// phrase yields the zero time.
func resolveDate(app *cli.App, phrase string) (time.Time, error) {
	if phrase == "" {
		return time.Time{}, nil
	}
	date, ok := app.Parser.ParseRelativeDate(phrase)
	if !ok {
		return time.Time{}, fmt.Errorf("could not understand the date %q", phrase)
	}
	return date, nil
}

func durationOrDefault(app *cli.App, minutes int) int {
	if minutes > 0 {
		return minutes
	}
	return app.DefaultDurationMinutes
}

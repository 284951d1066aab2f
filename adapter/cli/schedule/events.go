package schedule

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events [date]",
	Short: "List the events on a day",
	Long: `List calendar events on a day. The date defaults to today.

Examples:
  slotwise schedule events
  slotwise schedule events next friday`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		if app.ListEventsOnDateHandler == nil {
			return fmt.Errorf("calendar not configured")
		}

		date, err := resolveDate(app, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = app.Parser.Today()
		}

		dto, err := app.ListEventsOnDateHandler.Handle(cmd.Context(), date)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Events on %s\n", date.Format("Monday, January 2, 2006"))
		fmt.Fprintln(out, strings.Repeat("-", 50))
		if len(dto.Events) == 0 {
			fmt.Fprintln(out, "\n  Nothing scheduled.")
			return nil
		}
		for _, e := range dto.Events {
			if e.AllDay {
				fmt.Fprintf(out, "  %-17s %s\n", "all day", e.Summary)
				continue
			}
			start, end := e.Start.In(app.Location), e.End.In(app.Location)
			fmt.Fprintf(out, "  %s - %s  %s\n", start.Format("03:04 PM"), end.Format("03:04 PM"), e.Summary)
		}
		return nil
	},
}

package schedule

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <phrase>",
	Short: "Show how a date and time phrase is understood",
	Long: `Resolve a spoken date and time phrase without touching the calendar.

Examples:
  slotwise schedule parse "twenty fourth june"
  slotwise schedule parse next friday after 2:30 pm`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		phrase := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		var current timeexpr.Constraint
		if date, ok := app.Parser.ParseRelativeDate(phrase); ok {
			current.Date = date
		}
		constraint := app.Parser.ParseTimeConstraint(phrase, nil, current)

		fmt.Fprintf(out, "Phrase: %s\n", phrase)
		if constraint.HasDate() {
			fmt.Fprintf(out, "Date:   %s\n", constraint.Date.Format("Monday, January 2, 2006"))
		} else {
			fmt.Fprintln(out, "Date:   (none)")
		}
		if constraint.TimeRange != "" {
			fmt.Fprintf(out, "Range:  %s\n", constraint.TimeRange)
		} else {
			fmt.Fprintln(out, "Range:  (any)")
		}
		if timeexpr.HasRelationalConstraint(phrase) {
			fmt.Fprintln(out, "Note:   refers to another event, resolved against the calendar during a conversation")
		}
		return nil
	},
}

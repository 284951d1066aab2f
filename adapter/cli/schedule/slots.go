package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	slotsDuration int
	slotsDate     string
	slotsRange    string
	slotsLimit    int
	slotsHorizon  int
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Find free meeting slots",
	Long: `Find conflict-free meeting starts within working hours.

Examples:
  slotwise schedule slots
  slotwise schedule slots --duration 45 --date tomorrow
  slotwise schedule slots --date "next friday" --range afternoon
  slotwise schedule slots --range "after 14:30" --limit 3`,
	Aliases: []string{"available", "free"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		if app.FindAvailableSlotsHandler == nil {
			return fmt.Errorf("scheduling not configured")
		}

		date, err := resolveDate(app, slotsDate)
		if err != nil {
			return err
		}
		timeRange := domain.ParseTimeRange(slotsRange)
		if slotsRange != "" && timeRange.IsAny() {
			return fmt.Errorf("invalid range %q, use morning, afternoon, evening, night, HH:MM, before HH:MM or after HH:MM", slotsRange)
		}
		duration := durationOrDefault(app, slotsDuration)

		slots, err := app.FindAvailableSlotsHandler.Handle(cmd.Context(), queries.FindAvailableSlotsQuery{
			DurationMinutes: duration,
			HorizonDays:     slotsHorizon,
			PreferredDate:   date,
			TimeRange:       timeRange,
		})
		if err != nil {
			return fmt.Errorf("failed to find available slots: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Available %d-minute slots", duration)
		if !date.IsZero() {
			fmt.Fprintf(out, " on %s", date.Format("Monday, January 2, 2006"))
		}
		if !timeRange.IsAny() {
			fmt.Fprintf(out, " (%s)", timeRange)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.Repeat("-", 50))

		if len(slots) == 0 {
			fmt.Fprintln(out, "\n  No available slots found.")
			if !date.IsZero() && app.SuggestAlternativesHandler != nil {
				return printAlternatives(cmd, app, duration, date)
			}
			return nil
		}

		if slotsLimit > 0 && len(slots) > slotsLimit {
			slots = slots[:slotsLimit]
		}
		for _, slot := range slots {
			if cli.Verbose() {
				fmt.Fprintf(out, "  %s  %s - %s\n", slot.Start.Format("Mon Jan 2"), slot.Label(), slot.End.Format("03:04 PM"))
				continue
			}
			fmt.Fprintf(out, "  %s  %s\n", slot.Start.Format("Mon Jan 2"), slot.Label())
		}
		return nil
	},
}

func printAlternatives(cmd *cobra.Command, app *cli.App, duration int, date time.Time) error {
	alternatives, err := app.SuggestAlternativesHandler.Handle(cmd.Context(), queries.SuggestAlternativesQuery{
		DurationMinutes: duration,
		Date:            date,
	})
	if err != nil {
		return fmt.Errorf("failed to suggest alternatives: %w", err)
	}
	if len(alternatives) == 0 {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n  Alternatives:")
	for _, alt := range alternatives {
		label := alt.TimeRange.String()
		if alt.NextDay {
			label = "next day"
		}
		labels := make([]string, len(alt.Slots))
		for i, slot := range alt.Slots {
			labels[i] = slot.Label()
		}
		fmt.Fprintf(out, "  %-10s %s  %s\n", label, alt.Date.Format("Mon Jan 2"), strings.Join(labels, ", "))
	}
	return nil
}

func init() {
	slotsCmd.Flags().IntVarP(&slotsDuration, "duration", "d", 0, "meeting length in minutes (default from DEFAULT_DURATION_MINUTES)")
	slotsCmd.Flags().StringVar(&slotsDate, "date", "", `day to search, e.g. "tomorrow" or "24th june"`)
	slotsCmd.Flags().StringVar(&slotsRange, "range", "", "time of day: morning, afternoon, evening, night, HH:MM, before HH:MM, after HH:MM")
	slotsCmd.Flags().IntVar(&slotsLimit, "limit", 0, "show at most this many slots")
	slotsCmd.Flags().IntVar(&slotsHorizon, "horizon", 0, "days to search when no date is given (default from HORIZON_DAYS)")
}

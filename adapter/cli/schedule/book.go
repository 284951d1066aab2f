package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
	"github.com/spf13/cobra"
)

// ErrSlotTaken is returned when the requested start is not a free slot.
var ErrSlotTaken = errors.New("requested time is not free")

var (
	bookDate     string
	bookTime     string
	bookDuration int
	bookSummary  string
	bookForce    bool
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book a meeting",
	Long: `Book a meeting at an exact time.

The start must be one of the free slots unless --force is given.

Examples:
  slotwise schedule book --date tomorrow --time 14:30
  slotwise schedule book --date "next monday" --time "9:00 am" --duration 45 --summary "1:1"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		if app.Booker == nil {
			return fmt.Errorf("calendar not configured")
		}
		if bookDate == "" {
			return errors.New("missing --date")
		}
		date, err := resolveDate(app, bookDate)
		if err != nil {
			return err
		}
		clock, ok := timeexpr.ParseClock(bookTime)
		if !ok {
			return fmt.Errorf("invalid --time %q, use HH:MM with optional am/pm", bookTime)
		}
		at := domain.ParseTimeRange(clock)
		duration := durationOrDefault(app, bookDuration)
		start := date.Add(time.Duration(at.Clock) * time.Minute)
		end := start.Add(time.Duration(duration) * time.Minute)

		if !bookForce && app.FindAvailableSlotsHandler != nil {
			slots, err := app.FindAvailableSlotsHandler.Handle(cmd.Context(), queries.FindAvailableSlotsQuery{
				DurationMinutes: duration,
				PreferredDate:   date,
				TimeRange:       at,
			})
			if err != nil {
				return fmt.Errorf("failed to check availability: %w", err)
			}
			// A clock range searches from that time on, so the first slot must start exactly there.
			if len(slots) == 0 || !slots[0].Start.Equal(start) {
				return fmt.Errorf("%w: %s %s", ErrSlotTaken, date.Format("Mon Jan 2"), clock)
			}
		}

		summary := bookSummary
		if summary == "" {
			summary = app.MeetingSummary
		}
		ref, err := app.Booker.CreateEvent(cmd.Context(), summary, start, end, app.Location.String())
		if err != nil {
			return fmt.Errorf("failed to book meeting: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Booked %q on %s from %s to %s\n",
			summary, start.Format("Monday, January 2"), start.Format("03:04 PM"), end.Format("03:04 PM"))
		fmt.Fprintf(out, "  %s\n", ref)
		return nil
	},
}

func init() {
	bookCmd.Flags().StringVar(&bookDate, "date", "", `day of the meeting, e.g. "tomorrow"`)
	bookCmd.Flags().StringVar(&bookTime, "time", "", `start time, e.g. "14:30" or "2:30 pm"`)
	bookCmd.Flags().IntVarP(&bookDuration, "duration", "d", 0, "meeting length in minutes")
	bookCmd.Flags().StringVar(&bookSummary, "summary", "", "event title (default from MEETING_SUMMARY)")
	bookCmd.Flags().BoolVar(&bookForce, "force", false, "book even when the time is not a free slot")
}

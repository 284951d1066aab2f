package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

func writeDependencyStats(out io.Writer, deps []resilience.DependencyStats) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  DEPENDENCIES")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, d := range deps {
		fmt.Fprintf(out, "  %-12s calls=%d failed=%d rejected=%d avg=%s breaker=%s\n",
			d.Name, d.TotalCalls, d.FailedCalls, d.RejectedCalls,
			d.AverageDuration.Round(time.Millisecond), d.BreakerState)
		if d.LastError != "" {
			fmt.Fprintf(out, "  %-12s last error: %s\n", "", d.LastError)
		}
	}
}

func writeTimingSummaries(out io.Writer, summaries []observability.TimingSummary) {
	if len(summaries) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  TIMINGS")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, s := range summaries {
		fmt.Fprintf(out, "  %-40s n=%d mean=%s max=%s\n",
			s.Key, s.Count, s.Mean.Round(time.Millisecond), s.Max.Round(time.Millisecond))
	}
}

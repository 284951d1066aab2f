package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned by the health command when a required
// dependency failed its check.
var ErrUnhealthy = errors.New("slotwise is unhealthy")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check calendar, token store and cache health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()

		results := app.Health.Check(cmd.Context())
		overall := observability.OverallStatus(results)
		fmt.Fprintf(out, "Status: %s\n", overall)
		fmt.Fprintln(out, strings.Repeat("-", 50))
		for _, r := range results {
			line := fmt.Sprintf("  %-12s %-10s", r.Name, r.Status)
			if r.Message != "" {
				line += " " + r.Message
			}
			fmt.Fprintln(out, strings.TrimRight(line, " "))
		}

		if app.Guard != nil {
			writeDependencyStats(out, app.Guard.Stats().All())
		}

		if overall == observability.HealthStatusUnhealthy {
			return ErrUnhealthy
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

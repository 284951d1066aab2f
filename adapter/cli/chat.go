package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	chatSession string
	chatStats   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [utterance]",
	Short: "Talk to the scheduling assistant",
	Long: `Start a conversation with the scheduling assistant.

Without arguments the assistant listens on standard input until you say
"exit". With an utterance it runs a single turn of a remote session and
prints the session ID to continue with; sessions survive between
invocations only when REDIS_URL is set.

Examples:
  slotwise chat
  slotwise chat "schedule a meeting"
  slotwise chat --session 7f7c... "friday afternoon"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			if app.Sessions == nil {
				return fmt.Errorf("sessions not configured")
			}
			result, err := app.Sessions.Chat(cmd.Context(), chatSession, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("chat failed: %w", err)
			}
			fmt.Fprintln(out, result.Reply.Text)
			if !result.Ended {
				fmt.Fprintf(out, "Session: %s\n", result.SessionID)
			}
			return nil
		}

		if app.NewAssistant == nil {
			return fmt.Errorf("assistant not configured")
		}
		assistant := app.NewAssistant(cmd.InOrStdin(), out)
		if err := assistant.Run(cmd.Context()); err != nil {
			return err
		}
		if chatStats && app.Metrics != nil {
			writeTimingSummaries(out, app.Metrics.Summaries())
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session ID to continue")
	chatCmd.Flags().BoolVar(&chatStats, "stats", false, "print turn timings when the conversation ends")
	rootCmd.AddCommand(chatCmd)
}

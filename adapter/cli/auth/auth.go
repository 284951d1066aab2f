package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	identityOAuth "github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var service *identityOAuth.Service

// SetService wires the OAuth service for CLI commands.
func SetService(s *identityOAuth.Service) {
	service = s
}

// ErrNotConfigured is returned when the calendar provider has no OAuth client.
var ErrNotConfigured = errors.New("auth service not configured: set CALENDAR_PROVIDER to google or microsoft and OAUTH_CLIENT_ID")

var Cmd = &cobra.Command{
	Use:   "auth",
	Short: "Connect the calendar account",
}

var authURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Generate OAuth2 authorization URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if service == nil {
			return ErrNotConfigured
		}
		state := uuid.New().String()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, service.AuthURL(state))
		fmt.Fprintf(out, "State: %s\n", state)
		fmt.Fprintln(out, "Open the URL, approve access, then run: slotwise auth exchange")
		return nil
	},
}

var authExchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Exchange OAuth2 code for tokens and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if service == nil {
			return ErrNotConfigured
		}
		code := authCode
		if code == "" {
			var err error
			code, err = promptCode(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}

		token, err := service.ExchangeAndStore(cmd.Context(), code)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Tokens stored for %s.\n", service.Provider())
		if !token.Expiry.IsZero() {
			fmt.Fprintf(out, "Access token expires %s.\n", token.Expiry.Local().Format(time.RFC1123))
		}
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether calendar access is set up",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if service == nil {
			app := cli.GetApp()
			if app == nil || app.ListEventsOnDateHandler == nil {
				return ErrNotConfigured
			}
			// Password based providers: prove access with a read.
			if _, err := app.ListEventsOnDateHandler.Handle(cmd.Context(), app.Parser.Today()); err != nil {
				return fmt.Errorf("%s calendar not reachable: %w", app.Provider, err)
			}
			fmt.Fprintf(out, "%s calendar reachable.\n", app.Provider)
			return nil
		}

		status, err := service.Status(cmd.Context())
		if errors.Is(err, identityOAuth.ErrTokenNotFound) {
			fmt.Fprintf(out, "%s: not connected. Run: slotwise auth url\n", service.Provider())
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: connected\n", status.Provider)
		if !status.Expiry.IsZero() {
			state := "valid"
			if status.Expiry.Before(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(out, "  access token: %s until %s\n", state, status.Expiry.Local().Format(time.RFC1123))
		}
		fmt.Fprintf(out, "  refreshable:  %t\n", status.Refreshable)
		return nil
	},
}

var authCode string

// promptCode reads the authorization code without echoing it when stdin is
// a terminal.
func promptCode(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Authorization code: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		code, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read code: %w", err)
		}
		return strings.TrimSpace(string(code)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", errors.New("missing --code")
	}
	return code, nil
}

func init() {
	authExchangeCmd.Flags().StringVar(&authCode, "code", "", "authorization code (prompted for when omitted)")

	Cmd.AddCommand(authURLCmd)
	Cmd.AddCommand(authExchangeCmd)
	Cmd.AddCommand(authStatusCmd)
}

package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/adapter/cli/clitest"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, app *cli.App, stdin string, args ...string) (string, error) {
	t.Helper()
	cli.SetApp(app)
	t.Cleanup(func() { cli.SetApp(nil) })

	var out bytes.Buffer
	root := cli.Root()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "slotwise dev")
	assert.Contains(t, out, "commit: none")
}

func TestHealth(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})
	app.Health.Register("redis", observability.OptionalPingChecker("redis", func(context.Context) error {
		return errors.New("connection refused")
	}))
	app.Health.Register("sqlite", observability.PingChecker("sqlite", func(context.Context) error { return nil }))

	out, err := run(t, app, "", "health")

	require.NoError(t, err)
	assert.Contains(t, out, "Status: degraded")
	assert.Contains(t, out, "redis")
	assert.Contains(t, out, "sqlite")
}

func TestHealth_Unhealthy(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})
	app.Health.Register("oauth_token", observability.PingChecker("oauth token", func(context.Context) error {
		return errors.New("oauth token not found")
	}))

	out, err := run(t, app, "", "health")

	assert.ErrorIs(t, err, cli.ErrUnhealthy)
	assert.Contains(t, out, "Status: unhealthy")
}

func TestHealth_RequiresApp(t *testing.T) {
	_, err := run(t, nil, "", "health")

	assert.Error(t, err)
}

func TestChat_Interactive(t *testing.T) {
	calendar := clitest.WithStandup()
	app := clitest.NewApp(t, calendar)
	script := strings.Join([]string{
		"schedule a meeting",
		"30 minutes",
		"tomorrow afternoon",
		"first",
		"yes",
		"exit",
	}, "\n") + "\n"

	out, err := run(t, app, script, "chat", "--stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Goodbye!")
	require.Len(t, calendar.Created, 1)
	assert.True(t, clitest.At(11, 12, 0).Equal(calendar.Created[0].Start))
	assert.True(t, clitest.At(11, 12, 30).Equal(calendar.Created[0].End))
	assert.Contains(t, out, "TIMINGS")
}

func TestChat_OneShot(t *testing.T) {
	app := clitest.NewApp(t, &clitest.Calendar{})

	out, err := run(t, app, "", "chat", "--session", "cli-session", "schedule", "a", "meeting")

	require.NoError(t, err)
	assert.Contains(t, out, "Session: cli-session")

	out, err = run(t, app, "", "chat", "--session", "cli-session", "exit")
	require.NoError(t, err)
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "Session:")
}

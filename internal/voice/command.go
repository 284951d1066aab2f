package voice

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// CommandSpeaker pipes text to a text-to-speech program such as "say" on macOS
// or "espeak" on Linux, after echoing it through another Speaker.
type CommandSpeaker struct {
	echo    Speaker
	name    string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandSpeaker parses command ("espeak -s 160") and speaks through it.
// echo may be nil.
func NewCommandSpeaker(command string, echo Speaker, logger *slog.Logger) *CommandSpeaker {
	fields := strings.Fields(command)
	if logger == nil {
		logger = slog.Default()
	}
	s := &CommandSpeaker{echo: echo, timeout: 30 * time.Second, logger: logger}
	if len(fields) > 0 {
		s.name, s.args = fields[0], fields[1:]
	}
	return s
}

// Speak implements Speaker. The text is written to the program's stdin.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) {
	if s.echo != nil {
		s.echo.Speak(ctx, text)
	}
	if s.name == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.name, s.args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		s.logger.WarnContext(ctx, "text to speech failed",
			"command", s.name,
			"error", err,
			"output", strings.TrimSpace(string(out)),
		)
	}
}

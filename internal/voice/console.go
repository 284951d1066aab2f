package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ConsoleCapturer reads one utterance per line, standing in for a microphone
// and recogniser.
type ConsoleCapturer struct {
	lines  chan string
	err    error
	prompt io.Writer
	once   sync.Once
	input  io.Reader
}

// NewConsoleCapturer reads utterances from in. When prompt is set a
// "Listening..." marker is written before each capture.
func NewConsoleCapturer(in io.Reader, prompt io.Writer) *ConsoleCapturer {
	return &ConsoleCapturer{
		lines:  make(chan string),
		prompt: prompt,
		input:  in,
	}
}

func (c *ConsoleCapturer) start() {
	c.once.Do(func() {
		go func() {
			scanner := bufio.NewScanner(c.input)
			for scanner.Scan() {
				c.lines <- strings.TrimSpace(scanner.Text())
			}
			c.err = scanner.Err()
			close(c.lines)
		}()
	})
}

// Capture implements Capturer.
func (c *ConsoleCapturer) Capture(ctx context.Context, timeout time.Duration) (string, error) {
	c.start()
	if c.prompt != nil {
		fmt.Fprint(c.prompt, "\nYou: ")
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			if c.err != nil {
				return "", c.err
			}
			return "", io.EOF
		}
		return line, nil
	case <-expired:
		return "", ErrSilence
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ConsoleSpeaker prints replies.
type ConsoleSpeaker struct {
	out    io.Writer
	logger *slog.Logger
}

// NewConsoleSpeaker creates a speaker writing to out.
func NewConsoleSpeaker(out io.Writer, logger *slog.Logger) *ConsoleSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSpeaker{out: out, logger: logger}
}

// Speak implements Speaker.
func (s *ConsoleSpeaker) Speak(ctx context.Context, text string) {
	if _, err := fmt.Fprintf(s.out, "Assistant: %s\n", text); err != nil {
		s.logger.WarnContext(ctx, "console output failed", "error", err)
	}
}

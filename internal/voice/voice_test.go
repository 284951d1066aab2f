package voice

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleCapturer_ReadsLines(t *testing.T) {
	var prompt bytes.Buffer
	capturer := NewConsoleCapturer(strings.NewReader("schedule a meeting\n  30 minutes  \n"), &prompt)

	first, err := capturer.Capture(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "schedule a meeting", first)

	second, err := capturer.Capture(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "30 minutes", second)

	_, err = capturer.Capture(context.Background(), time.Second)
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, prompt.String(), "You: ")
}

func TestConsoleCapturer_TimesOutWithSilence(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	capturer := NewConsoleCapturer(reader, nil)
	_, err := capturer.Capture(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrSilence)
}

func TestConsoleCapturer_HonoursContext(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConsoleCapturer(reader, nil).Capture(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleSpeaker(t *testing.T) {
	var out bytes.Buffer
	NewConsoleSpeaker(&out, nil).Speak(context.Background(), "Goodbye!")
	assert.Equal(t, "Assistant: Goodbye!\n", out.String())
}

func TestCommandSpeaker(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	var out bytes.Buffer
	speaker := NewCommandSpeaker("cat", NewConsoleSpeaker(&out, nil), nil)
	speaker.Speak(context.Background(), "Meeting scheduled!")

	assert.Equal(t, "Assistant: Meeting scheduled!\n", out.String())
}

func TestCommandSpeaker_FailuresAreSwallowed(t *testing.T) {
	var out bytes.Buffer
	speaker := NewCommandSpeaker("slotwise-no-such-tts-binary --fast", NewConsoleSpeaker(&out, nil), nil)

	assert.NotPanics(t, func() {
		speaker.Speak(context.Background(), "hello")
	})
	assert.Contains(t, out.String(), "hello")
}

func TestCommandSpeaker_EmptyCommandOnlyEchoes(t *testing.T) {
	var out bytes.Buffer
	NewCommandSpeaker("", NewConsoleSpeaker(&out, nil), nil).Speak(context.Background(), "hi")
	assert.Equal(t, "Assistant: hi\n", out.String())
}

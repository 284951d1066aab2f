// Package voice provides the speech input and output used by the assistant.
// Capture and synthesis are best effort: failures are logged and swallowed.
package voice

import (
	"context"
	"errors"
	"time"
)

// ErrSilence is returned when nothing was heard before the timeout.
var ErrSilence = errors.New("no speech before timeout")

// Capturer listens for one utterance. It returns ErrSilence on timeout and
// io.EOF when the input is closed for good.
type Capturer interface {
	Capture(ctx context.Context, timeout time.Duration) (string, error)
}

// Speaker says text to the user.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

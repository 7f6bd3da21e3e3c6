// Package speech captures one spoken phrase and returns it as text.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when no recognizer is configured.
var ErrUnavailable = errors.New("speech recognition is not available")

// DefaultTimeout bounds one capture, including the time the user takes to
// start speaking.
const DefaultTimeout = 10 * time.Second

// Recognizer turns one spoken phrase into text. ok is false when nothing
// was heard before the timeout or the audio could not be understood; err
// is reserved for failures of the recognizer itself.
type Recognizer interface {
	CaptureOnce(ctx context.Context) (text string, ok bool, err error)
}

var (
	_ Recognizer = Unavailable{}
	_ Recognizer = (*Command)(nil)
)

// Unavailable is the recognizer used when none is configured.
type Unavailable struct{}

// CaptureOnce always fails with ErrUnavailable.
func (Unavailable) CaptureOnce(context.Context) (string, bool, error) {
	return "", false, ErrUnavailable
}

// Command runs an external speech-to-text program that listens on the
// microphone and prints the transcript on stdout.
type Command struct {
	path    string
	args    []string
	timeout time.Duration
	log     zerolog.Logger
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithTimeout bounds each capture.
func WithTimeout(d time.Duration) CommandOption {
	return func(c *Command) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed captures.
func WithLogger(l zerolog.Logger) CommandOption {
	return func(c *Command) {
		c.log = l
	}
}

// NewCommand creates a recognizer running path with args. A program that
// cannot be found yields ErrUnavailable.
func NewCommand(path string, args []string, opts ...CommandOption) (*Command, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrUnavailable
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c := &Command{
		path:    resolved,
		args:    args,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CaptureOnce runs the program once. A timeout or an empty transcript is
// reported as ok=false; a non-zero exit is an error.
func (c *Command) CaptureOnce(ctx context.Context) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.Debug().Dur("timeout", c.timeout).Msg("speech capture timed out")
			return "", false, nil
		}
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		c.log.Error().Err(err).Str("stderr", stderr.String()).Msg("speech command failed")
		return "", false, fmt.Errorf("running speech command: %w", err)
	}

	text := strings.Join(strings.Fields(stdout.String()), " ")
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

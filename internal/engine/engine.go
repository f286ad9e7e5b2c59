// Package engine invokes the external media binaries. It knows nothing about
// operations: it receives a finished argument list, runs the process with a
// bounded lifetime, and reports the captured stderr on failure. ffprobe
// metadata is parsed from its JSON output.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Static errors for engine operations.
var (
	// ErrProbeFailed is returned when ffprobe exits non-zero.
	ErrProbeFailed = errors.New("engine: ffprobe execution failed")
	// ErrNoDuration is returned when ffprobe output carries no duration.
	ErrNoDuration = errors.New("engine: media has no duration metadata")
)

// Runner executes a prepared ffmpeg argument list.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Prober extracts container metadata from a media file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFmpeg implements Runner and Prober over the ffmpeg/ffprobe CLIs.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	// timeout bounds every invocation; zero means unbounded.
	timeout time.Duration
}

// Option configures an FFmpeg engine.
type Option func(*FFmpeg)

// WithTimeout bounds each subprocess invocation. On expiry the process is
// killed and the invocation fails with the context error.
func WithTimeout(d time.Duration) Option {
	return func(e *FFmpeg) {
		e.timeout = d
	}
}

// WithFFprobePath overrides the ffprobe binary location.
func WithFFprobePath(path string) Option {
	return func(e *FFmpeg) {
		if path != "" {
			e.ffprobePath = path
		}
	}
}

// New creates an FFmpeg engine. An empty ffmpegPath defaults to "ffmpeg"
// resolved via PATH.
func New(ffmpegPath string, opts ...Option) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	e := &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: "ffprobe"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes ffmpeg with the given arguments, capturing stderr. A non-zero
// exit yields an *Error carrying the argv and diagnostic text.
func (e *FFmpeg) Run(ctx context.Context, args []string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// #nosec G204 - the binary path comes from configuration, the args from
	// the command assembler, never raw from a request.
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg aborted: %w", ctx.Err())
		}
		return &Error{Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// Error is a failed engine invocation, including the stderr the tool wrote.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// probeOutput mirrors the JSON shape of `ffprobe -print_format json
// -show_entries format=duration`.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the container duration of a media file in seconds.
func (e *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// #nosec G204 - ffprobePath is set by the application, not user input.
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-print_format", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe aborted: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrProbeFailed, err, stderr.String())
	}

	return parseDuration(stdout.Bytes())
}

// parseDuration extracts the duration from ffprobe JSON output.
func parseDuration(raw []byte) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if out.Format.Duration == "" {
		return 0, ErrNoDuration
	}
	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	return d, nil
}

// Package command assembles ffmpeg argument lists for the operations the
// service supports. Every operation is a value type whose Args method
// produces the complete argv (inputs, filter graph, stream maps, codec
// options, output) without touching the filesystem or spawning anything.
// All input validation happens here, before a process ever starts.
package command

import (
	"errors"
	"strconv"

	"github.com/mediaforge/mediaforge-api/internal/filtergraph"
)

// Static validation errors. These surface as client errors, never as
// subprocess failures.
var (
	// ErrNoImages is returned when an image-sequence operation has no images.
	ErrNoImages = errors.New("command: at least one image is required")
	// ErrTransitionTooLong is returned when the transition does not fit
	// inside the per-image display window.
	ErrTransitionTooLong = errors.New("command: transition duration must be shorter than the per-image duration")
	// ErrUnknownTransition is returned for an unsupported transition type.
	ErrUnknownTransition = errors.New("command: unknown transition type")
	// ErrUnknownVisualization is returned for an unsupported visualization type.
	ErrUnknownVisualization = errors.New("command: unknown visualization type")
	// ErrUnknownVocalMode is returned for a vocal_type outside {vocals, instrumental}.
	ErrUnknownVocalMode = errors.New("command: unknown vocal mode")
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("command: width and height must be positive")
	// ErrInvalidDuration is returned when a duration is not positive.
	ErrInvalidDuration = errors.New("command: duration must be positive")
	// ErrMissingInput is returned when a required input path is empty.
	ErrMissingInput = errors.New("command: input path is required")
	// ErrMissingOutput is returned when the output path is empty.
	ErrMissingOutput = errors.New("command: output path is required")
)

// Op is one declared ffmpeg operation.
type Op interface {
	// Args returns the flat argument list for the ffmpeg binary, or a
	// validation error. The returned slice never includes the binary name.
	Args() ([]string, error)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return filtergraph.FormatFloat(v)
}

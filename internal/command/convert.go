package command

import "fmt"

// Convert transcodes a single media file into another container, optionally
// forcing codecs or rescaling. When no codec is requested no codec flag is
// emitted, leaving the choice to ffmpeg's container defaults.
type Convert struct {
	Input  string
	Output string

	// VideoCodec and AudioCodec override the defaults when non-empty.
	VideoCodec string
	AudioCodec string

	// Width and Height add a scale filter when both are positive.
	Width  int
	Height int
}

// Args implements Op.
func (c Convert) Args() ([]string, error) {
	if c.Input == "" {
		return nil, ErrMissingInput
	}
	if c.Output == "" {
		return nil, ErrMissingOutput
	}

	args := []string{"-y", "-i", c.Input}

	if c.Width != 0 || c.Height != 0 {
		if c.Width <= 0 || c.Height <= 0 {
			return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
		}
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", c.Width, c.Height))
	}
	if c.VideoCodec != "" {
		args = append(args, "-vcodec", c.VideoCodec)
	}
	if c.AudioCodec != "" {
		args = append(args, "-acodec", c.AudioCodec)
	}

	return append(args, c.Output), nil
}

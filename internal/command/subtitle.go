package command

import (
	"fmt"

	"github.com/mediaforge/mediaforge-api/internal/filtergraph"
	"github.com/mediaforge/mediaforge-api/internal/style"
)

// SubtitleBurn renders an SRT file into the video track with a forced ASS
// style. Audio is stream-copied.
type SubtitleBurn struct {
	Video    string
	Subtitle string
	Output   string
	Style    style.Descriptor
}

// Filter returns the subtitles video filter with the subtitle path escaped
// for the filter-option syntax and the rendered style attached.
func (s SubtitleBurn) Filter() string {
	return fmt.Sprintf("subtitles=%s:force_style='%s'",
		filtergraph.EscapePath(s.Subtitle), s.Style.ForceStyle())
}

// Args implements Op.
func (s SubtitleBurn) Args() ([]string, error) {
	if s.Video == "" || s.Subtitle == "" {
		return nil, ErrMissingInput
	}
	if s.Output == "" {
		return nil, ErrMissingOutput
	}

	return []string{
		"-i", s.Video,
		"-vf", s.Filter(),
		"-c:v", "libx264",
		"-c:a", "copy",
		"-y",
		s.Output,
	}, nil
}

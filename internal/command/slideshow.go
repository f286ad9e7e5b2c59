package command

import (
	"fmt"

	"github.com/mediaforge/mediaforge-api/internal/filtergraph"
)

// Transition selects the effect between slideshow images.
type Transition string

const (
	// TransitionFade cross-fades through black.
	TransitionFade Transition = "fade"
	// TransitionDissolve alpha-dissolves between images.
	TransitionDissolve Transition = "dissolve"
)

// IsValid returns true for a supported transition type.
func (t Transition) IsValid() bool {
	return t == TransitionFade || t == TransitionDissolve
}

// Slideshow turns N images plus one audio track into a video. Each image is
// scaled and padded to the target frame, given its transition effect, and the
// segments are concatenated; audio comes from the final input.
type Slideshow struct {
	Images []string
	Audio  string
	Output string

	Width  int
	Height int

	// DurationPerImage is how long each image is displayed, in seconds.
	DurationPerImage float64
	// TransitionDuration must be strictly shorter than DurationPerImage so
	// the fade-out start offset stays non-negative.
	TransitionDuration float64
	Transition         Transition
}

// Graph builds the filter graph alone: one scale+pad fragment and one
// transition fragment per image, then a single concat of all segments.
func (s Slideshow) Graph() (*filtergraph.Graph, error) {
	if len(s.Images) == 0 {
		return nil, ErrNoImages
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}
	if s.DurationPerImage <= 0 {
		return nil, fmt.Errorf("%w: duration_per_image=%s", ErrInvalidDuration, ftoa(s.DurationPerImage))
	}
	if s.TransitionDuration >= s.DurationPerImage {
		return nil, fmt.Errorf("%w: transition=%s duration=%s",
			ErrTransitionTooLong, ftoa(s.TransitionDuration), ftoa(s.DurationPerImage))
	}
	if !s.Transition.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransition, s.Transition)
	}

	g := &filtergraph.Graph{}
	for i := range s.Images {
		scaled := fmt.Sprintf("scaled%d", i)
		segment := fmt.Sprintf("v%d", i)

		g.Chain(fmt.Sprintf("%d:v", i), scaled,
			filtergraph.NewFilter("scale").
				WithInt("", s.Width).
				WithInt("", s.Height).
				With("force_original_aspect_ratio", "decrease"),
			filtergraph.NewFilter("pad").
				WithInt("", s.Width).
				WithInt("", s.Height).
				With("", "(ow-iw)/2").
				With("", "(oh-ih)/2"),
		)

		g.Chain(scaled, segment, s.transitionFilters(i)...)
	}

	concatInputs := make([]string, len(s.Images))
	for i := range s.Images {
		concatInputs[i] = fmt.Sprintf("v%d", i)
	}
	g.Add(concatInputs, []string{"outv"},
		filtergraph.NewFilter("concat").
			WithInt("n", len(s.Images)).
			WithInt("v", 1).
			WithInt("a", 0),
	)

	return g, nil
}

// transitionFilters returns the fade chain for image i. The first image only
// fades out, the last only fades in, interior images do both. A single-image
// slideshow gets the first-image treatment.
func (s Slideshow) transitionFilters(i int) []filtergraph.Filter {
	fadeOutStart := s.DurationPerImage - s.TransitionDuration
	dissolve := s.Transition == TransitionDissolve

	fade := func(direction string, start float64) filtergraph.Filter {
		f := filtergraph.NewFilter("fade").
			With("t", direction).
			WithFloat("st", start).
			WithFloat("d", s.TransitionDuration)
		if dissolve {
			f = f.WithInt("alpha", 1)
		}
		return f
	}

	var filters []filtergraph.Filter
	if dissolve {
		filters = append(filters, filtergraph.NewFilter("format").With("", "rgba"))
	}
	switch {
	case i == 0:
		filters = append(filters, fade("out", fadeOutStart))
	case i == len(s.Images)-1:
		filters = append(filters, fade("in", 0))
	default:
		filters = append(filters, fade("in", 0), fade("out", fadeOutStart))
	}
	return filters
}

// Args implements Op.
func (s Slideshow) Args() ([]string, error) {
	if s.Audio == "" {
		return nil, ErrMissingInput
	}
	if s.Output == "" {
		return nil, ErrMissingOutput
	}
	g, err := s.Graph()
	if err != nil {
		return nil, err
	}
	graph, err := g.String()
	if err != nil {
		return nil, err
	}

	var args []string
	for _, img := range s.Images {
		args = append(args, "-loop", "1", "-t", ftoa(s.DurationPerImage), "-i", img)
	}
	args = append(args, "-i", s.Audio)
	args = append(args,
		"-filter_complex", graph,
		"-map", "[outv]",
		"-map", fmt.Sprintf("%d:a", len(s.Images)),
		"-shortest",
		"-c:v", "libx264",
		"-preset", "medium",
		"-profile:v", "high",
		"-crf", "23",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-y",
		s.Output,
	)
	return args, nil
}

// BackgroundVideo concatenates images into a plain background track with no
// transitions. It is the first stage of the visualization pipeline.
type BackgroundVideo struct {
	Images []string
	Output string

	Width         int
	Height        int
	ImageDuration float64
}

// Args implements Op.
func (b BackgroundVideo) Args() ([]string, error) {
	if len(b.Images) == 0 {
		return nil, ErrNoImages
	}
	if b.Output == "" {
		return nil, ErrMissingOutput
	}
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if b.ImageDuration <= 0 {
		return nil, fmt.Errorf("%w: image_duration=%s", ErrInvalidDuration, ftoa(b.ImageDuration))
	}

	g := &filtergraph.Graph{}
	concatInputs := make([]string, len(b.Images))
	for i := range b.Images {
		scaled := fmt.Sprintf("scaled%d", i)
		concatInputs[i] = scaled
		g.Chain(fmt.Sprintf("%d:v", i), scaled,
			filtergraph.NewFilter("scale").WithInt("", b.Width).WithInt("", b.Height),
			filtergraph.NewFilter("setsar").WithInt("", 1),
		)
	}
	g.Add(concatInputs, []string{"outv"},
		filtergraph.NewFilter("concat").
			WithInt("n", len(b.Images)).
			WithInt("v", 1).
			WithInt("a", 0),
	)
	graph, err := g.String()
	if err != nil {
		return nil, err
	}

	args := []string{"-y"}
	for _, img := range b.Images {
		args = append(args, "-loop", "1", "-t", ftoa(b.ImageDuration), "-i", img)
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", "[outv]",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-shortest",
		b.Output,
	)
	return args, nil
}

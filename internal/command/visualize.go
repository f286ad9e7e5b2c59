package command

import (
	"fmt"

	"github.com/mediaforge/mediaforge-api/internal/filtergraph"
)

// VisualizationType selects the generator used for audio visualization.
type VisualizationType string

const (
	// VisualizationWaveform renders the showwaves oscilloscope view.
	VisualizationWaveform VisualizationType = "waveform"
	// VisualizationSpectrum renders the showspectrum frequency view.
	VisualizationSpectrum VisualizationType = "spectrum"
)

// IsValid returns true for a supported visualization type.
func (v VisualizationType) IsValid() bool {
	return v == VisualizationWaveform || v == VisualizationSpectrum
}

// Waveform renders audio as a waveform video over a solid-color background.
type Waveform struct {
	Audio  string
	Output string

	Width  int
	Height int
	// Mode is one of line, point, p2p, cline.
	Mode            string
	Color           string
	BackgroundColor string
	FPS             int
	// Duration limits the output length when positive; zero keeps the
	// audio's natural length.
	Duration float64
}

// Args implements Op.
func (w Waveform) Args() ([]string, error) {
	if w.Audio == "" {
		return nil, ErrMissingInput
	}
	if w.Output == "" {
		return nil, ErrMissingOutput
	}
	if w.Width <= 0 || w.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w.Width, w.Height)
	}

	size := fmt.Sprintf("%dx%d", w.Width, w.Height)
	g := &filtergraph.Graph{}
	g.Chain("", "bg",
		filtergraph.NewFilter("color").
			With("c", w.BackgroundColor).
			With("s", size).
			WithInt("d", 1),
	)
	g.Chain("0:a", "wave",
		filtergraph.NewFilter("showwaves").
			With("s", size).
			With("mode", w.Mode).
			With("colors", w.Color).
			WithInt("r", w.FPS),
	)
	g.Add([]string{"bg", "wave"}, []string{"v"},
		filtergraph.NewFilter("overlay").With("format", "auto"),
	)
	graph, err := g.String()
	if err != nil {
		return nil, err
	}

	args := []string{
		"-i", w.Audio,
		"-filter_complex", graph,
		"-map", "[v]",
		"-map", "0:a",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-y",
	}
	if w.Duration > 0 {
		args = append(args, "-t", ftoa(w.Duration))
	}
	return append(args, w.Output), nil
}

// Spectrogram renders audio as a scrolling frequency spectrum video.
type Spectrogram struct {
	Audio  string
	Output string

	Width  int
	Height int
	// Mode is combined or separate.
	Mode string
	// ColorMode is intensity or channel.
	ColorMode string
	// Scale is lin, log or sqrt.
	Scale      string
	Saturation float64
	// WindowFunc is the analysis window: rectangular, hanning, hamming, blackman.
	WindowFunc string
	FPS        int
	Duration   float64
}

// Args implements Op.
func (s Spectrogram) Args() ([]string, error) {
	if s.Audio == "" {
		return nil, ErrMissingInput
	}
	if s.Output == "" {
		return nil, ErrMissingOutput
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}

	g := &filtergraph.Graph{}
	g.Chain("0:a", "v",
		filtergraph.NewFilter("showspectrum").
			With("s", fmt.Sprintf("%dx%d", s.Width, s.Height)).
			With("mode", s.Mode).
			With("color", s.ColorMode).
			With("scale", s.Scale).
			WithFloat("saturation", s.Saturation).
			With("win_func", s.WindowFunc).
			WithInt("fps", s.FPS),
	)
	graph, err := g.String()
	if err != nil {
		return nil, err
	}

	args := []string{
		"-i", s.Audio,
		"-filter_complex", graph,
		"-map", "[v]",
		"-map", "0:a",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-y",
	}
	if s.Duration > 0 {
		args = append(args, "-t", ftoa(s.Duration))
	}
	return append(args, s.Output), nil
}

// VisualizationOverlay composites a waveform or spectrum, alpha-blended, over
// a prepared background video, muxing the audio in. Exactly one generator is
// selected by Type.
type VisualizationOverlay struct {
	Background string
	Audio      string
	Output     string

	Width  int
	Height int
	Type   VisualizationType

	WaveMode  string
	WaveColor string

	SpectrumMode       string
	SpectrumColor      string
	SpectrumScale      string
	SpectrumSaturation float64

	FPS     int
	Opacity float64
	// Duration limits the output length when positive.
	Duration float64
}

// Graph builds the overlay filter graph: scale the background, generate the
// visualization, multiply its alpha, composite, and force yuv420p.
func (v VisualizationOverlay) Graph() (*filtergraph.Graph, error) {
	if !v.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVisualization, v.Type)
	}
	if v.Width <= 0 || v.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, v.Width, v.Height)
	}

	size := fmt.Sprintf("%dx%d", v.Width, v.Height)
	g := &filtergraph.Graph{}
	g.Chain("0:v", "bg",
		filtergraph.NewFilter("scale").WithInt("", v.Width).WithInt("", v.Height),
	)

	if v.Type == VisualizationWaveform {
		g.Chain("1:a", "waves",
			filtergraph.NewFilter("showwaves").
				With("s", size).
				With("mode", v.WaveMode).
				With("colors", v.WaveColor).
				WithInt("r", v.FPS),
		)
		g.Chain("waves", "overlay",
			filtergraph.NewFilter("format").With("", "rgba"),
			filtergraph.NewFilter("colorchannelmixer").WithFloat("aa", v.Opacity),
		)
	} else {
		g.Chain("1:a", "spectrum",
			filtergraph.NewFilter("showspectrum").
				With("s", size).
				With("mode", v.SpectrumMode).
				With("color", v.SpectrumColor).
				With("scale", v.SpectrumScale).
				WithFloat("saturation", v.SpectrumSaturation).
				With("slide", "replace").
				WithInt("r", v.FPS),
		)
		g.Chain("spectrum", "overlay",
			filtergraph.NewFilter("format").With("", "rgba"),
			filtergraph.NewFilter("colorchannelmixer").WithFloat("aa", v.Opacity),
		)
	}

	g.Add([]string{"bg", "overlay"}, []string{"v"},
		filtergraph.NewFilter("overlay").
			WithInt("", 0).
			WithInt("", 0).
			With("format", "auto"),
		filtergraph.NewFilter("format").With("", "yuv420p"),
	)
	return g, nil
}

// Args implements Op.
func (v VisualizationOverlay) Args() ([]string, error) {
	if v.Background == "" || v.Audio == "" {
		return nil, ErrMissingInput
	}
	if v.Output == "" {
		return nil, ErrMissingOutput
	}
	g, err := v.Graph()
	if err != nil {
		return nil, err
	}
	graph, err := g.String()
	if err != nil {
		return nil, err
	}

	args := []string{
		"-i", v.Background,
		"-i", v.Audio,
		"-filter_complex", graph,
		"-map", "[v]",
		"-map", "1:a",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-y",
	}
	if v.Duration > 0 {
		args = append(args, "-t", ftoa(v.Duration))
	}
	return append(args, v.Output), nil
}

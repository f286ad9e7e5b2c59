package command

import (
	"fmt"

	"github.com/mediaforge/mediaforge-api/internal/filtergraph"
)

// VocalMode selects which part of a stereo mix to keep.
type VocalMode string

const (
	// ModeVocals keeps the center-panned vocal band.
	ModeVocals VocalMode = "vocals"
	// ModeInstrumental suppresses the vocal band and center channel.
	ModeInstrumental VocalMode = "instrumental"
)

// IsValid returns true for one of the two supported modes. Anything else is
// rejected, never defaulted.
func (m VocalMode) IsValid() bool {
	return m == ModeVocals || m == ModeInstrumental
}

// stereotools accepts mlev/slev in this range; computed coefficients are
// clamped into it so the instrumental formula cannot go negative.
const (
	stereoLevelMin = 0.015625
	stereoLevelMax = 64.0
)

func clampStereoLevel(v float64) float64 {
	if v < stereoLevelMin {
		return stereoLevelMin
	}
	if v > stereoLevelMax {
		return stereoLevelMax
	}
	return v
}

// VocalSplit isolates vocals or the instrumental from a stereo track by
// splitting the channels, band-passing each independently, rejoining, and
// adjusting the mid/side levels. The band between LowFreq and HighFreq is the
// pass band in vocals mode; instrumental mode swaps the cutoffs to reject it.
type VocalSplit struct {
	Input  string
	Output string

	Mode VocalMode

	// LowFreq is the lower band edge in Hz (high-pass cutoff in vocals mode).
	LowFreq int
	// HighFreq is the upper band edge in Hz (low-pass cutoff in vocals mode).
	HighFreq int

	// CenterBoost scales the mid channel in vocals mode; instrumental mode
	// uses 1-CenterBoost, clamped to the filter's valid range.
	CenterBoost float64
	// SideReduction scales the side channel in vocals mode; instrumental
	// mode uses 1+SideReduction, clamped likewise.
	SideReduction float64
}

// Graph builds the channel-split filter graph for the selected mode.
func (vs VocalSplit) Graph() (*filtergraph.Graph, error) {
	if !vs.Mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVocalMode, vs.Mode)
	}

	highpassCutoff, lowpassCutoff := vs.LowFreq, vs.HighFreq
	midLevel, sideLevel := vs.CenterBoost, vs.SideReduction
	if vs.Mode == ModeInstrumental {
		highpassCutoff, lowpassCutoff = vs.HighFreq, vs.LowFreq
		midLevel = 1 - vs.CenterBoost
		sideLevel = 1 + vs.SideReduction
	}

	g := &filtergraph.Graph{}
	g.Add(nil, []string{"left", "right"},
		filtergraph.NewFilter("channelsplit").With("channel_layout", "stereo"),
	)
	for _, ch := range []struct{ in, out string }{
		{"left", "l_filtered"},
		{"right", "r_filtered"},
	} {
		g.Chain(ch.in, ch.out,
			filtergraph.NewFilter("highpass").WithInt("f", highpassCutoff),
			filtergraph.NewFilter("lowpass").WithInt("f", lowpassCutoff),
		)
	}
	g.Add([]string{"l_filtered", "r_filtered"}, []string{"out"},
		filtergraph.NewFilter("join").
			WithInt("inputs", 2).
			With("channel_layout", "stereo"),
		filtergraph.NewFilter("stereotools").
			WithFloat("mlev", clampStereoLevel(midLevel)).
			WithFloat("slev", clampStereoLevel(sideLevel)).
			WithInt("mode", 1),
	)
	return g, nil
}

// Args implements Op.
func (vs VocalSplit) Args() ([]string, error) {
	if vs.Input == "" {
		return nil, ErrMissingInput
	}
	if vs.Output == "" {
		return nil, ErrMissingOutput
	}
	g, err := vs.Graph()
	if err != nil {
		return nil, err
	}
	graph, err := g.String()
	if err != nil {
		return nil, err
	}

	return []string{
		"-y",
		"-i", vs.Input,
		"-filter_complex", graph,
		"-map", "[out]",
		"-c:a", "libmp3lame",
		"-q:a", "0",
		"-b:a", "320k",
		vs.Output,
	}, nil
}

package server

import (
	"net/http"
	"path/filepath"

	"github.com/mediaforge/mediaforge-api/internal/command"
)

// Convert handles POST /convert: single file in, transcoded file out.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	req := ConvertRequest{
		OutputFormat: formString(r, "output_format", "mp4"),
		VideoCodec:   r.FormValue("video_codec"),
		AudioCodec:   r.FormValue("audio_codec"),
	}
	var err error
	if req.Width, err = formInt(r, "width", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Height, err = formInt(r, "height", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("convert")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}
	defer h.cleanupWorkDir(dir)

	input, err := h.stageUpload(r, dir, "file", "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file upload is required", "MISSING_FILE")
		return
	}

	output := filepath.Join(dir, "output."+req.OutputFormat)
	op := command.Convert{
		Input:      input,
		Output:     output,
		VideoCodec: req.VideoCodec,
		AudioCodec: req.AudioCodec,
		Width:      req.Width,
		Height:     req.Height,
	}
	if !h.runSync(w, r, op, output) {
		return
	}
	h.serveResult(w, output, "converted."+req.OutputFormat, req.OutputFormat)
}

// CreateVideo handles POST /create_video: image slideshow with transitions
// over an audio track.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	req := CreateVideoRequest{
		OutputFormat:   formString(r, "output_format", "mp4"),
		TransitionType: formString(r, "transition_type", "fade"),
	}
	var err error
	if req.Width, err = formInt(r, "width", 1920); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Height, err = formInt(r, "height", 1080); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.DurationPerImage, err = formFloat(r, "duration_per_image", 5.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.TransitionDuration, err = formFloat(r, "transition_duration", 2.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("slideshow")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}
	defer h.cleanupWorkDir(dir)

	images, err := h.stageImages(r, dir, "images")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	audio, err := h.stageUpload(r, dir, "audio", "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio upload is required", "MISSING_FILE")
		return
	}

	output := filepath.Join(dir, "output."+req.OutputFormat)
	op := command.Slideshow{
		Images:             images,
		Audio:              audio,
		Output:             output,
		Width:              req.Width,
		Height:             req.Height,
		DurationPerImage:   req.DurationPerImage,
		Transition:         command.Transition(req.TransitionType),
		TransitionDuration: req.TransitionDuration,
	}
	if !h.runSync(w, r, op, output) {
		return
	}
	h.serveResult(w, output, "slideshow."+req.OutputFormat, req.OutputFormat)
}

// AddSubtitle handles POST /add_subtitle: burn an SRT file into a video with
// a rendered ASS style.
func (h *Handlers) AddSubtitle(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	styleReq, err := parseStyleRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	req := AddSubtitleRequest{
		OutputFormat: formString(r, "output_format", "mp4"),
		Style:        styleReq,
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("subtitle")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}
	defer h.cleanupWorkDir(dir)

	video, err := h.stageUpload(r, dir, "video", "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "video upload is required", "MISSING_FILE")
		return
	}
	subtitle, err := h.stageUpload(r, dir, "subtitle", "subtitles.srt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "subtitle upload is required", "MISSING_FILE")
		return
	}

	output := filepath.Join(dir, "output."+req.OutputFormat)
	op := command.SubtitleBurn{
		Video:    video,
		Subtitle: subtitle,
		Output:   output,
		Style:    req.Style.toDescriptor(),
	}
	if !h.runSync(w, r, op, output) {
		return
	}
	h.serveResult(w, output, "subtitled."+req.OutputFormat, req.OutputFormat)
}

// CreateWaveform handles POST /create_waveform.
func (h *Handlers) CreateWaveform(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	req := CreateWaveformRequest{
		OutputFormat:    formString(r, "output_format", "mp4"),
		WaveMode:        formString(r, "wave_mode", "line"),
		WaveColor:       formString(r, "wave_color", "white"),
		BackgroundColor: formString(r, "background_color", "black"),
	}
	var err error
	if req.Width, err = formInt(r, "width", 1920); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Height, err = formInt(r, "height", 1080); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.FPS, err = formInt(r, "fps", 30); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Duration, err = formFloat(r, "duration", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("waveform")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}
	defer h.cleanupWorkDir(dir)

	audio, err := h.stageUpload(r, dir, "audio", "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio upload is required", "MISSING_FILE")
		return
	}

	output := filepath.Join(dir, "output."+req.OutputFormat)
	op := command.Waveform{
		Audio:           audio,
		Output:          output,
		Width:           req.Width,
		Height:          req.Height,
		Mode:            req.WaveMode,
		Color:           req.WaveColor,
		BackgroundColor: req.BackgroundColor,
		FPS:             req.FPS,
		Duration:        req.Duration,
	}
	if !h.runSync(w, r, op, output) {
		return
	}
	h.serveResult(w, output, "waveform."+req.OutputFormat, req.OutputFormat)
}

// CreateSpectrogram handles POST /create_spectrogram.
func (h *Handlers) CreateSpectrogram(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	req := CreateSpectrogramRequest{
		OutputFormat: formString(r, "output_format", "mp4"),
		Mode:         formString(r, "mode", "combined"),
		ColorMode:    formString(r, "color_mode", "intensity"),
		Scale:        formString(r, "scale", "log"),
		WindowFunc:   formString(r, "win_func", "hanning"),
	}
	var err error
	if req.Width, err = formInt(r, "width", 1920); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Height, err = formInt(r, "height", 1080); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Saturation, err = formFloat(r, "saturation", 1.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.FPS, err = formInt(r, "fps", 30); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Duration, err = formFloat(r, "duration", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("spectrogram")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}
	defer h.cleanupWorkDir(dir)

	audio, err := h.stageUpload(r, dir, "audio", "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio upload is required", "MISSING_FILE")
		return
	}

	output := filepath.Join(dir, "output."+req.OutputFormat)
	op := command.Spectrogram{
		Audio:      audio,
		Output:     output,
		Width:      req.Width,
		Height:     req.Height,
		Mode:       req.Mode,
		ColorMode:  req.ColorMode,
		Scale:      req.Scale,
		Saturation: req.Saturation,
		WindowFunc: req.WindowFunc,
		FPS:        req.FPS,
		Duration:   req.Duration,
	}
	if !h.runSync(w, r, op, output) {
		return
	}
	h.serveResult(w, output, "spectrogram."+req.OutputFormat, req.OutputFormat)
}

// SeparateVocals handles POST /separate_vocals.
func (h *Handlers) SeparateVocals(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	req := SeparateVocalsRequest{
		OutputFormat: formString(r, "output_format", "mp3"),
		VocalType:    formString(r, "vocal_type", "vocals"),
	}
	var err error
	if req.HighFreq, err = formInt(r, "high_freq", 4000); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.LowFreq, err = formInt(r, "low_freq", 300); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.CenterBoost, err = formFloat(r, "center_boost", 2.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.SideReduction, err = formFloat(r, "side_reduction", 0.7); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("vocals")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}
	defer h.cleanupWorkDir(dir)

	audio, err := h.stageUpload(r, dir, "audio", "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio upload is required", "MISSING_FILE")
		return
	}

	output := filepath.Join(dir, "output."+req.OutputFormat)
	op := command.VocalSplit{
		Input:         audio,
		Output:        output,
		Mode:          command.VocalMode(req.VocalType),
		LowFreq:       req.LowFreq,
		HighFreq:      req.HighFreq,
		CenterBoost:   req.CenterBoost,
		SideReduction: req.SideReduction,
	}
	if !h.runSync(w, r, op, output) {
		return
	}
	h.serveResult(w, output, req.VocalType+"."+req.OutputFormat, req.OutputFormat)
}

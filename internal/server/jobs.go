package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mediaforge/mediaforge-api/internal/command"
	"github.com/mediaforge/mediaforge-api/internal/job"
)

// eventPollInterval is how often the events socket re-reads the job record.
const eventPollInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware; the socket
	// carries no credentials.
	CheckOrigin: func(*http.Request) bool { return true },
}

// CreateVisualization handles POST /visualizations: stage the uploads, create
// the job, and run the pipeline in the background.
func (h *Handlers) CreateVisualization(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	styleReq, err := parseStyleRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	req := CreateVisualizationRequest{
		OutputFormat:      formString(r, "output_format", "mp4"),
		VisualizationType: formString(r, "visualization_type", "waveform"),
		WaveMode:          formString(r, "wave_mode", "line"),
		WaveColor:         formString(r, "wave_color", "white"),
		SpectrumMode:      formString(r, "spectrum_mode", "combined"),
		SpectrumColor:     formString(r, "spectrum_color", "intensity"),
		SpectrumScale:     formString(r, "spectrum_scale", "log"),
		Style:             styleReq,
	}
	if req.Width, err = formInt(r, "width", 1920); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Height, err = formInt(r, "height", 1080); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.ImageDuration, err = formFloat(r, "image_duration", 5.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.SpectrumSaturation, err = formFloat(r, "spectrum_saturation", 1.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.FPS, err = formInt(r, "fps", 30); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Opacity, err = formFloat(r, "opacity", 0.8); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.Duration, err = formFloat(r, "duration", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if req.PushToS3, err = formBool(r, "push_to_s3", false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if !h.validateRequest(w, req) {
		return
	}

	dir, err := h.stager.CreateWorkDir("viz")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage request", "STAGING_FAILED")
		return
	}

	params, err := h.stageVisualizationInputs(r, dir, req)
	if err != nil {
		h.cleanupWorkDir(dir)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	created, err := h.runner.Submit(r.Context(), params, dir)
	if err != nil {
		h.cleanupWorkDir(dir)
		h.logger.Error("failed to submit job", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// The pipeline outlives the request; detach it from the request context.
	go h.runner.Process(context.WithoutCancel(r.Context()), created)

	h.logger.Info("visualization job created",
		slog.String("job_id", created.ID),
		slog.String("type", req.VisualizationType),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:     created.ID,
		Status: string(created.Status),
	})
}

// stageVisualizationInputs saves the uploads into the job's work directory
// and builds the parameter snapshot.
func (h *Handlers) stageVisualizationInputs(r *http.Request, dir string, req CreateVisualizationRequest) (job.Params, error) {
	var params job.Params

	audio, err := h.stageUpload(r, dir, "audio", "")
	if err != nil {
		return params, errors.New("audio upload is required")
	}

	images, err := h.stageImages(r, dir, "backgrounds")
	if err != nil {
		return params, err
	}

	subtitlePath := ""
	if _, _, err := r.FormFile("subtitle"); err == nil {
		subtitlePath, err = h.stageUpload(r, dir, "subtitle", "subtitles.srt")
		if err != nil {
			return params, err
		}
	}

	return job.Params{
		AudioPath:          audio,
		ImagePaths:         images,
		SubtitlePath:       subtitlePath,
		OutputFormat:       req.OutputFormat,
		Width:              req.Width,
		Height:             req.Height,
		ImageDuration:      req.ImageDuration,
		Visualization:      command.VisualizationType(req.VisualizationType),
		WaveMode:           req.WaveMode,
		WaveColor:          req.WaveColor,
		SpectrumMode:       req.SpectrumMode,
		SpectrumColor:      req.SpectrumColor,
		SpectrumScale:      req.SpectrumScale,
		SpectrumSaturation: req.SpectrumSaturation,
		FPS:                req.FPS,
		Opacity:            req.Opacity,
		Duration:           req.Duration,
		Style:              req.Style.toDescriptor(),
		PushToS3:           req.PushToS3,
	}, nil
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.runner.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, jobResponse(found))
}

// DownloadJob handles GET /jobs/{id}/download requests. A completed job whose
// file was already reclaimed yields 404, same as an unknown job.
func (h *Handlers) DownloadJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	found, err := h.runner.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	if found.Status != job.StatusCompleted {
		writeError(w, http.StatusConflict, "job has no result yet", "RESULT_NOT_READY")
		return
	}

	if _, err := os.Stat(found.ResultPath); err != nil {
		// Reclaimed between lookup and open.
		writeError(w, http.StatusNotFound, "result no longer available", "RESULT_RECLAIMED")
		return
	}

	name := "visualization" + filepath.Ext(found.ResultPath)
	h.serveResult(w, found.ResultPath, name, found.Params.OutputFormat)
}

// JobEvents handles GET /jobs/{id}/events: upgrade to a websocket and push
// job snapshots until the job reaches a terminal state.
func (h *Handlers) JobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	found, err := h.runner.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// Discard client frames but notice disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(jobResponse(found)); err != nil {
			return
		}
		if found.Status == job.StatusCompleted || found.Status == job.StatusFailed {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(found.Status)))
			return
		}

		select {
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		found, err = h.runner.Get(r.Context(), jobID)
		if err != nil {
			// Reclaimed mid-stream; nothing further to report.
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "job no longer available"))
			return
		}
	}
}

// jobResponse converts a job snapshot to its API representation.
func jobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:       j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Error:    j.Error,
	}
	if j.Status == job.StatusCompleted {
		resp.DownloadURL = "/jobs/" + j.ID + "/download"
		resp.ResultURL = j.ResultURL
	}
	return resp
}

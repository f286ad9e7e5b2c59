package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/mediaforge/mediaforge-api/internal/command"
	"github.com/mediaforge/mediaforge-api/internal/engine"
	"github.com/mediaforge/mediaforge-api/internal/job"
	"github.com/mediaforge/mediaforge-api/internal/storage"
)

// defaultMaxUploadBytes caps multipart bodies when no limit is configured.
const defaultMaxUploadBytes = 512 << 20

// multipartMemoryBytes is the in-memory threshold for multipart parsing;
// larger parts spill to disk.
const multipartMemoryBytes = 16 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	engine         engine.Runner
	stager         storage.Stager
	runner         *job.Runner
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes overrides the multipart body size limit.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng engine.Runner, stager storage.Stager, runner *job.Runner, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		engine:         eng,
		stager:         stager,
		runner:         runner,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// parseMultipart bounds the body and parses the multipart form.
func (h *Handlers) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return false
	}
	return true
}

// validateRequest runs struct validation and writes the 400 response itself.
func (h *Handlers) validateRequest(w http.ResponseWriter, req any) bool {
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// stageUpload saves one named multipart file into the work directory.
func (h *Handlers) stageUpload(r *http.Request, dir, field, name string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("missing file field %q: %w", field, err)
	}
	defer file.Close()

	if name == "" {
		name = header.Filename
	}
	path, err := h.stager.SaveUpload(r.Context(), dir, name, file)
	if err != nil {
		return "", fmt.Errorf("stage upload %q: %w", field, err)
	}
	return path, nil
}

// stageImages saves every file uploaded under field, preserving upload order
// with zero-padded names so the slideshow sequence is stable.
func (h *Handlers) stageImages(r *http.Request, dir, field string) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, fmt.Errorf("at least one %q upload is required", field)
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("at least one %q upload is required", field)
	}

	paths := make([]string, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", field, err)
		}
		name := fmt.Sprintf("img_%04d%s", i, filepath.Ext(fh.Filename))
		path, err := h.stager.SaveUpload(r.Context(), dir, name, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("stage upload %q: %w", field, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// runSync executes a fully assembled operation for a synchronous endpoint,
// translating assembly errors to 400 and engine failures to 500.
func (h *Handlers) runSync(w http.ResponseWriter, r *http.Request, op command.Op, output string) bool {
	args, err := op.Args()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}

	if err := h.engine.Run(r.Context(), args); err != nil {
		var engErr *engine.Error
		if errors.As(err, &engErr) {
			h.logger.Error("ffmpeg invocation failed",
				slog.String("path", r.URL.Path),
				slog.String("stderr", engErr.Stderr),
			)
		} else {
			h.logger.Error("ffmpeg invocation failed",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, http.StatusInternalServerError, "media processing failed", "ENGINE_FAILED")
		return false
	}

	if _, err := os.Stat(output); err != nil {
		h.logger.Error("engine reported success but output is missing",
			slog.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "media processing failed", "ENGINE_FAILED")
		return false
	}
	return true
}

// serveResult streams a produced file back as an attachment.
func (h *Handlers) serveResult(w http.ResponseWriter, path, downloadName, format string) {
	f, err := os.Open(path) // #nosec G304 - path is inside a server-created work directory
	if err != nil {
		h.logger.Error("cannot open result file", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "result file unavailable", "RESULT_UNAVAILABLE")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "result file unavailable", "RESULT_UNAVAILABLE")
		return
	}

	w.Header().Set("Content-Type", outputMIME(format))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("result streaming interrupted", slog.String("error", err.Error()))
	}
}

// outputMIME maps an output container extension to a content type.
func outputMIME(format string) string {
	switch format {
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mkv":
		return "video/x-matroska"
	case "avi":
		return "video/x-msvideo"
	case "mov":
		return "video/quicktime"
	case "gif":
		return "image/gif"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "ogg":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	}
	if t := mime.TypeByExtension("." + format); t != "" {
		return t
	}
	return "application/octet-stream"
}

// cleanupWorkDir removes a request's work directory, logging failures.
func (h *Handlers) cleanupWorkDir(dir string) {
	if err := h.stager.Remove(dir); err != nil {
		h.logger.Warn("cannot remove work directory",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
	}
}

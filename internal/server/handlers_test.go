package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge/mediaforge-api/internal/engine"
	"github.com/mediaforge/mediaforge-api/internal/job"
	"github.com/mediaforge/mediaforge-api/internal/storage"
)

// fakeEngine records invocations and writes each declared output file so the
// handlers' existence checks pass.
type fakeEngine struct {
	mu     sync.Mutex
	calls  [][]string
	failOn int
}

func (f *fakeEngine) Run(_ context.Context, args []string) error {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	n := len(f.calls)
	f.mu.Unlock()

	if f.failOn == n {
		return &engine.Error{Args: args, Stderr: "conversion failed", Err: errors.New("exit status 1")}
	}
	return os.WriteFile(args[len(args)-1], []byte("fake media output"), 0o644)
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) call(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type testEnv struct {
	handlers *Handlers
	engine   *fakeEngine
	repo     job.Repository
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	eng := &fakeEngine{}
	stager, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	repo := job.NewMemoryRepository()
	runner := job.NewRunner(repo, eng, nil, nil, nil)

	h := NewHandlers(eng, stager, runner, nil)
	return &testEnv{
		handlers: h,
		engine:   eng,
		repo:     repo,
		router:   NewRouter(h, nil, DefaultConfig()),
	}
}

type filePart struct {
	field   string
	name    string
	content string
}

func multipartRequest(t *testing.T, url string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestConvert_Passthrough(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/convert",
		map[string]string{"output_format": "mp4"},
		filePart{field: "file", name: "movie.avi", content: "raw video"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "fake media output", rec.Body.String())

	require.Equal(t, 1, env.engine.callCount())
	args := env.engine.call(0)
	// No codec or scale flags when none were requested.
	assert.NotContains(t, args, "-vcodec")
	assert.NotContains(t, args, "-acodec")
	assert.NotContains(t, args, "-vf")
}

func TestConvert_WithCodecsAndScale(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/convert",
		map[string]string{
			"output_format": "webm",
			"video_codec":   "libvpx",
			"audio_codec":   "libvorbis",
			"width":         "640",
			"height":        "480",
		},
		filePart{field: "file", name: "movie.mp4", content: "raw"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "video/webm", rec.Header().Get("Content-Type"))

	args := env.engine.call(0)
	assert.Contains(t, args, "-vcodec")
	assert.Contains(t, args, "libvpx")
	assert.Contains(t, args, "scale=640:480")
}

func TestConvert_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/convert", map[string]string{"output_format": "mp4"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_FILE", decodeError(t, rec.Body).Code)
	assert.Equal(t, 0, env.engine.callCount())
}

func TestConvert_EngineFailure(t *testing.T) {
	env := newTestEnv(t)
	env.engine.failOn = 1

	req := multipartRequest(t, "/convert",
		map[string]string{"output_format": "mp4"},
		filePart{field: "file", name: "movie.avi", content: "raw"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "ENGINE_FAILED", resp.Code)
	// Engine diagnostics stay in the logs, not the client response.
	assert.NotContains(t, resp.Error, "conversion failed")
}

func TestCreateVideo_TransitionTooLong(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/create_video",
		map[string]string{
			"duration_per_image":  "2",
			"transition_duration": "2",
		},
		filePart{field: "images", name: "a.png", content: "img"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec.Body).Code)
	assert.Equal(t, 0, env.engine.callCount(), "validation must run before the subprocess")
}

func TestCreateVideo_NoImages(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/create_video",
		map[string]string{"output_format": "mp4"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.engine.callCount())
}

func TestCreateVideo_Success(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/create_video",
		map[string]string{
			"duration_per_image":  "5",
			"transition_duration": "2",
			"transition_type":     "fade",
		},
		filePart{field: "images", name: "a.png", content: "img"},
		filePart{field: "images", name: "b.png", content: "img"},
		filePart{field: "images", name: "c.png", content: "img"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	args := env.engine.call(0)
	assert.Contains(t, args, "-filter_complex")
	// Audio is the input after the three images.
	assert.Contains(t, args, "3:a")
}

func TestAddSubtitle_Success(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/add_subtitle",
		map[string]string{
			"font_color": "yellow",
			"font_alpha": "1.0",
		},
		filePart{field: "video", name: "movie.mp4", content: "video"},
		filePart{field: "subtitle", name: "movie.srt", content: "1\n00:00:00,000 --> 00:00:01,000\nhi\n"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	joined := joinArgs(env.engine.call(0))
	assert.Contains(t, joined, "subtitles=")
	assert.Contains(t, joined, "force_style='")
	// Opaque yellow in AABBGGRR order.
	assert.Contains(t, joined, "PrimaryColour=&H0000FFFF")
}

func TestCreateWaveform_Success(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/create_waveform",
		map[string]string{"wave_mode": "cline", "wave_color": "blue"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	joined := joinArgs(env.engine.call(0))
	assert.Contains(t, joined, "showwaves=")
	assert.Contains(t, joined, "mode=cline")
	assert.Contains(t, joined, "colors=blue")
}

func TestCreateWaveform_BadMode(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/create_waveform",
		map[string]string{"wave_mode": "zigzag"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.engine.callCount())
}

func TestCreateSpectrogram_Success(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/create_spectrogram",
		map[string]string{"scale": "sqrt", "win_func": "blackman"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	joined := joinArgs(env.engine.call(0))
	assert.Contains(t, joined, "showspectrum=")
	assert.Contains(t, joined, "scale=sqrt")
	assert.Contains(t, joined, "win_func=blackman")
}

func TestSeparateVocals_UnknownMode(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/separate_vocals",
		map[string]string{"vocal_type": "karaoke"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec.Body).Code)
	assert.Equal(t, 0, env.engine.callCount())
}

func TestSeparateVocals_Success(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/separate_vocals",
		map[string]string{"vocal_type": "vocals"},
		filePart{field: "audio", name: "song.mp3", content: "audio"},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))

	joined := joinArgs(env.engine.call(0))
	assert.Contains(t, joined, "channelsplit=channel_layout=stereo")
	assert.Contains(t, joined, "stereotools=mlev=2:slev=0.7:mode=1")
}

func joinArgs(args []string) string {
	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	return joined
}

func visualizationRequest(t *testing.T, fields map[string]string, withSubtitle bool) *http.Request {
	t.Helper()
	files := []filePart{
		{field: "audio", name: "song.mp3", content: "audio"},
		{field: "backgrounds", name: "bg1.png", content: "img"},
		{field: "backgrounds", name: "bg2.png", content: "img"},
	}
	if withSubtitle {
		files = append(files, filePart{field: "subtitle", name: "lyrics.srt", content: "1\n00:00:00,000 --> 00:00:01,000\nla\n"})
	}
	return multipartRequest(t, "/visualizations", fields, files...)
}

func waitForTerminal(t *testing.T, env *testEnv, id string) *job.Job {
	t.Helper()
	var final *job.Job
	require.Eventually(t, func() bool {
		j, err := env.repo.FindByID(context.Background(), id)
		if err != nil {
			return false
		}
		if j.Status == job.StatusCompleted || j.Status == job.StatusFailed {
			final = j
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return final
}

func TestCreateVisualization_CompletesJob(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, visualizationRequest(t, map[string]string{"visualization_type": "waveform"}, false))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var created CreateJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, string(job.StatusPending), created.Status)

	final := waitForTerminal(t, env, created.ID)
	assert.Equal(t, job.StatusCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)

	// Two stages without subtitles.
	assert.Equal(t, 2, env.engine.callCount())
}

func TestCreateVisualization_WithSubtitlesRunsThreeStages(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, visualizationRequest(t, map[string]string{"visualization_type": "spectrum"}, true))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var created CreateJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	final := waitForTerminal(t, env, created.ID)
	assert.Equal(t, job.StatusCompleted, final.Status)
	assert.Equal(t, 3, env.engine.callCount())
}

func TestCreateVisualization_BadType(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, visualizationRequest(t, map[string]string{"visualization_type": "lasers"}, false))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.engine.callCount())
}

func TestGetJob_LifecycleAndDownload(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, visualizationRequest(t, nil, false))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created CreateJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	waitForTerminal(t, env, created.ID)

	// Poll
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var polled JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&polled))
	assert.Equal(t, string(job.StatusCompleted), polled.Status)
	assert.Equal(t, "/jobs/"+created.ID+"/download", polled.DownloadURL)

	// Download
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, polled.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "fake media output", rec.Body.String())
}

func TestGetJob_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", decodeError(t, rec.Body).Code)
}

func TestDownloadJob_NotReady(t *testing.T) {
	env := newTestEnv(t)

	pending := job.New(job.Params{OutputFormat: "mp4"}, t.TempDir())
	require.NoError(t, env.repo.Save(context.Background(), pending))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+pending.ID+"/download", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESULT_NOT_READY", decodeError(t, rec.Body).Code)
}

func TestDownloadJob_Reclaimed(t *testing.T) {
	env := newTestEnv(t)

	done := job.New(job.Params{OutputFormat: "mp4"}, t.TempDir())
	require.NoError(t, done.Start())
	require.NoError(t, done.Complete("/nonexistent/result.mp4", ""))
	require.NoError(t, env.repo.Save(context.Background(), done))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+done.ID+"/download", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESULT_RECLAIMED", decodeError(t, rec.Body).Code)
}

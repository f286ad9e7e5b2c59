package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mediaforge/mediaforge-api/internal/command"
	"github.com/mediaforge/mediaforge-api/internal/engine"
)

// Publisher uploads a completed result and returns its public URL.
type Publisher interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Progress checkpoints reported between pipeline stages.
const (
	progressStaged     = 10
	progressBackground = 40
	progressOverlay    = 70
)

// Intermediate file names inside a job's work directory.
const (
	backgroundFileName = "background.mp4"
	overlayFileName    = "overlay.mp4"
)

// Runner executes the multi-stage visualization pipeline for submitted jobs.
// Each job runs in its own goroutine; all shared state goes through the
// repository as snapshots.
type Runner struct {
	repo      Repository
	engine    engine.Runner
	prober    engine.Prober
	publisher Publisher
	metrics   *Metrics
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProber supplies a metadata prober so the background track can be sized
// to the audio's real length.
func WithProber(p engine.Prober) RunnerOption {
	return func(r *Runner) {
		r.prober = p
	}
}

// NewRunner creates a pipeline runner. publisher and metrics may be nil.
func NewRunner(repo Repository, eng engine.Runner, publisher Publisher, metrics *Metrics, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		repo:      repo,
		engine:    eng,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit creates a Pending job owning workDir and persists it. The caller has
// already staged every input under workDir.
func (r *Runner) Submit(ctx context.Context, params Params, workDir string) (*Job, error) {
	j := New(params, workDir)

	r.logger.Info("job submitted",
		slog.String("job_id", j.ID),
		slog.String("visualization", string(params.Visualization)),
		slog.Int("images", len(params.ImagePaths)),
		slog.Bool("subtitles", params.SubtitlePath != ""),
	)

	if err := r.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job %s: %w", j.ID, err)
	}
	r.metrics.JobSubmitted()
	return j, nil
}

// Get retrieves a snapshot of a job by ID.
func (r *Runner) Get(ctx context.Context, id string) (*Job, error) {
	return r.repo.FindByID(ctx, id)
}

// Process runs the full pipeline for the job and drives it to a terminal
// state. On failure the whole work directory is removed; on success only the
// intermediates are, leaving the result file for download until reclamation.
func (r *Runner) Process(ctx context.Context, j *Job) {
	log := r.logger.With(slog.String("job_id", j.ID))

	if err := j.Start(); err != nil {
		log.Error("cannot start job", slog.String("error", err.Error()))
		return
	}
	j.UpdateProgress(progressStaged)
	r.save(ctx, j)
	r.metrics.PipelineStarted()
	started := time.Now()

	resultPath, err := r.runStages(ctx, j, log)
	if err != nil {
		r.fail(ctx, j, err, log)
		r.metrics.PipelineFinished(false, time.Since(started).Seconds())
		return
	}

	resultURL := ""
	if j.Params.PushToS3 && r.publisher != nil {
		key := j.ID + filepath.Ext(resultPath)
		resultURL, err = r.publisher.Upload(ctx, resultPath, key)
		if err != nil {
			r.fail(ctx, j, fmt.Errorf("publish result: %w", err), log)
			r.metrics.PipelineFinished(false, time.Since(started).Seconds())
			return
		}
	}

	r.removeIntermediates(j, resultPath, log)

	if err := j.Complete(resultPath, resultURL); err != nil {
		log.Error("cannot complete job", slog.String("error", err.Error()))
		return
	}
	r.save(ctx, j)
	r.metrics.PipelineFinished(true, time.Since(started).Seconds())
	log.Info("job completed", slog.String("result", resultPath))
}

// runStages executes the stage chain and returns the final output path.
func (r *Runner) runStages(ctx context.Context, j *Job, log *slog.Logger) (string, error) {
	p := j.Params

	finalPath := filepath.Join(j.WorkDir, "result."+p.OutputFormat)
	backgroundPath := filepath.Join(j.WorkDir, backgroundFileName)

	// Stage 1: still images into a silent background track.
	background := command.BackgroundVideo{
		Images:        p.ImagePaths,
		Output:        backgroundPath,
		Width:         p.Width,
		Height:        p.Height,
		ImageDuration: r.backgroundImageDuration(ctx, p, log),
	}
	if err := r.runStage(ctx, "background", background, backgroundPath, log); err != nil {
		return "", err
	}
	j.UpdateProgress(progressBackground)
	r.save(ctx, j)

	// Stage 2: composite the audio visualization over the background. When no
	// subtitles follow, this stage writes the final file directly.
	overlayPath := finalPath
	if p.SubtitlePath != "" {
		overlayPath = filepath.Join(j.WorkDir, overlayFileName)
	}
	overlay := command.VisualizationOverlay{
		Background:         backgroundPath,
		Audio:              p.AudioPath,
		Output:             overlayPath,
		Width:              p.Width,
		Height:             p.Height,
		Type:               p.Visualization,
		WaveMode:           p.WaveMode,
		WaveColor:          p.WaveColor,
		SpectrumMode:       p.SpectrumMode,
		SpectrumColor:      p.SpectrumColor,
		SpectrumScale:      p.SpectrumScale,
		SpectrumSaturation: p.SpectrumSaturation,
		FPS:                p.FPS,
		Opacity:            p.Opacity,
		Duration:           p.Duration,
	}
	if err := r.runStage(ctx, "overlay", overlay, overlayPath, log); err != nil {
		return "", err
	}
	j.UpdateProgress(progressOverlay)
	r.save(ctx, j)

	// Stage 3: burn subtitles, when provided.
	if p.SubtitlePath != "" {
		burn := command.SubtitleBurn{
			Video:    overlayPath,
			Subtitle: p.SubtitlePath,
			Output:   finalPath,
			Style:    p.Style,
		}
		if err := r.runStage(ctx, "subtitles", burn, finalPath, log); err != nil {
			return "", err
		}
	}

	return finalPath, nil
}

// backgroundImageDuration stretches the per-image duration when the images at
// their requested length fall short of the audio, so the overlay stage's
// -shortest does not truncate the output at the background's end. Without a
// prober the requested duration is used as-is.
func (r *Runner) backgroundImageDuration(ctx context.Context, p Params, log *slog.Logger) float64 {
	per := p.ImageDuration
	if r.prober == nil {
		return per
	}

	total, err := r.prober.Duration(ctx, p.AudioPath)
	if err != nil {
		log.Warn("cannot probe audio duration", slog.String("error", err.Error()))
		return per
	}
	if p.Duration > 0 && p.Duration < total {
		total = p.Duration
	}
	if n := len(p.ImagePaths); n > 0 {
		if stretched := total / float64(n); stretched > per {
			per = stretched
		}
	}
	return per
}

// runStage assembles and runs one operation, then verifies it produced output.
func (r *Runner) runStage(ctx context.Context, name string, op command.Op, output string, log *slog.Logger) error {
	args, err := op.Args()
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	log.Info("running pipeline stage", slog.String("stage", name))
	if err := r.engine.Run(ctx, args); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("stage %s produced no output: %w", name, err)
	}
	return nil
}

// fail drives the job to FAILED and reclaims its work directory, staged
// inputs and partial intermediates included.
func (r *Runner) fail(ctx context.Context, j *Job, cause error, log *slog.Logger) {
	log.Error("job failed", slog.String("error", cause.Error()))

	if err := j.Fail(cause.Error()); err != nil {
		log.Error("cannot mark job failed", slog.String("error", err.Error()))
	}
	r.save(ctx, j)

	if j.WorkDir != "" {
		if err := os.RemoveAll(j.WorkDir); err != nil {
			log.Warn("cannot remove work directory", slog.String("error", err.Error()))
		}
	}
}

// removeIntermediates deletes stage outputs the client never downloads.
func (r *Runner) removeIntermediates(j *Job, resultPath string, log *slog.Logger) {
	for _, name := range []string{backgroundFileName, overlayFileName} {
		path := filepath.Join(j.WorkDir, name)
		if path == resultPath {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("cannot remove intermediate",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}
}

// save persists the job's current snapshot, logging rather than failing the
// pipeline on repository errors.
func (r *Runner) save(ctx context.Context, j *Job) {
	if err := r.repo.Save(ctx, j); err != nil {
		r.logger.Error("cannot persist job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}

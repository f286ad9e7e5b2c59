// Package job provides the Job aggregate for asynchronous media-processing
// requests: the lifecycle state machine, repository interfaces for
// persistence, the staged pipeline runner, and the reclamation sweeper.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/mediaforge/mediaforge-api/internal/command"
	"github.com/mediaforge/mediaforge-api/internal/job/id"
	"github.com/mediaforge/mediaforge-api/internal/style"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusPending indicates the job is accepted but processing has not started.
	StatusPending Status = "PENDING"
	// StatusProcessing indicates the pipeline is running.
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted indicates every stage succeeded and the result exists.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates a stage failed; Error carries the cause.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// Terminal states have no exits.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Params is the snapshot of everything the pipeline needs, copied at
// submission so later changes to request state cannot reach a running job.
type Params struct {
	// AudioPath is the staged audio input inside the job's work directory.
	AudioPath string `json:"audio_path"`
	// ImagePaths are the staged background images, in display order.
	ImagePaths []string `json:"image_paths"`
	// SubtitlePath is the staged SRT file; empty disables the burn stage.
	SubtitlePath string `json:"subtitle_path,omitempty"`

	OutputFormat  string  `json:"output_format"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	ImageDuration float64 `json:"image_duration"`

	Visualization      command.VisualizationType `json:"visualization"`
	WaveMode           string                    `json:"wave_mode,omitempty"`
	WaveColor          string                    `json:"wave_color,omitempty"`
	SpectrumMode       string                    `json:"spectrum_mode,omitempty"`
	SpectrumColor      string                    `json:"spectrum_color,omitempty"`
	SpectrumScale      string                    `json:"spectrum_scale,omitempty"`
	SpectrumSaturation float64                   `json:"spectrum_saturation,omitempty"`

	FPS     int     `json:"fps"`
	Opacity float64 `json:"opacity"`
	// Duration limits the output length in seconds when positive.
	Duration float64 `json:"duration,omitempty"`

	// Style is the subtitle styling used when SubtitlePath is set.
	Style style.Descriptor `json:"style"`

	// PushToS3 uploads the completed result to the configured bucket.
	PushToS3 bool `json:"push_to_s3"`
}

// clone deep-copies the parameter snapshot.
func (p Params) clone() Params {
	out := p
	out.ImagePaths = make([]string, len(p.ImagePaths))
	copy(out.ImagePaths, p.ImagePaths)
	return out
}

// Job represents one asynchronous processing request tracked from submission
// to a terminal state. Only its own pipeline mutates it; pollers read clones.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string `json:"id"`
	// Status is the current job state.
	Status Status `json:"status"`
	// Progress is the percentage of completion (0-100), never decreasing.
	Progress int `json:"progress"`
	// Params is the input snapshot taken at submission.
	Params Params `json:"params"`
	// ResultPath is the final output file, set exactly once on completion.
	ResultPath string `json:"result_path,omitempty"`
	// ResultURL is the S3 URL if Params.PushToS3 was true.
	ResultURL string `json:"result_url,omitempty"`
	// Error contains the failure cause if the job failed.
	Error string `json:"error,omitempty"`
	// WorkDir is the directory exclusively owned by this job. Staged inputs
	// and intermediates live under it; it is removed wholesale on failure
	// and on reclamation.
	WorkDir string `json:"work_dir"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// StartedAt is when processing started.
	StartedAt time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// New creates a Pending job owning workDir, with a generated ID and the
// parameters snapshotted.
func New(params Params, workDir string) *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Status:    StatusPending,
		Params:    params.clone(),
		WorkDir:   workDir,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a Pending job with the specified ID.
// Useful for testing or when the ID is externally generated.
func NewWithID(jobID string, params Params, workDir string) *Job {
	j := New(params, workDir)
	j.ID = jobID
	return j
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusProcessing:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from PENDING to PROCESSING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusProcessing)
}

// Complete records the result and transitions to COMPLETED in one step, so no
// reader can observe a completed job without its result path.
func (j *Job) Complete(resultPath, resultURL string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.ResultPath = resultPath
	j.ResultURL = resultURL
	j.Progress = 100
	return nil
}

// Fail records the cause and transitions to FAILED in one step.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	return nil
}

// UpdateProgress raises the progress checkpoint. Values at or below the
// current progress are ignored so reported progress never moves backwards.
func (j *Job) UpdateProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
		j.UpdatedAt = time.Now()
	}
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Progress:    j.Progress,
		Params:      j.Params.clone(),
		ResultPath:  j.ResultPath,
		ResultURL:   j.ResultURL,
		Error:       j.Error,
		WorkDir:     j.WorkDir,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

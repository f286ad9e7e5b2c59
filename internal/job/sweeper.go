package job

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
)

// Sweeper periodically reclaims terminal jobs older than the retention
// window: the job's work directory is removed and its record deleted.
type Sweeper struct {
	repo      Repository
	retention time.Duration
	interval  time.Duration
	metrics   *Metrics
	logger    *slog.Logger
}

// NewSweeper creates a sweeper. metrics may be nil.
func NewSweeper(repo Repository, retention, interval time.Duration, metrics *Metrics, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		repo:      repo,
		retention: retention,
		interval:  interval,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run sweeps on every tick until the context is cancelled. It is meant to be
// started once as a background goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started",
		slog.Duration("interval", s.interval),
		slog.Duration("retention", s.retention),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep reclaims every expired terminal job. Failures on individual jobs are
// logged and skipped so one bad record cannot stall reclamation; anything
// skipped is retried on the next pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("sweep: cannot list jobs", slog.String("error", err.Error()))
		return
	}

	cutoff := time.Now().Add(-s.retention)
	for _, j := range jobs {
		if !j.IsTerminal() || j.CompletedAt.After(cutoff) {
			continue
		}
		s.reclaim(ctx, j)
	}
}

func (s *Sweeper) reclaim(ctx context.Context, j *Job) {
	log := s.logger.With(slog.String("job_id", j.ID))

	if j.WorkDir != "" {
		if err := os.RemoveAll(j.WorkDir); err != nil {
			log.Warn("sweep: cannot remove work directory", slog.String("error", err.Error()))
			return
		}
	}

	if err := s.repo.Delete(ctx, j.ID); err != nil && !errors.Is(err, ErrJobNotFound) {
		log.Warn("sweep: cannot delete job record", slog.String("error", err.Error()))
		return
	}

	s.metrics.JobReclaimed()
	log.Info("job reclaimed", slog.Time("completed_at", j.CompletedAt))
}

package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminalJob(t *testing.T, status Status, completedAgo time.Duration) *Job {
	t.Helper()
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "result.mp4"), []byte("media"), 0o644))

	j := New(testParams(), workDir)
	j.Status = status
	j.CompletedAt = time.Now().Add(-completedAgo)
	return j
}

func TestSweeper_Sweep_ReclaimsExpiredTerminalJobs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	expired := terminalJob(t, StatusCompleted, 2*time.Hour)
	failed := terminalJob(t, StatusFailed, 2*time.Hour)
	require.NoError(t, repo.Save(ctx, expired))
	require.NoError(t, repo.Save(ctx, failed))

	sweeper := NewSweeper(repo, time.Hour, time.Minute, nil, nil)
	sweeper.Sweep(ctx)

	_, err := repo.FindByID(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = repo.FindByID(ctx, failed.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.NoDirExists(t, expired.WorkDir)
	assert.NoDirExists(t, failed.WorkDir)
}

func TestSweeper_Sweep_KeepsRecentAndActiveJobs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	recent := terminalJob(t, StatusCompleted, 10*time.Minute)
	running := New(testParams(), t.TempDir())
	running.Status = StatusProcessing
	pending := New(testParams(), t.TempDir())
	require.NoError(t, repo.Save(ctx, recent))
	require.NoError(t, repo.Save(ctx, running))
	require.NoError(t, repo.Save(ctx, pending))

	sweeper := NewSweeper(repo, time.Hour, time.Minute, nil, nil)
	sweeper.Sweep(ctx)

	for _, id := range []string{recent.ID, running.ID, pending.ID} {
		_, err := repo.FindByID(ctx, id)
		assert.NoError(t, err, "job %s should survive the sweep", id)
	}
	assert.DirExists(t, recent.WorkDir)
}

// erroringRepo fails List to exercise the sweeper's error path.
type erroringRepo struct {
	Repository
}

func (e *erroringRepo) List(context.Context) ([]*Job, error) {
	return nil, errors.New("backend down")
}

func TestSweeper_Sweep_ListFailureIsNonFatal(t *testing.T) {
	sweeper := NewSweeper(&erroringRepo{NewMemoryRepository()}, time.Hour, time.Minute, nil, nil)

	// Must not panic; next tick retries.
	sweeper.Sweep(context.Background())
}

func TestSweeper_Run_StopsOnContextCancel(t *testing.T) {
	repo := NewMemoryRepository()
	sweeper := NewSweeper(repo, time.Hour, 10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}

package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository persists job records. Implementations store and return
// independent snapshots, so callers never share a mutable Job.
type Repository interface {
	// Save persists the job's current snapshot, overwriting any existing
	// record with the same ID.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns every stored job, in no particular order. The sweeper
	// uses it to find expired results.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a job record.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}

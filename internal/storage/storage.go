// Package storage provides file handling for media processing: per-request
// work directories on local disk where uploads are staged and outputs are
// written, plus optional S3 publication of completed results.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Stager creates and tears down isolated work directories and stages
// uploaded content into them.
type Stager interface {
	// CreateWorkDir creates a fresh directory owned by one request or job.
	CreateWorkDir(prefix string) (string, error)

	// SaveUpload streams data into dir under the given file name and
	// returns the full path.
	SaveUpload(ctx context.Context, dir, name string, data io.Reader) (string, error)

	// Remove deletes a work directory and everything beneath it.
	Remove(dir string) error
}

// Publisher uploads a completed result and returns its public URL.
type Publisher interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

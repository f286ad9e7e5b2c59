package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check that Local implements Stager.
var _ Stager = (*Local)(nil)

// Local implements Stager on local disk. Every request or job gets its own
// directory under the configured root, so cleanup is a single RemoveAll and
// concurrent requests can never collide on file names.
type Local struct {
	root string
}

// NewLocal creates a Local stager rooted at root.
// If root is empty, a directory under os.TempDir() is used.
// The root is created if it doesn't exist.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "mediaforge")
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Local{root: root}, nil
}

// Root returns the directory all work directories are created under.
func (s *Local) Root() string {
	return s.root
}

// CreateWorkDir creates a fresh uniquely named directory under the root.
func (s *Local) CreateWorkDir(prefix string) (string, error) {
	dir, err := os.MkdirTemp(s.root, prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	return dir, nil
}

// SaveUpload streams data into dir under name and returns the full path.
// The name is reduced to its base so request-supplied names cannot escape
// the work directory.
func (s *Local) SaveUpload(ctx context.Context, dir, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	name = sanitizeName(name)
	if name == "" {
		return "", fmt.Errorf("invalid upload name")
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path) // #nosec G304 - dir is server-created, name is sanitized
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path, nil
}

// Remove deletes a work directory and its contents. Removing a directory
// that is already gone is not an error.
func (s *Local) Remove(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove work directory %s: %w", dir, err)
	}
	return nil
}

// sanitizeName strips any path components from an upload file name.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

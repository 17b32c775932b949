// Package blob provides media storage backends: local disk and S3-compatible
// object storage.
package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/sgjo/shop-api/internal/domain/media"
)

var _ media.Storage = (*Local)(nil)

// Local writes files under a directory that is served at a URL prefix.
type Local struct {
	dir    string
	prefix string
}

// NewLocal creates a Local backend. Files are written under dir and their
// URLs are prefix/key.
func NewLocal(dir, prefix string) *Local {
	return &Local{dir: dir, prefix: prefix}
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// Put writes data to dir/key.
func (l *Local) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, filepath.Base(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("writing %q: %w", key, err)
	}
	return path.Join(l.prefix, key), nil
}

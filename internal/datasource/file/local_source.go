// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local reads an archive from disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the path.
func (l *Local) Name() string { return l.path }

// Open returns the file as an *os.File (which also satisfies io.ReaderAt).
// A canceled ctx short-circuits before the filesystem is touched; open
// errors wrap the underlying error so errors.Is(err, os.ErrNotExist) works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Exists reports whether the path names a regular file.
func (l *Local) Exists() bool {
	fi, err := os.Stat(l.path)
	return err == nil && fi.Mode().IsRegular()
}

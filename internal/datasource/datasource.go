// Package datasource defines where partition archives are read from.
// Implementations live in subpackages: file (local disk) and httpds
// (downloads, which land on disk and are then read through file).
package datasource

import (
	"context"
	"io"
)

// Source yields the bytes of one archive.
type Source interface {
	// Open returns a reader for the archive. When the reader also implements
	// io.ReaderAt and Stat, consumers may read it without buffering.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and error messages.
	Name() string
}

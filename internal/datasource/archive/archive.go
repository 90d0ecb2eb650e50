// Package archive unpacks a Cricsheet zip into match documents.
//
// Every "<game_id>.json" entry becomes one normalize.Document whose GameID is
// the entry's file stem. Directories and non-JSON entries (README.txt) are
// ignored. Entry bodies are not decoded here; a broken entry, or one named
// just ".json", surfaces later as a malformed document instead of failing the
// whole archive.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource"
	"github.com/MemphisMeng/cricket-report-sub000/internal/normalize"
)

// MaxEntryBytes caps the decompressed size of a single entry.
const MaxEntryBytes = 64 << 20

type statReaderAt interface {
	io.ReaderAt
	Stat() (fs.FileInfo, error)
}

// Read opens src and returns its documents in archive order.
func Read(ctx context.Context, src datasource.Source) ([]normalize.Document, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		ra   io.ReaderAt
		size int64
	)
	if f, ok := rc.(statReaderAt); ok {
		fi, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("archive: stat %s: %w", src.Name(), err)
		}
		ra, size = f, fi.Size()
	} else {
		buf, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("archive: read %s: %w", src.Name(), err)
		}
		ra, size = bytes.NewReader(buf), int64(len(buf))
	}

	return ReadZip(ctx, ra, size, src.Name())
}

// ReadZip reads documents, in archive order, from an in-memory or on-disk
// zip. name labels the archive in Document.Source and errors.
func ReadZip(ctx context.Context, r io.ReaderAt, size int64, name string) ([]normalize.Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("archive: open zip %s: %w", name, err)
	}

	docs := make([]normalize.Document, 0, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := GameID(f.Name)
		if !ok || f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > MaxEntryBytes {
			return nil, fmt.Errorf("archive: %s: entry %s is %d bytes, limit %d", name, f.Name, f.UncompressedSize64, MaxEntryBytes)
		}
		raw, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("archive: %s: %w", name, err)
		}
		docs = append(docs, normalize.Document{
			GameID: id,
			Source: name + ":" + f.Name,
			Raw:    raw,
		})
	}
	return docs, nil
}

// GameID returns the stem of a "<id>.json" entry name. ok reports whether
// entry is a JSON entry at all; the stem may still be empty.
func GameID(entry string) (string, bool) {
	base := path.Base(entry)
	if !strings.EqualFold(path.Ext(base), ".json") {
		return "", false
	}
	return strings.TrimSpace(base[:len(base)-len(".json")]), true
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, MaxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	if len(raw) > MaxEntryBytes {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, MaxEntryBytes)
	}
	return raw, nil
}

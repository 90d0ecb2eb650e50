// Package cricsheet retrieves the per-gender Cricsheet archives and unpacks
// them into match documents.
//
// Partitions are fetched concurrently and merged in the order they were
// requested. Each archive is either read from a configured local path, read
// from the download cache, or downloaded into the cache first.
package cricsheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/archive"
	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/file"
	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/httpds"
	"github.com/MemphisMeng/cricket-report-sub000/internal/logging"
	"github.com/MemphisMeng/cricket-report-sub000/internal/normalize"
)

// Upstream archive URLs.
const (
	FemaleURL = "https://cricsheet.org/downloads/all_female_json.zip"
	MaleURL   = "https://cricsheet.org/downloads/all_male_json.zip"
)

// Partition is one gender's archive.
type Partition struct {
	Gender string
	URL    string
	// LocalPath, when set, is read instead of downloading URL.
	LocalPath string
}

// DefaultPartitions returns the female and male upstream archives, in that
// order.
func DefaultPartitions() []Partition {
	return []Partition{
		{Gender: normalize.Female, URL: FemaleURL},
		{Gender: normalize.Male, URL: MaleURL},
	}
}

// Batch is the unpacked content of one partition.
type Batch struct {
	Gender    string
	Source    string
	Documents []normalize.Document
}

// Options configures a Fetcher.
type Options struct {
	// CacheDir keeps downloaded archives between runs. When empty, archives
	// are downloaded into a temporary directory removed after reading.
	CacheDir string
	// Offline forbids network access; every partition must come from
	// LocalPath or an existing cache file.
	Offline bool
	Client  *httpds.Client
	Logger  logrus.FieldLogger
}

// Fetcher downloads and unpacks partitions.
type Fetcher struct {
	opts Options
}

// NewFetcher returns a Fetcher; a nil Client gets httpds defaults.
func NewFetcher(opts Options) *Fetcher {
	if opts.Client == nil {
		opts.Client = httpds.NewClient(httpds.Config{})
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Fetcher{opts: opts}
}

// Fetch retrieves all partitions concurrently. The first failure cancels the
// others; the returned error is that first failure. Batches come back in the
// order of parts regardless of completion order.
func (f *Fetcher) Fetch(ctx context.Context, parts []Partition) ([]Batch, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("cricsheet: no partitions configured")
	}

	tmpDir := ""
	if f.opts.CacheDir == "" && !f.opts.Offline {
		d, err := os.MkdirTemp("", "cricketdb-*")
		if err != nil {
			return nil, fmt.Errorf("cricsheet: temp dir: %w", err)
		}
		tmpDir = d
		defer os.RemoveAll(tmpDir)
	}

	out := make([]Batch, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		g.Go(func() error {
			b, err := f.fetchOne(gctx, p, tmpDir)
			if err != nil {
				return fmt.Errorf("cricsheet: %s partition: %w", p.Gender, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, p Partition, tmpDir string) (Batch, error) {
	log := f.opts.Logger.WithField("partition", p.Gender)

	path, err := f.resolve(ctx, p, tmpDir, log)
	if err != nil {
		return Batch{}, err
	}

	docs, err := archive.Read(ctx, file.NewLocal(path))
	if err != nil {
		return Batch{}, err
	}
	log.WithField("documents", len(docs)).Debug("archive unpacked")
	return Batch{Gender: p.Gender, Source: path, Documents: docs}, nil
}

// resolve returns the on-disk path of p's archive, downloading it if needed.
func (f *Fetcher) resolve(ctx context.Context, p Partition, tmpDir string, log logrus.FieldLogger) (string, error) {
	if p.LocalPath != "" {
		log.WithField("path", p.LocalPath).Info("reading local archive")
		return p.LocalPath, nil
	}
	if p.URL == "" {
		return "", fmt.Errorf("no url or local path")
	}

	dir := f.opts.CacheDir
	if dir == "" {
		dir = tmpDir
	}
	if dir == "" {
		return "", fmt.Errorf("offline mode needs a cache_dir or local path for %s", p.URL)
	}
	dest := filepath.Join(dir, httpds.SafeFilenameFromURL(p.URL))

	if f.opts.Offline {
		if !file.NewLocal(dest).Exists() {
			return "", fmt.Errorf("offline and no cached archive at %s", dest)
		}
		log.WithField("path", dest).Info("using cached archive")
		return dest, nil
	}

	log.WithField("url", p.URL).Info("downloading archive")
	n, err := f.opts.Client.Download(ctx, p.URL, dest)
	if err != nil {
		return "", err
	}
	log.WithFields(logrus.Fields{"path": dest, "bytes": n}).Info("archive downloaded")
	return dest, nil
}

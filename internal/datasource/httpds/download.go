package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// StatusError is returned for a final non-2xx response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: unexpected status %d", e.URL, e.Status)
}

// Download fetches url into dest and returns the number of bytes written.
// The body is streamed into a temporary file next to dest and renamed into
// place only after a complete read, so an interrupted download never leaves
// a truncated archive at dest.
func (c *Client) Download(ctx context.Context, url, dest string) (int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{URL: url, Status: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("httpds: create dir for %s: %w", dest, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("httpds: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		cleanup()
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, fmt.Errorf("httpds: read body of %s: %w", url, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		cleanup()
		return n, fmt.Errorf("httpds: short body from %s: got %d of %d bytes", url, n, resp.ContentLength)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return n, fmt.Errorf("httpds: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return n, fmt.Errorf("httpds: move download into %s: %w", dest, err)
	}
	return n, nil
}

package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// filenameCleaner collapses runs of characters outside [A-Za-z0-9._-] to "_".
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// HashString returns the SHA1 hex digest of s.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// SafeFilenameFromURL derives a stable, filesystem-safe cache filename for
// rawURL: the cleaned last path segment prefixed with a short hash of the
// whole URL, e.g. "3f2a9c1d_all_male_json.zip". Two URLs that share a base
// name but differ elsewhere get different files. When the URL cannot be
// parsed or has no usable base name, the full hash is returned.
func SafeFilenameFromURL(rawURL string) string {
	sum := HashString(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return sum
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		base = ""
	}
	clean := strings.Trim(filenameCleaner.ReplaceAllString(base, "_"), "._")
	if clean == "" {
		return sum
	}
	return sum[:8] + "_" + clean
}

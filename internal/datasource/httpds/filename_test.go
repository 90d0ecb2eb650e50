package httpds

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString_Stable(t *testing.T) {
	t.Parallel()

	const in = "https://cricsheet.org/downloads/all_male_json.zip"
	assert.Equal(t, HashString(in), HashString(in))
	assert.Len(t, HashString(in), 40)
}

func TestSafeFilenameFromURL(t *testing.T) {
	t.Parallel()

	safe := regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

	female := SafeFilenameFromURL("https://cricsheet.org/downloads/all_female_json.zip")
	male := SafeFilenameFromURL("https://cricsheet.org/downloads/all_male_json.zip")
	mirror := SafeFilenameFromURL("https://mirror.example/downloads/all_male_json.zip")

	assert.Regexp(t, safe, female)
	assert.Regexp(t, `_all_female_json\.zip$`, female)
	assert.Regexp(t, `_all_male_json\.zip$`, male)
	assert.NotEqual(t, male, mirror, "same base name on another host gets its own cache file")
	assert.Equal(t, male, SafeFilenameFromURL("https://cricsheet.org/downloads/all_male_json.zip"))
}

func TestSafeFilenameFromURL_FallsBackToHash(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{":// not a url", "https://example.com/", "https://example.com"} {
		got := SafeFilenameFromURL(raw)
		assert.Equal(t, HashString(raw), got, raw)
	}
}

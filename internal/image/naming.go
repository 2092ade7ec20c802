package image

import (
	"crypto/md5" //nolint:gosec // filename suffix, not security
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxSlugLength = 50
	suffixLength  = 8
)

var nonAlnum = regexp.MustCompile(`(?i)[^a-z0-9]+`)

// Slug lowercases name, collapses every run of non-alphanumeric characters
// into a single hyphen and trims hyphens from both ends.
func Slug(name string) string {
	s := nonAlnum.ReplaceAllString(name, "-")
	return strings.Trim(strings.ToLower(s), "-")
}

// Filename returns the stored file name for an artist image:
// slug (at most 50 chars), a hyphen, an 8-char suffix and the extension.
// The suffix is the start of recordID when one is given, otherwise a hash
// of the name and the current time, which is not stable across retries.
func Filename(name, recordID, ext string, now time.Time) string {
	slug := Slug(name)
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	if slug == "" {
		slug = "artist"
	}

	suffix := recordID
	if suffix == "" {
		sum := md5.Sum(fmt.Appendf(nil, "%s%d", name, now.Unix())) //nolint:gosec
		suffix = hex.EncodeToString(sum[:])
	}
	if len(suffix) > suffixLength {
		suffix = suffix[:suffixLength]
	}

	return fmt.Sprintf("%s-%s.%s", slug, suffix, ext)
}

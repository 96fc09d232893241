package backend

import (
	"net/url"
	"regexp"
)

var (
	extendedFilenameRe = regexp.MustCompile(`(?i)filename\*=UTF-8''([^;]+)`)
	simpleFilenameRe   = regexp.MustCompile(`(?i)filename="?([^";]+)"?`)
)

// FilenameFromContentDisposition extracts the suggested filename from a
// Content-Disposition header. The RFC 5987 form filename*=UTF-8''... wins
// over filename="..."; a value that fails percent-decoding is returned raw.
func FilenameFromContentDisposition(cd string) (string, bool) {
	if cd == "" {
		return "", false
	}

	if m := extendedFilenameRe.FindStringSubmatch(cd); m != nil && m[1] != "" {
		decoded, err := url.PathUnescape(m[1])
		if err != nil {
			return m[1], true
		}
		return decoded, true
	}

	if m := simpleFilenameRe.FindStringSubmatch(cd); m != nil {
		return m[1], true
	}
	return "", false
}

package transfer

import (
	"strings"
)

// hostileChars are characters that break paths on at least one supported
// platform. They are dropped rather than escaped.
const hostileChars = `/\:*?"<>|`

// Slug reduces a video title to a filesystem-safe name. Whitespace runs
// collapse to single underscores, path-hostile and control characters are
// dropped, and a title that loses all its information falls back to the
// literal "video".
func Slug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastUnderscore := false
	for _, r := range title {
		switch {
		case r < 0x20 || r == 0x7f:
			// control characters
		case strings.ContainsRune(hostileChars, r):
		case r == ' ' || r == '\t':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		default:
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		// dropped character: don't reset the underscore state
	}

	out := strings.Trim(b.String(), "._ ")
	if out == "" {
		return "video"
	}
	if len(out) > 180 {
		out = out[:180]
	}
	return out
}

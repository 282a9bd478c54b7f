package recognize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCandidate canonicalizes a raw backend candidate: Unicode NFC
// composition, surrounding whitespace removal, and a printable-rune filter.
// OCR output in particular arrives with stray combining marks and control
// characters depending on the camera and lighting.
func NormalizeCandidate(raw string) string {
	composed := norm.NFC.String(raw)
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// UsableCandidate reports whether a normalized candidate is long enough to
// be a plausible device identifier rather than decode noise.
func UsableCandidate(candidate string, minLength int) bool {
	if minLength <= 0 {
		minLength = 1
	}
	return len([]rune(candidate)) >= minLength
}

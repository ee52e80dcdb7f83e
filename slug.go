package magicpages

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength bounds the length of a sanitized page name.
const MaxNameLength = 128

// Slugify turns s into a page name: diacritics are stripped, letters are
// lowercased, and every run of characters outside [a-z0-9._] collapses into a
// single '-'. Leading and trailing separators are removed. The result may be
// empty.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	name := trimSeparators(b.String())
	if len(name) > MaxNameLength {
		name = trimSeparators(name[:MaxNameLength])
	}
	return name
}

func trimSeparators(s string) string {
	return strings.Trim(s, "-._")
}

package rule

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Characters kept as-is in section slugs, in addition to letters and digits.
const slugKeep = ".+_"

var (
	slugReplacer = strings.NewReplacer("&", " and ")

	validSlug = regexp.MustCompile(`^[A-Za-z0-9._~+-]+(/[A-Za-z0-9._~+-]+)*$`)
)

// Slugify derives a URL-safe identifier from a tag.
//
// Diacritics are removed and the result is lowercased. Letters, digits and
// the characters ".", "+" and "_" are kept; every other run of characters
// collapses into a single "-". Leading and trailing separators are trimmed.
//
// Distinct tags may produce the same slug, e.g. "C" and "C#".
func Slugify(tag string) string {
	s := strings.ToLower(slugReplacer.Replace(Normalize(tag)))

	var b strings.Builder
	b.Grow(len(s))

	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(slugKeep, r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)

			continue
		}

		pendingSep = true
	}

	return b.String()
}

// ValidSlug reports whether s can be used as a rule slug. Rule slugs may
// contain "/" separated segments, e.g. "official/react".
func ValidSlug(s string) bool {
	return validSlug.MatchString(s)
}

// Normalize removes diacritics, so "ö" becomes "o". The input is returned
// unchanged if it cannot be transformed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

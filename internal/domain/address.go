package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// addressForbiddenChars are replaced before an address leaves the process.
// The set is the host's filesystem-unsafe character list.
const addressForbiddenChars = `<>/\?*|":°$;`

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	doubleDash      = regexp.MustCompile(`--+`)
	leadingDashWord = regexp.MustCompile(`\s+-(\S)`)
	trailingDash    = regexp.MustCompile(`\s+-$`)
)

// SanitizeAddress strips accents and characters unsafe for a filename or
// query token from a postal address. Whitespace (including line breaks) is
// collapsed to single spaces. Percent-encoding is left to the transport.
func SanitizeAddress(address string) string {
	unaccent := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(unaccent, address)
	if err != nil {
		s = address
	}

	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(addressForbiddenChars, r) {
			return '_'
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	s = doubleDash.ReplaceAllString(s, "_")
	s = leadingDashWord.ReplaceAllString(s, " _$1")
	s = trailingDash.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "..", "")
}

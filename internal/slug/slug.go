// Package slug turns tag names into the URL-safe identifiers tags are keyed by.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func converts a tag name into its slug. Implementations must be pure and
// deterministic; an input with nothing sluggable returns "".
type Func func(name string) string

// fold decomposes accented characters and drops the combining marks, so
// "Café" becomes "Cafe" before the ASCII filter runs.
var fold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// expansions covers letters that have no decomposition but a common ASCII spelling.
var expansions = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ł': "l",
	'þ': "th",
}

// Make is the default Func. It folds the name to ASCII, lowercases it, turns
// runs of whitespace, '-' and '_' into a single '-', spells '@' as "at", drops
// any other character, and trims separators from both ends.
//
//	Make("Rocky  Mountains!") == "rocky-mountains"
//	Make("Crème brûlée")      == "creme-brulee"
func Make(name string) string {
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	sep := false
	emit := func(s string) {
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteString(s)
	}

	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			emit(string(r))
		case r == '@':
			sep = true
			emit("at")
			sep = true
		case r == '-' || r == '_' || unicode.IsSpace(r):
			sep = true
		default:
			if s, ok := expansions[r]; ok {
				emit(s)
			}
		}
	}
	return b.String()
}

// Or returns f, or Make when f is nil.
func Or(f Func) Func {
	if f == nil {
		return Make
	}
	return f
}

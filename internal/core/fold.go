package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tatweel = 'ـ'

// arabicLetterFolds unifies letter variants that hand-typed names use
// interchangeably.
var arabicLetterFolds = map[rune]rune{
	'أ': 'ا',
	'إ': 'ا',
	'آ': 'ا',
	'ٱ': 'ا',
	'ى': 'ي',
	'ئ': 'ي',
	'ة': 'ه',
	'ؤ': 'و',
}

// FoldName reduces a name to its comparison form: compatibility
// decomposition, combining marks (including Arabic harakat) and tatweel
// removed, letter variants unified, case folded and whitespace collapsed.
func FoldName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		if r == tatweel {
			return -1
		}
		if to, ok := arabicLetterFolds[r]; ok {
			return to
		}
		return r
	}, folded)
	folded = cases.Fold().String(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const softHyphen = '\u00ad'

// typographic maps punctuation that deck builders and word processors
// substitute for plain ASCII.
var typographic = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u2032", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u2033", `"`,
	"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-", "\u2014", "-",
	"\u2015", "-", "\u2212", "-",
	"\u2026", "...",
)

// cleaner builds the transform applied to every fragment: compatibility
// composition, whitespace folded to a plain space, and control and format
// characters removed. Soft hyphens survive so line joining can see them.
func cleaner() transform.Transformer {
	return transform.Chain(
		norm.NFKC,
		runes.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return ' '
			}
			return r
		}),
		runes.Remove(runes.Predicate(func(r rune) bool {
			if r == softHyphen {
				return false
			}
			return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
		})),
	)
}

// Clean normalizes one fragment's text. Whitespace is folded but not
// collapsed, so spacing at fragment edges still separates words.
func Clean(s string) string {
	out, _, err := transform.String(cleaner(), s)
	if err != nil {
		out = strings.ToValidUTF8(s, "")
	}
	return typographic.Replace(out)
}

// collapse trims the text, drops leftover soft hyphens and reduces runs of
// whitespace to one space.
func collapse(s string) string {
	s = strings.ReplaceAll(s, string(softHyphen), "")
	return strings.Join(strings.Fields(s), " ")
}

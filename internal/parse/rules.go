// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// Library card types accepted as category headers. Combined types such as
// "Action Modifier/Combat" are matched as slash-separated lists.
var cardTypes = []string{
	"Political Action",
	"Action Modifier",
	"Master",
	"Action",
	"Ally",
	"Equipment",
	"Retainer",
	"Reaction",
	"Combat",
	"Event",
	"Conviction",
	"Power",
}

var (
	metadataRe = regexp.MustCompile(`(?i)^(deck name|deck|name|author|created by|description|date|event|player)\s*:\s*(.*)$`)
	// A section header is "Crypt" or "Library" followed by nothing or by a
	// free-form description; the first number in it is the declared count.
	sectionRe  = regexp.MustCompile(`(?i)^(crypt|library)(?:[\s:(\[](.*))?$`)
	countRe    = regexp.MustCompile(`\d+`)
	categoryRe = regexp.MustCompile(categoryPattern())

	quantityFirstRe = regexp.MustCompile(`^(\d+)(?:\s*[xX\x{d7}])?\s+(.+)$`)
	quantityLastRe  = regexp.MustCompile(`^(.+?)\s+[xX\x{d7}]\s*(\d+)$`)
	quantityOnlyRe  = regexp.MustCompile(`^(\d+)\s*[xX\x{d7}]?$`)
	hasLetterRe     = regexp.MustCompile(`\pL`)

	noiseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^page\s+\d+(?:\s*(?:of|/)\s*\d+)?$`),
		regexp.MustCompile(`^-\s*\d+\s*-$`),
		regexp.MustCompile(`^[-=_*~.]{3,}$`),
	}
)

func categoryPattern() string {
	quoted := make([]string, len(cardTypes))
	for i, t := range cardTypes {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	one := "(?:" + strings.Join(quoted, "|") + ")"
	return `(?i)^(` + one + `(?:\s*/\s*` + one + `)*)\s*(?:[(\[]\s*(\d+)[^)\]]*[)\]]|:\s*(\d+))?\s*:?$`
}

// state is the running context of a parse: the current section and, inside
// the library, the current card type.
type state struct {
	section  types.Section
	category string
}

// rule turns one line into an entry. ok is false when the rule does not
// apply. Rules may update the parse state.
type rule func(st *state, line types.NormalizedLine) (types.Entry, bool)

// rules are tried in order; the first match wins.
var rules = []rule{
	parseMetadata,
	parseSection,
	parseCategory,
	parseCard,
}

func parseMetadata(_ *state, line types.NormalizedLine) (types.Entry, bool) {
	m := metadataRe.FindStringSubmatch(line.Text)
	if m == nil {
		return nil, false
	}
	return types.Metadata{Key: canonicalKey(m[1]), Value: strings.TrimSpace(m[2])}, true
}

func canonicalKey(k string) string {
	k = strings.ToLower(strings.Join(strings.Fields(k), " "))
	switch k {
	case "deck name", "name":
		return "deck"
	case "created by":
		return "author"
	}
	return k
}

func parseSection(st *state, line types.NormalizedLine) (types.Entry, bool) {
	m := sectionRe.FindStringSubmatch(line.Text)
	if m == nil {
		return nil, false
	}
	sec := types.SectionLibrary
	if strings.EqualFold(m[1], "crypt") {
		sec = types.SectionCrypt
	}
	st.section = sec
	st.category = ""
	return types.SectionHeader{Section: sec, Declared: declared(countRe.FindString(m[2]))}, true
}

func parseCategory(st *state, line types.NormalizedLine) (types.Entry, bool) {
	m := categoryRe.FindStringSubmatch(line.Text)
	if m == nil {
		return nil, false
	}
	category := canonicalCategory(m[1])
	n := declared(m[2])
	if n < 0 {
		n = declared(m[3])
	}
	// Card types only exist in the library.
	st.section = types.SectionLibrary
	st.category = category
	return types.SectionHeader{Section: types.SectionLibrary, Category: category, Declared: n}, true
}

// canonicalCategory title-cases each part of a card type header and
// normalizes the separators: "action modifier / combat" becomes
// "Action Modifier/Combat".
func canonicalCategory(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		words := strings.Fields(p)
		for j, w := range words {
			words[j] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
		parts[i] = strings.Join(words, " ")
	}
	return strings.Join(parts, "/")
}

func declared(s string) int {
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// parseCard matches "<qty> <name>", "<qty>x <name>", "<qty> x <name>" or
// "<name> x<qty>" on the first column. A first column holding only the
// quantity takes the name from the second column. Remaining columns become
// the card details.
func parseCard(st *state, line types.NormalizedLine) (types.Entry, bool) {
	cols := line.Columns
	if len(cols) == 0 {
		cols = []string{line.Text}
	}

	var qty, name string
	rest := cols[1:]
	if m := quantityOnlyRe.FindStringSubmatch(cols[0]); m != nil && len(cols) > 1 {
		qty, name, rest = m[1], cols[1], cols[2:]
	} else if m := quantityFirstRe.FindStringSubmatch(cols[0]); m != nil {
		qty, name = m[1], m[2]
	} else if m := quantityLastRe.FindStringSubmatch(cols[0]); m != nil {
		name, qty = m[1], m[2]
	} else {
		return nil, false
	}

	name = strings.TrimSpace(name)
	if !hasLetterRe.MatchString(name) {
		return nil, false
	}
	n, err := strconv.Atoi(qty)
	if err != nil {
		return nil, false
	}

	c := types.CardEntry{
		Section:   st.section,
		Quantity:  n,
		Name:      name,
		ImageName: ImageName(name),
		Details:   strings.Join(rest, " "),
	}
	if st.section == types.SectionLibrary {
		c.Category = st.category
	}
	return c, true
}

// isNoise reports page furniture that carries no deck content.
func isNoise(text string) bool {
	for _, re := range noiseRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

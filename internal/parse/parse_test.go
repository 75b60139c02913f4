// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// lines builds one NormalizedLine per text, splitting columns at " | ".
func lines(texts ...string) []types.NormalizedLine {
	out := make([]types.NormalizedLine, len(texts))
	for i, t := range texts {
		cols := strings.Split(t, " | ")
		out[i] = types.NormalizedLine{
			Page:    1,
			Index:   i,
			Text:    strings.Join(cols, " "),
			Columns: cols,
			Sources: []types.FragmentRef{{Page: 1, Seq: i}},
		}
	}
	return out
}

func TestParse_DeckList(t *testing.T) {
	res := New(types.ParserConfig{}).Parse(lines(
		"Deck: Toreador Tricks",
		"Created by: Ana",
		"Crypt (3 cards, min=16 max=24)",
		"2x Anson | 8 | AUS DOM pre | Toreador:1",
		"1 Mylan Horseed",
		"Library (5 cards)",
		"Master (4)",
		"4x Blood Doll",
		"Action Modifier/Combat [1]",
		"Swallowed by the Night x1",
	))

	require.Len(t, res.Records, 10)
	assert.Empty(t, res.Ambiguities)
	assert.Zero(t, res.DroppedLines)

	assert.Equal(t, types.Metadata{Key: "deck", Value: "Toreador Tricks"}, res.Records[0].Entry)
	assert.Equal(t, types.Metadata{Key: "author", Value: "Ana"}, res.Records[1].Entry)
	assert.Equal(t, types.SectionHeader{Section: types.SectionCrypt, Declared: 3}, res.Records[2].Entry)
	assert.Equal(t, types.CardEntry{
		Section:   types.SectionCrypt,
		Quantity:  2,
		Name:      "Anson",
		ImageName: "anson",
		Details:   "8 AUS DOM pre Toreador:1",
	}, res.Records[3].Entry)
	assert.Equal(t, types.CardEntry{
		Section: types.SectionCrypt, Quantity: 1, Name: "Mylan Horseed", ImageName: "mylanhorseed",
	}, res.Records[4].Entry)
	assert.Equal(t, types.SectionHeader{Section: types.SectionLibrary, Declared: 5}, res.Records[5].Entry)
	assert.Equal(t, types.SectionHeader{Section: types.SectionLibrary, Category: "Master", Declared: 4}, res.Records[6].Entry)
	assert.Equal(t, types.CardEntry{
		Section: types.SectionLibrary, Category: "Master", Quantity: 4, Name: "Blood Doll", ImageName: "blooddoll",
	}, res.Records[7].Entry)
	assert.Equal(t, types.SectionHeader{Section: types.SectionLibrary, Category: "Action Modifier/Combat", Declared: 1}, res.Records[8].Entry)
	assert.Equal(t, types.CardEntry{
		Section: types.SectionLibrary, Category: "Action Modifier/Combat", Quantity: 1,
		Name: "Swallowed by the Night", ImageName: "swallowedbythenight",
	}, res.Records[9].Entry)

	for i, r := range res.Records {
		assert.Equal(t, i, r.Seq)
		assert.Equal(t, i, r.Line)
		assert.NotEmpty(t, r.Source)
	}
}

func TestParse_OriginalTextLayout(t *testing.T) {
	// Library first without a header, then a bare "Crypt" line.
	res := New(types.ParserConfig{}).Parse(lines(
		"4 Blood Doll",
		"12 Villein",
		"Crypt",
		"2 Anson (G1)",
	))

	require.Len(t, res.Records, 4)
	c, ok := res.Records[0].Card()
	require.True(t, ok)
	assert.Equal(t, types.SectionLibrary, c.Section)

	h, ok := res.Records[2].Entry.(types.SectionHeader)
	require.True(t, ok)
	assert.Equal(t, -1, h.Declared)

	c, ok = res.Records[3].Card()
	require.True(t, ok)
	assert.Equal(t, types.SectionCrypt, c.Section)
	assert.Equal(t, "ansong1", c.ImageName)
}

func TestParse_StartSection(t *testing.T) {
	res := New(types.ParserConfig{StartSection: types.SectionCrypt}).Parse(lines("2 Anson"))
	c, ok := res.Records[0].Card()
	require.True(t, ok)
	assert.Equal(t, types.SectionCrypt, c.Section)
}

func TestParse_CardForms(t *testing.T) {
	tests := []struct {
		line    string
		qty     int
		name    string
		details string
	}{
		{line: "2 Anson", qty: 2, name: "Anson"},
		{line: "2x Anson", qty: 2, name: "Anson"},
		{line: "2 x Anson", qty: 2, name: "Anson"},
		{line: "2X Xaviar", qty: 2, name: "Xaviar"},
		{line: "2 Xaviar", qty: 2, name: "Xaviar"},
		{line: "Anson x2", qty: 2, name: "Anson"},
		{line: "Anson x 2", qty: 2, name: "Anson"},
		{line: "2x | Anson | 8", qty: 2, name: "Anson", details: "8"},
		{line: "0 Blood Doll", qty: 0, name: "Blood Doll"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := New(types.ParserConfig{}).Parse(lines(tt.line))
			require.Len(t, res.Records, 1)
			c, ok := res.Records[0].Card()
			require.True(t, ok, "got %#v", res.Records[0].Entry)
			assert.Equal(t, tt.qty, c.Quantity)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.details, c.Details)
		})
	}
}

func TestParse_SectionHeaderForms(t *testing.T) {
	tests := []struct {
		line     string
		section  types.Section
		declared int
	}{
		{line: "Crypt", section: types.SectionCrypt, declared: -1},
		{line: "Crypt:", section: types.SectionCrypt, declared: -1},
		{line: "CRYPT (12)", section: types.SectionCrypt, declared: 12},
		{line: "Crypt: 12 cards", section: types.SectionCrypt, declared: 12},
		{line: "Crypt 12", section: types.SectionCrypt, declared: 12},
		{line: "Crypt [12 cards, avg capacity 7.5]", section: types.SectionCrypt, declared: 12},
		{line: "Crypt - vampires", section: types.SectionCrypt, declared: -1},
		{line: "Library: 90 cards", section: types.SectionLibrary, declared: 90},
		{line: "library 60", section: types.SectionLibrary, declared: 60},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := New(types.ParserConfig{StartSection: types.SectionLibrary}).Parse(lines(tt.line, "2 Anson"))
			require.Len(t, res.Records, 2)
			assert.Equal(t, types.SectionHeader{Section: tt.section, Declared: tt.declared}, res.Records[0].Entry)

			c, ok := res.Records[1].Card()
			require.True(t, ok)
			assert.Equal(t, tt.section, c.Section)
		})
	}
}

func TestParse_SectionWordInsideTextIsNotAHeader(t *testing.T) {
	res := New(types.ParserConfig{}).Parse(lines("Crypt's Sons", "Cryptic notes"))
	require.Len(t, res.Records, 2)
	assert.Equal(t, types.KindUnparsed, res.Records[0].Kind())
	assert.Equal(t, types.KindUnparsed, res.Records[1].Kind())
}

func TestParse_UnrecognizedLinesBecomeUnparsed(t *testing.T) {
	res := New(types.ParserConfig{}).Parse(lines(
		"Some free text about the deck",
		"12",
		"-1 Anson",
		"2x Anson",
	))

	require.Len(t, res.Records, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, types.KindUnparsed, res.Records[i].Kind(), "record %d", i)
	}
	assert.Equal(t, types.Unparsed{Text: "Some free text about the deck"}, res.Records[0].Entry)
	assert.Equal(t, types.KindCard, res.Records[3].Kind())

	require.Len(t, res.Ambiguities, 3)
	assert.Equal(t, 1, res.Ambiguities[1].Line)
	assert.Equal(t, "12", res.Ambiguities[1].Text)
}

func TestParse_DropsPageFurniture(t *testing.T) {
	input := lines(
		"Page 1 of 2",
		"2x Anson",
		"- 2 -",
		"==========",
		"4x Blood Doll",
	)
	res := New(types.ParserConfig{}).Parse(input)

	require.Len(t, res.Records, 2)
	assert.Equal(t, 3, res.DroppedLines)
	require.Len(t, res.Diagnostics, 3)
	assert.Equal(t, Stage, res.Diagnostics[0].Stage)
	assert.Contains(t, res.Diagnostics[0].Message, "Page 1 of 2")

	assert.Equal(t, len(input), len(res.Records)+res.DroppedLines, "every line is a record or a dropped line")
	assert.Equal(t, 1, res.Records[0].Line)
	assert.Equal(t, 4, res.Records[1].Line)
}

func TestParse_Idempotent(t *testing.T) {
	input := lines("Crypt", "2x Anson", "what is this", "Library", "Master (1)", "1 Villein")
	p := New(types.ParserConfig{})
	assert.Equal(t, p.Parse(input), p.Parse(input))
}

func TestParse_ProvenanceIsCopied(t *testing.T) {
	input := lines("2x Anson")
	res := New(types.ParserConfig{}).Parse(input)
	input[0].Sources[0].Seq = 99
	assert.Equal(t, 0, res.Records[0].Source[0].Seq)

	res = New(types.ParserConfig{}).Parse([]types.NormalizedLine{{Page: 3, Text: "2x Anson"}})
	assert.Equal(t, []types.FragmentRef{{Page: 3, Seq: -1}}, res.Records[0].Source)
}

func TestImageName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Anson", want: "anson"},
		{in: "Anson (G1)", want: "ansong1"},
		{in: "Mylan Horseed's Retainer", want: "mylanhorseedsretainer"},
		{in: "Ankara Citadel, Turkey, The", want: "ankaracitadelturkeythe"},
		{in: "\u00c9tienne Fauberge", want: "etiennefauberge"},
		{in: "Al-Muntathir", want: "al-muntathir"},
		{in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageName(tt.in))
		})
	}
}

func TestCanonicalCategory(t *testing.T) {
	assert.Equal(t, "Action Modifier/Combat", canonicalCategory("action  modifier / COMBAT"))
	assert.Equal(t, "Political Action", canonicalCategory("Political Action"))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// fakeCatalog implements Catalog over a fixed key set.
type fakeCatalog struct {
	keys    map[string]bool
	suggest map[string]string
}

func newFakeCatalog(keys ...string) *fakeCatalog {
	c := &fakeCatalog{keys: map[string]bool{}, suggest: map[string]string{}}
	for _, k := range keys {
		c.keys[k] = true
	}
	return c
}

func (c *fakeCatalog) Has(key string) bool { return c.keys[key] }

func (c *fakeCatalog) Suggest(name string) (string, bool) {
	s, ok := c.suggest[name]
	return s, ok
}

// deck builds records with consecutive Seq and Line numbers.
func deck(entries ...types.Entry) []types.Record {
	out := make([]types.Record, len(entries))
	for i, e := range entries {
		out[i] = types.Record{Seq: i, Line: i, Page: 1, Source: []types.FragmentRef{{Page: 1, Seq: i}}, Entry: e}
	}
	return out
}

func card(sec types.Section, qty int, name, image string) types.CardEntry {
	return types.CardEntry{Section: sec, Quantity: qty, Name: name, ImageName: image}
}

func statuses(records []types.Record) []types.Status {
	out := make([]types.Status, len(records))
	for i, r := range records {
		out[i] = r.Result.Status
	}
	return out
}

// noLimits disables the section-size limits so small decks validate.
var noLimits = types.ValidatorConfig{Duplicates: types.DuplicateReject}

func TestValidate_SingleRecordRules(t *testing.T) {
	records := deck(
		types.Metadata{Key: "deck", Value: "Test"},
		card(types.SectionLibrary, 4, "Blood Doll", "blooddoll"),
		card(types.SectionLibrary, 0, "Villein", "villein"),
		card(types.SectionLibrary, 9, "Govern the Unaligned", "governtheunaligned"),
		card(types.SectionLibrary, 1, "!!!", ""),
		types.Unparsed{Text: "???"},
	)
	cfg := noLimits
	cfg.MaxCopies = 6

	res := New(cfg, nil).Validate(records)

	assert.Equal(t, []types.Status{
		types.StatusValid,
		types.StatusValid,
		types.StatusRejected,
		types.StatusWarning,
		types.StatusRejected,
		types.StatusWarning,
	}, statuses(records))

	assert.Equal(t, []string{"quantity: quantity 0 is below 1"}, records[2].Result.Reasons)
	assert.Equal(t, []string{"unparsed: unrecognized line"}, records[5].Result.Reasons)
	assert.Equal(t, "blooddoll", records[1].Result.ImageName)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "quantity", res.Failures[0].Rule)
	assert.Equal(t, 2, res.Failures[0].Seq)
	assert.Equal(t, "name", res.Failures[1].Rule)
}

func TestValidate_CryptGroupResolution(t *testing.T) {
	cat := newFakeCatalog("ansong1", "theobellg2", "theobellg5", "blooddoll", "mylanhorseedg3", "villein")
	cat.suggest["Anzon"] = "Anson"

	records := deck(
		card(types.SectionCrypt, 2, "Anson", "anson"),
		card(types.SectionCrypt, 1, "Theo Bell", "theobell"),
		card(types.SectionCrypt, 1, "Mylan Horseed (G3)", "mylanhorseedg3"),
		card(types.SectionCrypt, 1, "Mylan Horseed (G4)", "mylanhorseedg4"),
		card(types.SectionCrypt, 1, "Anzon", "anzon"),
		card(types.SectionLibrary, 4, "Blood Doll", "blooddoll"),
		card(types.SectionLibrary, 1, "Unknown Card", "unknowncard"),
	)

	New(noLimits, cat).Validate(records)

	assert.Equal(t, types.StatusValid, records[0].Result.Status)
	assert.Equal(t, "ansong1", records[0].Result.ImageName)

	assert.Equal(t, types.StatusRejected, records[1].Result.Status)
	require.Len(t, records[1].Result.Reasons, 1)
	assert.Contains(t, records[1].Result.Reasons[0], "ambiguous crypt group")
	assert.Contains(t, records[1].Result.Reasons[0], "g2, g5")

	assert.Equal(t, types.StatusValid, records[2].Result.Status)
	assert.Equal(t, "mylanhorseedg3", records[2].Result.ImageName)

	assert.Equal(t, types.StatusWarning, records[3].Result.Status, "an explicit group must exist")

	assert.Equal(t, types.StatusWarning, records[4].Result.Status)
	assert.Contains(t, records[4].Result.Reasons[0], `did you mean "Anson"?`)

	assert.Equal(t, types.StatusValid, records[5].Result.Status)
	assert.Equal(t, types.StatusWarning, records[6].Result.Status)
	assert.NotContains(t, records[6].Result.Reasons[0], "did you mean")
}

// groupCatalog answers crypt groups from a table and knows no grouped key
// through Has, so resolution must go through Groups.
type groupCatalog struct {
	*fakeCatalog
	groups map[string][]int
	calls  int
}

func (c *groupCatalog) Groups(base string) ([]int, error) {
	c.calls++
	return c.groups[base], nil
}

func TestValidate_CryptGroupsFromGroupLister(t *testing.T) {
	cat := &groupCatalog{
		fakeCatalog: newFakeCatalog("blooddoll"),
		groups:      map[string][]int{"anson": {1}, "theobell": {2, 5}},
	}
	records := deck(
		card(types.SectionCrypt, 2, "Anson", "anson"),
		card(types.SectionCrypt, 1, "Theo Bell", "theobell"),
		card(types.SectionLibrary, 4, "Blood Doll", "blooddoll"),
	)
	New(noLimits, cat).Validate(records)

	assert.Equal(t, 2, cat.calls, "one lookup per crypt card")
	assert.Equal(t, types.StatusValid, records[0].Result.Status)
	assert.Equal(t, "ansong1", records[0].Result.ImageName)
	assert.Equal(t, types.StatusRejected, records[1].Result.Status)
	assert.Contains(t, records[1].Result.Reasons[0], "g2, g5")
	assert.Equal(t, types.StatusValid, records[2].Result.Status)
}

func TestValidate_Duplicates(t *testing.T) {
	entries := []types.Entry{
		card(types.SectionLibrary, 4, "Blood Doll", "blooddoll"),
		card(types.SectionLibrary, 1, "Villein", "villein"),
		card(types.SectionLibrary, 2, "Blood doll", "blooddoll"),
		card(types.SectionCrypt, 2, "Blood Doll", "blooddoll"), // other section
		card(types.SectionLibrary, 1, "Blood-Doll", "blood-doll"),
		card(types.SectionLibrary, 3, "BLOOD DOLL", "blooddoll"),
	}

	t.Run("reject keeps the first occurrence", func(t *testing.T) {
		records := deck(entries...)
		res := New(noLimits, nil).Validate(records)
		assert.Equal(t, []types.Status{
			types.StatusValid,
			types.StatusValid,
			types.StatusRejected,
			types.StatusValid,
			types.StatusValid,
			types.StatusRejected,
		}, statuses(records))
		assert.Equal(t, []string{"duplicate: duplicate of record 0 (line 0)"}, records[2].Result.Reasons)
		assert.Len(t, res.Failures, 2)
	})

	t.Run("warn flags every member", func(t *testing.T) {
		records := deck(entries...)
		cfg := noLimits
		cfg.Duplicates = types.DuplicateWarn
		New(cfg, nil).Validate(records)
		assert.Equal(t, []types.Status{
			types.StatusWarning,
			types.StatusValid,
			types.StatusWarning,
			types.StatusValid,
			types.StatusValid,
			types.StatusWarning,
		}, statuses(records))
	})

	t.Run("resolved crypt images collide", func(t *testing.T) {
		cat := newFakeCatalog("ansong1")
		records := deck(
			card(types.SectionCrypt, 1, "Anson", "anson"),
			card(types.SectionCrypt, 1, "Anson (G1)", "ansong1"),
		)
		New(noLimits, cat).Validate(records)
		assert.Equal(t, []types.Status{types.StatusValid, types.StatusRejected}, statuses(records))
	})
}

// fixedRule returns the same finding for every record.
type fixedRule struct {
	name   string
	status types.Status
}

func (r fixedRule) Name() string { return r.name }

func (r fixedRule) Check(types.Record) []Finding {
	return []Finding{{Status: r.status, Reason: "always"}}
}

func TestValidate_RejectedIsTerminal(t *testing.T) {
	records := deck(card(types.SectionLibrary, 2, "Villein", "villein"))
	NewWithRules([]Rule{
		fixedRule{name: "first", status: types.StatusRejected},
		fixedRule{name: "second", status: types.StatusWarning},
	}, nil).Validate(records)

	assert.Equal(t, types.StatusRejected, records[0].Result.Status)
	assert.Equal(t, []string{"first: always", "second: always"}, records[0].Result.Reasons,
		"later findings still append reasons")
}

func TestValidate_RejectedRecordsAreNotDuplicates(t *testing.T) {
	for _, policy := range []types.DuplicatePolicy{types.DuplicateReject, types.DuplicateWarn} {
		t.Run(string(policy), func(t *testing.T) {
			cfg := noLimits
			cfg.Duplicates = policy

			records := deck(
				card(types.SectionLibrary, 0, "Villein", "villein"),
				card(types.SectionLibrary, 2, "Villein", "villein"),
			)
			res := New(cfg, nil).Validate(records)
			assert.Equal(t, []types.Status{types.StatusRejected, types.StatusValid}, statuses(records))
			assert.Equal(t, []string{"quantity: quantity 0 is below 1"}, records[0].Result.Reasons)
			assert.Empty(t, records[1].Result.Reasons)
			assert.Len(t, res.Failures, 1)

			reversed := deck(
				card(types.SectionLibrary, 2, "Villein", "villein"),
				card(types.SectionLibrary, 0, "Villein", "villein"),
			)
			New(cfg, nil).Validate(reversed)
			assert.Equal(t, []types.Status{types.StatusValid, types.StatusRejected}, statuses(reversed))
		})
	}
}

func TestValidate_SectionSize(t *testing.T) {
	cfg := types.ValidatorConfig{CryptMin: 12, LibraryMin: 60, LibraryMax: 90}

	t.Run("limits warn the section header", func(t *testing.T) {
		records := deck(
			types.SectionHeader{Section: types.SectionCrypt, Declared: 2},
			card(types.SectionCrypt, 2, "Anson", "anson"),
			types.SectionHeader{Section: types.SectionLibrary, Declared: 95},
			card(types.SectionLibrary, 95, "Blood Doll", "blooddoll"),
		)
		res := New(cfg, nil).Validate(records)

		assert.Equal(t, types.StatusWarning, records[0].Result.Status)
		assert.Equal(t, []string{"section-size: crypt has 2 cards, minimum is 12"}, records[0].Result.Reasons)
		assert.Equal(t, types.StatusWarning, records[2].Result.Status)
		assert.Contains(t, records[2].Result.Reasons[0], "maximum is 90")
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("declared count mismatch", func(t *testing.T) {
		records := deck(
			types.SectionHeader{Section: types.SectionLibrary, Declared: 5},
			types.SectionHeader{Section: types.SectionLibrary, Category: "Master", Declared: 3},
			card(types.SectionLibrary, 2, "Blood Doll", "blooddoll"),
			types.SectionHeader{Section: types.SectionLibrary, Category: "Action", Declared: 3},
			card(types.SectionLibrary, 3, "Govern the Unaligned", "governtheunaligned"),
		)
		New(types.ValidatorConfig{}, nil).Validate(records)

		assert.Equal(t, []types.Status{
			types.StatusValid,
			types.StatusWarning,
			types.StatusValid,
			types.StatusValid,
			types.StatusValid,
		}, statuses(records))
		assert.Equal(t, []string{"section-size: header declares 3 cards, 2 listed"}, records[1].Result.Reasons)
	})

	t.Run("rejected cards are not counted", func(t *testing.T) {
		records := deck(
			types.SectionHeader{Section: types.SectionCrypt, Declared: 2},
			card(types.SectionCrypt, 2, "Anson", "anson"),
			card(types.SectionCrypt, 1, "Anson", "anson"),
			types.SectionHeader{Section: types.SectionLibrary, Declared: 4},
			card(types.SectionLibrary, 4, "Blood Doll", "blooddoll"),
			card(types.SectionLibrary, 0, "Villein", "villein"),
		)
		New(noLimits, nil).Validate(records)

		assert.Equal(t, []types.Status{
			types.StatusValid,
			types.StatusValid,
			types.StatusRejected,
			types.StatusValid,
			types.StatusValid,
			types.StatusRejected,
		}, statuses(records))

		sum := types.Summarize(records, types.Summary{})
		assert.Equal(t, 2, sum.CryptCards)
		assert.Equal(t, 4, sum.LibraryCards)
	})

	t.Run("warned duplicates are counted", func(t *testing.T) {
		records := deck(
			types.SectionHeader{Section: types.SectionCrypt, Declared: 3},
			card(types.SectionCrypt, 2, "Anson", "anson"),
			card(types.SectionCrypt, 1, "Anson", "anson"),
		)
		New(types.ValidatorConfig{Duplicates: types.DuplicateWarn}, nil).Validate(records)

		assert.Equal(t, types.StatusValid, records[0].Result.Status)
		assert.Equal(t, 3, types.Summarize(records, types.Summary{}).CryptCards)
	})

	t.Run("missing header becomes a diagnostic", func(t *testing.T) {
		records := deck(card(types.SectionLibrary, 10, "Blood Doll", "blooddoll"))
		res := New(types.ValidatorConfig{LibraryMin: 60}, nil).Validate(records)

		assert.Equal(t, types.StatusValid, records[0].Result.Status)
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, Stage, res.Diagnostics[0].Stage)
		assert.True(t, strings.HasPrefix(res.Diagnostics[0].Message, "library: library has 10 cards"))
	})
}

func TestValidate_RuleOrderDoesNotChangeClassification(t *testing.T) {
	cat := newFakeCatalog("ansong1", "ansong2", "blooddoll")
	build := func() []types.Record {
		return deck(
			types.SectionHeader{Section: types.SectionCrypt, Declared: 3},
			card(types.SectionCrypt, 2, "Anson", "anson"),
			card(types.SectionCrypt, 1, "Anson", "anson"),
			types.SectionHeader{Section: types.SectionLibrary, Declared: -1},
			card(types.SectionLibrary, 0, "Blood Doll", "blooddoll"),
			card(types.SectionLibrary, 4, "Blood Doll", "blooddoll"),
			types.Unparsed{Text: "huh"},
		)
	}
	cfg := types.ValidatorConfig{CryptMin: 12, MaxCopies: 3}

	single := []Rule{unparsedRule{}, quantityRule{maxCopies: 3}, nameRule{}, catalogRule{catalog: cat}}
	cross := []CrossRule{
		duplicateRule{policy: types.DuplicateReject},
		sectionSizeRule{cryptMin: 12},
	}

	want := build()
	New(cfg, cat).Validate(want)

	reversedSingle := []Rule{single[3], single[2], single[1], single[0]}
	reversedCross := []CrossRule{cross[1], cross[0]}
	got := build()
	NewWithRules(reversedSingle, reversedCross).Validate(got)

	assert.Equal(t, statuses(want), statuses(got))
	for i := range want {
		assert.ElementsMatch(t, want[i].Result.Reasons, got[i].Result.Reasons, "record %d", i)
	}
}

func TestValidate_OnlyResultChanges(t *testing.T) {
	records := deck(card(types.SectionLibrary, 0, "Blood Doll", "blooddoll"), types.Unparsed{Text: "x"})
	before := make([]types.Entry, len(records))
	for i, r := range records {
		before[i] = r.Entry
	}
	New(noLimits, nil).Validate(records)
	for i, r := range records {
		assert.Equal(t, before[i], r.Entry)
		assert.Equal(t, i, r.Seq)
	}
}

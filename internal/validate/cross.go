// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"sort"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// duplicateRule finds card entries listed more than once in a section.
// Entries match on the resolved image name. Records already rejected by a
// single-record rule take no part.
type duplicateRule struct {
	policy types.DuplicatePolicy
}

func (duplicateRule) Name() string { return "duplicate" }

func (d duplicateRule) CheckAll(records []types.Record) ([]Finding, []types.Diagnostic) {
	var findings []Finding
	for _, members := range duplicateGroups(records) {
		first := members[0]
		for i, m := range members {
			switch {
			case d.policy == types.DuplicateWarn:
				c, _ := m.Card()
				findings = append(findings, Finding{
					Seq:    m.Seq,
					Status: types.StatusWarning,
					Reason: fmt.Sprintf("%q is listed %d times in the %s", imageOf(m, c), len(members), c.Section),
				})
			case i > 0:
				findings = append(findings, Finding{
					Seq:    m.Seq,
					Status: types.StatusRejected,
					Reason: fmt.Sprintf("duplicate of record %d (line %d)", first.Seq, first.Line),
				})
			}
		}
	}
	return findings, nil
}

// duplicateGroups returns the card records sharing a section and image name,
// in order of first appearance, each group sorted by Seq. Only groups of two
// or more are returned.
func duplicateGroups(records []types.Record) [][]types.Record {
	type key struct {
		section types.Section
		image   string
	}
	groups := make(map[key][]types.Record)
	var order []key
	for _, r := range records {
		c, ok := r.Card()
		if !ok || r.Result.Effective() == types.StatusRejected {
			continue
		}
		k := key{section: c.Section, image: imageOf(r, c)}
		if k.image == "" {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var out [][]types.Record
	for _, k := range order {
		members := groups[k]
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Seq < members[j].Seq })
		out = append(out, members)
	}
	return out
}

// rejectedDuplicates returns the Seq of every record the duplicate rule
// rejects under policy.
func rejectedDuplicates(records []types.Record, policy types.DuplicatePolicy) map[int]bool {
	out := map[int]bool{}
	if policy == types.DuplicateWarn {
		return out
	}
	for _, members := range duplicateGroups(records) {
		for _, m := range members[1:] {
			out[m.Seq] = true
		}
	}
	return out
}

func imageOf(r types.Record, c types.CardEntry) string {
	if r.Result.ImageName != "" {
		return r.Result.ImageName
	}
	return c.ImageName
}

// sectionSizeRule checks section totals against deck construction limits
// and against the counts printed on headers. A zero limit is not checked.
// Rejected cards, duplicates included, are not counted, matching the report
// summary.
type sectionSizeRule struct {
	cryptMin   int
	libraryMin int
	libraryMax int
	duplicates types.DuplicatePolicy
}

func (sectionSizeRule) Name() string { return "section-size" }

func (s sectionSizeRule) CheckAll(records []types.Record) ([]Finding, []types.Diagnostic) {
	totals := map[types.Section]int{}
	headers := map[types.Section][]types.Record{}
	dups := rejectedDuplicates(records, s.duplicates)

	// Cards counted under each header, up to the next header.
	under := map[int]int{}
	current := -1
	for _, r := range records {
		switch e := r.Entry.(type) {
		case types.SectionHeader:
			current = r.Seq
			under[current] = 0
			if e.Category == "" {
				headers[e.Section] = append(headers[e.Section], r)
			}
		case types.CardEntry:
			if r.Result.Effective() == types.StatusRejected || dups[r.Seq] {
				continue
			}
			totals[e.Section] += e.Quantity
			if current >= 0 {
				under[current] += e.Quantity
			}
		}
	}

	var findings []Finding
	var diags []types.Diagnostic

	for _, r := range records {
		h, ok := r.Entry.(types.SectionHeader)
		if !ok || h.Declared < 0 {
			continue
		}
		counted := under[r.Seq]
		if h.Category == "" {
			counted = totals[h.Section]
		}
		if counted != h.Declared {
			findings = append(findings, Finding{
				Seq:    r.Seq,
				Status: types.StatusWarning,
				Reason: fmt.Sprintf("header declares %d cards, %d listed", h.Declared, counted),
			})
		}
	}

	limit := func(sec types.Section, reason string) {
		if len(headers[sec]) == 0 {
			diags = append(diags, types.Diagnostic{Stage: Stage, Message: fmt.Sprintf("%s: %s", sec, reason)})
			return
		}
		findings = append(findings, Finding{Seq: headers[sec][0].Seq, Status: types.StatusWarning, Reason: reason})
	}

	if n := totals[types.SectionCrypt]; s.cryptMin > 0 && n < s.cryptMin {
		limit(types.SectionCrypt, fmt.Sprintf("crypt has %d cards, minimum is %d", n, s.cryptMin))
	}
	switch n := totals[types.SectionLibrary]; {
	case s.libraryMin > 0 && n < s.libraryMin:
		limit(types.SectionLibrary, fmt.Sprintf("library has %d cards, minimum is %d", n, s.libraryMin))
	case s.libraryMax > 0 && n > s.libraryMax:
		limit(types.SectionLibrary, fmt.Sprintf("library has %d cards, maximum is %d", n, s.libraryMax))
	}
	return findings, diags
}

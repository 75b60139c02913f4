// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse classifies normalized lines into deck-list records. Every
// line becomes exactly one record, except page furniture, which is dropped
// with a diagnostic. Lines that match no rule become Unparsed records.
package parse

import (
	"fmt"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// Stage names diagnostics produced here.
const Stage = "parse"

// Parser turns NormalizedLines into Records.
type Parser struct {
	cfg types.ParserConfig
}

// New creates a Parser. An empty start section means library.
func New(cfg types.ParserConfig) *Parser {
	if cfg.StartSection == "" {
		cfg.StartSection = types.SectionLibrary
	}
	return &Parser{cfg: cfg}
}

// Result is the output of Parse.
type Result struct {
	Records     []types.Record
	Diagnostics []types.Diagnostic

	// Ambiguities lists the lines that became Unparsed records.
	Ambiguities []*types.ParseAmbiguity

	// DroppedLines counts page furniture lines.
	DroppedLines int
}

// Parse classifies lines in order. Identical input yields identical
// records.
func (p *Parser) Parse(lines []types.NormalizedLine) Result {
	var res Result
	st := &state{section: p.cfg.StartSection}
	for _, line := range lines {
		if isNoise(line.Text) {
			res.DroppedLines++
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Stage:   Stage,
				Page:    line.Page,
				Message: fmt.Sprintf("line %d: dropped page furniture %q", line.Index, line.Text),
			})
			continue
		}

		entry := classify(st, line)
		if u, ok := entry.(types.Unparsed); ok {
			res.Ambiguities = append(res.Ambiguities, &types.ParseAmbiguity{Line: line.Index, Text: u.Text})
		}
		res.Records = append(res.Records, types.Record{
			Seq:    len(res.Records),
			Line:   line.Index,
			Page:   line.Page,
			Source: sources(line),
			Entry:  entry,
		})
	}
	return res
}

func classify(st *state, line types.NormalizedLine) types.Entry {
	for _, r := range rules {
		if e, ok := r(st, line); ok {
			return e
		}
	}
	return types.Unparsed{Text: line.Text}
}

// sources copies the line provenance. A line always has at least one
// fragment; the fallback keeps the record traceable to its page if a caller
// builds lines by hand.
func sources(line types.NormalizedLine) []types.FragmentRef {
	if len(line.Sources) == 0 {
		return []types.FragmentRef{{Page: line.Page, Seq: -1}}
	}
	return append([]types.FragmentRef(nil), line.Sources...)
}

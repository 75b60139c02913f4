// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate attaches a ValidationResult to every record. Single-record
// rules run first and only see the record they judge plus the card catalog.
// Cross-record rules run afterwards over the whole document; they classify
// by document order, never by the statuses earlier rules produced.
package validate

import (
	"fmt"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// Stage names diagnostics produced here.
const Stage = "validate"

// Catalog answers whether an image key is known. The validator never writes
// to it.
type Catalog interface {
	// Has reports whether key names a known card image.
	Has(key string) bool

	// Suggest returns the known card name closest to name, if any.
	Suggest(name string) (string, bool)
}

// GroupLister is implemented by catalogs that can list the crypt groups of
// a base key in one query. Other catalogs are asked for each group key.
type GroupLister interface {
	Groups(base string) ([]int, error)
}

// Finding is one rule outcome for one record.
type Finding struct {
	// Seq is the record the finding applies to. Single-record rules may
	// leave it zero; the validator fills it in.
	Seq    int
	Status types.Status
	Reason string

	// ImageName, when set, records the catalog-resolved image key.
	ImageName string
}

// Rule judges one record in isolation.
type Rule interface {
	Name() string
	Check(r types.Record) []Finding
}

// CrossRule judges the document as a whole. It may only return findings
// and diagnostics; the validator applies them.
type CrossRule interface {
	Name() string
	CheckAll(records []types.Record) ([]Finding, []types.Diagnostic)
}

// Validator runs the configured rules.
type Validator struct {
	single []Rule
	cross  []CrossRule
}

// New creates a Validator with the standard rule set. catalog may be nil,
// in which case catalog membership is not checked.
func New(cfg types.ValidatorConfig, catalog Catalog) *Validator {
	single := []Rule{
		unparsedRule{},
		quantityRule{maxCopies: cfg.MaxCopies},
		nameRule{},
	}
	if catalog != nil {
		single = append(single, catalogRule{catalog: catalog})
	}
	cross := []CrossRule{
		duplicateRule{policy: cfg.Duplicates},
		sectionSizeRule{
			cryptMin:   cfg.CryptMin,
			libraryMin: cfg.LibraryMin,
			libraryMax: cfg.LibraryMax,
			duplicates: cfg.Duplicates,
		},
	}
	return NewWithRules(single, cross)
}

// NewWithRules creates a Validator from explicit rule lists.
func NewWithRules(single []Rule, cross []CrossRule) *Validator {
	return &Validator{single: single, cross: cross}
}

// Result is the side output of Validate.
type Result struct {
	Diagnostics []types.Diagnostic
	Failures    []*types.ValidationFailure
}

// Validate fills in records[i].Result for every record. Only Result is
// modified.
func (v *Validator) Validate(records []types.Record) Result {
	var res Result
	for i := range records {
		rec := &records[i]
		if c, ok := rec.Card(); ok && rec.Result.ImageName == "" {
			rec.Result.ImageName = c.ImageName
		}
		for _, rule := range v.single {
			for _, f := range rule.Check(*rec) {
				f.Seq = rec.Seq
				apply(rec, rule.Name(), f, &res)
			}
		}
	}

	// Cross rules see the records as the single rules left them; each one
	// works on a snapshot so no cross rule observes another's findings.
	snapshot := append([]types.Record(nil), records...)
	bySeq := make(map[int]int, len(records))
	for i, r := range records {
		bySeq[r.Seq] = i
	}
	for _, rule := range v.cross {
		findings, diags := rule.CheckAll(snapshot)
		res.Diagnostics = append(res.Diagnostics, diags...)
		for _, f := range findings {
			i, ok := bySeq[f.Seq]
			if !ok {
				continue
			}
			apply(&records[i], rule.Name(), f, &res)
		}
	}

	for i := range records {
		if records[i].Result.Status == "" {
			records[i].Result.Status = types.StatusValid
		}
	}
	return res
}

func apply(rec *types.Record, rule string, f Finding, res *Result) {
	reason := f.Reason
	if reason != "" {
		reason = fmt.Sprintf("%s: %s", rule, reason)
	}
	rec.Result.Raise(f.Status, reason)
	if f.ImageName != "" {
		rec.Result.ImageName = f.ImageName
	}
	if f.Status == types.StatusRejected {
		res.Failures = append(res.Failures, &types.ValidationFailure{Rule: rule, Seq: rec.Seq, Reason: f.Reason})
	}
}

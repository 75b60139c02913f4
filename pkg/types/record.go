// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deckproxy pipeline:
// raw pages and fragments produced by the loader, normalized lines, parsed
// records, validation results, and the final report.
//
// Data flows strictly forward through the stages:
//
//	load -> normalize -> parse -> validate -> report
package types

import "fmt"

// Fragment is a positioned run of text extracted from a page before line
// grouping. Coordinates are PDF user-space points with the origin at the
// bottom-left corner of the page.
type Fragment struct {
	// Text is the fragment content as decoded from the page.
	Text string `json:"text" yaml:"text"`

	// X is the horizontal start of the fragment.
	X float64 `json:"x" yaml:"x"`

	// Y is the baseline of the fragment.
	Y float64 `json:"y" yaml:"y"`

	// Width is the horizontal extent of the fragment.
	Width float64 `json:"width" yaml:"width"`

	// FontSize is the effective font size in points.
	FontSize float64 `json:"font_size" yaml:"font_size"`

	// Seq is the fragment's position in the page content stream (0-based).
	Seq int `json:"seq" yaml:"seq"`
}

// RawPage is one page of loaded input. It is immutable once the loader
// returns it.
type RawPage struct {
	// Number is the 1-based page number.
	Number int `json:"number" yaml:"number"`

	// Fragments are the page fragments in content-stream order.
	Fragments []Fragment `json:"fragments" yaml:"fragments"`
}

// FragmentRef links derived data back to the fragment it came from.
type FragmentRef struct {
	Page int `json:"page" yaml:"page"`
	Seq  int `json:"seq" yaml:"seq"`
}

// String returns the reference as "p<page>#<seq>".
func (r FragmentRef) String() string {
	return fmt.Sprintf("p%d#%d", r.Page, r.Seq)
}

// NormalizedLine is one logical line of cleaned text.
type NormalizedLine struct {
	// Page is the page the line starts on.
	Page int `json:"page" yaml:"page"`

	// Index is the document-wide line index (0-based).
	Index int `json:"index" yaml:"index"`

	// Text is the whole line with whitespace collapsed.
	Text string `json:"text" yaml:"text"`

	// Columns splits Text at wide horizontal gaps, left to right.
	Columns []string `json:"columns" yaml:"columns"`

	// Sources are the fragments that make up the line.
	Sources []FragmentRef `json:"sources" yaml:"sources"`
}

// Kind identifies the variant held by a Record.
type Kind string

const (
	KindMetadata Kind = "metadata"
	KindSection  Kind = "section"
	KindCard     Kind = "card"
	KindUnparsed Kind = "unparsed"
)

// Section is the deck section a card belongs to.
type Section string

const (
	SectionLibrary Section = "library"
	SectionCrypt   Section = "crypt"
)

// Field is one named, typed value of a record. Value holds a string, an int,
// or a Section.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// Entry is the closed set of record schemas. The only implementations are
// Metadata, SectionHeader, CardEntry and Unparsed.
type Entry interface {
	// Kind reports which variant this is.
	Kind() Kind

	// Fields returns the variant's values in a fixed order.
	Fields() []Field

	isEntry()
}

// Metadata is a "Key: value" line describing the deck.
type Metadata struct {
	Key   string
	Value string
}

func (Metadata) Kind() Kind { return KindMetadata }

func (m Metadata) Fields() []Field {
	return []Field{
		{Name: "key", Value: m.Key},
		{Name: "value", Value: m.Value},
	}
}

func (Metadata) isEntry() {}

// SectionHeader opens a deck section ("Crypt (12 cards)") or a library card
// type group ("Master (15)"). Declared is the count printed on the header, or
// -1 when none is printed.
type SectionHeader struct {
	Section  Section
	Category string
	Declared int
}

func (SectionHeader) Kind() Kind { return KindSection }

func (h SectionHeader) Fields() []Field {
	return []Field{
		{Name: "section", Value: h.Section},
		{Name: "category", Value: h.Category},
		{Name: "declared", Value: h.Declared},
	}
}

func (SectionHeader) isEntry() {}

// CardEntry is one "<quantity> <card name>" line.
type CardEntry struct {
	Section  Section
	Category string
	Quantity int
	Name     string

	// ImageName is the lookup key derived from Name: lowercase, without
	// parentheses, whitespace or accents.
	ImageName string

	// Details holds any trailing columns (capacity, disciplines, clan).
	Details string
}

func (CardEntry) Kind() Kind { return KindCard }

func (c CardEntry) Fields() []Field {
	return []Field{
		{Name: "section", Value: c.Section},
		{Name: "category", Value: c.Category},
		{Name: "quantity", Value: c.Quantity},
		{Name: "name", Value: c.Name},
		{Name: "image_name", Value: c.ImageName},
		{Name: "details", Value: c.Details},
	}
}

func (CardEntry) isEntry() {}

// Unparsed carries a line that matched no parse rule.
type Unparsed struct {
	Text string
}

func (Unparsed) Kind() Kind { return KindUnparsed }

func (u Unparsed) Fields() []Field {
	return []Field{{Name: "text", Value: u.Text}}
}

func (Unparsed) isEntry() {}

// Record is one structured entity derived from one or more lines. Everything
// except Result is fixed when the parser creates it.
type Record struct {
	// Seq is the record's position in the document (0-based).
	Seq int `json:"seq" yaml:"seq"`

	// Line is the index of the first NormalizedLine of the record.
	Line int `json:"line" yaml:"line"`

	// Page is the page the record starts on.
	Page int `json:"page" yaml:"page"`

	// Source lists the fragments the record was built from. Never empty.
	Source []FragmentRef `json:"source" yaml:"source"`

	// Entry is the parsed variant.
	Entry Entry `json:"-" yaml:"-"`

	// Result is filled in by the validator.
	Result ValidationResult `json:"result" yaml:"result"`
}

// Kind is a shorthand for r.Entry.Kind().
func (r Record) Kind() Kind {
	if r.Entry == nil {
		return KindUnparsed
	}
	return r.Entry.Kind()
}

// Card returns the record's CardEntry and whether it holds one.
func (r Record) Card() (CardEntry, bool) {
	c, ok := r.Entry.(CardEntry)
	return c, ok
}

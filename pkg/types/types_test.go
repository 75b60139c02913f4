// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResultRaise(t *testing.T) {
	tests := []struct {
		name   string
		raises []Status
		want   Status
	}{
		{name: "no findings reads as valid", raises: nil, want: StatusValid},
		{name: "valid finding stays valid", raises: []Status{StatusValid}, want: StatusValid},
		{name: "warning escalates", raises: []Status{StatusValid, StatusWarning}, want: StatusWarning},
		{name: "rejected is terminal", raises: []Status{StatusRejected, StatusWarning, StatusValid}, want: StatusRejected},
		{name: "warning then rejected", raises: []Status{StatusWarning, StatusRejected}, want: StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v ValidationResult
			for _, s := range tt.raises {
				v.Raise(s, "reason "+string(s))
			}
			assert.Equal(t, tt.want, v.Effective())
			assert.Len(t, v.Reasons, len(tt.raises))
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Seq: 0, Entry: SectionHeader{Section: SectionCrypt, Declared: -1}},
		{Seq: 1, Entry: CardEntry{Section: SectionCrypt, Quantity: 3, Name: "Anson"}},
		{Seq: 2, Entry: CardEntry{Section: SectionLibrary, Quantity: 4, Name: "Blood Doll"},
			Result: ValidationResult{Status: StatusWarning}},
		{Seq: 3, Entry: CardEntry{Section: SectionLibrary, Quantity: 2, Name: "Blood Doll"},
			Result: ValidationResult{Status: StatusRejected}},
		{Seq: 4, Entry: Unparsed{Text: "???"}, Result: ValidationResult{Status: StatusWarning}},
	}

	got := Summarize(records, Summary{DroppedLines: 2})

	assert.Equal(t, Summary{
		Records:      5,
		Valid:        2,
		Warning:      2,
		Rejected:     1,
		Unparsed:     1,
		CryptCards:   3,
		LibraryCards: 4,
		DroppedLines: 2,
	}, got)
}

func TestEntryFieldsAreOrderedAndTyped(t *testing.T) {
	c := CardEntry{Section: SectionCrypt, Quantity: 2, Name: "Anson", ImageName: "anson"}
	fields := c.Fields()
	require.Len(t, fields, 6)
	assert.Equal(t, "section", fields[0].Name)
	assert.Equal(t, SectionCrypt, fields[0].Value)
	assert.Equal(t, 2, fields[2].Value)
	assert.Equal(t, KindCard, c.Kind())

	h := SectionHeader{Section: SectionLibrary, Category: "Master", Declared: 15}
	assert.Equal(t, 15, h.Fields()[2].Value)
	assert.Equal(t, KindSection, h.Kind())

	var r Record
	assert.Equal(t, KindUnparsed, r.Kind(), "a record without entry reads as unparsed")
}

func TestErrorsUnwrap(t *testing.T) {
	err := error(&LoadError{Source: "deck.pdf", Err: ErrNotPDF})
	assert.True(t, errors.Is(err, ErrNotPDF))
	assert.Equal(t, "load deck.pdf: not a PDF document", err.Error())

	err = &LoadError{Source: "deck.pdf", Page: 2, Err: ErrEncrypted}
	assert.Contains(t, err.Error(), "page 2")

	var we *WriteError
	err = error(&WriteError{Target: "out.csv", Format: "csv", Err: errors.New("disk full")})
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "out.csv", we.Target)

	ne := &NormalizationError{Ref: FragmentRef{Page: 1, Seq: 4}, Err: ErrMalformed}
	assert.Equal(t, "normalize fragment p1#4: malformed position metadata", ne.Error())
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, -1, cfg.Report.MaxRejected)
	assert.Equal(t, DuplicateReject, cfg.Validator.Duplicates)
	assert.Equal(t, 3, cfg.Proxy.Columns*cfg.Proxy.Rows/3)
	assert.False(t, cfg.Catalog.Enabled())
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by the stage errors below.
var (
	ErrNotPDF        = errors.New("not a PDF document")
	ErrEncrypted     = errors.New("encrypted PDF: missing or wrong password")
	ErrEmptyDocument = errors.New("document has no pages")
	ErrMalformed     = errors.New("malformed position metadata")
)

// LoadError is fatal: the input could not be turned into pages, and no
// record is produced.
type LoadError struct {
	Source string
	Page   int // 0 when the failure is not page-specific
	Err    error
}

func (e *LoadError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("load %s: page %d: %v", e.Source, e.Page, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NormalizationError describes one fragment the normalizer dropped. It is
// recoverable and ends up as a Diagnostic.
type NormalizationError struct {
	Ref FragmentRef
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize fragment %s: %v", e.Ref, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ParseAmbiguity describes a line that matched no parse rule. The parser
// turns it into an Unparsed record rather than dropping the line.
type ParseAmbiguity struct {
	Line int
	Text string
}

func (e *ParseAmbiguity) Error() string {
	return fmt.Sprintf("line %d: unrecognized structure %q", e.Line, e.Text)
}

// ValidationFailure is a rule that rejected a record. It never aborts a run.
type ValidationFailure struct {
	Rule   string
	Seq    int
	Reason string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("record %d: %s: %s", e.Seq, e.Rule, e.Reason)
}

// WriteError is fatal: the report sink could not be written.
type WriteError struct {
	Target string
	Format string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s report to %s: %v", e.Format, e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

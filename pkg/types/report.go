// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status classifies a validated record.
type Status string

const (
	StatusValid    Status = "valid"
	StatusWarning  Status = "warning"
	StatusRejected Status = "rejected"
)

// severity orders statuses so a result can only get worse.
func (s Status) severity() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusRejected:
		return 2
	default:
		return 0
	}
}

// ValidationResult is attached to exactly one Record.
type ValidationResult struct {
	// Status is valid, warning or rejected. The zero value reads as valid.
	Status Status `json:"status" yaml:"status"`

	// Reasons are human-readable findings in the order they were raised.
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`

	// ImageName is the catalog-resolved image key for card records. It may
	// differ from CardEntry.ImageName when a crypt group was resolved.
	ImageName string `json:"image_name,omitempty" yaml:"image_name,omitempty"`
}

// Effective returns the status, treating the zero value as valid.
func (v ValidationResult) Effective() Status {
	if v.Status == "" {
		return StatusValid
	}
	return v.Status
}

// Raise records a finding. The status only moves toward rejected; once
// rejected, a record stays rejected.
func (v *ValidationResult) Raise(s Status, reason string) {
	if s.severity() > v.Effective().severity() {
		v.Status = s
	} else if v.Status == "" {
		v.Status = StatusValid
	}
	if reason != "" {
		v.Reasons = append(v.Reasons, reason)
	}
}

// Diagnostic is a recoverable problem that did not produce a record, such as
// a dropped fragment or a merged hyphenation.
type Diagnostic struct {
	Stage   string `json:"stage" yaml:"stage"`
	Page    int    `json:"page" yaml:"page"`
	Message string `json:"message" yaml:"message"`
}

// Summary holds aggregate counts for a report.
type Summary struct {
	Records  int `json:"records" yaml:"records"`
	Valid    int `json:"valid" yaml:"valid"`
	Warning  int `json:"warning" yaml:"warning"`
	Rejected int `json:"rejected" yaml:"rejected"`
	Unparsed int `json:"unparsed" yaml:"unparsed"`

	// CryptCards and LibraryCards total the quantities of accepted
	// (non-rejected) card records per section.
	CryptCards   int `json:"crypt_cards" yaml:"crypt_cards"`
	LibraryCards int `json:"library_cards" yaml:"library_cards"`

	// DroppedFragments and DroppedLines count input discarded with a
	// diagnostic.
	DroppedFragments int `json:"dropped_fragments" yaml:"dropped_fragments"`
	DroppedLines     int `json:"dropped_lines" yaml:"dropped_lines"`
}

// Report is the terminal artifact of a pipeline run. It is not mutated after
// the reporter emits it.
type Report struct {
	// Source names the input (usually its path).
	Source string `json:"source" yaml:"source"`

	// Digest is the hex SHA-256 of the input bytes.
	Digest string `json:"digest" yaml:"digest"`

	// RunID is derived from Digest, so identical input gives the same ID.
	RunID string `json:"run_id" yaml:"run_id"`

	// Pages is the number of pages loaded.
	Pages int `json:"pages" yaml:"pages"`

	Records     []Record     `json:"records" yaml:"records"`
	Summary     Summary      `json:"summary" yaml:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Summarize computes the record counts of s from records. Dropped counts are
// left untouched.
func Summarize(records []Record, s Summary) Summary {
	s.Records = len(records)
	s.Valid, s.Warning, s.Rejected, s.Unparsed = 0, 0, 0, 0
	s.CryptCards, s.LibraryCards = 0, 0
	for _, r := range records {
		status := r.Result.Effective()
		switch status {
		case StatusValid:
			s.Valid++
		case StatusWarning:
			s.Warning++
		case StatusRejected:
			s.Rejected++
		}
		if r.Kind() == KindUnparsed {
			s.Unparsed++
		}
		if c, ok := r.Card(); ok && status != StatusRejected {
			switch c.Section {
			case SectionCrypt:
				s.CryptCards += c.Quantity
			case SectionLibrary:
				s.LibraryCards += c.Quantity
			}
		}
	}
	return s
}

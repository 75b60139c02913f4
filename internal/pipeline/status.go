// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/deckproxy/pkg/types"

// Termination is the outcome of a completed run.
type Termination string

const (
	// Success means every record is valid.
	Success Termination = "success"
	// Partial means some records carry warnings or rejections, within the
	// rejection threshold.
	Partial Termination = "partial"
	// Failure means more records were rejected than the threshold allows.
	Failure Termination = "failure"
)

// Exit codes returned by ExitCode.
const (
	ExitOK        = 0
	ExitFatal     = 1
	ExitThreshold = 2
)

// Status classifies a report. maxRejected below zero means any number of
// rejections is tolerated.
func Status(rep *types.Report, maxRejected int) Termination {
	s := rep.Summary
	switch {
	case maxRejected >= 0 && s.Rejected > maxRejected:
		return Failure
	case s.Warning > 0 || s.Rejected > 0:
		return Partial
	default:
		return Success
	}
}

// ExitCode maps a run outcome to a process exit status. A fatal error wins
// over any termination status.
func ExitCode(t Termination, err error) int {
	switch {
	case err != nil:
		return ExitFatal
	case t == Failure:
		return ExitThreshold
	default:
		return ExitOK
	}
}
